// Package photoarchive stores analyzed food photos in S3.
package photoarchive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/BTreeMap/MealMate/internal/models"
)

// KeyPrefix is the top-level folder of archived photos.
const KeyPrefix = "meals"

// ErrBucketNotSet is returned when no bucket is configured.
var ErrBucketNotSet = errors.New("photo archive bucket not set")

// objectPutter is the part of *s3.Client the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Opts holds archiver configuration.
type Opts struct {
	Bucket string
	Region string
}

// Option configures the archiver.
type Option func(*Opts)

// WithBucket sets the destination bucket.
func WithBucket(bucket string) Option {
	return func(o *Opts) { o.Bucket = bucket }
}

// WithRegion overrides the region from the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *Opts) { o.Region = region }
}

// S3Archiver uploads JPEG photos under meals/<user>/<date>/<uuid>.jpg.
type S3Archiver struct {
	client objectPutter
	bucket string
	newID  func() string
}

// New loads the default AWS configuration and creates an archiver.
func New(ctx context.Context, opts ...Option) (*S3Archiver, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Bucket == "" {
		return nil, ErrBucketNotSet
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	slog.Debug("photoarchive.New: S3 client initialized", "bucket", cfg.Bucket, "region", awsCfg.Region)
	return newArchiver(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

func newArchiver(client objectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, newID: uuid.NewString}
}

// Key builds the object key for a photo.
func Key(userID string, day time.Time, id string) string {
	return path.Join(KeyPrefix, userID, day.Format(models.TrackingDateLayout), id+".jpg")
}

// Archive uploads the photo and returns its object key.
func (a *S3Archiver) Archive(ctx context.Context, userID string, day time.Time, jpeg []byte) (string, error) {
	key := Key(userID, day, a.newID())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jpeg),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		slog.Error("S3Archiver.Archive: upload failed", "error", err, "key", key)
		return "", fmt.Errorf("failed to upload photo to S3: %w", err)
	}
	slog.Debug("S3Archiver.Archive: photo uploaded", "key", key, "bytes", len(jpeg))
	return key, nil
}
