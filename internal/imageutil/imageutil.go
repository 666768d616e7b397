// Package imageutil normalizes chat photos into JPEG under a size ceiling.
package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
)

// Quality steps used while searching for an encoding under the ceiling.
const (
	StartQuality = 95
	QualityStep  = 5
	MinQuality   = 5
)

// DefaultMaxBytes is the default size ceiling (10 MiB).
const DefaultMaxBytes = 10 * 1024 * 1024

// ErrUnsupportedFormat is returned when the bytes are not a decodable image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Compress re-encodes an image as JPEG, lowering quality until the result fits
// in maxBytes or the minimum quality is reached. Transparent pixels are flattened
// onto white. A non-positive maxBytes uses DefaultMaxBytes.
func Compress(data []byte, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	flat := flatten(img)

	var out bytes.Buffer
	quality := StartQuality
	for {
		out.Reset()
		if err := jpeg.Encode(&out, flat, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		if out.Len() <= maxBytes || quality <= MinQuality {
			break
		}
		quality -= QualityStep
	}
	slog.Debug("imageutil.Compress: image normalized",
		"source_format", format, "source_bytes", len(data), "jpeg_bytes", out.Len(), "quality", quality)
	return out.Bytes(), nil
}

// flatten draws img over an opaque white canvas.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, b, img, b.Min, draw.Over)
	return canvas
}
