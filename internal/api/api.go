// Package api wires the MealMate modules together and serves the chat webhook.
//
// It owns the HTTP listener: the platform webhook at a configurable path, the
// receipts listing and a health check. Inbound events are deduplicated against
// the event log before the conversation router sees them.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/MealMate/internal/flow"
	"github.com/BTreeMap/MealMate/internal/genai"
	"github.com/BTreeMap/MealMate/internal/imageutil"
	"github.com/BTreeMap/MealMate/internal/messaging"
	"github.com/BTreeMap/MealMate/internal/photoarchive"
	"github.com/BTreeMap/MealMate/internal/scheduler"
	"github.com/BTreeMap/MealMate/internal/store"
	"github.com/BTreeMap/MealMate/internal/twiliowhatsapp"
)

// Transports accepted by WithTransport.
const (
	TransportLINE   = "line"
	TransportTwilio = "twilio"
)

const (
	DefaultAddr        = ":8080"
	DefaultWebhookPath = "/"
	shutdownTimeout    = 10 * time.Second
)

// ErrUnknownTransport is returned by Run for a transport name it does not know.
var ErrUnknownTransport = errors.New("unknown transport")

// Opts holds configuration options for the API server.
type Opts struct {
	Addr             string
	WebhookPath      string
	Transport        string
	WebhookPublicURL string
	Location         *time.Location
	MaxImageBytes    int
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithWebhookPath sets the path the chat platform posts to.
func WithWebhookPath(path string) Option {
	return func(o *Opts) { o.WebhookPath = path }
}

// WithTransport selects the chat platform, "line" or "twilio".
func WithTransport(name string) Option {
	return func(o *Opts) { o.Transport = name }
}

// WithWebhookPublicURL sets the public webhook URL Twilio signs requests against.
func WithWebhookPublicURL(url string) Option {
	return func(o *Opts) { o.WebhookPublicURL = url }
}

// WithLocation sets the zone where tracking days start and end.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// WithMaxImageBytes sets the size ceiling for normalized food photos.
func WithMaxImageBytes(n int) Option {
	return func(o *Opts) { o.MaxImageBytes = n }
}

func (o *Opts) applyDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.WebhookPath == "" {
		o.WebhookPath = DefaultWebhookPath
	}
	if o.Transport == "" {
		o.Transport = TransportLINE
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = imageutil.DefaultMaxBytes
	}
}

// Server handles the HTTP surface of MealMate.
type Server struct {
	transport   messaging.Transport
	router      *flow.Router
	st          store.Store
	users       *store.UserStore
	webhookPath string
	started     time.Time
}

// NewServer creates a server around an already wired router.
func NewServer(transport messaging.Transport, router *flow.Router, st store.Store, users *store.UserStore, webhookPath string) *Server {
	if webhookPath == "" {
		webhookPath = DefaultWebhookPath
	}
	return &Server{
		transport:   transport,
		router:      router,
		st:          st,
		users:       users,
		webhookPath: webhookPath,
		started:     time.Now(),
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.webhookPath, s.webhookHandler)
	if s.webhookPath != "/receipts" {
		mux.HandleFunc("/receipts", s.receiptsHandler)
	}
	if s.webhookPath != "/health" {
		mux.HandleFunc("/health", s.healthHandler)
	}
	return mux
}

// drainReceipts copies delivery receipts into the event log until the
// transport is stopped.
func (s *Server) drainReceipts() {
	for r := range s.transport.Receipts() {
		if err := s.st.AddReceipt(r); err != nil {
			slog.Error("Server.drainReceipts: failed to record receipt", "error", err, "to", r.To)
		}
	}
	slog.Debug("Server.drainReceipts: receipt stream closed")
}

// Run builds every module from its options, serves until SIGINT or SIGTERM and
// then shuts down in reverse order.
func Run(lineOpts []messaging.LineOption, twilioOpts []twiliowhatsapp.Option, storeOpts []store.Option, genaiOpts []genai.Option, archiveOpts []photoarchive.Option, apiOpts []Option) error {
	cfg := Opts{}
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	cfg.applyDefaults()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer st.Close()

	transport, err := newTransport(cfg, lineOpts, twilioOpts)
	if err != nil {
		return err
	}
	defer transport.Stop()

	gen := newGenerator(ctx, genaiOpts)
	if closer, ok := gen.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	flowOpts := []flow.Option{flow.WithLocation(cfg.Location), flow.WithMaxImageBytes(cfg.MaxImageBytes)}
	if archiver := newArchiver(ctx, archiveOpts); archiver != nil {
		flowOpts = append(flowOpts, flow.WithPhotoArchiver(archiver))
	}

	users := store.NewUserStore()
	router := flow.NewRouter(users, transport, gen, flowOpts...)

	sched := scheduler.NewScheduler(scheduler.WithLocation(cfg.Location))
	defer sched.Stop()
	if err := sched.AddJob(scheduler.Midnight, func() {
		n, err := router.RolloverAll(context.Background())
		if err != nil {
			slog.Error("api.Run: midnight rollover failed", "error", err)
			return
		}
		slog.Info("api.Run: midnight rollover done", "users", n)
	}); err != nil {
		return fmt.Errorf("failed to schedule midnight rollover: %w", err)
	}

	server := NewServer(transport, router, st, users, cfg.WebhookPath)
	go server.drainReceipts()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("MealMate API listening", "addr", cfg.Addr, "webhook_path", cfg.WebhookPath, "transport", cfg.Transport)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("api.Run: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown failed: %w", err)
	}
	return nil
}

func newTransport(cfg Opts, lineOpts []messaging.LineOption, twilioOpts []twiliowhatsapp.Option) (messaging.Transport, error) {
	switch cfg.Transport {
	case TransportLINE:
		svc, err := messaging.NewLineService(lineOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create LINE transport: %w", err)
		}
		return svc, nil
	case TransportTwilio:
		client, err := twiliowhatsapp.NewClient(twilioOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		if cfg.WebhookPublicURL == "" {
			slog.Warn("api.newTransport: WEBHOOK_PUBLIC_URL not set, Twilio signatures will not verify")
		}
		return messaging.NewTwilioService(client, cfg.WebhookPublicURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, cfg.Transport)
	}
}

// newGenerator returns nil when no backend can be built; the conversation then
// answers generation requests with its fallback texts.
func newGenerator(ctx context.Context, opts []genai.Option) genai.ClientInterface {
	gen, err := genai.New(ctx, opts...)
	if err != nil {
		slog.Warn("api.newGenerator: generation disabled", "error", err)
		return nil
	}
	return gen
}

// newArchiver returns nil when no bucket is configured or the AWS config fails to load.
func newArchiver(ctx context.Context, opts []photoarchive.Option) flow.PhotoArchiver {
	a, err := photoarchive.New(ctx, opts...)
	if errors.Is(err, photoarchive.ErrBucketNotSet) {
		slog.Debug("api.newArchiver: photo archive disabled")
		return nil
	}
	if err != nil {
		slog.Warn("api.newArchiver: photo archive unavailable", "error", err)
		return nil
	}
	return a
}
