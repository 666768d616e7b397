// Package messaging delivers Meal Mate messages over a chat platform and turns
// the platform's webhooks into models.Event values.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/BTreeMap/MealMate/internal/models"
)

const (
	// DefaultChannelBufferSize defines the default buffer size for receipt channels
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

var (
	// ErrInvalidSignature is returned when a webhook request fails authentication.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrServiceStopped is returned when sending after Stop.
	ErrServiceStopped = errors.New("messaging service stopped")
	// ErrNoMessages is returned when Reply or Push is called without messages.
	ErrNoMessages = errors.New("no messages to send")
	// ErrContentNotFound is returned when media content cannot be retrieved.
	ErrContentNotFound = errors.New("content not found")
)

// Service defines a pluggable message delivery abstraction.
type Service interface {
	// Reply answers an inbound event identified by its reply token.
	Reply(ctx context.Context, replyToken string, msgs ...models.Message) error

	// Push sends messages to a user outside a reply.
	Push(ctx context.Context, to string, msgs ...models.Message) error

	// FetchContent downloads the binary content of an inbound media message.
	FetchContent(ctx context.Context, contentID string) ([]byte, error)

	// EchoesSelections reports whether the platform posts a selected option's
	// label back into the chat as a text message.
	EchoesSelections() bool

	// Receipts returns a channel of receipt events for every delivery attempt.
	Receipts() <-chan models.Receipt

	// Stop stops the service and closes the receipt channel.
	Stop() error
}

// Transport is a Service that also authenticates and parses its platform's webhooks.
type Transport interface {
	Service

	// ParseWebhook verifies the request and returns the events it carries.
	// It returns ErrInvalidSignature when verification fails.
	ParseWebhook(r *http.Request) ([]models.Event, error)
}

// receiptStream is the receipt channel shared by the transports.
type receiptStream struct {
	receipts chan models.Receipt
	mu       sync.RWMutex
	stopped  bool
}

func newReceiptStream() *receiptStream {
	return &receiptStream{receipts: make(chan models.Receipt, DefaultChannelBufferSize)}
}

func (s *receiptStream) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

// emit records a delivery outcome without blocking the sender for long.
func (s *receiptStream) emit(to string, err error) {
	status := models.MessageStatusSent
	if err != nil {
		status = models.MessageStatusFailed
	}
	receipt := models.Receipt{To: to, Status: status, Time: time.Now().Unix()}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	select {
	case s.receipts <- receipt:
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("messaging.receiptStream: receipts channel blocked, dropping receipt", "to", to)
	}
}

// Receipts returns the channel for delivery receipts.
func (s *receiptStream) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Stop closes the receipt channel. It is safe to call more than once.
func (s *receiptStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.receipts)
	return nil
}
