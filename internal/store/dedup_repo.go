// Package store provides the DedupRepo interface for inbound webhook deduplication.
package store

import (
	"time"
)

// DedupRecord represents an inbound webhook event deduplication record.
type DedupRecord struct {
	MessageID   string     `json:"message_id"`
	UserID      string     `json:"user_id"`
	ReceivedAt  time.Time  `json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// DedupRepo defines the interface for inbound event deduplication.
// Chat platforms redeliver webhooks they consider unacknowledged; the platform event
// id is recorded so a redelivery is not applied to the conversation twice.
type DedupRepo interface {
	// IsDuplicate checks if an event ID has already been recorded.
	IsDuplicate(messageID string) (bool, error)

	// RecordInbound inserts a new inbound event record. Returns false if the
	// event was already recorded (duplicate).
	RecordInbound(messageID, userID string) (bool, error)

	// MarkProcessed sets the processed_at timestamp for an event.
	MarkProcessed(messageID string) error
}
