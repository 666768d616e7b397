// Package models defines the core data structures for MealMate.
//
// It includes inbound chat events, outbound message descriptions, delivery receipts
// and the per-user conversation state shared across modules.
package models

import "errors"

// EventKind identifies the kind of inbound chat event.
type EventKind string

const (
	// EventFollow is a first-contact event (user added the bot).
	EventFollow EventKind = "follow"
	// EventText is a free-text message.
	EventText EventKind = "text"
	// EventPostback is a button or carousel selection.
	EventPostback EventKind = "postback"
	// EventImage is a photo message.
	EventImage EventKind = "image"
)

// Error variables for event validation
var (
	ErrEmptyUserID   = errors.New("event user id cannot be empty")
	ErrUnknownKind   = errors.New("unknown event kind")
	ErrEmptyText     = errors.New("text event has no text")
	ErrEmptyImageRef = errors.New("image event has no content reference")
)

// Event is a transport-neutral inbound chat event.
// Postback data is decoded into Action once, at the transport boundary.
type Event struct {
	ID         string    `json:"id"`          // platform event id, used for redelivery dedup
	Kind       EventKind `json:"kind"`        // event kind
	UserID     string    `json:"user_id"`     // platform user identity
	ReplyToken string    `json:"reply_token"` // reply handle, valid for one reply
	Text       string    `json:"text,omitempty"`
	Action     Action    `json:"action,omitempty"`
	ContentID  string    `json:"content_id,omitempty"` // image content reference
}

// Validate checks that the event carries what its kind requires.
func (e Event) Validate() error {
	if e.UserID == "" {
		return ErrEmptyUserID
	}
	switch e.Kind {
	case EventFollow, EventPostback:
		return nil
	case EventText:
		if e.Text == "" {
			return ErrEmptyText
		}
		return nil
	case EventImage:
		if e.ContentID == "" {
			return ErrEmptyImageRef
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

// MessageStatus represents the delivery status of an outbound message.
type MessageStatus string

const (
	// MessageStatusSent indicates the message was sent.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusFailed indicates the message failed to send.
	MessageStatusFailed MessageStatus = "failed"
)

// Receipt records one outbound reply or push.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
