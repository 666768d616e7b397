// Package api provides HTTP handlers for MealMate endpoints.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/MealMate/internal/messaging"
	"github.com/BTreeMap/MealMate/internal/models"
)

// webhookResult summarizes one webhook delivery.
type webhookResult struct {
	Received   int `json:"received"`
	Handled    int `json:"handled"`
	Duplicates int `json:"duplicates"`
}

// webhookHandler accepts a platform callback and runs each event through the router.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.webhookHandler: processing callback", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	events, err := s.transport.ParseWebhook(r)
	if errors.Is(err, messaging.ErrInvalidSignature) {
		slog.Warn("Server.webhookHandler: invalid signature", "remote", r.RemoteAddr)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid signature"))
		return
	}
	if err != nil {
		slog.Warn("Server.webhookHandler: failed to parse callback", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}

	// Replies must go out even if the platform drops the connection.
	ctx := context.WithoutCancel(r.Context())
	result := webhookResult{Received: len(events)}
	for _, ev := range events {
		if s.handleOnce(ctx, ev) {
			result.Handled++
		} else {
			result.Duplicates++
		}
	}
	slog.Debug("Server.webhookHandler: callback done", "received", result.Received, "handled", result.Handled, "duplicates", result.Duplicates)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// handleOnce routes ev unless its id was already seen. It reports whether the
// event was routed. If the event log fails the event is routed anyway.
func (s *Server) handleOnce(ctx context.Context, ev models.Event) bool {
	recorded := false
	if ev.ID != "" {
		fresh, err := s.st.RecordInbound(ev.ID, ev.UserID)
		switch {
		case err != nil:
			slog.Error("Server.handleOnce: dedup lookup failed, routing anyway", "error", err, "event_id", ev.ID)
		case !fresh:
			slog.Info("Server.handleOnce: skipping redelivered event", "event_id", ev.ID, "user_id", ev.UserID)
			return false
		default:
			recorded = true
		}
	}

	if err := s.router.HandleEvent(ctx, ev); err != nil {
		slog.Error("Server.handleOnce: event handling failed", "error", err, "event_id", ev.ID, "kind", ev.Kind, "user_id", ev.UserID)
	}

	if recorded {
		if err := s.st.MarkProcessed(ev.ID); err != nil {
			slog.Warn("Server.handleOnce: failed to mark event processed", "error", err, "event_id", ev.ID)
		}
	}
	return true
}

func (s *Server) receiptsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.receiptsHandler: processing receipts request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	receipts, err := s.st.GetReceipts()
	if err != nil {
		slog.Error("Server.receiptsHandler: failed to fetch receipts", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch receipts"))
		return
	}
	slog.Debug("Server.receiptsHandler: receipts fetched", "count", len(receipts))
	writeJSONResponse(w, http.StatusOK, models.Success(receipts))
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	healthData := map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"users":          len(s.users.UserIDs()),
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}
