package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/MealMate/internal/imageutil"
	"github.com/BTreeMap/MealMate/internal/models"
)

// handleImage analyzes a food photo. It needs no profile and takes no user
// lock: the acknowledgement is pushed first, then the photo is fetched,
// normalized, optionally archived and sent to the vision model.
func (r *Router) handleImage(ctx context.Context, ev models.Event) error {
	if err := r.msg.Push(ctx, ev.UserID, models.TextMessage(TextImageAck)); err != nil {
		slog.Warn("Router.handleImage: acknowledgement push failed", "error", err, "user", ev.UserID)
	}

	text, err := r.analyzeImage(ctx, ev)
	if err != nil {
		slog.Error("Router.handleImage: analysis failed", "error", err, "user", ev.UserID, "content_id", ev.ContentID)
		text = TextImageFailed
	}
	if err := r.msg.Reply(ctx, ev.ReplyToken, models.TextMessage(text)); err != nil {
		slog.Error("Router.handleImage: reply failed", "error", err, "user", ev.UserID)
		return fmt.Errorf("failed to reply to %s: %w", ev.UserID, err)
	}
	return nil
}

func (r *Router) analyzeImage(ctx context.Context, ev models.Event) (string, error) {
	if r.gen == nil {
		return "", fmt.Errorf("no generation client configured")
	}
	raw, err := r.msg.FetchContent(ctx, ev.ContentID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	jpeg, err := imageutil.Compress(raw, r.maxImage)
	if err != nil {
		return "", fmt.Errorf("failed to normalize image: %w", err)
	}
	if r.archiver != nil {
		key, err := r.archiver.Archive(ctx, ev.UserID, r.now(), jpeg)
		if err != nil {
			slog.Warn("Router.analyzeImage: photo archive failed", "error", err, "user", ev.UserID)
		} else {
			slog.Debug("Router.analyzeImage: photo archived", "user", ev.UserID, "key", key)
		}
	}
	return r.gen.AnalyzeImage(ctx, VisionSystemPrompt, TextImageRequest, jpeg)
}
