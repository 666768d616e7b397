package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/BTreeMap/MealMate/internal/models"
)

// MaxLineMessages is the number of messages LINE accepts in one reply or push.
const MaxLineMessages = 5

// lineAPI is the subset of the LINE Messaging API the service uses.
type lineAPI interface {
	Reply(ctx context.Context, req *messaging_api.ReplyMessageRequest) error
	Push(ctx context.Context, req *messaging_api.PushMessageRequest) error
	Content(ctx context.Context, messageID string) (io.ReadCloser, error)
}

// sdkLineAPI adapts the generated SDK clients to lineAPI.
type sdkLineAPI struct {
	api  *messaging_api.MessagingApiAPI
	blob *messaging_api.MessagingApiBlobAPI
}

func (s *sdkLineAPI) Reply(ctx context.Context, req *messaging_api.ReplyMessageRequest) error {
	_, err := s.api.WithContext(ctx).ReplyMessage(req)
	return err
}

func (s *sdkLineAPI) Push(ctx context.Context, req *messaging_api.PushMessageRequest) error {
	_, err := s.api.WithContext(ctx).PushMessage(req, uuid.NewString())
	return err
}

func (s *sdkLineAPI) Content(ctx context.Context, messageID string) (io.ReadCloser, error) {
	resp, err := s.blob.WithContext(ctx).GetMessageContent(messageID)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// LineOpts holds configuration for the LINE transport.
type LineOpts struct {
	ChannelSecret string
	ChannelToken  string
	MaxContent    int64
}

// LineOption configures the LINE transport.
type LineOption func(*LineOpts)

// WithChannelSecret sets the secret used to verify webhook signatures.
func WithChannelSecret(secret string) LineOption {
	return func(o *LineOpts) { o.ChannelSecret = secret }
}

// WithChannelToken sets the channel access token used for API calls.
func WithChannelToken(token string) LineOption {
	return func(o *LineOpts) { o.ChannelToken = token }
}

// WithMaxContentBytes caps the size of downloaded media.
func WithMaxContentBytes(n int64) LineOption {
	return func(o *LineOpts) { o.MaxContent = n }
}

// DefaultMaxContentBytes bounds media downloads when no cap is configured.
const DefaultMaxContentBytes = 50 * 1024 * 1024

// LineService implements Transport for the LINE Messaging API.
type LineService struct {
	*receiptStream
	secret     string
	client     lineAPI
	maxContent int64
}

// Compile-time check that LineService implements Transport.
var _ Transport = (*LineService)(nil)

// NewLineService creates a LINE transport.
func NewLineService(opts ...LineOption) (*LineService, error) {
	cfg := LineOpts{MaxContent: DefaultMaxContentBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ChannelSecret == "" || cfg.ChannelToken == "" {
		return nil, fmt.Errorf("LINE channel secret and token must be provided")
	}
	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE messaging client: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE blob client: %w", err)
	}
	slog.Debug("LineService created", "max_content", cfg.MaxContent)
	return newLineService(cfg, &sdkLineAPI{api: api, blob: blob}), nil
}

func newLineService(cfg LineOpts, client lineAPI) *LineService {
	if cfg.MaxContent <= 0 {
		cfg.MaxContent = DefaultMaxContentBytes
	}
	return &LineService{
		receiptStream: newReceiptStream(),
		secret:        cfg.ChannelSecret,
		client:        client,
		maxContent:    cfg.MaxContent,
	}
}

// EchoesSelections is true: a postback action with display text posts that
// text into the chat.
func (s *LineService) EchoesSelections() bool {
	return true
}

// Reply answers an event using its reply token.
func (s *LineService) Reply(ctx context.Context, replyToken string, msgs ...models.Message) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	rendered, err := renderLineMessages(msgs)
	if err != nil {
		return err
	}
	err = s.client.Reply(ctx, &messaging_api.ReplyMessageRequest{ReplyToken: replyToken, Messages: rendered})
	s.emit(replyToken, err)
	if err != nil {
		slog.Error("LineService.Reply: reply failed", "error", err, "count", len(rendered))
		return fmt.Errorf("LINE reply failed: %w", err)
	}
	slog.Debug("LineService.Reply: reply sent", "count", len(rendered))
	return nil
}

// Push sends messages to a user id.
func (s *LineService) Push(ctx context.Context, to string, msgs ...models.Message) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	rendered, err := renderLineMessages(msgs)
	if err != nil {
		return err
	}
	err = s.client.Push(ctx, &messaging_api.PushMessageRequest{To: to, Messages: rendered})
	s.emit(to, err)
	if err != nil {
		slog.Error("LineService.Push: push failed", "error", err, "to", to)
		return fmt.Errorf("LINE push to %s failed: %w", to, err)
	}
	slog.Debug("LineService.Push: push sent", "to", to, "count", len(rendered))
	return nil
}

// FetchContent downloads an image sent by a user.
func (s *LineService) FetchContent(ctx context.Context, contentID string) ([]byte, error) {
	body, err := s.client.Content(ctx, contentID)
	if err != nil {
		slog.Error("LineService.FetchContent: download failed", "error", err, "content_id", contentID)
		return nil, fmt.Errorf("%w: %v", ErrContentNotFound, err)
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, s.maxContent+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read content %s: %w", contentID, err)
	}
	if int64(len(data)) > s.maxContent {
		return nil, fmt.Errorf("content %s exceeds %d bytes", contentID, s.maxContent)
	}
	return data, nil
}

// ParseWebhook verifies the X-Line-Signature header and converts the callback
// into events. Events from non-user sources and unsupported message types are skipped.
func (s *LineService) ParseWebhook(r *http.Request) ([]models.Event, error) {
	cb, err := webhook.ParseRequest(s.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("failed to parse LINE webhook: %w", err)
	}
	events := make([]models.Event, 0, len(cb.Events))
	for _, raw := range cb.Events {
		ev, ok := convertLineEvent(raw)
		if !ok {
			slog.Debug("LineService.ParseWebhook: skipping unsupported event", "type", fmt.Sprintf("%T", raw))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func lineUserID(src webhook.SourceInterface) string {
	if u, ok := src.(webhook.UserSource); ok {
		return u.UserId
	}
	return ""
}

func convertLineEvent(raw webhook.EventInterface) (models.Event, bool) {
	var ev models.Event
	switch e := raw.(type) {
	case webhook.FollowEvent:
		ev = models.Event{ID: e.WebhookEventId, Kind: models.EventFollow, UserID: lineUserID(e.Source), ReplyToken: e.ReplyToken}
	case webhook.PostbackEvent:
		ev = models.Event{ID: e.WebhookEventId, Kind: models.EventPostback, UserID: lineUserID(e.Source), ReplyToken: e.ReplyToken}
		if e.Postback != nil {
			ev.Action = models.ParseAction(e.Postback.Data)
		}
	case webhook.MessageEvent:
		ev = models.Event{ID: e.WebhookEventId, UserID: lineUserID(e.Source), ReplyToken: e.ReplyToken}
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			ev.Kind = models.EventText
			ev.Text = m.Text
		case webhook.ImageMessageContent:
			ev.Kind = models.EventImage
			ev.ContentID = m.Id
		default:
			return models.Event{}, false
		}
	default:
		return models.Event{}, false
	}
	if ev.UserID == "" {
		return models.Event{}, false
	}
	return ev, true
}

// renderLineMessages converts outbound messages into LINE message objects.
func renderLineMessages(msgs []models.Message) ([]messaging_api.MessageInterface, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	if len(msgs) > MaxLineMessages {
		return nil, fmt.Errorf("LINE accepts at most %d messages, got %d", MaxLineMessages, len(msgs))
	}
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, renderLineMessage(m))
	}
	return out, nil
}

func renderLineMessage(m models.Message) messaging_api.MessageInterface {
	switch m.Kind {
	case models.MessageButtons:
		return &messaging_api.TemplateMessage{
			AltText: m.AltText,
			Template: &messaging_api.ButtonsTemplate{
				Title:   m.Title,
				Text:    m.Text,
				Actions: lineActions(m.Choices),
			},
		}
	case models.MessageConfirm:
		return &messaging_api.TemplateMessage{
			AltText: m.AltText,
			Template: &messaging_api.ConfirmTemplate{
				Text:    m.Text,
				Actions: lineActions(m.Choices),
			},
		}
	case models.MessageCarousel:
		columns := make([]messaging_api.CarouselColumn, 0, len(m.Choices))
		for _, c := range m.Choices {
			columns = append(columns, messaging_api.CarouselColumn{
				ThumbnailImageUrl: c.ThumbnailURL,
				Title:             c.Title,
				Text:              c.Description,
				Actions:           lineActions([]models.Choice{c}),
			})
		}
		return &messaging_api.TemplateMessage{
			AltText:  m.AltText,
			Template: &messaging_api.CarouselTemplate{Columns: columns},
		}
	}
	return &messaging_api.TextMessage{Text: m.Text}
}

func lineActions(choices []models.Choice) []messaging_api.ActionInterface {
	actions := make([]messaging_api.ActionInterface, 0, len(choices))
	for _, c := range choices {
		actions = append(actions, &messaging_api.PostbackAction{
			Label: c.Label,
			Data:  c.Action.Data(),
			Text:  c.Echo,
		})
	}
	return actions
}
