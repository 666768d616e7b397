package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/twiliowhatsapp"
)

// TwilioMenuFooter closes every numbered option menu.
const TwilioMenuFooter = "請回覆選項編號"

// TwilioService implements Transport over Twilio WhatsApp. WhatsApp has no
// template buttons, so selection prompts are sent as numbered menus and a
// reply naming an option is turned back into a postback event.
type TwilioService struct {
	*receiptStream
	client     twiliowhatsapp.Sender
	webhookURL string

	mu    sync.Mutex
	menus map[string][]models.Choice
}

// Compile-time check that TwilioService implements Transport.
var _ Transport = (*TwilioService)(nil)

// NewTwilioService creates a Twilio transport. webhookURL is the public URL
// Twilio posts to; it is part of the signed payload.
func NewTwilioService(client twiliowhatsapp.Sender, webhookURL string) *TwilioService {
	return &TwilioService{
		receiptStream: newReceiptStream(),
		client:        client,
		webhookURL:    webhookURL,
		menus:         make(map[string][]models.Choice),
	}
}

// EchoesSelections is false: a menu answer arrives once, as the postback.
func (s *TwilioService) EchoesSelections() bool {
	return false
}

// Reply sends to the address carried as the reply token. Twilio has no reply
// tokens, so inbound events use the sender's address.
func (s *TwilioService) Reply(ctx context.Context, replyToken string, msgs ...models.Message) error {
	return s.Push(ctx, replyToken, msgs...)
}

// Push sends each message as one WhatsApp text.
func (s *TwilioService) Push(ctx context.Context, to string, msgs ...models.Message) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	if len(msgs) == 0 {
		return ErrNoMessages
	}
	for _, m := range msgs {
		err := s.client.SendMessage(ctx, to, renderTwilioText(m))
		s.emit(to, err)
		if err != nil {
			slog.Error("TwilioService.Push: send failed", "error", err, "to", to)
			return fmt.Errorf("twilio send to %s failed: %w", to, err)
		}
		if len(m.Choices) > 0 {
			s.rememberMenu(to, m.Choices)
		}
	}
	slog.Debug("TwilioService.Push: messages sent", "to", to, "count", len(msgs))
	return nil
}

// FetchContent downloads media; the content id is the Twilio media URL.
func (s *TwilioService) FetchContent(ctx context.Context, contentID string) ([]byte, error) {
	data, err := s.client.FetchMedia(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentNotFound, err)
	}
	return data, nil
}

// ParseWebhook validates the form post and converts it into one event.
func (s *TwilioService) ParseWebhook(r *http.Request) ([]models.Event, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse Twilio webhook form: %w", err)
	}
	params := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	if !s.client.ValidateSignature(s.webhookURL, params, r.Header.Get("X-Twilio-Signature")) {
		return nil, ErrInvalidSignature
	}

	from := strings.TrimPrefix(params["From"], twiliowhatsapp.AddressPrefix)
	if from == "" {
		return nil, fmt.Errorf("twilio webhook missing From")
	}
	id := params["MessageSid"]
	if id == "" {
		id = uuid.NewString()
	}
	ev := models.Event{ID: id, UserID: from, ReplyToken: from}

	if n, _ := strconv.Atoi(params["NumMedia"]); n > 0 && strings.HasPrefix(params["MediaContentType0"], "image/") {
		ev.Kind = models.EventImage
		ev.ContentID = params["MediaUrl0"]
		return []models.Event{ev}, nil
	}

	body := strings.TrimSpace(params["Body"])
	if body == "" {
		slog.Debug("TwilioService.ParseWebhook: ignoring empty message", "from", from)
		return nil, nil
	}
	if action, ok := s.resolveMenu(from, body); ok {
		ev.Kind = models.EventPostback
		ev.Action = action
		return []models.Event{ev}, nil
	}
	ev.Kind = models.EventText
	ev.Text = body
	return []models.Event{ev}, nil
}

// rememberMenu stores the options of the last menu sent to a user. Plain
// messages in between, such as photo results, leave it in place; it is
// replaced by the next menu or consumed by an answer.
func (s *TwilioService) rememberMenu(to string, choices []models.Choice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[to] = append([]models.Choice(nil), choices...)
}

// resolveMenu maps an option number or caption to the menu's action.
func (s *TwilioService) resolveMenu(from, body string) (models.Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	menu := s.menus[from]
	if len(menu) == 0 {
		return models.Action{}, false
	}
	pick := -1
	if n, err := strconv.Atoi(body); err == nil && n >= 1 && n <= len(menu) {
		pick = n - 1
	} else {
		for i, c := range menu {
			if body == optionCaption(c) || body == c.Echo || body == c.Action.Label() {
				pick = i
				break
			}
		}
	}
	if pick < 0 {
		return models.Action{}, false
	}
	delete(s.menus, from)
	return menu[pick].Action, true
}

func optionCaption(c models.Choice) string {
	if c.Title != "" {
		return c.Title
	}
	return c.Label
}

// renderTwilioText flattens a message into plain text with a numbered menu.
func renderTwilioText(m models.Message) string {
	if len(m.Choices) == 0 {
		return m.Text
	}
	var lines []string
	for _, header := range []string{m.Title, m.Text} {
		if header != "" {
			lines = append(lines, header)
		}
	}
	if len(lines) == 0 && m.AltText != "" {
		lines = append(lines, m.AltText)
	}
	for i, c := range m.Choices {
		line := fmt.Sprintf("%d. %s", i+1, optionCaption(c))
		if c.Description != "" {
			line += " - " + c.Description
		}
		lines = append(lines, line)
	}
	lines = append(lines, TwilioMenuFooter)
	return strings.Join(lines, "\n")
}
