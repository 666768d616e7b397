// Package twiliowhatsapp wraps the Twilio API for WhatsApp delivery of Meal Mate messages.
package twiliowhatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// AddressPrefix marks WhatsApp addresses in Twilio's From/To fields.
const AddressPrefix = "whatsapp:"

// MaxMediaBytes bounds a single media download.
const MaxMediaBytes = 50 * 1024 * 1024

// Sender is the part of the Twilio client used by the messaging layer.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
	FetchMedia(ctx context.Context, mediaURL string) ([]byte, error)
	ValidateSignature(url string, params map[string]string, signature string) bool
}

// Opts holds configuration options for the Twilio WhatsApp client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// Option defines a configuration option for the Twilio WhatsApp client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token, also used to verify webhook signatures.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending number, with or without the whatsapp: prefix.
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// Client wraps Twilio REST API for WhatsApp
type Client struct {
	client     *twilio.RestClient
	validator  twilioclient.RequestValidator
	http       *http.Client
	accountSID string
	authToken  string
	fromWhats  string // WhatsApp number in "whatsapp:+1234567890" format
}

// Compile-time check that Client implements Sender.
var _ Sender = (*Client)(nil)

// NewClient creates a client, falling back to TWILIO_* environment variables.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	return &Client{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		validator:  twilioclient.NewRequestValidator(cfg.AuthToken),
		http:       &http.Client{Timeout: 30 * time.Second},
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromWhats:  Address(cfg.FromWhats),
	}, nil
}

// Address adds the whatsapp: prefix when it is missing.
func Address(number string) string {
	if strings.HasPrefix(number, AddressPrefix) {
		return number
	}
	return AddressPrefix + number
}

// SendMessage sends a WhatsApp message using Twilio API
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(Address(to))
	params.SetFrom(c.fromWhats)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendMessage failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		slog.Debug("Twilio message sent", "to", to, "sid", *resp.Sid)
	}
	return nil
}

// FetchMedia downloads an inbound media attachment. Twilio media URLs require
// the account credentials.
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid media url: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if len(data) > MaxMediaBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", MaxMediaBytes)
	}
	return data, nil
}

// ValidateSignature checks the X-Twilio-Signature of a webhook request.
func (c *Client) ValidateSignature(url string, params map[string]string, signature string) bool {
	return c.validator.Validate(url, params, signature)
}

// MockClient records messages instead of calling Twilio.
type MockClient struct {
	SentMessages []SentMessage
	Media        map[string][]byte
	ValidSig     string // signature accepted by ValidateSignature; empty accepts all
	SendErr      error
}

type SentMessage struct {
	To   string
	Body string
}

// Compile-time check that MockClient implements Sender.
var _ Sender = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{
		SentMessages: []SentMessage{},
		Media:        map[string][]byte{},
	}
}

func (m *MockClient) SendMessage(ctx context.Context, to string, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}

func (m *MockClient) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	data, ok := m.Media[mediaURL]
	if !ok {
		return nil, fmt.Errorf("no media at %s", mediaURL)
	}
	return data, nil
}

func (m *MockClient) ValidateSignature(url string, params map[string]string, signature string) bool {
	return m.ValidSig == "" || m.ValidSig == signature
}
