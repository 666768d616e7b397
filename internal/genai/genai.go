// Package genai provides text and vision generation for MealMate.
//
// Two backends implement ClientInterface: OpenAI chat completions (default) and Google Gemini.
package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Providers accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default models per provider.
const (
	DefaultOpenAIModel = openai.ChatModelGPT4o
	DefaultGeminiModel = "gemini-1.5-flash"
)

var (
	// ErrNoChoicesReturned is returned when the backend answers with no content.
	ErrNoChoicesReturned = errors.New("no choices returned")
	// ErrAPIKeyNotSet is returned when no API key is configured.
	ErrAPIKeyNotSet = errors.New("genai API key not set")
	// ErrUnknownProvider is returned for a provider name New does not know.
	ErrUnknownProvider = errors.New("unknown genai provider")
)

// ClientInterface is what the conversation flows need from a generation backend.
type ClientInterface interface {
	// GeneratePrompt answers userPrompt under systemPrompt using the plan sampling settings.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// AnalyzeImage answers userPrompt about a JPEG image using the vision sampling settings.
	AnalyzeImage(ctx context.Context, systemPrompt, userPrompt string, jpeg []byte) (string, error)
}

// Sampling holds the decoding parameters of one call site.
type Sampling struct {
	Temperature float64
	TopP        float64
}

// Default sampling: meal plans are allowed some variety, photo estimates are kept tight.
var (
	DefaultPlanSampling   = Sampling{Temperature: 0.7, TopP: 0.2}
	DefaultVisionSampling = Sampling{Temperature: 0.3, TopP: 0.2}
)

// Opts holds configuration options for the generation backends.
type Opts struct {
	Provider       string
	APIKey         string
	Model          string
	PlanSampling   *Sampling
	VisionSampling *Sampling
}

// Option defines a configuration option for the generation backends.
type Option func(*Opts)

// WithProvider selects the backend ("openai" or "gemini").
func WithProvider(provider string) Option {
	return func(o *Opts) { o.Provider = provider }
}

// WithAPIKey sets the backend API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the backend model name.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithPlanSampling overrides the meal-plan sampling settings.
func WithPlanSampling(s Sampling) Option {
	return func(o *Opts) { o.PlanSampling = &s }
}

// WithVisionSampling overrides the photo-analysis sampling settings.
func WithVisionSampling(s Sampling) Option {
	return func(o *Opts) { o.VisionSampling = &s }
}

func (o Opts) plan() Sampling {
	if o.PlanSampling != nil {
		return *o.PlanSampling
	}
	return DefaultPlanSampling
}

func (o Opts) vision() Sampling {
	if o.VisionSampling != nil {
		return *o.VisionSampling
	}
	return DefaultVisionSampling
}

// New builds the backend named by WithProvider, defaulting to OpenAI.
func New(ctx context.Context, opts ...Option) (ClientInterface, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewClient(opts...)
	case ProviderGemini:
		return NewGeminiClient(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completionsAdapter adapts the SDK completion service to chatService.
type completionsAdapter struct {
	svc *openai.ChatCompletionService
}

func (a completionsAdapter) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Client wraps the OpenAI ChatCompletion service.
type Client struct {
	chat   chatService
	model  openai.ChatModel
	plan   Sampling
	vision Sampling
}

// Compile-time check that Client implements ClientInterface.
var _ ClientInterface = (*Client)(nil)

// NewClient initializes an OpenAI client, falling back to OPENAI_API_KEY.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	slog.Debug("genai.NewClient: OpenAI client configured", "model", model)

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		chat:   completionsAdapter{svc: &cli.Chat.Completions},
		model:  model,
		plan:   cfg.plan(),
		vision: cfg.vision(),
	}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.complete(ctx, messages, c.plan)
}

// AnalyzeImage sends the image inline as a base64 data URL.
func (c *Client) AnalyzeImage(ctx context.Context, systemPrompt, userPrompt string, jpeg []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(userPrompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
		}),
	}
	return c.complete(ctx, messages, c.vision)
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, s Sampling) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(s.Temperature),
		TopP:        openai.Float(s.TopP),
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Error("genai.Client: chat completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	slog.Debug("genai.Client: chat completion succeeded", "model", c.model, "chars", len(resp.Choices[0].Message.Content))
	return resp.Choices[0].Message.Content, nil
}
