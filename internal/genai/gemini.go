package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gemini "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// contentGenerator is the part of *gemini.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...gemini.Part) (*gemini.GenerateContentResponse, error)
}

// GeminiClient generates text with Google Gemini.
type GeminiClient struct {
	client   *gemini.Client
	newModel func(systemPrompt string, s Sampling) contentGenerator
	plan     Sampling
	vision   Sampling
}

// Compile-time check that GeminiClient implements ClientInterface.
var _ ClientInterface = (*GeminiClient)(nil)

// NewGeminiClient initializes a Gemini client, falling back to GEMINI_API_KEY.
func NewGeminiClient(ctx context.Context, opts ...Option) (*GeminiClient, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := gemini.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		slog.Error("genai.NewGeminiClient: failed to create client", "error", err)
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	slog.Debug("genai.NewGeminiClient: Gemini client configured", "model", modelName)

	return &GeminiClient{
		client: client,
		newModel: func(systemPrompt string, s Sampling) contentGenerator {
			model := client.GenerativeModel(modelName)
			model.SystemInstruction = &gemini.Content{Parts: []gemini.Part{gemini.Text(systemPrompt)}}
			model.SetTemperature(float32(s.Temperature))
			model.SetTopP(float32(s.TopP))
			return model
		},
		plan:   cfg.plan(),
		vision: cfg.vision(),
	}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *GeminiClient) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.generate(ctx, c.newModel(systemPrompt, c.plan), gemini.Text(userPrompt))
}

// AnalyzeImage sends the prompt and the JPEG bytes as one multimodal request.
func (c *GeminiClient) AnalyzeImage(ctx context.Context, systemPrompt, userPrompt string, jpeg []byte) (string, error) {
	return c.generate(ctx, c.newModel(systemPrompt, c.vision), gemini.Text(userPrompt), gemini.ImageData("jpeg", jpeg))
}

func (c *GeminiClient) generate(ctx context.Context, model contentGenerator, parts ...gemini.Part) (string, error) {
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		slog.Error("genai.GeminiClient: generate content failed", "error", err)
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	text := firstCandidateText(resp)
	if text == "" {
		return "", ErrNoChoicesReturned
	}
	return text, nil
}

// Close releases the underlying client.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// firstCandidateText joins the text parts of the first candidate that has content.
func firstCandidateText(resp *gemini.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(gemini.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
