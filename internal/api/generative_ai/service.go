package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/config"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const defaultModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator produces text from a prompt. AIClient is the production implementation.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

var _ Generator = (*AIClient)(nil)

type AIClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewAIClient(ctx context.Context, cfg config.LLMConfig) (*AIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY: %w", types.ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &AIClient{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
	}, nil
}

func (ai *AIClient) Model() string { return ai.model }

// GenerateContent sends a single-turn prompt and returns the response text.
func (ai *AIClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if ai.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ai.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		metrics.RecordUpstream(ctx, "gemini", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		metrics.RecordUpstream(ctx, "gemini", "empty", time.Since(start).Seconds())
		return "", ErrEmptyResponse
	}
	metrics.RecordUpstream(ctx, "gemini", "ok", time.Since(start).Seconds())
	return text, nil
}
