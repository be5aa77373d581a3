package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

// Compile-time interface check.
var _ AIProvider = (*OpenAIProvider)(nil)

// OpenAIProvider implements AIProvider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client           openai.Client
	model            string
	temperature      float64
	maxTokensPerItem int
}

// NewOpenAIProvider creates an OpenAIProvider. SDK retries are disabled: a
// failed call is surfaced to the caller as-is.
func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIProvider{
		client:           openai.NewClient(opts...),
		model:            cfg.Model,
		temperature:      cfg.Temperature,
		maxTokensPerItem: cfg.MaxTokensPerItem,
	}
}

// Generate asks for req.Count posts in one chat completion and returns the
// content of the first choice.
func (p *OpenAIProvider) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		N:           openai.Int(1),
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokensPerItem > 0 && req.Count > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.maxTokensPerItem * req.Count))
	}

	slog.Debug("calling OpenAI API", "model", p.model, "count", req.Count)
	start := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: openai returned status %d: %w", models.ErrGenerationService, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: openai request failed: %w", models.ErrGenerationService, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: empty response: no choices returned", models.ErrGenerationService)
	}

	slog.Info("generation complete",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
		"duration", time.Since(start).String(),
	)

	return resp.Choices[0].Message.Content, nil
}
