package ai

import (
	"context"
	"fmt"

	"github.com/hoanghai1803/tweetgen/internal/models"
)

// AIProvider is the interface that all text-generation providers must implement.
type AIProvider interface {
	// Generate sends req to the provider in a single synchronous call and
	// returns the raw generated text. Failures wrap models.ErrGenerationService.
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
}

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (AIProvider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unsupported AI provider: %q", models.ErrConfiguration, cfg.Provider)
	}
}
