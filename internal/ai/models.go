package ai

import "time"

// ProviderConfig holds the configuration needed to create an AI provider.
type ProviderConfig struct {
	Provider         string // "openai"
	APIKey           string
	Model            string
	BaseURL          string // optional OpenAI-compatible endpoint
	Temperature      float64
	MaxTokensPerItem int
	Timeout          time.Duration // zero means the SDK default
}
