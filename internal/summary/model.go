package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names a model backend.
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderOpenAI Provider = "openai"
	ProviderGoogle Provider = "googleai"
)

const (
	defaultOpenAIModel = "gpt-4"
	defaultGoogleModel = "gemini-1.5-flash"
)

// ModelConfig selects and configures a backend.
type ModelConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ProviderFor infers the backend from the key: Google API keys start with
// "AIza", anything else is treated as an OpenAI-compatible key.
func ProviderFor(apiKey string) Provider {
	apiKey = strings.TrimSpace(apiKey)
	switch {
	case apiKey == "" || apiKey == "YOUR_OPENAI_API_KEY":
		return ProviderNone
	case strings.HasPrefix(apiKey, "AIza"):
		return ProviderGoogle
	default:
		return ProviderOpenAI
	}
}

// NewModel builds the model selected by cfg. It returns a nil model when no
// key is configured.
func NewModel(ctx context.Context, cfg ModelConfig) (llms.Model, Provider, error) {
	provider := ProviderFor(cfg.APIKey)
	switch provider {
	case ProviderGoogle:
		name := cfg.Model
		if name == "" {
			name = defaultGoogleModel
		}
		model, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey), googleai.WithDefaultModel(name))
		if err != nil {
			return nil, provider, fmt.Errorf("summary: google ai: %w", err)
		}
		return model, provider, nil
	case ProviderOpenAI:
		name := cfg.Model
		if name == "" {
			name = defaultOpenAIModel
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(name)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, provider, fmt.Errorf("summary: openai: %w", err)
		}
		return model, provider, nil
	default:
		return nil, ProviderNone, nil
	}
}
