package llm

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/proofstream/internal/config"
	"github.com/Harshitk-cp/proofstream/internal/domain"
)

// NewClient creates a streaming client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewClient(ctx context.Context, provider, apiKey string) (domain.StreamClient, error) {
	switch provider {
	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case config.ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case config.ProviderGoogleAI:
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLEAI_API_KEY is required for GoogleAI provider")
		}
		return NewGeminiClient(ctx, apiKey)

	case config.ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey), nil

	case config.ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: googleai, openai, anthropic, cerebras, mock)", provider)
	}
}

// NewClients builds a client for every provider with a configured key. The
// mock provider is only served when it is the default. The default provider
// must be among them.
func NewClients(ctx context.Context, cfg config.ProviderConfig) (map[string]domain.StreamClient, error) {
	clients := map[string]domain.StreamClient{}
	if cfg.DefaultProvider == config.ProviderMock {
		clients[config.ProviderMock] = NewMockClient()
	}
	for provider, key := range cfg.Keys {
		if key == "" {
			continue
		}
		c, err := NewClient(ctx, provider, key)
		if err != nil {
			return nil, err
		}
		clients[provider] = c
	}

	if _, ok := clients[cfg.DefaultProvider]; !ok {
		// Surface the same error NewClient gives for a missing key.
		if _, err := NewClient(ctx, cfg.DefaultProvider, ""); err != nil {
			return nil, err
		}
	}
	return clients, nil
}
