package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderGoogleAI  = "googleai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
)

// Default model metadata. GoogleAI requests fall back to a higher-capability
// model; OpenAI requests fall back to a cheaper, faster one.
const (
	DefaultGoogleAIModel         = "gemini-2.5-flash"
	DefaultGoogleAIFallbackModel = "gemini-2.5-pro"
	DefaultOpenAIModel           = "gpt-4o"
	DefaultOpenAIFallbackModel   = "gpt-4o-mini"
	DefaultCrossProviderModel    = "gpt-4o"
	DefaultAnthropicModel        = "claude-3-5-haiku-20241022"
	DefaultCerebrasModel         = "llama-3.3-70b"
	DefaultMockModel             = "mock-model"
)

// ProviderConfig is the provider configuration threaded explicitly into the
// candidate chain builder and the orchestrator. Nothing in the request path
// reads the environment directly.
type ProviderConfig struct {
	DefaultProvider string `yaml:"default_provider"`
	DefaultModel    string `yaml:"default_model"`

	GoogleAIFallbackModel string `yaml:"googleai_fallback_model"`
	OpenAIFallbackModel   string `yaml:"openai_fallback_model"`
	// CrossProviderModel is the OpenAI model appended to googleai chains for
	// flows that allow cross-provider fallback.
	CrossProviderModel string `yaml:"cross_provider_model"`

	// Keys holds API keys by provider name. Presence decides which clients are
	// built and whether cross-provider fallback is available.
	Keys map[string]string `yaml:"-"`
}

// HasKey reports whether an API key is configured for provider.
func (c ProviderConfig) HasKey(provider string) bool {
	return c.Keys[provider] != ""
}

// ModelFor returns the default model for provider.
func (c ProviderConfig) ModelFor(provider string) string {
	if provider == c.DefaultProvider && c.DefaultModel != "" {
		return c.DefaultModel
	}
	switch provider {
	case ProviderGoogleAI:
		return DefaultGoogleAIModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderCerebras:
		return DefaultCerebrasModel
	case ProviderMock:
		return DefaultMockModel
	}
	return ""
}

// DefaultProviderConfig returns the built-in metadata with no keys.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		DefaultProvider:       ProviderGoogleAI,
		GoogleAIFallbackModel: DefaultGoogleAIFallbackModel,
		OpenAIFallbackModel:   DefaultOpenAIFallbackModel,
		CrossProviderModel:    DefaultCrossProviderModel,
		Keys:                  map[string]string{},
	}
}

// Providers assembles the ProviderConfig from the environment and the
// optional PROVIDERS_FILE.
func Providers() (ProviderConfig, error) {
	cfg := DefaultProviderConfig()
	if path := ProvidersFile(); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return ProviderConfig{}, err
		}
	}

	if os.Getenv("LLM_PROVIDER") != "" {
		cfg.DefaultProvider = LLMProvider()
	}
	if m := LLMModel(); m != "" {
		cfg.DefaultModel = m
	}
	cfg.Keys = map[string]string{
		ProviderGoogleAI:  GoogleAIAPIKey(),
		ProviderOpenAI:    OpenAIAPIKey(),
		ProviderAnthropic: AnthropicAPIKey(),
		ProviderCerebras:  CerebrasAPIKey(),
	}
	return cfg, nil
}

// loadFile overlays non-empty fields from a YAML metadata file.
func (c *ProviderConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read providers file: %w", err)
	}

	var file ProviderConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse providers file: %w", err)
	}

	if file.DefaultProvider != "" {
		c.DefaultProvider = file.DefaultProvider
	}
	if file.DefaultModel != "" {
		c.DefaultModel = file.DefaultModel
	}
	if file.GoogleAIFallbackModel != "" {
		c.GoogleAIFallbackModel = file.GoogleAIFallbackModel
	}
	if file.OpenAIFallbackModel != "" {
		c.OpenAIFallbackModel = file.OpenAIFallbackModel
	}
	if file.CrossProviderModel != "" {
		c.CrossProviderModel = file.CrossProviderModel
	}
	return nil
}
