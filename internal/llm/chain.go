package llm

import (
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/config"
)

// Candidate returns the "{provider}/{model}" identifier for a model.
func Candidate(provider, model string) string {
	return provider + "/" + model
}

// SplitCandidate splits a "{provider}/{model}" identifier. Model names may
// themselves contain slashes; only the first one separates the provider.
func SplitCandidate(candidate string) (provider, model string) {
	provider, model, ok := strings.Cut(candidate, "/")
	if !ok {
		return "", candidate
	}
	return provider, model
}

// qualify turns a bare model into a candidate for provider. Models already
// prefixed with the provider are kept as they are.
func qualify(provider, model string) string {
	if strings.HasPrefix(model, provider+"/") {
		return model
	}
	return Candidate(provider, model)
}

// BuildCandidates returns the ordered list of candidates to try for one
// request. The first element is always the (qualified) primary model.
//
//   - googleai: append the higher-capability fallback model, then, when
//     crossProvider is set and an OpenAI key is configured, an OpenAI model.
//   - openai: append the cheaper fallback model.
//   - anything else: the primary alone.
//
// A fallback equal to an earlier candidate is skipped.
func BuildCandidates(cfg config.ProviderConfig, provider, primaryModel string, crossProvider bool) []string {
	if primaryModel == "" {
		primaryModel = cfg.ModelFor(provider)
	}

	seen := map[string]bool{}
	chain := make([]string, 0, 3)
	add := func(candidate string) {
		if seen[candidate] {
			return
		}
		seen[candidate] = true
		chain = append(chain, candidate)
	}

	add(qualify(provider, primaryModel))

	switch provider {
	case config.ProviderGoogleAI:
		if cfg.GoogleAIFallbackModel != "" {
			add(Candidate(config.ProviderGoogleAI, cfg.GoogleAIFallbackModel))
		}
		if crossProvider && cfg.HasKey(config.ProviderOpenAI) && cfg.CrossProviderModel != "" {
			add(Candidate(config.ProviderOpenAI, cfg.CrossProviderModel))
		}
	case config.ProviderOpenAI:
		if cfg.OpenAIFallbackModel != "" {
			add(Candidate(config.ProviderOpenAI, cfg.OpenAIFallbackModel))
		}
	}

	return chain
}
