package llm

const cerebrasBaseURL = "https://api.cerebras.ai/v1"

// NewCerebrasClient returns a client for Cerebras' OpenAI-compatible API.
func NewCerebrasClient(apiKey string) *OpenAIClient {
	return newCompatClient("cerebras", apiKey, cerebrasBaseURL)
}
