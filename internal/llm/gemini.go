package llm

import (
	"context"
	"fmt"
	"iter"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"google.golang.org/genai"
)

// GeminiClient streams content from the Gemini API.
type GeminiClient struct {
	cli *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	return newGeminiClient(ctx, apiKey, "")
}

// newGeminiClient targets baseURL, or the public endpoint when it is empty.
func newGeminiClient(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{cli: cli}, nil
}

func (c *GeminiClient) Stream(ctx context.Context, model string, p domain.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents := make([]*genai.Content, 0, len(p.Messages))
		for _, m := range p.Messages {
			var role genai.Role = genai.RoleUser
			if m.Role == "assistant" {
				role = genai.RoleModel
			}
			contents = append(contents, genai.NewContentFromText(m.Content, role))
		}

		cfg := &genai.GenerateContentConfig{Temperature: p.Temperature}
		if p.System != "" {
			cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
		}
		if p.JSON {
			cfg.ResponseMIMEType = "application/json"
		}

		for resp, err := range c.cli.Models.GenerateContentStream(ctx, model, contents, cfg) {
			if err != nil {
				yield("", fmt.Errorf("googleai: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
