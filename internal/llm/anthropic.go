package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llmerr"
	"github.com/Harshitk-cp/proofstream/internal/sse"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 8192
)

type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		baseURL:    anthropicMessagesURL,
		httpClient: &http.Client{},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float32           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicEvent covers the fields of the streaming events this client reads.
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *anthropicError `json:"error,omitempty"`
}

func (c *AnthropicClient) Stream(ctx context.Context, model string, p domain.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.open(ctx, model, p)
		if err != nil {
			yield("", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		r := sse.NewReader(resp.Body)
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				// The stream closed before message_stop.
				yield("", fmt.Errorf("anthropic: %w", io.ErrUnexpectedEOF))
				return
			}
			if err != nil {
				yield("", fmt.Errorf("anthropic: %w", err))
				return
			}

			var ev anthropicEvent
			if err := json.Unmarshal([]byte(frame.Data), &ev); err != nil {
				continue
			}
			switch ev.Type {
			case "content_block_delta":
				if ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
					continue
				}
				if !yield(ev.Delta.Text, nil) {
					return
				}
			case "error":
				if ev.Error != nil {
					yield("", llmerr.Status{Code: ev.Error.Type, Message: ev.Error.Message})
				} else {
					yield("", llmerr.Status{Message: frame.Data})
				}
				return
			case "message_stop":
				return
			}
		}
	}
}

func (c *AnthropicClient) open(ctx context.Context, model string, p domain.Prompt) (*http.Response, error) {
	messages := make([]anthropicMessage, 0, len(p.Messages))
	for _, m := range p.Messages {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	system := p.System
	if p.JSON {
		system += "\n\nRespond ONLY with JSON. No markdown, no explanation."
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   anthropicMaxTokens,
		System:      system,
		Messages:    messages,
		Temperature: p.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		st := llmerr.Status{StatusCode: resp.StatusCode, Message: string(respBody)}
		var wrapped struct {
			Error *anthropicError `json:"error"`
		}
		if json.Unmarshal(respBody, &wrapped) == nil && wrapped.Error != nil {
			st.Code = wrapped.Error.Type
			st.Message = wrapped.Error.Message
		}
		return nil, st
	}
	return resp, nil
}
