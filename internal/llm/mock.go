package llm

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

// MockResponse scripts one streamed reply. Fragments are yielded in order,
// then Err if set.
type MockResponse struct {
	Fragments []string
	Err       error
	Delay     time.Duration
}

// MockCall records one Stream invocation.
type MockCall struct {
	Model  string
	Prompt domain.Prompt
}

// MockClient is a scriptable streaming client for testing.
// Responses are queued per model; each call pops the next one and the last
// one repeats. Models with no script get Default.
type MockClient struct {
	Default MockResponse

	mu      sync.Mutex
	scripts map[string][]MockResponse
	calls   []MockCall
	pulled  int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Default: MockResponse{Fragments: []string{"Mock ", "response"}},
		scripts: map[string][]MockResponse{},
	}
}

// On appends responses to model's queue.
func (c *MockClient) On(model string, responses ...MockResponse) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[model] = append(c.scripts[model], responses...)
	return c
}

// Calls returns a copy of the recorded invocations.
func (c *MockClient) Calls() []MockCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MockCall(nil), c.calls...)
}

// Pulled returns how many fragments consumers have received in total.
func (c *MockClient) Pulled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulled
}

func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = map[string][]MockResponse{}
	c.calls = nil
	c.pulled = 0
}

func (c *MockClient) next(model string, p domain.Prompt) MockResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, MockCall{Model: model, Prompt: p})

	queue := c.scripts[model]
	switch len(queue) {
	case 0:
		return c.Default
	case 1:
		return queue[0]
	}
	c.scripts[model] = queue[1:]
	return queue[0]
}

func (c *MockClient) Stream(ctx context.Context, model string, p domain.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp := c.next(model, p)
		for _, frag := range resp.Fragments {
			if resp.Delay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(resp.Delay):
				}
			}
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			c.mu.Lock()
			c.pulled++
			c.mu.Unlock()
			if !yield(frag, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield("", err)
			return
		}
		if resp.Err != nil {
			yield("", resp.Err)
		}
	}
}
