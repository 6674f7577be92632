package domain

import (
	"context"
	"iter"
)

type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Prompt is a provider-neutral model request.
type Prompt struct {
	System      string
	Messages    []Message
	JSON        bool
	Temperature *float32
}

// StreamClient streams text fragments from one provider. The sequence yields
// fragments in order and at most one error, which ends it. Breaking out of the
// range loop stops consumption and releases the underlying stream.
type StreamClient interface {
	Stream(ctx context.Context, model string, p Prompt) iter.Seq2[string, error]
}
