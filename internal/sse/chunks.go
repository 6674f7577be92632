package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

// ErrUnknownEvent is returned by Decode for event names outside the protocol.
var ErrUnknownEvent = errors.New("sse: unknown event")

// Encode returns the event name and JSON payload for c.
func Encode(c domain.Chunk) (string, []byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", c.ChunkType(), err)
	}
	return string(c.ChunkType()), data, nil
}

// Decode turns an event name and payload back into a typed chunk.
func Decode(event string, data []byte) (domain.Chunk, error) {
	switch domain.ChunkType(event) {
	case domain.ChunkModelStart:
		return decodeAs[domain.ModelStart](event, data)
	case domain.ChunkModelDelta:
		return decodeAs[domain.ModelDelta](event, data)
	case domain.ChunkModelEnd:
		return decodeAs[domain.ModelEnd](event, data)
	case domain.ChunkClassifyStart:
		return decodeAs[domain.ClassifyStart](event, data)
	case domain.ChunkClassifyResult:
		return decodeAs[domain.ClassifyResult](event, data)
	case domain.ChunkClassifyEnd:
		return decodeAs[domain.ClassifyEnd](event, data)
	case domain.ChunkDecomposeStart:
		return decodeAs[domain.DecomposeStart](event, data)
	case domain.ChunkDecomposeResult:
		return decodeAs[domain.DecomposeResult](event, data)
	case domain.ChunkProgress:
		return decodeAs[domain.Progress](event, data)
	case domain.ChunkAttempt:
		return decodeAs[domain.Attempt](event, data)
	case domain.ChunkServerError:
		return decodeAs[domain.ServerError](event, data)
	case domain.ChunkDone:
		return decodeAs[domain.Done](event, data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
}

func decodeAs[T domain.Chunk](event string, data []byte) (domain.Chunk, error) {
	var c T
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", event, err)
	}
	return c, nil
}

// Consume reads frames from body and hands each decoded chunk to onChunk in
// receipt order. Cancelling ctx closes body and makes Consume return nil.
// The end of the stream also returns nil.
func Consume(ctx context.Context, body io.ReadCloser, onChunk func(domain.Chunk) error) error {
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()
	defer func() { _ = body.Close() }()

	r := NewReader(body)
	for {
		f, err := r.Next()
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		c, err := Decode(f.Event, []byte(f.Data))
		if err != nil {
			return err
		}
		if err := onChunk(c); err != nil {
			return err
		}
	}
}
