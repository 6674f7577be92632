// Package sse frames chunk sequences as server-sent events and parses them
// back on the client.
package sse

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

// ErrClosed is returned by writes after the stream was closed.
var ErrClosed = errors.New("sse: stream closed")

const keepAliveFrame = ":keepalive\n\n"

// SetHeaders configures the response for event streaming. It must be called
// before anything is written.
func SetHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// Writer writes frames to a response and flushes after each one. It is safe
// for concurrent use; frames never interleave.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flushing")
	}
	return &Writer{w: w, flusher: flusher}, nil
}

// WriteChunk writes c as one "event: {type}\ndata: {json}\n\n" frame.
func (w *Writer) WriteChunk(c domain.Chunk) error {
	event, data, err := Encode(c)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(w.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write %s frame: %w", event, err)
	}
	w.flusher.Flush()
	return nil
}

// WriteKeepAlive writes a comment-only frame.
func (w *Writer) WriteKeepAlive() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(w.w, keepAliveFrame); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}
	w.flusher.Flush()
	return nil
}

// Close marks the stream finished. Later writes return ErrClosed.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *Writer) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.flusher.Flush()
	}
}
