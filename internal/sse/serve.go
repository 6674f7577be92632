package sse

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultKeepAlive is the idle interval between comment frames.
const DefaultKeepAlive = 15 * time.Second

// Producer generates the chunks of one stream. emit drops chunks once ctx is
// done, so a producer only has to return promptly after cancellation.
type Producer func(ctx context.Context, emit func(domain.Chunk)) error

// Options tune Serve.
type Options struct {
	// KeepAlive is the interval between comment frames. Zero means
	// DefaultKeepAlive; negative disables them.
	KeepAlive time.Duration
	// OnKeepAlive is called after each keep-alive frame is written.
	OnKeepAlive func()
}

// Serve streams the chunks produced by produce onto w, interleaving
// keep-alive frames. It returns once the producer has returned and the
// keep-alive ticker is stopped; nothing is written to w after that.
//
// A failed write (peer gone) cancels the producer's context. Cancellation
// of ctx is not an error.
func Serve(ctx context.Context, w http.ResponseWriter, opts Options, produce Producer) error {
	sw, err := NewWriter(w)
	if err != nil {
		return err
	}
	SetHeaders(w)
	w.WriteHeader(http.StatusOK)
	sw.flush()
	defer sw.Close()

	interval := opts.KeepAlive
	if interval == 0 {
		interval = DefaultKeepAlive
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g, gctx := errgroup.WithContext(ctx)
	produced := make(chan struct{})

	g.Go(func() error {
		defer close(produced)
		return produce(gctx, func(c domain.Chunk) {
			if gctx.Err() != nil {
				return
			}
			if err := sw.WriteChunk(c); err != nil {
				cancel(err)
			}
		})
	})

	g.Go(func() error {
		if interval < 0 {
			return nil
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-produced:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := sw.WriteKeepAlive(); err != nil {
					cancel(err)
					return nil
				}
				if opts.OnKeepAlive != nil {
					opts.OnKeepAlive()
				}
			}
		}
	})

	err = g.Wait()
	sw.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return nil
}
