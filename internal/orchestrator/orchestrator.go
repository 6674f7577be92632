// Package orchestrator drives one logical model request across its candidate
// chain and reports progress as a sequence of chunks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Harshitk-cp/proofstream/internal/config"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/Harshitk-cp/proofstream/internal/llmerr"
	"go.uber.org/zap"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoClient        = errors.New("no client configured for provider")
)

// Emit receives chunks in order. It is called from the goroutine running the
// request and must not block for long.
type Emit func(domain.Chunk)

func discard(domain.Chunk) {}

// Request is one logical model request.
type Request struct {
	Flow     string
	Provider string
	Model    string
	Prompt   domain.Prompt
	// CrossProvider allows the chain to fall back to another provider.
	CrossProvider bool
	// Candidates overrides the chain built from Provider and Model.
	Candidates []string
}

// Outcome is the result of Run. Exactly one of these holds: Aborted is set,
// Err is set (the chain was exhausted), or Value holds a parsed result.
type Outcome[T any] struct {
	Value     T
	Text      string
	Candidate string
	Aborted   bool
	Err       *llmerr.ClassifiedError
}

// Failed reports whether the chain was exhausted.
func (o Outcome[T]) Failed() bool {
	return !o.Aborted && o.Err != nil
}

type Orchestrator struct {
	clients map[string]domain.StreamClient
	cfg     config.ProviderConfig
	metrics *Metrics
	logger  *zap.Logger
}

func New(clients map[string]domain.StreamClient, cfg config.ProviderConfig, metrics *Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		clients: clients,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// CheckProvider returns ErrUnknownProvider if no client serves provider.
// An empty provider means the configured default.
func (o *Orchestrator) CheckProvider(provider string) error {
	if provider == "" {
		provider = o.cfg.DefaultProvider
	}
	if _, ok := o.clients[provider]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return nil
}

// Candidates returns the chain req will walk.
func (o *Orchestrator) Candidates(req Request) []string {
	if len(req.Candidates) > 0 {
		return req.Candidates
	}
	provider := req.Provider
	if provider == "" {
		provider = o.cfg.DefaultProvider
	}
	return llm.BuildCandidates(o.cfg, provider, req.Model, req.CrossProvider)
}

// attemptResult is the outcome of streaming one candidate.
type attemptResult struct {
	text    string
	aborted bool
	err     *llmerr.ClassifiedError
}

// Run walks the candidate chain until one candidate streams to completion and
// its text parses. Every candidate gets a model.start; successful streams end
// with model.end. A stream failure emits a server-error with the classified
// message and moves on. A parse failure is logged and moves on.
//
// Cancelling ctx stops consumption at the next fragment without emitting
// anything further; the partial text is returned with Aborted set.
func Run[T any](ctx context.Context, o *Orchestrator, req Request, parse func(string) (T, error), emit Emit) Outcome[T] {
	if emit == nil {
		emit = discard
	}

	var out Outcome[T]
	for _, candidate := range o.Candidates(req) {
		if ctx.Err() != nil {
			out.Aborted = true
			return out
		}

		res := o.stream(ctx, req, candidate, emit)
		if res.aborted {
			out.Aborted, out.Text, out.Candidate = true, res.text, candidate
			return out
		}

		if res.err != nil {
			out.Err = res.err
			o.metrics.failure(res.err.Kind)
			o.logger.Warn("candidate failed",
				zap.String("flow", req.Flow),
				zap.String("candidate", candidate),
				zap.String("kind", string(res.err.Kind)),
				zap.Error(res.err.Err))
			emit(domain.ServerError{
				Error:  res.err.Error(),
				Detail: candidate,
				Code:   string(res.err.Kind),
			})
			continue
		}

		v, err := parse(res.text)
		if err != nil {
			out.Err = llmerr.Unparsable(err, candidate)
			o.metrics.failure(out.Err.Kind)
			o.logger.Warn("candidate output unparsable",
				zap.String("flow", req.Flow),
				zap.String("candidate", candidate),
				zap.Int("length", len(res.text)),
				zap.Error(err))
			continue
		}

		out.Value, out.Text, out.Candidate, out.Err = v, res.text, candidate, nil
		return out
	}

	o.metrics.chainExhausted(req.Flow)
	if out.Err == nil {
		out.Err = &llmerr.ClassifiedError{Err: errors.New("empty candidate chain")}
	}
	o.logger.Error("candidate chain exhausted",
		zap.String("flow", req.Flow),
		zap.String("last_candidate", out.Err.Candidate),
		zap.String("kind", string(out.Err.Kind)))
	return out
}

func (o *Orchestrator) stream(ctx context.Context, req Request, candidate string, emit Emit) attemptResult {
	provider, model := llm.SplitCandidate(candidate)
	start := time.Now()
	emit(domain.ModelStart{Provider: provider, Model: model, TS: start.UnixMilli()})

	client, ok := o.clients[provider]
	if !ok {
		o.metrics.attempt(provider, outcomeError, 0)
		return attemptResult{err: &llmerr.ClassifiedError{
			Candidate: candidate,
			Err:       fmt.Errorf("%w: %s", ErrNoClient, provider),
		}}
	}

	var sb strings.Builder
	for frag, err := range client.Stream(ctx, model, req.Prompt) {
		if ctx.Err() != nil {
			o.metrics.attempt(provider, outcomeAborted, time.Since(start).Seconds())
			return attemptResult{text: sb.String(), aborted: true}
		}
		if err != nil {
			o.metrics.attempt(provider, outcomeError, time.Since(start).Seconds())
			return attemptResult{text: sb.String(), err: llmerr.New(err, candidate)}
		}
		sb.WriteString(frag)
		emit(domain.ModelDelta{Text: frag})
	}
	if ctx.Err() != nil {
		o.metrics.attempt(provider, outcomeAborted, time.Since(start).Seconds())
		return attemptResult{text: sb.String(), aborted: true}
	}

	elapsed := time.Since(start)
	text := sb.String()
	emit(domain.ModelEnd{DurationMs: elapsed.Milliseconds(), Length: utf8.RuneCountInString(text)})
	o.metrics.attempt(provider, outcomeSuccess, elapsed.Seconds())
	return attemptResult{text: text}
}
