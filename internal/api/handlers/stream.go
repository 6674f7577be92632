package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/api/middleware"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llmerr"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/Harshitk-cp/proofstream/internal/sse"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StreamHandler serves the model flows as server-sent event streams. Every
// stream ends with a done chunk carrying the flow's result, or with a
// server-error when the flow has no result to give. A client that goes away
// gets nothing further.
type StreamHandler struct {
	orch       *orchestrator.Orchestrator
	keepAlive  time.Duration
	keepAlives prometheus.Counter
	logger     *zap.Logger
}

func NewStreamHandler(orch *orchestrator.Orchestrator, keepAlive time.Duration, keepAlives prometheus.Counter, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		orch:       orch,
		keepAlive:  keepAlive,
		keepAlives: keepAlives,
		logger:     logger,
	}
}

type flowFunc func(ctx context.Context, emit orchestrator.Emit) (any, error)

func (h *StreamHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	var in orchestrator.AttemptInput
	if !h.decode(w, r, &in, &in.Target) {
		return
	}
	h.serve(w, r, orchestrator.FlowAttempt, func(ctx context.Context, emit orchestrator.Emit) (any, error) {
		return h.orch.Attempt(ctx, in, emit)
	})
}

func (h *StreamHandler) Review(w http.ResponseWriter, r *http.Request) {
	var in orchestrator.ReviewInput
	if !h.decode(w, r, &in, &in.Target) {
		return
	}
	h.serve(w, r, orchestrator.FlowReview, func(ctx context.Context, emit orchestrator.Emit) (any, error) {
		return h.orch.Review(ctx, in, emit)
	})
}

func (h *StreamHandler) Revise(w http.ResponseWriter, r *http.Request) {
	var in orchestrator.ReviseInput
	if !h.decode(w, r, &in, &in.Target) {
		return
	}
	h.serve(w, r, orchestrator.FlowRevise, func(ctx context.Context, emit orchestrator.Emit) (any, error) {
		return h.orch.Revise(ctx, in, emit)
	})
}

func (h *StreamHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var in orchestrator.ChatInput
	if !h.decode(w, r, &in, &in.Target) {
		return
	}
	h.serve(w, r, orchestrator.FlowChat, func(ctx context.Context, emit orchestrator.Emit) (any, error) {
		return h.orch.Chat(ctx, in, emit)
	})
}

func (h *StreamHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var in orchestrator.ExtractInput
	if !h.decode(w, r, &in, &in.Target) {
		return
	}
	h.serve(w, r, orchestrator.FlowExtract, func(ctx context.Context, emit orchestrator.Emit) (any, error) {
		return h.orch.Extract(ctx, in, emit)
	})
}

func (h *StreamHandler) decode(w http.ResponseWriter, r *http.Request, in any, target *orchestrator.Target) bool {
	if !decodeBody(w, r, in) {
		return false
	}
	if err := h.orch.CheckProvider(target.Provider); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, flow string, run flowFunc) {
	opts := sse.Options{KeepAlive: h.keepAlive}
	if h.keepAlives != nil {
		opts.OnKeepAlive = h.keepAlives.Inc
	}

	err := sse.Serve(r.Context(), w, opts, func(ctx context.Context, emit func(domain.Chunk)) error {
		result, err := run(ctx, emit)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			emit(domain.ServerError{
				Error:  llmerr.UserMessage(err),
				Detail: flow,
				Code:   string(llmerr.KindOf(err)),
			})
			return nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode %s result: %w", flow, err)
		}
		emit(domain.Done{Result: payload})
		return nil
	})
	if err != nil {
		h.logger.Warn("stream ended with error",
			zap.String("flow", flow),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err))
	}
}
