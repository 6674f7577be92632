package orchestrator

import (
	"context"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/Harshitk-cp/proofstream/internal/proof"
)

// Flow names, used for logs and metrics.
const (
	FlowAttempt   = "attempt"
	FlowClassify  = "classify"
	FlowDecompose = "decompose"
	FlowReview    = "review"
	FlowRevise    = "revise"
	FlowChat      = "chat"
	FlowExtract   = "extract"
)

// Target selects the model for a flow. Empty fields use the configured defaults.
type Target struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type AttemptInput struct {
	Target
	Statement string `json:"statement" validate:"required"`
}

type ReviewInput struct {
	Target
	Statement string `json:"statement"`
	Proof     string `json:"proof" validate:"required"`
}

type ReviseInput struct {
	Target
	Statement   string            `json:"statement"`
	Steps       []domain.Sublemma `json:"steps" validate:"required,min=1,dive"`
	Instruction string            `json:"instruction" validate:"required"`
}

type ChatInput struct {
	Target
	Messages []domain.Message `json:"messages" validate:"required,min=1,dive"`
}

type ExtractInput struct {
	Target
	Answer string `json:"answer" validate:"required"`
}

func (o *Orchestrator) request(flow string, t Target, p domain.Prompt, cross bool) Request {
	return Request{
		Flow:          flow,
		Provider:      t.Provider,
		Model:         t.Model,
		Prompt:        p,
		CrossProvider: cross,
	}
}

// Attempt streams a proof attempt, then classifies and decomposes it.
// Classification failure degrades to UNCLEAR. Decomposition failure is
// reported as an advisory server-error and leaves the answer intact.
func (o *Orchestrator) Attempt(ctx context.Context, in AttemptInput, emit Emit) (*domain.AttemptResult, error) {
	if emit == nil {
		emit = discard
	}
	req := o.request(FlowAttempt, in.Target, llm.AttemptPrompt(in.Statement), true)
	req.Candidates = o.Candidates(req)
	emit(domain.Attempt{Candidates: req.Candidates})

	out := Run(ctx, o, req, parseText, emit)
	if out.Aborted {
		return nil, context.Canceled
	}
	if out.Failed() {
		return nil, out.Err
	}

	result := &domain.AttemptResult{
		Text:      out.Value,
		Candidate: out.Candidate,
		Sublemmas: []domain.Sublemma{},
	}

	emit(domain.Progress{Stage: FlowClassify, Message: "Classifying the attempt"})
	emit(domain.ClassifyStart{})
	start := time.Now()
	cls := Run(ctx, o, o.request(FlowClassify, in.Target, llm.ClassifyPrompt(in.Statement, out.Value), true),
		parseJSON[domain.Classification], nil)
	if cls.Aborted {
		return nil, context.Canceled
	}
	if cls.Failed() {
		result.Classification = domain.Classification{Verdict: domain.VerdictUnclear, Reason: cls.Err.Error()}
	} else {
		result.Classification = cls.Value
	}
	emit(domain.ClassifyResult{Classification: result.Classification})
	emit(domain.ClassifyEnd{DurationMs: time.Since(start).Milliseconds()})

	emit(domain.Progress{Stage: FlowDecompose, Message: "Splitting the proof into sublemmas"})
	emit(domain.DecomposeStart{})
	dec := Run(ctx, o, o.request(FlowDecompose, in.Target, llm.DecomposePrompt(in.Statement, out.Value), true),
		parseJSON[domain.Decomposition], nil)
	if dec.Aborted {
		return nil, context.Canceled
	}
	if dec.Failed() {
		result.DecomposeError = dec.Err.Error()
		emit(domain.ServerError{
			Error:  dec.Err.Error(),
			Detail: FlowDecompose,
			Code:   string(dec.Err.Kind),
		})
	} else {
		result.Sublemmas = dec.Value.Sublemmas
		emit(domain.DecomposeResult{Sublemmas: dec.Value.Sublemmas})
	}
	return result, nil
}

// Review asks for a verdict on a proof. An exhausted chain yields UNCLEAR
// with the last error's message instead of an error.
func (o *Orchestrator) Review(ctx context.Context, in ReviewInput, emit Emit) (*domain.ReviewResult, error) {
	req := o.request(FlowReview, in.Target, llm.ReviewPrompt(in.Statement, in.Proof), true)
	out := Run(ctx, o, req, parseJSON[domain.ReviewResult], emit)
	if out.Aborted {
		return nil, context.Canceled
	}
	if out.Failed() {
		return &domain.ReviewResult{
			Verdict: domain.ReviewUnclear,
			Summary: out.Err.Error(),
			Issues:  []domain.ReviewIssue{},
		}, nil
	}
	review := out.Value
	if review.Issues == nil {
		review.Issues = []domain.ReviewIssue{}
	}
	return &review, nil
}

// Revise asks for revised steps and reconciles them against in.Steps.
func (o *Orchestrator) Revise(ctx context.Context, in ReviseInput, emit Emit) (*domain.RevisionResult, error) {
	req := o.request(FlowRevise, in.Target, llm.RevisePrompt(in.Statement, in.Steps, in.Instruction), true)
	out := Run(ctx, o, req, parseJSON[domain.Revision], emit)
	if out.Aborted {
		return nil, context.Canceled
	}
	if out.Failed() {
		return nil, out.Err
	}

	merged := proof.Merge(in.Steps, out.Value.RevisedSteps)
	return &domain.RevisionResult{
		Revision:  out.Value,
		Candidate: out.Candidate,
		Merged:    merged,
		Changes:   proof.Diff(in.Steps, merged),
	}, nil
}

// Chat streams a free-text answer. There is no degraded value for chat, so an
// exhausted chain is returned as an error.
func (o *Orchestrator) Chat(ctx context.Context, in ChatInput, emit Emit) (*domain.ChatResult, error) {
	req := o.request(FlowChat, in.Target, llm.ChatPrompt(in.Messages), false)
	out := Run(ctx, o, req, parseText, emit)
	if out.Aborted {
		return nil, context.Canceled
	}
	if out.Failed() {
		return nil, out.Err
	}
	return &domain.ChatResult{Text: out.Value, Candidate: out.Candidate}, nil
}

// Extract derives artifacts from a chat answer. An exhausted chain yields an
// empty set.
func (o *Orchestrator) Extract(ctx context.Context, in ExtractInput, emit Emit) (*domain.ArtifactSet, error) {
	req := o.request(FlowExtract, in.Target, llm.ExtractPrompt(in.Answer), false)
	out := Run(ctx, o, req, parseJSON[domain.ArtifactSet], emit)
	if out.Aborted {
		return nil, context.Canceled
	}
	if out.Failed() || out.Value.Artifacts == nil {
		return &domain.ArtifactSet{Artifacts: []domain.Artifact{}}, nil
	}
	return &out.Value, nil
}
