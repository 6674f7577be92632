package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/store"
	"go.uber.org/zap"
)

func newTestProofService(t *testing.T) *ProofService {
	t.Helper()
	s, err := store.NewMemoryProofVersionStore(16)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return NewProofService(s, zap.NewNop())
}

var twoSteps = []domain.Sublemma{
	{Title: "Step 1: a", Statement: "a", Proof: "a"},
	{Title: "Step 2: b", Statement: "b", Proof: "b"},
}

func TestProofService_AppendRaw(t *testing.T) {
	s := newTestProofService(t)
	ctx := context.Background()

	v, err := s.AppendRaw(ctx, "p1", "draft")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.VersionNumber != "1" || v.BaseMajor != 1 {
		t.Fatalf("expected version 1, got %s (major %d)", v.VersionNumber, v.BaseMajor)
	}

	if _, err := s.AppendRaw(ctx, "p1", "  "); !errors.Is(err, ErrContentEmpty) {
		t.Fatalf("expected ErrContentEmpty, got %v", err)
	}
	if _, err := s.AppendRaw(ctx, "", "x"); !errors.Is(err, ErrProofIDMissing) {
		t.Fatalf("expected ErrProofIDMissing, got %v", err)
	}
}

func TestProofService_AppendStructured(t *testing.T) {
	s := newTestProofService(t)
	ctx := context.Background()

	if _, err := s.AppendStructured(ctx, "p1", 0, twoSteps, domain.ProvenanceManualEdit); !errors.Is(err, ErrInvalidBaseMajor) {
		t.Fatalf("expected ErrInvalidBaseMajor, got %v", err)
	}
	if _, err := s.AppendStructured(ctx, "p1", 1, twoSteps, domain.ProvenanceManualEdit); !errors.Is(err, ErrUnknownBaseMajor) {
		t.Fatalf("expected ErrUnknownBaseMajor, got %v", err)
	}

	if _, err := s.AppendRaw(ctx, "p1", "draft"); err != nil {
		t.Fatalf("append raw: %v", err)
	}
	v, err := s.AppendStructured(ctx, "p1", 1, twoSteps, domain.ProvenanceManualEdit)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v.VersionNumber != "1.1" || !v.UserEdited || v.Derived {
		t.Fatalf("unexpected version %+v", v)
	}
}

func TestProofService_HistoryNotFound(t *testing.T) {
	s := newTestProofService(t)
	if _, err := s.History(context.Background(), "nope"); !errors.Is(err, ErrProofNotFound) {
		t.Fatalf("expected ErrProofNotFound, got %v", err)
	}
	edited, err := s.HasUserEditedStructured(context.Background(), "nope", 1)
	if err != nil || edited {
		t.Fatalf("expected false, nil; got %v, %v", edited, err)
	}
}

func TestProofService_ReconcilePreview(t *testing.T) {
	s := newTestProofService(t)

	res, err := s.Reconcile(context.Background(), ReconcileInput{
		ProofID: "p1",
		Current: twoSteps,
		Revised: []domain.Sublemma{{Title: "Step 2: b", Statement: "b", Proof: "b, fixed"}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Merged) != 2 || res.Merged[1].Proof != "b, fixed" {
		t.Fatalf("unexpected merge %+v", res.Merged)
	}
	if len(res.Changes) != 1 || res.Changes[0].Kind != domain.ChangeModify {
		t.Fatalf("unexpected changes %+v", res.Changes)
	}
	if res.Version != nil {
		t.Fatal("preview must not append")
	}
	if _, err := s.History(context.Background(), "p1"); !errors.Is(err, ErrProofNotFound) {
		t.Fatalf("expected no history, got %v", err)
	}
}

func TestProofService_ReconcileAcceptRespectsManualEdit(t *testing.T) {
	s := newTestProofService(t)
	ctx := context.Background()

	if _, err := s.AppendRaw(ctx, "p1", "draft"); err != nil {
		t.Fatalf("append raw: %v", err)
	}
	in := ReconcileInput{
		ProofID:   "p1",
		BaseMajor: 1,
		Current:   twoSteps,
		Revised:   []domain.Sublemma{{Title: "Step 1: a", Statement: "a", Proof: "a, fixed"}},
		Accept:    true,
	}

	res, err := s.Reconcile(ctx, in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Version == nil || res.Version.VersionNumber != "1.1" || !res.Version.Derived {
		t.Fatalf("unexpected version %+v", res.Version)
	}

	if _, err := s.AppendStructured(ctx, "p1", 1, twoSteps, domain.ProvenanceManualEdit); err != nil {
		t.Fatalf("append manual edit: %v", err)
	}

	res, err = s.Reconcile(ctx, in)
	if !errors.Is(err, ErrUserEditConflict) {
		t.Fatalf("expected ErrUserEditConflict, got %v", err)
	}
	if res == nil || len(res.Merged) != 2 || res.Version != nil {
		t.Fatalf("expected preview without version, got %+v", res)
	}

	in.Force = true
	res, err = s.Reconcile(ctx, in)
	if err != nil {
		t.Fatalf("expected forced accept, got %v", err)
	}
	if res.Version.VersionNumber != "1.3" {
		t.Fatalf("expected 1.3, got %s", res.Version.VersionNumber)
	}
}

func TestProofService_ReconcileRequiresRevised(t *testing.T) {
	s := newTestProofService(t)
	if _, err := s.Reconcile(context.Background(), ReconcileInput{ProofID: "p1", Current: twoSteps}); !errors.Is(err, ErrNothingToReconcile) {
		t.Fatalf("expected ErrNothingToReconcile, got %v", err)
	}
}
