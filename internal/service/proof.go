package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/proof"
	"github.com/Harshitk-cp/proofstream/internal/store"
	"go.uber.org/zap"
)

var (
	ErrProofNotFound      = errors.New("proof not found")
	ErrProofIDMissing     = errors.New("proof_id is required")
	ErrContentEmpty       = errors.New("content is required")
	ErrInvalidBaseMajor   = errors.New("base_major must be at least 1")
	ErrUnknownBaseMajor   = errors.New("no raw version exists for base_major")
	ErrUserEditConflict   = errors.New("a user-edited structured version exists for this major")
	ErrVersionConflict    = errors.New("version number already taken, retry")
	ErrNothingToReconcile = errors.New("revised steps are required")
)

type ProofService struct {
	store  domain.ProofVersionStore
	logger *zap.Logger
}

func NewProofService(s domain.ProofVersionStore, logger *zap.Logger) *ProofService {
	return &ProofService{store: s, logger: logger}
}

// AppendRaw records a new raw draft under the next major.
func (s *ProofService) AppendRaw(ctx context.Context, proofID, content string) (*domain.ProofVersion, error) {
	if strings.TrimSpace(proofID) == "" {
		return nil, ErrProofIDMissing
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentEmpty
	}

	v, err := s.store.AppendNext(ctx, proofID, func(existing []domain.ProofVersion) (*domain.ProofVersion, error) {
		next := proof.NextRaw(existing, content)
		return &next, nil
	})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	s.logger.Info("raw version appended",
		zap.String("proof_id", proofID),
		zap.String("version", v.VersionNumber))
	return v, nil
}

// AppendStructured records a structured refinement of raw draft baseMajor.
func (s *ProofService) AppendStructured(ctx context.Context, proofID string, baseMajor int, sublemmas []domain.Sublemma, prov domain.Provenance) (*domain.ProofVersion, error) {
	return s.appendStructured(ctx, proofID, baseMajor, sublemmas, prov, true)
}

func (s *ProofService) appendStructured(ctx context.Context, proofID string, baseMajor int, sublemmas []domain.Sublemma, prov domain.Provenance, allowOverEdit bool) (*domain.ProofVersion, error) {
	if strings.TrimSpace(proofID) == "" {
		return nil, ErrProofIDMissing
	}
	if baseMajor < 1 {
		return nil, ErrInvalidBaseMajor
	}

	v, err := s.store.AppendNext(ctx, proofID, func(existing []domain.ProofVersion) (*domain.ProofVersion, error) {
		if !hasRawMajor(existing, baseMajor) {
			return nil, ErrUnknownBaseMajor
		}
		if !allowOverEdit && proof.HasUserEditedStructured(existing, baseMajor) {
			return nil, ErrUserEditConflict
		}
		next, err := proof.NextStructured(existing, baseMajor, sublemmas, prov)
		if err != nil {
			return nil, err
		}
		return &next, nil
	})
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	s.logger.Info("structured version appended",
		zap.String("proof_id", proofID),
		zap.String("version", v.VersionNumber),
		zap.Bool("user_edited", v.UserEdited),
		zap.Bool("derived", v.Derived))
	return v, nil
}

// History returns all versions of a proof, oldest first.
func (s *ProofService) History(ctx context.Context, proofID string) ([]domain.ProofVersion, error) {
	versions, err := s.store.List(ctx, proofID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return versions, nil
}

// HasUserEditedStructured reports whether a manual edit exists under major.
// An unknown proof has none.
func (s *ProofService) HasUserEditedStructured(ctx context.Context, proofID string, major int) (bool, error) {
	versions, err := s.store.List(ctx, proofID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return proof.HasUserEditedStructured(versions, major), nil
}

type ReconcileInput struct {
	ProofID   string
	BaseMajor int
	Current   []domain.Sublemma
	Revised   []domain.Sublemma
	// Accept appends the merged steps as a derived structured version.
	Accept bool
	// Force accepts even over a user-edited structured version.
	Force bool
}

type ReconcileResult struct {
	Merged  []domain.Sublemma    `json:"merged"`
	Changes []domain.Change      `json:"changes"`
	Version *domain.ProofVersion `json:"version,omitempty"`
}

// Reconcile merges revised steps into current. With Accept it also records
// the merge. A manual edit under the same major blocks the append unless
// Force is set; the preview is still returned alongside ErrUserEditConflict.
func (s *ProofService) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	if len(in.Revised) == 0 {
		return nil, ErrNothingToReconcile
	}

	merged := proof.Merge(in.Current, in.Revised)
	res := &ReconcileResult{
		Merged:  merged,
		Changes: proof.Diff(in.Current, merged),
	}
	if !in.Accept {
		return res, nil
	}

	v, err := s.appendStructured(ctx, in.ProofID, in.BaseMajor, merged, domain.ProvenanceDerived, in.Force)
	if err != nil {
		if errors.Is(err, ErrUserEditConflict) {
			s.logger.Warn("reconcile blocked by manual edit",
				zap.String("proof_id", in.ProofID),
				zap.Int("base_major", in.BaseMajor))
			return res, err
		}
		return nil, err
	}
	res.Version = v
	return res, nil
}

func (s *ProofService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrProofNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrVersionConflict
	case errors.Is(err, proof.ErrInvalidBaseMajor):
		return ErrInvalidBaseMajor
	}
	return err
}

func hasRawMajor(existing []domain.ProofVersion, major int) bool {
	for _, v := range existing {
		if v.Type == domain.VersionRaw && v.BaseMajor == major {
			return true
		}
	}
	return false
}
