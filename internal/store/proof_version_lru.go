package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/proof"
	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryProofVersionStore keeps the most recently used proof histories in
// process. Evicted histories are gone.
type MemoryProofVersionStore struct {
	mu        sync.Mutex
	histories *lru.Cache[string, *proof.History]
}

var _ domain.ProofVersionStore = (*MemoryProofVersionStore)(nil)

func NewMemoryProofVersionStore(size int) (*MemoryProofVersionStore, error) {
	cache, err := lru.New[string, *proof.History](size)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &MemoryProofVersionStore{histories: cache}, nil
}

func (s *MemoryProofVersionStore) List(_ context.Context, proofID string) ([]domain.ProofVersion, error) {
	h, ok := s.histories.Get(proofID)
	if !ok {
		return nil, ErrNotFound
	}
	versions := h.Versions()
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions, nil
}

func (s *MemoryProofVersionStore) AppendNext(_ context.Context, proofID string, next domain.NextVersionFunc) (*domain.ProofVersion, error) {
	return s.history(proofID).AppendNext(next)
}

// history returns the history for proofID, creating it if needed.
func (s *MemoryProofVersionStore) history(proofID string) *proof.History {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.histories.Get(proofID); ok {
		return h
	}
	h := proof.NewHistory(proofID)
	s.histories.Add(proofID, h)
	return h
}

// Len returns the number of histories held.
func (s *MemoryProofVersionStore) Len() int {
	return s.histories.Len()
}
