package domain

import "context"

// NextVersionFunc builds the version to append given the proof's existing
// history, oldest first.
type NextVersionFunc func(existing []ProofVersion) (*ProofVersion, error)

// ProofVersionStore persists append-only proof histories. AppendNext runs next
// and inserts its result inside one critical section per proof, so numbering
// computed from existing cannot race with a concurrent append.
type ProofVersionStore interface {
	List(ctx context.Context, proofID string) ([]ProofVersion, error)
	AppendNext(ctx context.Context, proofID string, next NextVersionFunc) (*ProofVersion, error)
}
