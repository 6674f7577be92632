package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProofVersionStore keeps proof histories in the proof_versions table.
// Appends for one proof are serialized with a transaction-scoped advisory
// lock keyed on the proof id.
type ProofVersionStore struct {
	db *pgxpool.Pool
}

var _ domain.ProofVersionStore = (*ProofVersionStore)(nil)

func NewProofVersionStore(db *pgxpool.Pool) *ProofVersionStore {
	return &ProofVersionStore{db: db}
}

func (s *ProofVersionStore) List(ctx context.Context, proofID string) ([]domain.ProofVersion, error) {
	versions, err := listVersions(ctx, s.db, proofID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions, nil
}

func (s *ProofVersionStore) AppendNext(ctx context.Context, proofID string, next domain.NextVersionFunc) (*domain.ProofVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, proofID); err != nil {
		return nil, fmt.Errorf("lock proof history: %w", err)
	}

	existing, err := listVersions(ctx, tx, proofID)
	if err != nil {
		return nil, err
	}

	v, err := next(existing)
	if err != nil {
		return nil, err
	}
	v.ProofID = proofID

	sublemmas, err := json.Marshal(v.Sublemmas)
	if err != nil {
		return nil, fmt.Errorf("marshal sublemmas: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO proof_versions (id, proof_id, type, version_number, base_major, content, sublemmas, user_edited, derived)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		v.ID, v.ProofID, v.Type, v.VersionNumber, v.BaseMajor, v.Content, sublemmas, v.UserEdited, v.Derived,
	).Scan(&v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert proof version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return v, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listVersions(ctx context.Context, q querier, proofID string) ([]domain.ProofVersion, error) {
	rows, err := q.Query(ctx,
		`SELECT id, proof_id, type, version_number, base_major, content, sublemmas, user_edited, derived, created_at
		 FROM proof_versions WHERE proof_id = $1
		 ORDER BY seq ASC`,
		proofID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proof versions: %w", err)
	}
	defer rows.Close()

	versions := []domain.ProofVersion{}
	for rows.Next() {
		var (
			v         domain.ProofVersion
			sublemmas []byte
		)
		if err := rows.Scan(&v.ID, &v.ProofID, &v.Type, &v.VersionNumber, &v.BaseMajor, &v.Content, &sublemmas, &v.UserEdited, &v.Derived, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan proof version: %w", err)
		}
		if err := json.Unmarshal(sublemmas, &v.Sublemmas); err != nil {
			return nil, fmt.Errorf("decode sublemmas of %s: %w", v.VersionNumber, err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
