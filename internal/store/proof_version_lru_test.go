package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/proof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendRaw(content string) domain.NextVersionFunc {
	return func(existing []domain.ProofVersion) (*domain.ProofVersion, error) {
		v := proof.NextRaw(existing, content)
		return &v, nil
	}
}

func TestMemoryStore_ListUnknown(t *testing.T) {
	s, err := NewMemoryProofVersionStore(4)
	require.NoError(t, err)

	_, err = s.List(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryProofVersionStore(4)
	require.NoError(t, err)

	v, err := s.AppendNext(ctx, "p1", appendRaw("first"))
	require.NoError(t, err)
	assert.Equal(t, "p1", v.ProofID)
	assert.Equal(t, "1", v.VersionNumber)

	_, err = s.AppendNext(ctx, "p1", appendRaw("second"))
	require.NoError(t, err)
	_, err = s.AppendNext(ctx, "p2", appendRaw("other"))
	require.NoError(t, err)

	versions, err := s.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "first", versions[0].Content)
	assert.Equal(t, "2", versions[1].VersionNumber)

	// List returns a copy.
	versions[0].Content = "mutated"
	again, _ := s.List(ctx, "p1")
	assert.Equal(t, "first", again[0].Content)
}

func TestMemoryStore_NextErrorAppendsNothing(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryProofVersionStore(4)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.AppendNext(ctx, "p1", func([]domain.ProofVersion) (*domain.ProofVersion, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.List(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Eviction(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryProofVersionStore(2)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.AppendNext(ctx, id, appendRaw(id))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Len())
	_, err = s.List(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryProofVersionStore(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendNext(ctx, "p1", appendRaw("x"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	versions, err := s.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, versions, 40)
	for i, v := range versions {
		assert.Equal(t, i+1, v.BaseMajor)
	}
}

func TestMigrationFiles_SortedUpOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.up.sql", "001_a.up.sql", "001_a.down.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.up.sql"), 0o700))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.up.sql", "002_b.up.sql"}, files)
}
