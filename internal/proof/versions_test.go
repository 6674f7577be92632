package proof

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var steps = []domain.Sublemma{{Title: "Step 1", Statement: "s", Proof: "p"}}

func TestAppendRaw_ConsecutiveMajors(t *testing.T) {
	h := NewHistory("p1")
	for i := 1; i <= 5; i++ {
		v := h.AppendRaw(fmt.Sprintf("draft %d", i))
		assert.Equal(t, fmt.Sprint(i), v.VersionNumber)
		assert.Equal(t, i, v.BaseMajor)
		assert.Equal(t, domain.VersionRaw, v.Type)
		assert.Equal(t, "p1", v.ProofID)
	}
}

func TestAppendRaw_IgnoresStructuredVersions(t *testing.T) {
	h := NewHistory("p1")
	h.AppendRaw("a")
	_, err := h.AppendStructured(1, steps, domain.ProvenanceDerived)
	require.NoError(t, err)
	// A structured version under a higher major must not move raw numbering.
	_, err = h.AppendStructured(7, steps, domain.ProvenanceDerived)
	require.NoError(t, err)

	v := h.AppendRaw("b")
	assert.Equal(t, "2", v.VersionNumber)
}

func TestAppendStructured_MinorsPerMajor(t *testing.T) {
	h := NewHistory("p1")
	h.AppendRaw("a")
	h.AppendRaw("b")

	var got []string
	for i := 0; i < 3; i++ {
		v, err := h.AppendStructured(1, steps, domain.ProvenanceDerived)
		require.NoError(t, err)
		got = append(got, v.VersionNumber)
	}
	v, err := h.AppendStructured(2, steps, domain.ProvenanceManualEdit)
	require.NoError(t, err)
	got = append(got, v.VersionNumber)
	v, err = h.AppendStructured(1, steps, domain.ProvenanceDerived)
	require.NoError(t, err)
	got = append(got, v.VersionNumber)

	assert.Equal(t, []string{"1.1", "1.2", "1.3", "2.1", "1.4"}, got)
}

func TestAppendStructured_InvalidMajor(t *testing.T) {
	h := NewHistory("p1")
	_, err := h.AppendStructured(0, steps, domain.ProvenanceDerived)
	assert.ErrorIs(t, err, ErrInvalidBaseMajor)
	assert.Empty(t, h.Versions())
}

func TestAppendStructured_CopiesSublemmas(t *testing.T) {
	h := NewHistory("p1")
	in := []domain.Sublemma{{Title: "Step 1", Statement: "s", Proof: "p"}}
	v, err := h.AppendStructured(1, in, domain.ProvenanceDerived)
	require.NoError(t, err)

	in[0].Title = "changed"
	assert.Equal(t, "Step 1", v.Sublemmas[0].Title)
	assert.Equal(t, "Step 1", h.Versions()[0].Sublemmas[0].Title)
}

func TestHasUserEditedStructured_Monotonic(t *testing.T) {
	h := NewHistory("p1")
	h.AppendRaw("a")

	assert.False(t, h.HasUserEditedStructured(1))
	_, _ = h.AppendStructured(1, steps, domain.ProvenanceDerived)
	assert.False(t, h.HasUserEditedStructured(1))

	v, err := h.AppendStructured(1, steps, domain.ProvenanceManualEdit)
	require.NoError(t, err)
	assert.True(t, v.UserEdited)
	assert.False(t, v.Derived)
	assert.True(t, h.HasUserEditedStructured(1))
	assert.False(t, h.HasUserEditedStructured(2))

	_, _ = h.AppendStructured(1, steps, domain.ProvenanceDerived)
	assert.True(t, h.HasUserEditedStructured(1))
}

func TestHistory_ConcurrentAppendsAreUnique(t *testing.T) {
	h := NewHistory("p1")
	h.AppendRaw("a")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.AppendRaw("x")
		}()
		go func() {
			defer wg.Done()
			_, _ = h.AppendStructured(1, steps, domain.ProvenanceDerived)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, v := range h.Versions() {
		assert.False(t, seen[v.VersionNumber], "duplicate version %s", v.VersionNumber)
		seen[v.VersionNumber] = true
	}
	assert.Len(t, seen, 101)
}

func TestHistory_AppendNextError(t *testing.T) {
	h := NewHistory("p1")
	_, err := h.AppendNext(func([]domain.ProofVersion) (*domain.ProofVersion, error) {
		return nil, ErrInvalidBaseMajor
	})
	assert.ErrorIs(t, err, ErrInvalidBaseMajor)
	assert.Empty(t, h.Versions())
}
