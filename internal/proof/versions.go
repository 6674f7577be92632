// Package proof implements proof version numbering and the reconciliation of
// revised proof steps.
package proof

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/google/uuid"
)

var ErrInvalidBaseMajor = errors.New("base major must be at least 1")

// NextRaw builds the raw version that follows existing. Its major is one more
// than the largest raw major so far; structured versions do not count.
func NextRaw(existing []domain.ProofVersion, content string) domain.ProofVersion {
	major := 0
	for _, v := range existing {
		if v.Type == domain.VersionRaw && v.BaseMajor > major {
			major = v.BaseMajor
		}
	}
	major++

	return domain.ProofVersion{
		ID:            uuid.New(),
		Type:          domain.VersionRaw,
		VersionNumber: strconv.Itoa(major),
		BaseMajor:     major,
		Content:       content,
		Sublemmas:     []domain.Sublemma{},
		CreatedAt:     time.Now().UTC(),
	}
}

// NextStructured builds the structured version that follows existing under
// baseMajor. Minors are scoped to their major.
func NextStructured(existing []domain.ProofVersion, baseMajor int, sublemmas []domain.Sublemma, prov domain.Provenance) (domain.ProofVersion, error) {
	if baseMajor < 1 {
		return domain.ProofVersion{}, ErrInvalidBaseMajor
	}

	minor := 0
	for _, v := range existing {
		if v.Type != domain.VersionStructured || v.BaseMajor != baseMajor {
			continue
		}
		if m := minorOf(v.VersionNumber); m > minor {
			minor = m
		}
	}
	minor++

	if sublemmas == nil {
		sublemmas = []domain.Sublemma{}
	}
	return domain.ProofVersion{
		ID:            uuid.New(),
		Type:          domain.VersionStructured,
		VersionNumber: fmt.Sprintf("%d.%d", baseMajor, minor),
		BaseMajor:     baseMajor,
		Sublemmas:     append([]domain.Sublemma(nil), sublemmas...),
		UserEdited:    prov.UserEdited,
		Derived:       prov.Derived,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// minorOf returns the minor of a "major.minor" version number, or 0.
func minorOf(versionNumber string) int {
	_, minor, ok := strings.Cut(versionNumber, ".")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(minor)
	if err != nil {
		return 0
	}
	return n
}

// HasUserEditedStructured reports whether a manually edited structured
// version exists under major.
func HasUserEditedStructured(existing []domain.ProofVersion, major int) bool {
	for _, v := range existing {
		if v.Type == domain.VersionStructured && v.BaseMajor == major && v.UserEdited {
			return true
		}
	}
	return false
}

// History is an in-process append-only version history for one proof.
// It is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	proofID  string
	versions []domain.ProofVersion
}

func NewHistory(proofID string) *History {
	return &History{proofID: proofID}
}

func (h *History) AppendRaw(content string) domain.ProofVersion {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := NextRaw(h.versions, content)
	v.ProofID = h.proofID
	h.versions = append(h.versions, v)
	return v
}

func (h *History) AppendStructured(baseMajor int, sublemmas []domain.Sublemma, prov domain.Provenance) (domain.ProofVersion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := NextStructured(h.versions, baseMajor, sublemmas, prov)
	if err != nil {
		return domain.ProofVersion{}, err
	}
	v.ProofID = h.proofID
	h.versions = append(h.versions, v)
	return v, nil
}

// AppendNext appends the version next builds from the current history.
func (h *History) AppendNext(next domain.NextVersionFunc) (*domain.ProofVersion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, err := next(h.versions)
	if err != nil {
		return nil, err
	}
	v.ProofID = h.proofID
	h.versions = append(h.versions, *v)
	out := *v
	return &out, nil
}

func (h *History) HasUserEditedStructured(major int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HasUserEditedStructured(h.versions, major)
}

// Versions returns a copy of the history, oldest first.
func (h *History) Versions() []domain.ProofVersion {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.ProofVersion(nil), h.versions...)
}
