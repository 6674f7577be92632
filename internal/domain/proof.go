package domain

import (
	"time"

	"github.com/google/uuid"
)

// VersionType distinguishes raw proof drafts from structured refinements.
type VersionType string

const (
	VersionRaw        VersionType = "raw"
	VersionStructured VersionType = "structured"
)

func ValidVersionType(s string) bool {
	switch VersionType(s) {
	case VersionRaw, VersionStructured:
		return true
	}
	return false
}

// Sublemma is one step of a structured proof. Steps have no stable identity
// across versions; they are aligned by their position in the list.
type Sublemma struct {
	Title     string `json:"title"`
	Statement string `json:"statement"`
	Proof     string `json:"proof"`
}

// ProofVersion is one entry of a proof's append-only history.
//
// Raw versions carry VersionNumber == strconv.Itoa(BaseMajor). Structured
// versions carry "{BaseMajor}.{minor}" where minors are scoped per BaseMajor.
type ProofVersion struct {
	ID            uuid.UUID   `json:"id"`
	ProofID       string      `json:"proof_id"`
	Type          VersionType `json:"type"`
	VersionNumber string      `json:"version_number"`
	BaseMajor     int         `json:"base_major"`
	Content       string      `json:"content,omitempty"`
	Sublemmas     []Sublemma  `json:"sublemmas"`

	// Provenance. A manual edit is UserEdited && !Derived; an unmodified
	// machine proposal is Derived.
	UserEdited bool `json:"user_edited"`
	Derived    bool `json:"derived"`

	CreatedAt time.Time `json:"created_at"`
}

// Provenance records who produced a structured version.
type Provenance struct {
	UserEdited bool `json:"user_edited"`
	Derived    bool `json:"derived"`
}

var (
	ProvenanceManualEdit = Provenance{UserEdited: true, Derived: false}
	ProvenanceDerived    = Provenance{UserEdited: false, Derived: true}
)

// ChangeKind classifies one position of a step diff.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeRemove ChangeKind = "remove"
	ChangeModify ChangeKind = "modify"
)

// ChangedFields flags which fields of a modified step differ.
type ChangedFields struct {
	Title     bool `json:"title"`
	Statement bool `json:"statement"`
	Proof     bool `json:"proof"`
}

// Change describes the difference at a single index between two step lists.
type Change struct {
	Index  int           `json:"index"`
	Kind   ChangeKind    `json:"kind"`
	Fields ChangedFields `json:"fields"`
	Before *Sublemma     `json:"before,omitempty"`
	After  *Sublemma     `json:"after,omitempty"`
}
