package domain

// ReviewVerdict is the outcome of reviewing a proof artifact.
type ReviewVerdict string

const (
	ReviewOK      ReviewVerdict = "OK"
	ReviewIssues  ReviewVerdict = "ISSUES"
	ReviewUnclear ReviewVerdict = "UNCLEAR"
)

type ReviewIssue struct {
	Step        int    `json:"step" validate:"gte=0"`
	Severity    string `json:"severity" validate:"omitempty,oneof=minor major critical"`
	Description string `json:"description" validate:"required"`
}

type ReviewResult struct {
	Verdict ReviewVerdict `json:"verdict" validate:"required,oneof=OK ISSUES UNCLEAR"`
	Summary string        `json:"summary"`
	Issues  []ReviewIssue `json:"issues" validate:"dive"`
}

// ProofVerdict classifies a streamed proof attempt.
type ProofVerdict string

const (
	VerdictProved    ProofVerdict = "PROVED"
	VerdictDisproved ProofVerdict = "DISPROVED"
	VerdictPartial   ProofVerdict = "PARTIAL"
	VerdictUnclear   ProofVerdict = "UNCLEAR"
)

type Classification struct {
	Verdict ProofVerdict `json:"verdict" validate:"required,oneof=PROVED DISPROVED PARTIAL UNCLEAR"`
	Reason  string       `json:"reason"`
}

type Decomposition struct {
	Sublemmas []Sublemma `json:"sublemmas" validate:"required,min=1,dive"`
}

type AttemptResult struct {
	Text           string         `json:"text"`
	Candidate      string         `json:"candidate"`
	Classification Classification `json:"classification"`
	Sublemmas      []Sublemma     `json:"sublemmas"`
	DecomposeError string         `json:"decompose_error,omitempty"`
}

// Revision is the structured payload a model returns when asked to revise steps.
type Revision struct {
	RevisedSteps []Sublemma `json:"revised_steps" validate:"required,min=1,dive"`
	Explanation  string     `json:"explanation"`
}

type RevisionResult struct {
	Revision
	Candidate string     `json:"candidate"`
	Merged    []Sublemma `json:"merged"`
	Changes   []Change   `json:"changes"`
}

type ChatResult struct {
	Text      string `json:"text"`
	Candidate string `json:"candidate"`
}

type ArtifactKind string

const (
	ArtifactDefinition ArtifactKind = "definition"
	ArtifactLemma      ArtifactKind = "lemma"
	ArtifactTheorem    ArtifactKind = "theorem"
	ArtifactExample    ArtifactKind = "example"
	ArtifactNote       ArtifactKind = "note"
)

type Artifact struct {
	Kind    ArtifactKind `json:"kind" validate:"required,oneof=definition lemma theorem example note"`
	Title   string       `json:"title" validate:"required"`
	Content string       `json:"content" validate:"required"`
}

type ArtifactSet struct {
	Artifacts []Artifact `json:"artifacts" validate:"dive"`
}
