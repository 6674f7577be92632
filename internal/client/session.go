package client

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

var ErrNoResult = errors.New("stream ended without a result")

// Accumulator folds the chunks of one stream into the state a client shows.
//
// A server-error seen before the current model's model.end is provisional:
// the orchestrator may still move to another candidate, and the next
// model.start supersedes it. A server-error after model.end is advisory and
// never replaces the answer.
type Accumulator struct {
	Candidates []string
	Provider   string
	Model      string
	// Attempts counts model.start chunks.
	Attempts int
	Stage    string

	Classification *domain.Classification
	Sublemmas      []domain.Sublemma
	Advisories     []domain.ServerError

	text      strings.Builder
	ended     bool
	lastEnd   *domain.ModelEnd
	pending   *domain.ServerError
	result    json.RawMessage
	finished  bool
	lastError *domain.ServerError
}

// Apply folds c into the state. It returns true on the terminal done chunk.
func (a *Accumulator) Apply(c domain.Chunk) bool {
	switch c := c.(type) {
	case domain.Attempt:
		a.Candidates = append([]string(nil), c.Candidates...)
	case domain.ModelStart:
		a.Attempts++
		a.Provider, a.Model = c.Provider, c.Model
		a.text.Reset()
		a.ended = false
		a.pending = nil
	case domain.ModelDelta:
		a.text.WriteString(c.Text)
	case domain.ModelEnd:
		a.ended = true
		end := c
		a.lastEnd = &end
	case domain.Progress:
		a.Stage = c.Stage
	case domain.ClassifyResult:
		cls := c.Classification
		a.Classification = &cls
	case domain.DecomposeResult:
		a.Sublemmas = append([]domain.Sublemma(nil), c.Sublemmas...)
	case domain.ServerError:
		e := c
		a.lastError = &e
		if a.ended {
			a.Advisories = append(a.Advisories, e)
		} else {
			a.pending = &e
		}
	case domain.Done:
		a.result = c.Result
		a.finished = true
		a.pending = nil
		return true
	}
	return false
}

// Text is the streamed text of the current candidate.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Finished reports whether the done chunk arrived.
func (a *Accumulator) Finished() bool {
	return a.finished
}

// LastModelEnd returns the most recent model.end, if any.
func (a *Accumulator) LastModelEnd() (domain.ModelEnd, bool) {
	if a.lastEnd == nil {
		return domain.ModelEnd{}, false
	}
	return *a.lastEnd, true
}

// Err returns the error that ended an unfinished stream: the provisional
// error nothing superseded, otherwise the last server-error seen. It is nil
// once the stream finished.
func (a *Accumulator) Err() *domain.ServerError {
	if a.finished {
		return nil
	}
	if a.pending != nil {
		return a.pending
	}
	return a.lastError
}

// Result decodes the done payload into v.
func (a *Accumulator) Result(v any) error {
	if !a.finished {
		return ErrNoResult
	}
	return json.Unmarshal(a.result, v)
}
