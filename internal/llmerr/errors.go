package llmerr

import "errors"

// ClassifiedError is the failure of one candidate attempt. Error returns only
// the fixed user message; the raw cause stays reachable through Unwrap for logs.
type ClassifiedError struct {
	Kind      Kind
	Candidate string
	Err       error
}

// New classifies err for the given candidate.
func New(err error, candidate string) *ClassifiedError {
	return &ClassifiedError{Kind: Classify(err), Candidate: candidate, Err: err}
}

// Unparsable wraps a parse or schema validation failure.
func Unparsable(err error, candidate string) *ClassifiedError {
	return &ClassifiedError{Kind: KindOutputUnparsable, Candidate: candidate, Err: err}
}

func (e *ClassifiedError) Error() string { return Message(e.Kind) }

func (e *ClassifiedError) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, classifying it if it is not
// already a *ClassifiedError.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Classify(err)
}

// UserMessage is the text safe to show for err.
func UserMessage(err error) string {
	return Message(KindOf(err))
}
