// Package llmerr maps provider and network failures onto a small set of
// actionable error kinds, each with a fixed user-facing message.
package llmerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Kind is a classified model failure. KindNone means unclassified and is
// treated as unknown and non-retryable.
type Kind string

const (
	KindNone                  Kind = ""
	KindTimeout               Kind = "MODEL_TIMEOUT"
	KindRateLimit             Kind = "MODEL_RATE_LIMIT"
	KindStreamInterrupted     Kind = "MODEL_STREAM_INTERRUPTED"
	KindOutputUnparsable      Kind = "MODEL_OUTPUT_UNPARSABLE"
	KindContextWindowExceeded Kind = "CONTEXT_WINDOW_EXCEEDED"
	KindAuthInvalid           Kind = "MODEL_AUTH_INVALID"
)

const unknownMessage = "Something went wrong while contacting the model. Please try again."

var messages = map[Kind]string{
	KindTimeout:               "The model took too long to respond. Please try again.",
	KindRateLimit:             "The model is receiving too many requests right now. Please wait a moment and try again.",
	KindStreamInterrupted:     "The connection to the model was interrupted. Please try again.",
	KindOutputUnparsable:      "The model returned a response that could not be understood. Please try again.",
	KindContextWindowExceeded: "The request is too long for the model. Try shortening the proof or its context.",
	KindAuthInvalid:           "The model provider rejected the configured credentials. Check the API key.",
}

// Message returns the fixed user-facing text for k. It never depends on the
// raw failure.
func Message(k Kind) string {
	if m, ok := messages[k]; ok {
		return m
	}
	return unknownMessage
}

// Retryable reports whether a failure of kind k may succeed on another attempt.
func Retryable(k Kind) bool {
	switch k {
	case KindTimeout, KindRateLimit, KindStreamInterrupted, KindOutputUnparsable:
		return true
	}
	return false
}

// Status is an HTTP-like failure descriptor.
type Status struct {
	StatusCode int
	Code       string
	Message    string
}

func (s Status) Error() string {
	return fmt.Sprintf("status %d %s: %s", s.StatusCode, s.Code, s.Message)
}

var (
	authPatterns      = []string{"invalid", "unauthorized", "forbidden", "api key"}
	contextPatterns   = []string{"context length", "too many tokens", "token limit"}
	rateLimitPatterns = []string{"rate limit", "overloaded", "at capacity"}
	timeoutPatterns   = []string{"timeout", "aborted", "deadline exceeded"}
	streamPatterns    = []string{"stream", "connection reset", "socket hang up", "fetch failed"}
	parsePatterns     = []string{"json", "parse", "malformed", "not valid json"}

	authCodes      = []string{"invalid_api_key", "unauthenticated", "permission_denied"}
	contextCodes   = []string{"context_length_exceeded"}
	rateLimitCodes = []string{"rate_limit_exceeded", "resource_exhausted", "insufficient_quota"}
	timeoutCodes   = []string{"etimedout", "econnaborted", "deadline_exceeded", "timeout"}
)

// failure is the normalized view Classify matches against.
type failure struct {
	status      int
	code        string
	msg         string
	interrupted bool
	unparsable  bool
}

// Classify maps a raw failure to a Kind. v may be an error, a Status, an
// *http.Response, an HTTP status code or a plain string. The first matching
// rule wins: auth, context window, rate limit, timeout, stream, unparsable.
// Classify never panics; on any internal error it returns KindNone.
func Classify(v any) (kind Kind) {
	defer func() {
		if r := recover(); r != nil {
			kind = KindNone
		}
	}()

	f := describe(v)
	switch {
	case f.status == http.StatusUnauthorized || f.status == http.StatusForbidden ||
		hasCode(f.code, authCodes) || containsAny(f.msg, authPatterns):
		return KindAuthInvalid
	case f.status == http.StatusRequestEntityTooLarge ||
		hasCode(f.code, contextCodes) || containsAny(f.msg, contextPatterns):
		return KindContextWindowExceeded
	case f.status == http.StatusTooManyRequests ||
		hasCode(f.code, rateLimitCodes) || containsAny(f.msg, rateLimitPatterns):
		return KindRateLimit
	case f.status == http.StatusRequestTimeout ||
		hasCode(f.code, timeoutCodes) || containsAny(f.msg, timeoutPatterns):
		return KindTimeout
	case f.interrupted || containsAny(f.msg, streamPatterns):
		return KindStreamInterrupted
	case f.unparsable || containsAny(f.msg, parsePatterns):
		return KindOutputUnparsable
	}
	return KindNone
}

func describe(v any) failure {
	switch t := v.(type) {
	case nil:
		return failure{}
	case string:
		return failure{msg: strings.ToLower(t)}
	case int:
		return failure{status: t}
	case Status:
		return failure{status: t.StatusCode, code: strings.ToLower(t.Code), msg: strings.ToLower(t.Message)}
	case *Status:
		if t == nil {
			return failure{}
		}
		return describe(*t)
	case *http.Response:
		if t == nil {
			return failure{}
		}
		return failure{status: t.StatusCode, msg: strings.ToLower(t.Status)}
	case error:
		return describeError(t)
	case fmt.Stringer:
		return failure{msg: strings.ToLower(t.String())}
	}
	return failure{msg: strings.ToLower(fmt.Sprint(v))}
}

func describeError(err error) failure {
	f := failure{msg: strings.ToLower(err.Error())}

	var st Status
	var stp *Status
	var oaiAPI *openai.APIError
	var oaiReq *openai.RequestError
	var gAPI genai.APIError
	var gAPIp *genai.APIError
	switch {
	case errors.As(err, &st):
		f.status, f.code = st.StatusCode, strings.ToLower(st.Code)
	case errors.As(err, &stp) && stp != nil:
		f.status, f.code = stp.StatusCode, strings.ToLower(stp.Code)
	case errors.As(err, &oaiAPI):
		f.status = oaiAPI.HTTPStatusCode
		if oaiAPI.Code != nil {
			f.code = strings.ToLower(fmt.Sprint(oaiAPI.Code))
		}
	case errors.As(err, &oaiReq):
		f.status = oaiReq.HTTPStatusCode
	case errors.As(err, &gAPI):
		f.status, f.code = gAPI.Code, strings.ToLower(gAPI.Status)
	case errors.As(err, &gAPIp) && gAPIp != nil:
		f.status, f.code = gAPIp.Code, strings.ToLower(gAPIp.Status)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		f.code = "deadline_exceeded"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		f.code = "etimedout"
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		f.interrupted = true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		f.unparsable = true
	}
	return f
}

func containsAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func hasCode(code string, codes []string) bool {
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}
