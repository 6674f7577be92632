// Package client talks to a proofstream server: it opens event streams for
// the model flows, tracks per-channel turns so a newer request supersedes an
// older one, and folds chunks into a client-side view of the stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/buildconfig"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/sse"
)

// Paths of the streaming endpoints.
const (
	PathAttempt = "/v1/proofs/attempt"
	PathReview  = "/v1/proofs/review"
	PathRevise  = "/v1/proofs/revise"
	PathChat    = "/v1/chat"
	PathExtract = "/v1/chat/extract"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	unlockKey  string
	httpClient *http.Client
}

// New returns a client for baseURL. unlockKey may be empty when the server
// has no unlock gate.
func New(baseURL, unlockKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		unlockKey: unlockKey,
		// Streams stay open as long as the model talks; only the dial and
		// response headers are bounded.
		httpClient: &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 30 * time.Second,
		}},
	}
}

// Stream POSTs body to path and calls onChunk for every chunk received.
// Cancelling ctx releases the connection and returns nil.
func (c *Client) Stream(ctx context.Context, path string, body any, onChunk func(domain.Chunk) error) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return readAPIError(resp)
	}
	return sse.Consume(ctx, resp.Body, onChunk)
}

// Versions returns a proof's history.
func (c *Client) Versions(ctx context.Context, proofID string) ([]domain.ProofVersion, error) {
	var out []domain.ProofVersion
	err := c.doJSON(ctx, http.MethodGet, "/v1/proofs/"+proofID+"/versions", nil, &out)
	return out, err
}

// AppendRaw records a raw draft.
func (c *Client) AppendRaw(ctx context.Context, proofID, content string) (*domain.ProofVersion, error) {
	var out domain.ProofVersion
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proofs/"+proofID+"/versions/raw", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendStructured records a structured version under baseMajor.
func (c *Client) AppendStructured(ctx context.Context, proofID string, baseMajor int, sublemmas []domain.Sublemma, prov domain.Provenance) (*domain.ProofVersion, error) {
	var out domain.ProofVersion
	body := map[string]any{
		"base_major":  baseMajor,
		"sublemmas":   sublemmas,
		"user_edited": prov.UserEdited,
		"derived":     prov.Derived,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proofs/"+proofID+"/versions/structured", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReconcileRequest merges Revised into Current. With Accept the merge is
// recorded as a derived structured version under BaseMajor.
type ReconcileRequest struct {
	BaseMajor int               `json:"base_major"`
	Current   []domain.Sublemma `json:"current"`
	Revised   []domain.Sublemma `json:"revised"`
	Accept    bool              `json:"accept"`
	Force     bool              `json:"force"`
}

type ReconcileResponse struct {
	Merged  []domain.Sublemma    `json:"merged"`
	Changes []domain.Change      `json:"changes"`
	Version *domain.ProofVersion `json:"version,omitempty"`
}

// Reconcile previews or records a merge. A manual edit under the same major
// yields an *APIError with status 409 unless Force is set.
func (c *Client) Reconcile(ctx context.Context, proofID string, req ReconcileRequest) (*ReconcileResponse, error) {
	var out ReconcileResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/proofs/"+proofID+"/reconcile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", buildconfig.UserAgent("proofctl"))
	if c.unlockKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.unlockKey)
	}
	return req, nil
}

func readAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(b, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(b))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
