package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/client"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
)

var errCancelled = errors.New("cancelled")

// renderer prints a stream as it arrives: model text on out, everything
// else on errOut.
type renderer struct {
	out    io.Writer
	errOut io.Writer
	// quiet suppresses model text, for streams whose text is JSON.
	quiet bool
	acc   client.Accumulator
}

func (r *renderer) handle(c domain.Chunk) error {
	r.acc.Apply(c)

	switch c := c.(type) {
	case domain.Attempt:
		fmt.Fprintf(r.errOut, "candidates: %s\n", strings.Join(c.Candidates, ", "))
	case domain.ModelStart:
		fmt.Fprintf(r.errOut, "[%s/%s]\n", c.Provider, c.Model)
	case domain.ModelDelta:
		if !r.quiet {
			fmt.Fprint(r.out, c.Text)
		}
	case domain.ModelEnd:
		if !r.quiet {
			fmt.Fprintln(r.out)
		}
	case domain.Progress:
		fmt.Fprintf(r.errOut, "... %s\n", c.Message)
	case domain.ClassifyResult:
		fmt.Fprintf(r.errOut, "verdict: %s", c.Verdict)
		if c.Reason != "" {
			fmt.Fprintf(r.errOut, " (%s)", c.Reason)
		}
		fmt.Fprintln(r.errOut)
	case domain.DecomposeResult:
		fmt.Fprintf(r.errOut, "sublemmas: %d\n", len(c.Sublemmas))
	case domain.ServerError:
		fmt.Fprintf(r.errOut, "! %s", c.Error)
		if c.Detail != "" {
			fmt.Fprintf(r.errOut, " [%s]", c.Detail)
		}
		fmt.Fprintln(r.errOut)
	}
	return nil
}

// runStream streams one flow and decodes its done payload into result.
func runStream(ctx context.Context, c *client.Client, path string, body, result any, out, errOut io.Writer, quiet bool) (*client.Accumulator, error) {
	r := &renderer{out: out, errOut: errOut, quiet: quiet}
	if err := c.Stream(ctx, path, body, r.handle); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return &r.acc, errCancelled
	}
	if !r.acc.Finished() {
		if e := r.acc.Err(); e != nil {
			return &r.acc, errors.New(e.Error)
		}
		return &r.acc, client.ErrNoResult
	}
	if result != nil {
		if err := r.acc.Result(result); err != nil {
			return &r.acc, fmt.Errorf("decode result: %w", err)
		}
	}
	return &r.acc, nil
}

func target() orchestrator.Target {
	return orchestrator.Target{Provider: provider, Model: model}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput returns the flag value, or the file's contents, or stdin for "-".
func readInput(value, file string) (string, error) {
	if file == "" {
		return value, nil
	}
	var (
		b   []byte
		err error
	)
	if file == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(b), nil
}

func readSteps(file string) ([]domain.Sublemma, error) {
	raw, err := readInput("", file)
	if err != nil {
		return nil, err
	}
	var steps []domain.Sublemma
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("parse steps in %s: %w", file, err)
	}
	return steps, nil
}

func printSteps(w io.Writer, steps []domain.Sublemma) {
	for i, s := range steps {
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, s.Title, s.Statement)
	}
}

func printChanges(w io.Writer, changes []domain.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "no changes")
		return
	}
	for _, ch := range changes {
		var fields []string
		if ch.Fields.Title {
			fields = append(fields, "title")
		}
		if ch.Fields.Statement {
			fields = append(fields, "statement")
		}
		if ch.Fields.Proof {
			fields = append(fields, "proof")
		}
		fmt.Fprintf(w, "step %d: %s", ch.Index+1, ch.Kind)
		if len(fields) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(fields, ", "))
		}
		fmt.Fprintln(w)
	}
}
