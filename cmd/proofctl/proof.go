package main

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/proofstream/internal/client"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	attemptSave string

	reviewStatement string
	reviewProofFile string

	reviseStatement   string
	reviseStepsFile   string
	reviseInstruction string
	reviseSave        string
	reviseBaseMajor   int
	reviseForce       bool
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <statement>",
	Short: "Attempt a proof of a statement",
	Long: `Stream a proof attempt, then its classification and decomposition.

With --save the attempt is recorded as a raw version of the given proof and
its sublemmas as a derived structured version.

Example:
  proofctl attempt "Every bounded monotone sequence converges" --save p1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAttempt,
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a proof",
	Long: `Ask for a verdict (OK, ISSUES or UNCLEAR) on a proof.

Example:
  proofctl review --statement "..." --proof-file proof.md`,
	RunE: runReview,
}

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Revise the steps of a structured proof",
	Long: `Ask for revised steps and show how they merge into the current ones.

--steps is a JSON array of {title, statement, proof}. With --save and
--base-major the merge is recorded as a derived structured version, unless a
manual edit exists under that major (override with --force).

Example:
  proofctl revise --steps steps.json --instruction "Fix step 2" --save p1 --base-major 1`,
	RunE: runRevise,
}

func init() {
	attemptCmd.Flags().StringVar(&attemptSave, "save", "", "Record the attempt under this proof id")

	reviewCmd.Flags().StringVar(&reviewStatement, "statement", "", "Statement being proved")
	reviewCmd.Flags().StringVar(&reviewProofFile, "proof-file", "-", "File holding the proof (- for stdin)")

	reviseCmd.Flags().StringVar(&reviseStatement, "statement", "", "Statement being proved")
	reviseCmd.Flags().StringVar(&reviseStepsFile, "steps", "", "JSON file with the current steps (- for stdin)")
	reviseCmd.Flags().StringVar(&reviseInstruction, "instruction", "", "What to change")
	reviseCmd.Flags().StringVar(&reviseSave, "save", "", "Record the merge under this proof id")
	reviseCmd.Flags().IntVar(&reviseBaseMajor, "base-major", 0, "Raw version the steps belong to")
	reviseCmd.Flags().BoolVar(&reviseForce, "force", false, "Record even over a manual edit")
	_ = reviseCmd.MarkFlagRequired("steps")
	_ = reviseCmd.MarkFlagRequired("instruction")

	rootCmd.AddCommand(attemptCmd, reviewCmd, reviseCmd)
}

func runAttempt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c := newClient()
	in := orchestrator.AttemptInput{Target: target(), Statement: strings.Join(args, " ")}

	var res domain.AttemptResult
	acc, err := runStream(ctx, c, client.PathAttempt, in, &res, cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	for _, adv := range acc.Advisories {
		fmt.Fprintf(cmd.ErrOrStderr(), "note: %s\n", adv.Error)
	}

	if jsonOut {
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else if len(res.Sublemmas) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		printSteps(cmd.OutOrStdout(), res.Sublemmas)
	}

	if attemptSave == "" {
		return nil
	}
	raw, err := c.AppendRaw(ctx, attemptSave, res.Text)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s v%s\n", attemptSave, raw.VersionNumber)
	if len(res.Sublemmas) == 0 {
		return nil
	}
	structured, err := c.AppendStructured(ctx, attemptSave, raw.BaseMajor, res.Sublemmas, domain.ProvenanceDerived)
	if err != nil {
		return fmt.Errorf("save sublemmas: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s v%s\n", attemptSave, structured.VersionNumber)
	return nil
}

func runReview(cmd *cobra.Command, _ []string) error {
	proofText, err := readInput("", reviewProofFile)
	if err != nil {
		return err
	}
	in := orchestrator.ReviewInput{Target: target(), Statement: reviewStatement, Proof: proofText}

	var res domain.ReviewResult
	if _, err := runStream(cmd.Context(), newClient(), client.PathReview, in, &res, cmd.OutOrStdout(), cmd.ErrOrStderr(), true); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "%s: %s\n", res.Verdict, res.Summary)
	for _, issue := range res.Issues {
		fmt.Fprintf(out, "  step %d", issue.Step)
		if issue.Severity != "" {
			fmt.Fprintf(out, " [%s]", issue.Severity)
		}
		fmt.Fprintf(out, ": %s\n", issue.Description)
	}
	return nil
}

func runRevise(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	steps, err := readSteps(reviseStepsFile)
	if err != nil {
		return err
	}
	if reviseSave != "" && reviseBaseMajor < 1 {
		return fmt.Errorf("--save needs --base-major")
	}

	c := newClient()
	in := orchestrator.ReviseInput{
		Target:      target(),
		Statement:   reviseStatement,
		Steps:       steps,
		Instruction: reviseInstruction,
	}

	var res domain.RevisionResult
	if _, err := runStream(ctx, c, client.PathRevise, in, &res, cmd.OutOrStdout(), cmd.ErrOrStderr(), true); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := printJSON(out, res); err != nil {
			return err
		}
	} else {
		if res.Explanation != "" {
			fmt.Fprintln(out, res.Explanation)
		}
		printChanges(out, res.Changes)
	}

	if reviseSave == "" {
		return nil
	}
	rec, err := c.Reconcile(ctx, reviseSave, client.ReconcileRequest{
		BaseMajor: reviseBaseMajor,
		Current:   steps,
		Revised:   res.RevisedSteps,
		Accept:    true,
		Force:     reviseForce,
	})
	if err != nil {
		return fmt.Errorf("save revision: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "saved %s v%s\n", reviseSave, rec.Version.VersionNumber)
	return nil
}
