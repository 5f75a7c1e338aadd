package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/invariance"
)

// AddCheckInvarianceCommand adds the check-invariance command to the root command.
func AddCheckInvarianceCommand(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "check-invariance <file>",
		Short: "Check that paraphrases route and gate the same way",
		Long: `Run a YAML suite of paraphrase cases. Every phrasing in a case must land
in the same domain and get the same gate outcome; the command fails when any
phrasing deviates.

Suite format:
  cases:
    - name: specific_weight
      expect:
        domain: physics.fluids
        gates: [ambiguity_gate]
        blocking: true
        decision: CLARIFY
      phrasings:
        - What is the specific weight of water?
        - specific weight of water?`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckInvariance(cmd.Context(), cmd.OutOrStdout(), st, args[0])
		},
	}
	parent.AddCommand(cmd)
}

func runCheckInvariance(ctx context.Context, w io.Writer, st *state, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	suite, err := invariance.LoadSuite(path)
	if err != nil {
		return err
	}
	a, err := newCatalog(st.cfg, GetLogger())
	if err != nil {
		return err
	}

	reports, err := suite.Run(ctx, a.classifier, a.gates)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if !r.Report.Passed() {
			failed++
		}
	}

	if st.jsonOutput() {
		if err := writeJSON(w, reports); err != nil {
			return err
		}
	} else {
		printInvariance(w, reports)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d cases deviated", structerrors.ErrInvarianceViolation, failed, len(reports))
	}
	return nil
}

func printInvariance(w io.Writer, reports []invariance.CaseReport) {
	for _, r := range reports {
		failed := r.Report.Failed()
		if len(failed) == 0 {
			_, _ = fmt.Fprintf(w, "PASS  %s (%d phrasings)\n", r.Name, len(r.Report.Results))
			continue
		}
		_, _ = fmt.Fprintf(w, "FAIL  %s (%d of %d phrasings deviated)\n", r.Name, len(failed), len(r.Report.Results))
		for _, res := range failed {
			_, _ = fmt.Fprintf(w, "      %q: %s\n", res.Phrasing, strings.Join(res.Deviations, "; "))
		}
	}
}
