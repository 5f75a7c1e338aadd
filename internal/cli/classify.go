package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/gate"
)

// classifyResult is the JSON form of the classify command.
type classifyResult struct {
	Spec          domain.TaskSpec        `json:"spec"`
	GateDecisions []domain.GateDecision  `json:"gate_decisions"`
	Blocking      bool                   `json:"blocking"`
	Clarify       *domain.ClarifyPayload `json:"clarify,omitempty"`
}

// AddClassifyCommand adds the classify command to the root command.
func AddClassifyCommand(parent *cobra.Command, st *state) {
	var domainHint string

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a request and run its gates without executing it",
		Long: `Classify a natural-language request into a task spec and show what each
required gate decides. Nothing is executed and no session is created.

Examples:
  structure classify "What is the specific weight of water?"
  structure classify --domain-hint physics.fluids "density of water"
  structure classify -o json "Convert 10 lb to kg"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.Context(), cmd.OutOrStdout(), st, strings.Join(args, " "), domainHint)
		},
	}
	cmd.Flags().StringVar(&domainHint, "domain-hint", "", "force routing to a domain (e.g. physics.fluids)")
	parent.AddCommand(cmd)
}

func runClassify(ctx context.Context, w io.Writer, st *state, text, domainHint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a, err := newCatalog(st.cfg, GetLogger())
	if err != nil {
		return err
	}

	spec, err := a.classifier.Classify(domain.TaskRequest{
		RequestID:  uuid.NewString(),
		UserInput:  text,
		DomainHint: domainHint,
	})
	if err != nil {
		return err
	}
	decisions, err := a.gates.RunGates(spec)
	if err != nil {
		return err
	}

	res := classifyResult{
		Spec:          spec,
		GateDecisions: decisions,
		Blocking:      len(gate.GetBlockingDecisions(decisions)) > 0,
		Clarify:       gate.Aggregate(decisions),
	}
	if st.jsonOutput() {
		return writeJSON(w, res)
	}

	_, _ = fmt.Fprintf(w, "Domain:      %s\n", spec.QualifiedDomain())
	_, _ = fmt.Fprintf(w, "Risk:        %s\n", spec.RiskLevel())
	_, _ = fmt.Fprintf(w, "Confidence:  %.2f\n", spec.Confidence())
	_, _ = fmt.Fprintf(w, "Kernels:     %s\n", joinOrDash(spec.SelectedKernels()))
	_, _ = fmt.Fprintln(w)
	if err := printGateDecisions(w, decisions); err != nil {
		return err
	}
	if res.Blocking {
		_, _ = fmt.Fprintln(w)
		printClarify(w, res.Clarify)
	}
	return nil
}
