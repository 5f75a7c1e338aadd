package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/structure/internal/constants"
)

// kernelInfo is one row of the kernels command.
type kernelInfo struct {
	ID          string                `json:"kernel_id"`
	Version     string                `json:"version"`
	Determinism constants.Determinism `json:"determinism"`
}

// AddKernelsCommand adds the kernels command to the root command.
func AddKernelsCommand(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "List the registered compute kernels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKernels(cmd.Context(), cmd.OutOrStdout(), st)
		},
	}
	parent.AddCommand(cmd)
}

func runKernels(ctx context.Context, w io.Writer, st *state) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a, err := newCatalog(st.cfg, GetLogger())
	if err != nil {
		return err
	}

	kernels := a.kernels.List()
	infos := make([]kernelInfo, 0, len(kernels))
	for _, k := range kernels {
		infos = append(infos, kernelInfo{ID: k.ID(), Version: k.Version(), Determinism: k.Determinism()})
	}

	if st.jsonOutput() {
		return writeJSON(w, infos)
	}
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "KERNEL\tVERSION\tDETERMINISM")
	for _, k := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", k.ID, k.Version, k.Determinism)
	}
	return tw.Flush()
}

// AddGatesCommand adds the gates command to the root command.
func AddGatesCommand(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "gates",
		Short: "List the registered gates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGates(cmd.Context(), cmd.OutOrStdout(), st)
		},
	}
	parent.AddCommand(cmd)
}

func runGates(ctx context.Context, w io.Writer, st *state) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a, err := newCatalog(st.cfg, GetLogger())
	if err != nil {
		return err
	}

	ids := a.gates.Registry().IDs()
	if st.jsonOutput() {
		return writeJSON(w, ids)
	}
	for _, id := range ids {
		_, _ = fmt.Fprintln(w, id)
	}
	return nil
}
