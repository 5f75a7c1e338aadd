package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/structure/internal/domain"
)

// sessionView is the JSON form of the session command.
type sessionView struct {
	Session  *domain.Session  `json:"session"`
	Workflow *domain.Workflow `json:"active_workflow,omitempty"`
}

// AddSessionCommand adds the session command to the root command.
func AddSessionCommand(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "session <id>",
		Short: "Show a session and its active workflow",
		Long: `Show the stored state of a session: its context (including clarification
answers), its history and the steps of its active workflow.

Examples:
  structure session 6f1c...
  structure session -o json 6f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), cmd.OutOrStdout(), st, args[0])
		},
	}
	parent.AddCommand(cmd)
}

func runSession(ctx context.Context, w io.Writer, st *state, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return withApp(ctx, st, func(a *app) error {
		session, err := a.service.GetSession(ctx, id)
		if err != nil {
			return err
		}
		view := sessionView{Session: session}
		if session.ActiveWorkflowID != "" {
			wf, err := a.service.GetWorkflow(ctx, session.ActiveWorkflowID)
			if err != nil {
				return err
			}
			view.Workflow = wf
		}

		if st.jsonOutput() {
			return writeJSON(w, view)
		}
		return printSession(w, view)
	})
}

func printSession(w io.Writer, view sessionView) error {
	s := view.Session
	_, _ = fmt.Fprintf(w, "Session:   %s\n", s.ID)
	_, _ = fmt.Fprintf(w, "User:      %s\n", s.UserID)
	_, _ = fmt.Fprintf(w, "Created:   %s\n", s.CreatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Updated:   %s\n", s.UpdatedAt.Format(time.RFC3339))

	if len(s.History) > 0 {
		_, _ = fmt.Fprintln(w, "\nHistory:")
		tw := newTable(w)
		for _, h := range s.History {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", h.Timestamp.Format(time.RFC3339), h.Type)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if view.Workflow == nil {
		return nil
	}
	_, _ = fmt.Fprintf(w, "\nWorkflow:  %s (%s)\n", view.Workflow.ID, view.Workflow.Status)
	_, _ = fmt.Fprintf(w, "Name:      %s\n\n", view.Workflow.Name)
	return printSteps(w, view.Workflow.Steps)
}
