package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mrz1836/structure/internal/domain"
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tabwriter for aligned text output. Callers must Flush.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printGateDecisions renders one line per gate.
func printGateDecisions(w io.Writer, decisions []domain.GateDecision) error {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "GATE\tDECISION\tREASONS")
	for _, d := range decisions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", d.GateID, d.Decision, joinOrDash(d.Reasons))
	}
	return tw.Flush()
}

// printClarify renders the questions a blocked task needs answered.
func printClarify(w io.Writer, payload *domain.ClarifyPayload) {
	if payload == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%s (%s)\n", payload.Message, payload.GateID)
	if len(payload.Requests) > 0 {
		for _, req := range payload.Requests {
			_, _ = fmt.Fprintf(w, "  ? %s\n", req.Question)
			for _, opt := range req.Options {
				_, _ = fmt.Fprintf(w, "      %s=%s  %s\n", req.QuestionID, opt.OptionID, opt.Label)
			}
		}
		return
	}
	for _, q := range payload.Questions {
		_, _ = fmt.Fprintf(w, "  ? %s\n", q)
	}
	if len(payload.RequiredFields) > 0 {
		_, _ = fmt.Fprintf(w, "  answer with: %s\n", strings.Join(answerHints(payload.RequiredFields), " "))
	}
}

func answerHints(fields []string) []string {
	hints := make([]string, 0, len(fields))
	for _, f := range fields {
		hints = append(hints, f+"=<value>")
	}
	return hints
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
