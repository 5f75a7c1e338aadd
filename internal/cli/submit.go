package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/service"
)

// submitFlags holds the flags of the submit command.
type submitFlags struct {
	user       string
	role       string
	domainHint string
	session    string
}

// AddSubmitCommand adds the submit command to the root command.
func AddSubmitCommand(parent *cobra.Command, st *state) {
	flags := &submitFlags{}

	cmd := &cobra.Command{
		Use:   "submit <text>",
		Short: "Classify, gate and run a request",
		Long: `Submit a natural-language request. It is split into steps, each step is
classified and gated, and accepted steps run on their kernels.

A blocked step leaves the session waiting for answers; continue it with
'structure answer'. Numbered requests ("1. ... 2. ...") become multi-step
workflows where each step sees the results of the previous ones.

Examples:
  structure submit "Summarize data 1, 2, 3, 4, 5"
  structure submit "Convert 10 lb to kg"
  structure submit --session <id> "Convert 5 kg to lbm"
  structure submit --user admin_1 --role admin "1. Convert 10 kg to lbm 2. Summarize data 1, 2, 3"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), st, strings.Join(args, " "), flags)
		},
	}
	cmd.Flags().StringVar(&flags.user, "user", constants.DefaultUserID, "acting user id")
	cmd.Flags().StringVar(&flags.role, "role", constants.RoleDefault, "role used for rate limiting")
	cmd.Flags().StringVar(&flags.domainHint, "domain-hint", "", "force routing to a domain (e.g. physics.fluids)")
	cmd.Flags().StringVar(&flags.session, "session", "", "continue an existing session")
	parent.AddCommand(cmd)
}

func runSubmit(ctx context.Context, w io.Writer, st *state, text string, flags *submitFlags) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var opts []service.SubmitOption
	if flags.session != "" {
		opts = append(opts, service.InSession(flags.session))
	}

	return withApp(ctx, st, func(a *app) error {
		res, err := a.service.Submit(ctx, flags.user, flags.role, domain.TaskRequestInput{
			UserInput:  text,
			DomainHint: flags.domainHint,
		}, opts...)
		if res != nil {
			if perr := printSubmitResult(w, st, res); perr != nil && err == nil {
				err = perr
			}
		}
		return err
	})
}

// AddAnswerCommand adds the answer command to the root command.
func AddAnswerCommand(parent *cobra.Command, st *state) {
	cmd := &cobra.Command{
		Use:   "answer <session-id> <question-id>=<value>...",
		Short: "Answer clarifying questions and resume a blocked task",
		Long: `Answer the clarifying questions of a blocked task. The question id is the
required field shown by 'structure submit'; the value is either an option id
or free text.

Examples:
  structure answer 6f1c... lb_unit_clarification=lbm
  structure answer 6f1c... term_clarification=specific_weight`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(cmd.Context(), cmd.OutOrStdout(), st, args[0], args[1:])
		},
	}
	parent.AddCommand(cmd)
}

func runAnswer(ctx context.Context, w io.Writer, st *state, sessionID string, pairs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	answers, err := parseAnswers(pairs)
	if err != nil {
		return err
	}

	return withApp(ctx, st, func(a *app) error {
		res, err := a.service.Answer(ctx, sessionID, answers)
		if res != nil {
			if perr := printSubmitResult(w, st, res); perr != nil && err == nil {
				err = perr
			}
		}
		return err
	})
}

// parseAnswers turns "id=value" arguments into answers.
func parseAnswers(pairs []string) ([]domain.QuestionAnswer, error) {
	answers := make([]domain.QuestionAnswer, 0, len(pairs))
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("%w: %q is not <question-id>=<value>", structerrors.ErrInvalidAnswer, pair)
		}
		answers = append(answers, domain.QuestionAnswer{QuestionID: id, Answer: value})
	}
	return answers, nil
}

// printSubmitResult renders a submission or answer outcome.
func printSubmitResult(w io.Writer, st *state, res *service.SubmitResult) error {
	if st.jsonOutput() {
		return writeJSON(w, res)
	}

	_, _ = fmt.Fprintf(w, "Session:   %s\n", res.SessionID)
	if res.Workflow != nil {
		_, _ = fmt.Fprintf(w, "Workflow:  %s (%s)\n", res.Workflow.ID, res.Workflow.Status)
	}

	if resp := res.Response; resp != nil {
		_, _ = fmt.Fprintf(w, "Status:    %s\n", resp.Status)
		switch resp.Status {
		case constants.TaskResponseSuccess:
			return printResult(w, resp.Result)
		case constants.TaskResponseClarify, constants.TaskResponseReject:
			_, _ = fmt.Fprintln(w)
			printClarify(w, resp.Clarify)
			if resp.Status == constants.TaskResponseClarify {
				_, _ = fmt.Fprintf(w, "\nContinue with: structure answer %s <question-id>=<value>\n", res.SessionID)
			}
		case constants.TaskResponseError:
			_, _ = fmt.Fprintf(w, "Message:   %s\n", resp.Message)
		}
		return nil
	}

	if res.Workflow == nil {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	return printSteps(w, res.Workflow.Steps)
}

// printSteps renders one line per workflow step.
func printSteps(w io.Writer, steps []*domain.WorkflowStep) error {
	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "STEP\tSTATUS\tDESCRIPTION\tERROR")
	for _, step := range steps {
		errText := step.Error
		if errText == "" {
			errText = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", step.ID, step.Status, step.Description, errText)
	}
	return tw.Flush()
}

// printResult renders a kernel result as compact JSON.
func printResult(w io.Writer, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Result:    %s\n", data)
	return nil
}
