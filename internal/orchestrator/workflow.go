package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/structure/internal/clarify"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// RunWorkflow runs ready steps sequentially, in list order, until the
// workflow completes, fails or blocks. A failed step stops the loop at
// once; completed steps are never re-run.
//
// wf.Status always ends in one of the four workflow states. The returned
// error is non-nil when ctx was canceled or the workflow could not be
// persisted.
func (o *Orchestrator) RunWorkflow(ctx context.Context, wf *domain.Workflow, session *domain.Session) error {
	start := o.clock.Now()
	logger := o.logger.With().Str("workflow_id", wf.ID).Str("session_id", session.ID).Logger()
	ctx = logger.WithContext(ctx)

	now := o.now()
	session.ActiveWorkflowID = wf.ID
	session.UpdateContext(wf.Context, now)
	session.AddHistory(constants.HistoryWorkflowStarted, map[string]any{
		"workflow_id": wf.ID,
		"steps":       len(wf.Steps),
	}, now)

	defer func() {
		o.metrics.WorkflowFinished(wf.Status, o.clock.Now().Sub(start))
		logger.Info().
			Str("status", wf.Status.String()).
			Int64("duration_ms", o.clock.Now().Sub(start).Milliseconds()).
			Msg("workflow finished")
	}()

	// Every pass with ready steps moves at least one step out of pending,
	// so len(steps)+1 passes is enough to reach a fixed point.
	for pass := 0; pass <= len(wf.Steps); pass++ {
		ready := wf.ReadySteps()
		if len(ready) == 0 {
			break
		}

		for _, step := range ready {
			if err := ctx.Err(); err != nil {
				// Steps that never started stay pending; the run itself failed.
				wf.Status = constants.WorkflowStatusFailed
				return o.finish(ctx, wf, err)
			}
			if err := o.RunStep(ctx, wf, step, session); err != nil {
				logger.Warn().Err(err).Str("step_id", step.ID).Msg("skipping step")
				continue
			}
			if step.Status == constants.StepStatusFailed {
				wf.Status = constants.WorkflowStatusFailed
				return o.finish(ctx, wf, ctx.Err())
			}
		}

		wf.Status = wf.DeriveStatus()
		if err := o.persist(ctx, wf); err != nil {
			return err
		}
	}

	wf.Status = wf.DeriveStatus()
	if wf.Status == constants.WorkflowStatusPending {
		// Pass budget exhausted with steps still ready.
		wf.Status = constants.WorkflowStatusBlocked
	}
	return o.finish(ctx, wf, nil)
}

func (o *Orchestrator) finish(ctx context.Context, wf *domain.Workflow, runErr error) error {
	wf.UpdatedAt = o.now()
	// Persist even after cancellation so completed steps are not lost.
	if err := o.persist(context.WithoutCancel(ctx), wf); err != nil {
		return err
	}
	return runErr
}

func (o *Orchestrator) persist(ctx context.Context, wf *domain.Workflow) error {
	if o.workflows == nil {
		return nil
	}
	if err := o.workflows.Put(ctx, wf); err != nil {
		return fmt.Errorf("failed to persist workflow %s: %w", wf.ID, err)
	}
	return nil
}

// AnswerClarification records answers in the session under answer_<id>,
// loads the session's active workflow, shares the session context with
// it, resets every blocked step to pending and runs the workflow again.
//
// The session is updated even when no active workflow can be found.
func (o *Orchestrator) AnswerClarification(ctx context.Context, session *domain.Session, answers []domain.QuestionAnswer) (*domain.Workflow, error) {
	values := make(map[string]any, len(answers))
	recorded := make([]map[string]any, 0, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.QuestionID)
		if id == "" {
			return nil, fmt.Errorf("%w: question id %w", structerrors.ErrInvalidAnswer, structerrors.ErrEmptyValue)
		}
		values[clarify.AnswerKey(id)] = a.Answer
		recorded = append(recorded, map[string]any{"question_id": id, "answer": a.Answer})
	}

	now := o.now()
	session.UpdateContext(values, now)
	session.AddHistory(constants.HistoryClarificationAnswer, map[string]any{"answers": recorded}, now)

	if session.ActiveWorkflowID == "" {
		return nil, fmt.Errorf("%w: %s", structerrors.ErrNoActiveWorkflow, session.ID)
	}
	if o.workflows == nil {
		return nil, fmt.Errorf("%w: %s", structerrors.ErrWorkflowNotFound, session.ActiveWorkflowID)
	}
	wf, err := o.workflows.Get(ctx, session.ActiveWorkflowID)
	if err != nil {
		return nil, err
	}

	wf.MergeContext(session.Context, now)
	for _, step := range wf.StepsWithStatus(constants.StepStatusBlocked) {
		if err := Transition(step, constants.StepStatusPending, now); err != nil {
			return wf, err
		}
	}

	o.logger.Info().
		Str("workflow_id", wf.ID).
		Str("session_id", session.ID).
		Int("answers", len(answers)).
		Msg("resuming workflow")

	return wf, o.RunWorkflow(ctx, wf, session)
}
