package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/compliance"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/kernel"
)

// timeoutArg is the spec arg that overrides the configured kernel timeout.
const timeoutArg = "timeout_ms"

// RunStep executes one pending step. Every outcome, including panics and
// timeouts, is recorded on the step; the returned error is non-nil only
// when the step was not pending.
func (o *Orchestrator) RunStep(ctx context.Context, wf *domain.Workflow, step *domain.WorkflowStep, session *domain.Session) error {
	if err := Transition(step, constants.StepStatusActive, o.now()); err != nil {
		return err
	}

	logger := o.logger.With().
		Str("workflow_id", wf.ID).
		Str("step_id", step.ID).
		Str("session_id", session.ID).
		Logger()
	start := o.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, step, session, constants.ErrorKindUnhandled,
				fmt.Errorf("%w: %v", structerrors.ErrUnhandled, r), nil)
		}
		o.metrics.StepFinished(step.Status, step.ErrorKind)
		logger.Info().
			Str("status", step.Status.String()).
			Str("error_kind", step.ErrorKind.String()).
			Int64("duration_ms", o.clock.Now().Sub(start).Milliseconds()).
			Msg("step finished")
	}()

	o.execute(logger.WithContext(ctx), wf, step, session)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, wf *domain.Workflow, step *domain.WorkflowStep, session *domain.Session) {
	actor := session.UserID

	if o.compliance != nil && !o.compliance.CheckAccess(ctx, actor, step.ID, compliance.ActionExecute) {
		o.block(step, session, constants.ErrorKindCompliance,
			fmt.Sprintf("%s: actor %s may not execute step %s", structerrors.ErrComplianceViolation, actor, step.ID), nil)
		o.audit.Record(ctx, audit.Entry{
			ActorID:          actor,
			Action:           constants.AuditActionStepExecutionAttempt,
			ResourceID:       step.ID,
			Status:           constants.AuditStatusBlocked,
			Details:          map[string]any{"workflow_id": wf.ID, "reason": constants.AuditPolicyAccessControl},
			PolicyViolations: []string{constants.AuditPolicyAccessControl},
		})
		return
	}

	if step.Spec == nil {
		o.fail(ctx, step, session, constants.ErrorKindConfiguration,
			fmt.Errorf("%w: step %s has no task spec; classification of %q failed", structerrors.ErrConfiguration, step.ID, step.Description), nil)
		return
	}

	spec := *step.Spec
	if o.resolver != nil {
		answers := domain.CloneMap(wf.Context)
		if answers == nil {
			answers = map[string]any{}
		}
		for k, v := range session.Context {
			answers[k] = v
		}
		if res := o.resolver.Resolve(spec, answers); len(res.Resolved) > 0 {
			spec = res.Spec
			step.Spec = &spec
			o.recordChain(ctx, wf, step, session, actor, res.Chain)
			zerolog.Ctx(ctx).Debug().Int("resolved", len(res.Resolved)).Msg("applied clarification answers")
		}
	}

	decisions, err := o.gates.RunGates(spec)
	if err != nil {
		o.fail(ctx, step, session, constants.ErrorKindConfiguration, fmt.Errorf("%w: %w", structerrors.ErrConfiguration, err), nil)
		return
	}
	for _, d := range decisions {
		o.metrics.GateEvaluated(d.GateID, d.Decision)
	}

	passed := gate.PassedGates(decisions)
	if blocking := gate.GetBlockingDecisions(decisions); len(blocking) > 0 {
		reasons := make([]string, 0, len(blocking))
		for _, d := range blocking {
			reasons = append(reasons, d.Reasons...)
		}
		o.block(step, session, errorKindFor(blocking[0]), strings.Join(reasons, "; "), gate.Aggregate(decisions))
		o.audit.Record(ctx, audit.Entry{
			ActorID:          actor,
			Action:           constants.AuditActionStepExecutionAttempt,
			ResourceID:       step.ID,
			Status:           constants.AuditStatusBlocked,
			Details:          map[string]any{"workflow_id": wf.ID, "gate_id": blocking[0].GateID},
			GatesPassed:      passed,
			PolicyViolations: gate.Violations(decisions),
		})
		return
	}

	kernels := spec.SelectedKernels()
	if len(kernels) == 0 {
		o.fail(ctx, step, session, constants.ErrorKindConfiguration,
			fmt.Errorf("%w: no kernel selected for step %s", structerrors.ErrConfiguration, step.ID), nil)
		return
	}
	k, err := o.kernels.Get(kernels[0])
	if err != nil {
		o.fail(ctx, step, session, constants.ErrorKindConfiguration, fmt.Errorf("%w: %w", structerrors.ErrConfiguration, err), nil)
		return
	}

	args := spec.Args()
	if err := k.ValidateArgs(args); err != nil {
		var argsErr *kernel.ArgsError
		var problems any
		if errors.As(err, &argsErr) {
			problems = map[string]any{"problems": argsErr.Problems}
		}
		o.fail(ctx, step, session, constants.ErrorKindValidation, err, problems)
		return
	}

	timeout := o.timeoutFor(args)
	in := domain.KernelInput{
		KernelID:    k.ID(),
		Version:     k.Version(),
		Args:        args,
		RequestID:   spec.RequestID(),
		SpecVersion: constants.SpecVersion,
		TimeoutMS:   int(timeout.Milliseconds()),
		Determinism: o.config.Determinism,
	}

	invokeStart := o.clock.Now()
	out, err := invoke(ctx, k, in, timeout)
	o.metrics.KernelInvoked(k.ID(), o.clock.Now().Sub(invokeStart), err == nil && out.Success)

	switch {
	case errors.Is(err, structerrors.ErrStepTimeout), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		o.fail(ctx, step, session, constants.ErrorKindTimeout, err, nil)
	case err != nil:
		o.fail(ctx, step, session, constants.ErrorKindUnhandled, err, nil)
	case !out.Success:
		output := map[string]any{"error": out.Error, "kernel_id": out.KernelID}
		if out.Result != nil {
			output["details"] = out.Result
		}
		o.fail(ctx, step, session, constants.ErrorKindExecution,
			fmt.Errorf("%w: %s", structerrors.ErrExecutionFailure, out.Error), output)
	default:
		o.complete(ctx, wf, step, session, out, passed)
	}
}

type invocation struct {
	out domain.KernelOutput
	err error
}

// invoke runs the kernel under a deadline. Kernels that ignore their
// context are abandoned when the deadline passes; the buffered channel
// lets their goroutine exit later.
func invoke(ctx context.Context, k kernel.Kernel, in domain.KernelInput, timeout time.Duration) (domain.KernelOutput, error) {
	kctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocation{err: fmt.Errorf("%w: kernel %s panicked: %v", structerrors.ErrUnhandled, k.ID(), r)}
			}
		}()
		done <- invocation{out: k.Execute(kctx, in)}
	}()

	select {
	case res := <-done:
		if res.err == nil && kctx.Err() != nil && !res.out.Success {
			return res.out, timeoutErr(ctx, k.ID(), timeout)
		}
		return res.out, res.err
	case <-kctx.Done():
		return domain.KernelOutput{}, timeoutErr(ctx, k.ID(), timeout)
	}
}

func timeoutErr(parent context.Context, kernelID string, timeout time.Duration) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("kernel %s aborted: %w", kernelID, err)
	}
	return fmt.Errorf("%w: kernel %s exceeded %s", structerrors.ErrStepTimeout, kernelID, timeout)
}

func (o *Orchestrator) timeoutFor(args map[string]any) time.Duration {
	switch v := args[timeoutArg].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	}
	return o.config.KernelTimeout
}

func (o *Orchestrator) complete(ctx context.Context, wf *domain.Workflow, step *domain.WorkflowStep, session *domain.Session, out domain.KernelOutput, passed []string) {
	now := o.now()
	if err := Transition(step, constants.StepStatusCompleted, now); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("unexpected step transition")
	}
	step.Output = out.Result

	session.AddHistory(constants.HistoryStepComplete, map[string]any{
		"workflow_id": wf.ID,
		"step_id":     step.ID,
		"kernel_id":   out.KernelID,
		"warnings":    out.Warnings,
	}, now)

	details := map[string]any{
		"workflow_id":    wf.ID,
		"kernel":         out.KernelID,
		"kernel_version": out.Version,
		"request_id":     out.RequestID,
	}
	if len(out.Warnings) > 0 {
		details["warnings"] = out.Warnings
	}
	o.audit.Record(ctx, audit.Entry{
		ActorID:     session.UserID,
		Action:      constants.AuditActionStepExecution,
		ResourceID:  step.ID,
		Status:      constants.AuditStatusSuccess,
		Details:     details,
		GatesPassed: passed,
	})

	// Map results flow to later steps through the shared session context.
	if m, ok := out.Result.(map[string]any); ok {
		session.UpdateContext(m, now)
	}
}

// recordChain keeps the clarification exchanges that unblocked a step in
// both the session history and the audit trail.
func (o *Orchestrator) recordChain(ctx context.Context, wf *domain.Workflow, step *domain.WorkflowStep, session *domain.Session, actor string, chain domain.ClarifyChain) {
	session.AddHistory(constants.HistoryClarificationChain, map[string]any{
		"step_id": step.ID,
		"chain":   chain,
	}, o.now())
	o.audit.Record(ctx, audit.Entry{
		ActorID:    actor,
		Action:     constants.AuditActionClarification,
		ResourceID: step.ID,
		Status:     constants.AuditStatusSuccess,
		Details:    map[string]any{"workflow_id": wf.ID, "chain": chain},
	})
}

func (o *Orchestrator) block(step *domain.WorkflowStep, session *domain.Session, kind constants.ErrorKind, reason string, output any) {
	now := o.now()
	if err := Transition(step, constants.StepStatusBlocked, now); err != nil {
		o.logger.Error().Err(err).Str("step_id", step.ID).Msg("unexpected step transition")
	}
	step.Error = reason
	step.ErrorKind = kind
	if output != nil {
		step.Output = output
	}
	session.AddHistory(constants.HistoryStepBlocked, map[string]any{
		"step_id":    step.ID,
		"error":      reason,
		"error_kind": kind.String(),
	}, now)
}

func (o *Orchestrator) fail(ctx context.Context, step *domain.WorkflowStep, session *domain.Session, kind constants.ErrorKind, err error, output any) {
	now := o.now()
	if step.Status != constants.StepStatusFailed {
		if terr := Transition(step, constants.StepStatusFailed, now); terr != nil {
			zerolog.Ctx(ctx).Error().Err(terr).Msg("unexpected step transition")
			step.Status = constants.StepStatusFailed
		}
	}
	step.Error = err.Error()
	step.ErrorKind = kind
	if output == nil {
		output = map[string]any{"error": step.Error}
	}
	step.Output = output

	session.AddHistory(constants.HistoryStepFailed, map[string]any{
		"step_id":    step.ID,
		"error":      step.Error,
		"error_kind": kind.String(),
	}, now)

	zerolog.Ctx(ctx).Warn().Err(err).Str("error_kind", kind.String()).Msg("step failed")

	if o.config.AuditExecutionFailures {
		o.audit.Record(ctx, audit.Entry{
			ActorID:    session.UserID,
			Action:     constants.AuditActionStepExecution,
			ResourceID: step.ID,
			Status:     constants.AuditStatusFailure,
			Details:    map[string]any{"error": step.Error, "error_kind": kind.String()},
		})
	}
}

// errorKindFor maps the first blocking decision to its failure category.
func errorKindFor(d domain.GateDecision) constants.ErrorKind {
	err := structerrors.ClassifyDecision(d.Decision.String(), d.GateID)
	switch {
	case errors.Is(err, structerrors.ErrAmbiguity):
		return constants.ErrorKindAmbiguity
	case errors.Is(err, structerrors.ErrValidation):
		return constants.ErrorKindValidation
	case errors.Is(err, structerrors.ErrComplianceViolation):
		return constants.ErrorKindCompliance
	default:
		return constants.ErrorKindPolicy
	}
}
