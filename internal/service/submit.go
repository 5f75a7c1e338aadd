package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/compliance"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/gate"
)

// SubmitResult is the outcome of a submission or an answer.
// Response is set when the workflow has exactly one step.
type SubmitResult struct {
	SessionID string               `json:"session_id"`
	Workflow  *domain.Workflow     `json:"workflow"`
	Response  *domain.TaskResponse `json:"response,omitempty"`
}

// SubmitOption customizes one submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	sessionID string
}

// InSession continues an existing session instead of starting a new one.
func InSession(id string) SubmitOption {
	return func(o *submitOptions) {
		o.sessionID = id
	}
}

// Submit classifies and runs a task on behalf of userID.
//
// The request is rejected with ErrRateLimited when the user is over budget
// and with ErrInvalidInput when input fails schema validation; neither
// creates a session. Otherwise the request becomes a workflow run to
// completion, failure or a clarification block. Blocks and kernel failures
// are reported in the result, not as errors.
func (s *Service) Submit(ctx context.Context, userID, role string, input domain.TaskRequestInput, opts ...SubmitOption) (*SubmitResult, error) {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}
	if userID == "" {
		userID = constants.DefaultUserID
	}
	if role == "" {
		role = constants.RoleDefault
	}
	requestID := s.newID()

	if !s.checker.CheckRateLimit(ctx, userID, role) {
		s.audit.Record(ctx, audit.Entry{
			ActorID:          userID,
			Action:           constants.AuditActionTaskSubmission,
			ResourceID:       requestID,
			Status:           constants.AuditStatusBlocked,
			Details:          map[string]any{"role": role},
			PolicyViolations: []string{constants.AuditPolicyRateLimit},
		})
		return nil, fmt.Errorf("%w: user %s", structerrors.ErrRateLimited, userID)
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	sessionID, load := o.sessionID, o.sessionID != ""
	if load {
		if err := checkSessionID(sessionID); err != nil {
			return nil, err
		}
		if !s.checker.CheckAccess(ctx, userID, sessionID, compliance.ActionWrite) {
			return nil, fmt.Errorf("%w: user %s may not write session %s", structerrors.ErrComplianceViolation, userID, sessionID)
		}
	} else {
		sessionID = s.newID()
	}

	logger := s.logger.With().
		Str("request_id", requestID).
		Str("session_id", sessionID).
		Str("user_id", userID).
		Logger()
	ctx = logger.WithContext(ctx)

	var wf *domain.Workflow
	session, err := s.withSession(ctx, sessionID, load, userID, func(session *domain.Session) error {
		wf = s.builder.Build(ctx, domain.TaskRequest{
			RequestID:  requestID,
			UserInput:  input.UserInput,
			DomainHint: input.DomainHint,
			Context:    input.Context,
		})
		session.AddHistory(constants.HistoryTaskSubmitted, map[string]any{
			"request_id":  requestID,
			"workflow_id": wf.ID,
			"user_input":  summarize(input.UserInput),
			"steps":       len(wf.Steps),
		}, s.clock.Now().UTC())
		return s.run(ctx, wf, session)
	})
	if session == nil {
		return nil, err
	}

	s.recordSubmission(ctx, userID, requestID, wf)
	logger.Info().
		Str("workflow_id", wf.ID).
		Str("status", wf.Status.String()).
		Int("steps", len(wf.Steps)).
		Msg("task submitted")

	return s.result(session, wf, requestID), err
}

// Answer applies clarification answers to a session and resumes its
// active workflow.
func (s *Service) Answer(ctx context.Context, sessionID string, answers []domain.QuestionAnswer) (*SubmitResult, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: no answers given", structerrors.ErrInvalidAnswer)
	}
	ctx = s.logger.With().Str("session_id", sessionID).Logger().WithContext(ctx)

	var wf *domain.Workflow
	session, err := s.withSession(ctx, sessionID, true, "", func(session *domain.Session) error {
		var runErr error
		wf, runErr = s.orch.AnswerClarification(ctx, session, answers)
		if wf != nil {
			if err := s.workflows.Put(context.WithoutCancel(ctx), wf); err != nil && runErr == nil {
				runErr = err
			}
		}
		return runErr
	})
	if session == nil || wf == nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("workflow_id", wf.ID).
		Str("status", wf.Status.String()).
		Int("answers", len(answers)).
		Msg("clarification applied")
	return s.result(session, wf, s.newID()), err
}

func (s *Service) run(ctx context.Context, wf *domain.Workflow, session *domain.Session) error {
	runErr := s.orch.RunWorkflow(ctx, wf, session)
	if err := s.workflows.Put(context.WithoutCancel(ctx), wf); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to save workflow %s: %w", wf.ID, err)
	}
	return runErr
}

func (s *Service) recordSubmission(ctx context.Context, userID, requestID string, wf *domain.Workflow) {
	var status constants.AuditStatus
	switch wf.Status {
	case constants.WorkflowStatusCompleted:
		status = constants.AuditStatusSuccess
	case constants.WorkflowStatusBlocked:
		status = constants.AuditStatusBlocked
	default:
		status = constants.AuditStatusFailure
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    userID,
		Action:     constants.AuditActionTaskSubmission,
		ResourceID: requestID,
		Status:     status,
		Details: map[string]any{
			"workflow_id":     wf.ID,
			"workflow_status": wf.Status.String(),
			"steps":           len(wf.Steps),
		},
	})
}

func (s *Service) result(session *domain.Session, wf *domain.Workflow, requestID string) *SubmitResult {
	res := &SubmitResult{SessionID: session.ID, Workflow: wf}
	if len(wf.Steps) == 1 {
		res.Response = s.respond(session.ID, requestID, wf.Steps[0])
	}
	return res
}

// respond renders a single step as a TaskResponse. Gate decisions are
// recomputed from the step's final spec; gates are pure so they match
// what the orchestrator saw.
func (s *Service) respond(sessionID, requestID string, step *domain.WorkflowStep) *domain.TaskResponse {
	resp := &domain.TaskResponse{
		RequestID: requestID,
		SessionID: sessionID,
		Spec:      step.Spec,
	}
	if step.Spec != nil {
		if decisions, err := s.gates.RunGates(*step.Spec); err == nil {
			resp.GateDecisions = decisions
		}
	}

	switch step.Status {
	case constants.StepStatusCompleted:
		resp.Status = constants.TaskResponseSuccess
		resp.Result = step.Output
	case constants.StepStatusBlocked:
		resp.Status = constants.TaskResponseReject
		resp.Message = step.Error
		if step.ErrorKind == constants.ErrorKindAmbiguity {
			resp.Status = constants.TaskResponseClarify
			resp.Message = "Clarification needed before proceeding"
		}
		if payload, ok := step.Output.(*domain.ClarifyPayload); ok {
			resp.Clarify = payload
		} else if len(resp.GateDecisions) > 0 {
			resp.Clarify = gate.Aggregate(resp.GateDecisions)
		}
	case constants.StepStatusFailed:
		resp.Status = constants.TaskResponseError
		resp.Message = step.Error
	case constants.StepStatusPending, constants.StepStatusActive:
		resp.Status = constants.TaskResponseError
		resp.Message = "step did not run"
	}
	return resp
}

func summarize(text string) string {
	r := []rune(text)
	if len(r) <= constants.ResultSummaryMaxLen {
		return text
	}
	return string(r[:constants.ResultSummaryMaxLen]) + "..."
}
