package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// WorkflowStep is one sub-task of a Workflow. Owned exclusively by its workflow.
type WorkflowStep struct {
	// ID is unique within the workflow. Format: step_<index>_<6 hex>.
	ID string `json:"step_id"`

	// Description is the request segment this step was built from.
	Description string `json:"description"`

	// Spec is the classified task. Nil when classification failed; the
	// orchestrator turns that into a configuration failure.
	Spec *TaskSpec `json:"spec"`

	// Status is the step lifecycle state.
	Status constants.StepStatus `json:"status"`

	// DependsOn lists step ids that must complete first.
	DependsOn []string `json:"depends_on"`

	// Output holds the kernel result, the clarifying questions of a blocked
	// step, or the error payload of a failed one.
	Output any `json:"output,omitempty"`

	// Error describes why the step failed or blocked.
	Error string `json:"error,omitempty"`

	// ErrorKind categorizes Error.
	ErrorKind constants.ErrorKind `json:"error_kind,omitempty"`

	// Attempts counts how many times the step was activated.
	Attempts int `json:"attempts"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Workflow is an ordered collection of dependent steps.
//
// Example JSON representation:
//
//	{
//	    "workflow_id": "wf_1a2b3c4d",
//	    "name": "Workflow for: 1. Convert 10 kg to lbm 2. Summarize...",
//	    "steps": [...],
//	    "context": {},
//	    "status": "pending"
//	}
type Workflow struct {
	ID        string                   `json:"workflow_id"`
	Name      string                   `json:"name"`
	Steps     []*WorkflowStep          `json:"steps"`
	Context   map[string]any           `json:"context"`
	Status    constants.WorkflowStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// NewWorkflow returns an empty pending workflow.
func NewWorkflow(id, name string, ctx map[string]any, now time.Time) *Workflow {
	c := cloneMap(ctx)
	if c == nil {
		c = map[string]any{}
	}
	return &Workflow{
		ID:        id,
		Name:      name,
		Steps:     []*WorkflowStep{},
		Context:   c,
		Status:    constants.WorkflowStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddStep appends a step. Step ids must be unique and every dependency must
// already be present.
func (w *Workflow) AddStep(step *WorkflowStep) error {
	if step == nil || step.ID == "" {
		return fmt.Errorf("%w: step id %w", structerrors.ErrInvalidWorkflow, structerrors.ErrEmptyValue)
	}
	if w.Step(step.ID) != nil {
		return fmt.Errorf("%w: duplicate step id %q", structerrors.ErrInvalidWorkflow, step.ID)
	}
	for _, dep := range step.DependsOn {
		if w.Step(dep) == nil {
			return fmt.Errorf("%w: step %q depends on unknown step %q", structerrors.ErrInvalidWorkflow, step.ID, dep)
		}
	}
	if step.Status == "" {
		step.Status = constants.StepStatusPending
	}
	if step.DependsOn == nil {
		step.DependsOn = []string{}
	}
	w.Steps = append(w.Steps, step)
	return nil
}

// Validate checks unique step ids and that dependencies reference steps of
// this workflow. Unlike AddStep it accepts forward references.
func (w *Workflow) Validate() error {
	seen := make(map[string]struct{}, len(w.Steps))
	for _, s := range w.Steps {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", structerrors.ErrInvalidWorkflow, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	for _, s := range w.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("%w: step %q depends on unknown step %q", structerrors.ErrInvalidWorkflow, s.ID, dep)
			}
		}
	}
	return nil
}

// Step returns the step with the given id, or nil.
func (w *Workflow) Step(id string) *WorkflowStep {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// ReadySteps returns pending steps whose dependencies are all completed,
// in declaration order. A dependency on a missing step never resolves.
func (w *Workflow) ReadySteps() []*WorkflowStep {
	ready := make([]*WorkflowStep, 0, len(w.Steps))
	for _, s := range w.Steps {
		if s.Status != constants.StepStatusPending {
			continue
		}
		if w.depsCompleted(s) {
			ready = append(ready, s)
		}
	}
	return ready
}

func (w *Workflow) depsCompleted(s *WorkflowStep) bool {
	for _, dep := range s.DependsOn {
		d := w.Step(dep)
		if d == nil || d.Status != constants.StepStatusCompleted {
			return false
		}
	}
	return true
}

// StepsWithStatus returns the steps currently in status, in declaration order.
func (w *Workflow) StepsWithStatus(status constants.StepStatus) []*WorkflowStep {
	var out []*WorkflowStep
	for _, s := range w.Steps {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// DeriveStatus computes the workflow status from step statuses.
// Pending is returned while some step is still ready to run.
func (w *Workflow) DeriveStatus() constants.WorkflowStatus {
	if slices.ContainsFunc(w.Steps, func(s *WorkflowStep) bool { return s.Status == constants.StepStatusFailed }) {
		return constants.WorkflowStatusFailed
	}
	if !slices.ContainsFunc(w.Steps, func(s *WorkflowStep) bool { return s.Status != constants.StepStatusCompleted }) {
		return constants.WorkflowStatusCompleted
	}
	if len(w.ReadySteps()) > 0 {
		return constants.WorkflowStatusPending
	}
	return constants.WorkflowStatusBlocked
}

// MergeContext overlays values onto the workflow context.
func (w *Workflow) MergeContext(values map[string]any, now time.Time) {
	if w.Context == nil {
		w.Context = make(map[string]any, len(values))
	}
	for k, v := range values {
		w.Context[k] = cloneValue(v)
	}
	w.UpdatedAt = now
}
