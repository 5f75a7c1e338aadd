// Package orchestrator walks a workflow's dependency graph, runs gates,
// access checks and kernels per step, and resumes blocked workflows once
// clarification answers arrive.
//
// This file implements the step state machine.
//
// Import rules:
//   - CAN import: internal/audit, internal/clarify, internal/compliance, internal/constants,
//     internal/domain, internal/errors, internal/gate, internal/kernel, internal/store, std lib
//   - MUST NOT import: internal/service, internal/cli
package orchestrator

import (
	"fmt"
	"slices"
	"time"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// ValidTransitions defines the allowed step transitions.
//
//	Pending → Active
//	Active  → Completed, Failed, Blocked
//	Blocked → Pending (clarification resume)
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.StepStatus][]constants.StepStatus{
	constants.StepStatusPending: {constants.StepStatusActive},
	constants.StepStatusActive: {
		constants.StepStatusCompleted,
		constants.StepStatusFailed,
		constants.StepStatusBlocked,
	},
	constants.StepStatusBlocked: {constants.StepStatusPending},
}

// IsValidTransition reports whether a step may move from one status to another.
func IsValidTransition(from, to constants.StepStatus) bool {
	return slices.Contains(ValidTransitions[from], to)
}

// IsTerminalStatus reports whether no transition leaves status.
func IsTerminalStatus(status constants.StepStatus) bool {
	return status == constants.StepStatusCompleted || status == constants.StepStatusFailed
}

// Transition moves step to status, stamping the lifecycle timestamps.
func Transition(step *domain.WorkflowStep, to constants.StepStatus, now time.Time) error {
	from := step.Status
	if !IsValidTransition(from, to) {
		return fmt.Errorf("%w: step %s from %s to %s", structerrors.ErrInvalidTransition, step.ID, from, to)
	}
	step.Status = to

	switch to {
	case constants.StepStatusActive:
		step.Attempts++
		step.StartedAt = &now
		step.CompletedAt = nil
		step.Error = ""
		step.ErrorKind = constants.ErrorKindNone
		step.Output = nil
	case constants.StepStatusCompleted, constants.StepStatusFailed, constants.StepStatusBlocked:
		step.CompletedAt = &now
	case constants.StepStatusPending:
		step.CompletedAt = nil
		step.Error = ""
		step.ErrorKind = constants.ErrorKindNone
		step.Output = nil
	}
	return nil
}
