package constants

// StepStatus represents the state of a workflow step.
//
//	Pending → Active
//	Active → Completed, Failed, Blocked
//	Blocked → Pending (clarification resume)
type StepStatus string

// Step status constants.
const (
	// StepStatusPending indicates the step has not run yet.
	StepStatusPending StepStatus = "pending"

	// StepStatusActive indicates the step is executing.
	StepStatusActive StepStatus = "active"

	// StepStatusCompleted indicates the kernel succeeded. Terminal.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed indicates the step failed. Terminal, never retried.
	StepStatusFailed StepStatus = "failed"

	// StepStatusBlocked indicates a gate or access check stopped the step.
	// Not terminal: answering the clarification resets it to pending.
	StepStatusBlocked StepStatus = "blocked"
)

// String returns the string representation of the StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// WorkflowStatus is derived from step statuses on every scheduling pass.
type WorkflowStatus string

// Workflow status constants.
const (
	// WorkflowStatusPending indicates the workflow has not been run.
	WorkflowStatusPending WorkflowStatus = "pending"

	// WorkflowStatusCompleted indicates every step completed.
	WorkflowStatusCompleted WorkflowStatus = "completed"

	// WorkflowStatusFailed indicates at least one step failed.
	WorkflowStatusFailed WorkflowStatus = "failed"

	// WorkflowStatusBlocked indicates no step is ready but some are unfinished.
	WorkflowStatusBlocked WorkflowStatus = "blocked"
)

// String returns the string representation of the WorkflowStatus.
func (s WorkflowStatus) String() string {
	return string(s)
}

// AuditStatus is the outcome recorded in an audit record.
type AuditStatus string

// Audit status constants.
const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusBlocked AuditStatus = "BLOCKED"
	AuditStatusFailure AuditStatus = "FAILURE"
)

// String returns the string representation of the AuditStatus.
func (s AuditStatus) String() string {
	return string(s)
}

// TaskResponseStatus is the outcome of a single-step submission.
type TaskResponseStatus string

// Task response status constants.
const (
	TaskResponseSuccess TaskResponseStatus = "success"
	TaskResponseClarify TaskResponseStatus = "clarify"
	TaskResponseReject  TaskResponseStatus = "reject"
	TaskResponseError   TaskResponseStatus = "error"
)

// String returns the string representation of the TaskResponseStatus.
func (s TaskResponseStatus) String() string {
	return string(s)
}
