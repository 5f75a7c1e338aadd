// Package errors provides centralized error handling for structure.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Failure taxonomy. Every step or task failure resolves to exactly one of these.
var (
	// ErrValidation indicates malformed input rejected by the schema gate.
	// Terminal unless the request is resubmitted with corrected input.
	ErrValidation = errors.New("validation error")

	// ErrAmbiguity indicates a CLARIFY outcome. Recoverable by answering
	// the clarifying questions and resuming.
	ErrAmbiguity = errors.New("ambiguity requires clarification")

	// ErrComplianceViolation indicates the compliance collaborator denied access.
	ErrComplianceViolation = errors.New("compliance violation")

	// ErrPolicyRejection indicates a policy gate rejected the request outright
	// (for example a denied file write). There is no retry path.
	ErrPolicyRejection = errors.New("policy rejection")

	// ErrConfiguration indicates an internal wiring problem: a missing spec on
	// a step, an unknown kernel or gate id, or an empty kernel selection.
	ErrConfiguration = errors.New("configuration error")

	// ErrExecutionFailure indicates a kernel reported success=false.
	ErrExecutionFailure = errors.New("execution failure")

	// ErrUnhandled indicates anything else raised while executing a step.
	ErrUnhandled = errors.New("unhandled exception")
)

// Infrastructure errors.
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrWorkflowNotFound indicates the requested workflow does not exist.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNoActiveWorkflow indicates a clarification was submitted for a
	// session with no active workflow.
	ErrNoActiveWorkflow = errors.New("session has no active workflow")

	// ErrKernelNotFound indicates a kernel id is not registered.
	ErrKernelNotFound = errors.New("kernel not found")

	// ErrKernelExists indicates a kernel id was registered twice.
	ErrKernelExists = errors.New("kernel already registered")

	// ErrGateNotFound indicates a gate id is not registered.
	ErrGateNotFound = errors.New("gate not found")

	// ErrGateExists indicates a gate id was registered twice.
	ErrGateExists = errors.New("gate already registered")

	// ErrInvalidTransition indicates an invalid step state transition was attempted.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidSpec indicates a TaskSpec could not be constructed.
	ErrInvalidSpec = errors.New("invalid task spec")

	// ErrInvalidWorkflow indicates a workflow violates a structural invariant
	// (duplicate step ids, dangling dependencies).
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrInvalidArgs indicates kernel arguments failed schema validation.
	ErrInvalidArgs = errors.New("invalid kernel arguments")

	// ErrInvalidPolicy indicates a policy table failed validation.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidInput indicates a task submission failed input validation.
	ErrInvalidInput = errors.New("invalid task input")

	// ErrStepTimeout indicates a kernel invocation exceeded its deadline.
	ErrStepTimeout = errors.New("step timed out")

	// ErrRateLimited indicates the caller exceeded their request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrLockTimeout indicates a lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigInvalidStore indicates an invalid store configuration value.
	ErrConfigInvalidStore = errors.New("invalid store configuration")

	// ErrConfigInvalidOrchestrator indicates an invalid orchestrator configuration value.
	ErrConfigInvalidOrchestrator = errors.New("invalid orchestrator configuration")

	// ErrConfigInvalidCompliance indicates an invalid compliance configuration value.
	ErrConfigInvalidCompliance = errors.New("invalid compliance configuration")

	// ErrConfigInvalidAudit indicates an invalid audit configuration value.
	ErrConfigInvalidAudit = errors.New("invalid audit configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidAnswer indicates a clarification answer could not be parsed.
	ErrInvalidAnswer = errors.New("invalid clarification answer")

	// ErrRecordNotFound indicates a store backend has no record under a key.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidID indicates an id that cannot be used as a storage key.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvarianceViolation indicates paraphrases of one request disagreed
	// on domain or gate outcome.
	ErrInvarianceViolation = errors.New("invariance check failed")
)
