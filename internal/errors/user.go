package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice (not a map) because errors.Is() needs chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	{
		err: ErrValidation,
		info: ErrorInfo{
			Message: "The request is malformed.",
			Action:  "Resubmit with a non-empty request text.",
		},
	},
	{
		err: ErrAmbiguity,
		info: ErrorInfo{
			Message: "The request is ambiguous and needs clarification.",
			Action:  "Run 'structure answer <session-id> <question_id>=<value>' to continue.",
		},
	},
	{
		err: ErrComplianceViolation,
		info: ErrorInfo{
			Message: "Access was denied by the compliance policy.",
			Action:  "Ask an administrator to grant access to the resource.",
		},
	},
	{
		err: ErrPolicyRejection,
		info: ErrorInfo{
			Message: "The request was rejected by policy.",
			Action:  "Remove secrets or protected file targets from the request.",
		},
	},
	{
		err: ErrConfiguration,
		info: ErrorInfo{
			Message: "Internal configuration error while executing the request.",
			Action:  "Check the kernel and gate registries with 'structure kernels' and 'structure gates'.",
		},
	},
	{
		err: ErrExecutionFailure,
		info: ErrorInfo{
			Message: "A compute kernel reported a failure.",
			Action:  "Inspect the step output for the kernel error.",
		},
	},
	{
		err: ErrStepTimeout,
		info: ErrorInfo{
			Message: "A compute kernel exceeded its time limit.",
			Action:  "Increase orchestrator.kernel_timeout or simplify the request.",
		},
	},
	{
		err: ErrSessionNotFound,
		info: ErrorInfo{
			Message: "Session not found.",
			Action:  "Check the session id printed by 'structure submit'.",
		},
	},
	{
		err: ErrNoActiveWorkflow,
		info: ErrorInfo{
			Message: "The session has no workflow waiting for answers.",
		},
	},
	{
		err: ErrConfigInvalidStore,
		info: ErrorInfo{
			Message: "Invalid store configuration.",
			Action:  "Check the store section of ~/.structure/config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidOrchestrator,
		info: ErrorInfo{
			Message: "Invalid orchestrator configuration.",
			Action:  "Check the orchestrator section of ~/.structure/config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidCompliance,
		info: ErrorInfo{
			Message: "Invalid compliance configuration.",
			Action:  "Check the compliance section of ~/.structure/config.yaml.",
		},
	},
	{
		err: ErrConfigInvalidAudit,
		info: ErrorInfo{
			Message: "Invalid audit configuration.",
			Action:  "Check the audit section of ~/.structure/config.yaml.",
		},
	},
	{
		err: ErrInvalidInput,
		info: ErrorInfo{
			Message: "The task input is invalid.",
			Action:  "Provide non-empty request text and a domain hint like 'physics.fluids'.",
		},
	},
	{
		err: ErrRateLimited,
		info: ErrorInfo{
			Message: "Too many requests.",
			Action:  "Wait and retry later.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "The session is busy with another request.",
			Action:  "Retry once the other request finishes.",
		},
	},
	{
		err: ErrInvarianceViolation,
		info: ErrorInfo{
			Message: "Some phrasings were routed or gated differently.",
			Action:  "Inspect the deviations and update the policy tables.",
		},
	},
}

// UserMessage returns a user-friendly message for the error.
// Falls back to err.Error() for errors without a registered message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info.Message
		}
	}
	return err.Error()
}

// Actionable returns the suggested action for the error, or "" if none.
func Actionable(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info.Action
		}
	}
	return ""
}
