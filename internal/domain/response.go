package domain

import "github.com/mrz1836/structure/internal/constants"

// TaskResponse is the outcome of a single-step submission.
type TaskResponse struct {
	RequestID     string                       `json:"request_id"`
	SessionID     string                       `json:"session_id,omitempty"`
	Status        constants.TaskResponseStatus `json:"status"`
	Spec          *TaskSpec                    `json:"spec,omitempty"`
	Result        any                          `json:"result,omitempty"`
	Clarify       *ClarifyPayload              `json:"clarify,omitempty"`
	GateDecisions []GateDecision               `json:"gate_decisions,omitempty"`
	Message       string                       `json:"message,omitempty"`
}
