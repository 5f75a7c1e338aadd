package domain

// TaskRequest is the ephemeral input to the Classifier and the Workflow Builder.
// It is never persisted as-is.
type TaskRequest struct {
	// RequestID uniquely identifies the request.
	RequestID string `json:"request_id"`

	// UserInput is the raw natural-language request.
	UserInput string `json:"user_input"`

	// DomainHint optionally forces routing, e.g. "physics.fluids".
	DomainHint string `json:"domain_hint,omitempty"`

	// Context is caller-supplied state shared with every derived step.
	Context map[string]any `json:"context,omitempty"`
}

// TaskRequestInput is what callers submit through the service surface.
//
// Example JSON representation:
//
//	{
//	    "user_input": "1. Convert 10 kg to lbm 2. Summarize data 1, 2, 3",
//	    "domain_hint": "analysis",
//	    "context": {"project": "demo"}
//	}
type TaskRequestInput struct {
	UserInput  string         `json:"user_input"`
	DomainHint string         `json:"domain_hint,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// QuestionAnswer is one clarification answer keyed by question id.
// The question id is the required field named by the blocking gate.
type QuestionAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}
