package domain

import "github.com/mrz1836/structure/internal/constants"

// GateDecision is the outcome of evaluating one gate against one spec.
// Produced fresh per evaluation and never mutated afterwards.
//
// Example JSON representation:
//
//	{
//	    "gate_id": "ambiguity_gate",
//	    "decision": "CLARIFY",
//	    "reasons": ["TERM_COLLISION"],
//	    "required_fields": ["specific_weight_disambiguation"],
//	    "clarifying_questions": ["'specific weight' could mean multiple things. ..."],
//	    "confidence": 1
//	}
type GateDecision struct {
	GateID              string             `json:"gate_id"`
	Decision            constants.Decision `json:"decision"`
	Reasons             []string           `json:"reasons"`
	RequiredFields      []string           `json:"required_fields"`
	ClarifyingQuestions []string           `json:"clarifying_questions"`
	Confidence          float64            `json:"confidence"`
}

// IsBlocking reports whether the decision is CLARIFY, REJECT or ESCALATE.
func (d GateDecision) IsBlocking() bool {
	return d.Decision.IsBlocking()
}

// Accept returns an ACCEPT decision for the gate.
func Accept(gateID string, reasons ...string) GateDecision {
	return GateDecision{
		GateID:              gateID,
		Decision:            constants.DecisionAccept,
		Reasons:             nonNil(reasons),
		RequiredFields:      []string{},
		ClarifyingQuestions: []string{},
		Confidence:          1.0,
	}
}
