package gate

import (
	"fmt"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
)

// Runner evaluates the gates a spec requires.
type Runner struct {
	registry *Registry
}

// NewRunner creates a runner over registry.
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// Registry returns the registry the runner dispatches through.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// RunGates evaluates exactly spec.RequiredGates(), in order, and returns
// every decision. An unknown gate id is a configuration error reported
// before any gate runs.
func (r *Runner) RunGates(spec domain.TaskSpec) ([]domain.GateDecision, error) {
	ids := spec.RequiredGates()
	gates := make([]Gate, 0, len(ids))
	for _, id := range ids {
		g, err := r.registry.Get(id)
		if err != nil {
			return nil, err
		}
		gates = append(gates, g)
	}

	decisions := make([]domain.GateDecision, 0, len(gates))
	for _, g := range gates {
		decisions = append(decisions, g.Evaluate(spec))
	}
	return decisions, nil
}

// GetBlockingDecisions filters decisions down to the blocking ones.
func GetBlockingDecisions(decisions []domain.GateDecision) []domain.GateDecision {
	var out []domain.GateDecision
	for _, d := range decisions {
		if d.IsBlocking() {
			out = append(out, d)
		}
	}
	return out
}

// PassedGates returns the ids of the non-blocking decisions.
func PassedGates(decisions []domain.GateDecision) []string {
	out := []string{}
	for _, d := range decisions {
		if !d.IsBlocking() {
			out = append(out, d.GateID)
		}
	}
	return out
}

// Violations renders each blocking decision as "gate_id: reason, reason".
func Violations(decisions []domain.GateDecision) []string {
	out := []string{}
	for _, d := range GetBlockingDecisions(decisions) {
		out = append(out, fmt.Sprintf("%s: %s", d.GateID, strings.Join(d.Reasons, ", ")))
	}
	return out
}

// Aggregate builds the payload returned to callers when gates block. The
// first blocking decision supplies the gate id, decision and message; the
// reasons, fields and questions are the union across every blocking
// decision with duplicates removed and first-seen order kept. It returns
// nil when nothing blocks.
func Aggregate(decisions []domain.GateDecision) *domain.ClarifyPayload {
	blocking := GetBlockingDecisions(decisions)
	if len(blocking) == 0 {
		return nil
	}
	first := blocking[0]

	payload := &domain.ClarifyPayload{
		GateID:         first.GateID,
		Decision:       first.Decision,
		Message:        message(first),
		Reasons:        []string{},
		RequiredFields: []string{},
		Questions:      []string{},
	}
	for _, d := range blocking {
		for _, v := range d.Reasons {
			payload.Reasons = appendOnce(payload.Reasons, v)
		}
		for _, v := range d.RequiredFields {
			payload.RequiredFields = appendOnce(payload.RequiredFields, v)
		}
		for _, v := range d.ClarifyingQuestions {
			payload.Questions = appendOnce(payload.Questions, v)
		}
	}
	return payload
}

func message(d domain.GateDecision) string {
	reasons := strings.Join(d.Reasons, ", ")
	switch d.Decision {
	case constants.DecisionReject:
		return fmt.Sprintf("Rejected by %s: %s", d.GateID, reasons)
	case constants.DecisionEscalate:
		return fmt.Sprintf("Escalated by %s: %s", d.GateID, reasons)
	default:
		return fmt.Sprintf("Clarification needed by %s: %s", d.GateID, reasons)
	}
}
