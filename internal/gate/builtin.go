package gate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/policy"
	"github.com/mrz1836/structure/internal/units"
)

// NewDefaultRegistry returns a registry holding the six canonical gates.
func NewDefaultRegistry(p *policy.Policy) *Registry {
	if p == nil {
		p = policy.Default()
	}
	r := NewRegistry()
	for _, g := range []Gate{
		NewFunc(constants.GateSchema, Schema),
		NewFunc(constants.GateUnitConsistency, UnitConsistency(p)),
		NewFunc(constants.GateAmbiguity, Ambiguity(p)),
		NewFunc(constants.GateBounds, Bounds),
		NewFunc(constants.GateExperimentSafety, ExperimentSafety(p)),
		NewFunc(constants.GateFileWrite, FileWrite(p)),
	} {
		// IDs are distinct constants; Register cannot fail here.
		_ = r.Register(g)
	}
	return r
}

// decision accumulates reasons, fields and questions without duplicates.
type decision struct {
	gateID    string
	outcome   constants.Decision
	reasons   []string
	fields    []string
	questions []string
}

func newDecision(gateID string) *decision {
	return &decision{gateID: gateID, outcome: constants.DecisionAccept}
}

// raise moves the outcome to d if it ranks higher.
func (b *decision) raise(d constants.Decision) {
	if rank(d) > rank(b.outcome) {
		b.outcome = d
	}
}

func (b *decision) add(reason, field, question string) {
	b.reasons = appendOnce(b.reasons, reason)
	b.fields = appendOnce(b.fields, field)
	b.questions = appendOnce(b.questions, question)
}

func (b *decision) build() domain.GateDecision {
	if b.outcome == constants.DecisionAccept && len(b.reasons) == 0 {
		return domain.Accept(b.gateID)
	}
	return domain.GateDecision{
		GateID:              b.gateID,
		Decision:            b.outcome,
		Reasons:             nonNil(b.reasons),
		RequiredFields:      nonNil(b.fields),
		ClarifyingQuestions: nonNil(b.questions),
		Confidence:          1.0,
	}
}

func rank(d constants.Decision) int {
	switch d {
	case constants.DecisionReject:
		return 5
	case constants.DecisionEscalate:
		return 4
	case constants.DecisionClarify:
		return 3
	case constants.DecisionWarn:
		return 2
	case constants.DecisionFallback:
		return 1
	}
	return 0
}

func appendOnce(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Schema rejects empty or whitespace-only input.
func Schema(spec domain.TaskSpec) domain.GateDecision {
	if strings.TrimSpace(spec.UserInput()) != "" {
		return domain.Accept(constants.GateSchema)
	}
	b := newDecision(constants.GateSchema)
	b.raise(constants.DecisionReject)
	b.add(constants.ReasonSchemaInvalid, "user_input", "Please provide a valid input.")
	return b.build()
}

// UnitConsistency asks for clarification of each ambiguous unit token that
// has not been resolved yet.
func UnitConsistency(p *policy.Policy) func(domain.TaskSpec) domain.GateDecision {
	return func(spec domain.TaskSpec) domain.GateDecision {
		b := newDecision(constants.GateUnitConsistency)
		for _, hit := range p.MatchAmbiguousUnits(spec.UserInput()) {
			if spec.Clarification(hit.Field) != "" {
				continue
			}
			question := hit.Question
			if question == "" {
				question = fmt.Sprintf("Please clarify the unit '%s'.", hit.Unit)
			}
			b.raise(hit.Action)
			b.add(constants.ReasonUnitAmbiguous, hit.Field, question)
		}
		return b.build()
	}
}

// Ambiguity asks for clarification of disallowed terms and quantity
// aliases that collide with more than one canonical quantity.
func Ambiguity(p *policy.Policy) func(domain.TaskSpec) domain.GateDecision {
	return func(spec domain.TaskSpec) domain.GateDecision {
		b := newDecision(constants.GateAmbiguity)
		for _, hit := range p.ScanTerms(spec.UserInput()) {
			if spec.Clarification(hit.Field) != "" {
				continue
			}
			b.raise(constants.DecisionClarify)
			b.add(hit.ReasonCode(), hit.Field, TermQuestion(hit))
		}
		return b.build()
	}
}

// TermQuestion renders the clarifying question for an ambiguous term.
func TermQuestion(hit policy.TermHit) string {
	if hit.Kind == policy.KindCollision {
		q := fmt.Sprintf("'%s' could mean multiple things.", hit.Term)
		if hit.Question != "" {
			q += " " + hit.Question
		}
		return q + " Please specify which you mean."
	}
	if hit.Question != "" {
		return hit.Question
	}
	return fmt.Sprintf("The term '%s' is ambiguous. Please clarify what you mean.", hit.Term)
}

// Bounds checks quantities against the physical envelope the kernels
// support. Out-of-envelope values FALLBACK, which never blocks; every other
// spec is accepted.
func Bounds(spec domain.TaskSpec) domain.GateDecision {
	b := newDecision(constants.GateBounds)
	for _, q := range spec.Quantities() {
		if q.Value == nil || q.UnitUCUM == "" {
			continue
		}
		u, ok := units.Lookup(q.UnitUCUM)
		if !ok {
			continue
		}
		si := *q.Value*u.Factor + u.Offset
		if si < 0 && u.Dimension != units.Time {
			b.raise(constants.DecisionFallback)
			b.add(constants.ReasonOutOfEnvelope, "",
				fmt.Sprintf("%v %s is outside the supported range for %s.", *q.Value, q.UnitRaw, u.Dimension))
		}
	}
	return b.build()
}

// irbField is the clarification field the IRB question resolves.
const irbField = "irb_approval"

// ExperimentSafety checks experiment and survey designs: sample size floor,
// IRB approval when human subjects are involved, and escalation of
// high-risk studies that mention no ethics review.
func ExperimentSafety(p *policy.Policy) func(domain.TaskSpec) domain.GateDecision {
	return func(spec domain.TaskSpec) domain.GateDecision {
		b := newDecision(constants.GateExperimentSafety)
		if d := spec.Domain(); d != constants.DomainExperiment && d != constants.DomainSurvey {
			return b.build()
		}

		cfg := p.ExperimentSafety()
		text := spec.UserInput()

		if n, ok := numberArg(spec.Args(), "sample_size"); ok && cfg.MinSampleSize > 0 && n < float64(cfg.MinSampleSize) {
			b.raise(constants.DecisionWarn)
			b.add(constants.ReasonSampleSizeBelowMin, "",
				fmt.Sprintf("Sample size %v is below the minimum of %d.", n, cfg.MinSampleSize))
		}

		ethics := p.MentionsEthics(text)
		answer := spec.Clarification(irbField)
		approved := affirmative(answer)

		if cfg.RequireIRB && p.MentionsHumanSubjects(text) && !ethics && !approved {
			if answer != "" {
				b.raise(constants.DecisionReject)
				b.add(constants.ReasonIRBDeclined, "", "Human subjects research requires IRB approval.")
			} else {
				b.raise(constants.DecisionClarify)
				b.add(constants.ReasonIRBApprovalRequired, irbField,
					"This involves human subjects. Has IRB approval been obtained?")
			}
		}

		if risks := p.RiskIndicators(text); len(risks) > 0 && !ethics && !approved {
			b.raise(constants.DecisionEscalate)
			b.add(constants.ReasonHighRiskStudy, irbField,
				fmt.Sprintf("This appears to be a high-risk study (%s). What safety protocols are in place?",
					strings.Join(risks, ", ")))
		}
		return b.build()
	}
}

func affirmative(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "approved", "obtained":
		return true
	}
	return false
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// FileWrite rejects requests that would write a denylisted file or that
// carry secret-bearing terms.
func FileWrite(p *policy.Policy) func(domain.TaskSpec) domain.GateDecision {
	return func(spec domain.TaskSpec) domain.GateDecision {
		b := newDecision(constants.GateFileWrite)
		text := spec.UserInput()

		var targets []string
		if p.MentionsWrite(text) {
			targets = policy.FileTargets(text)
		}
		if path, ok := spec.Args()["path"].(string); ok {
			targets = append(targets, path)
		}
		for _, target := range targets {
			if pattern, denied := p.DeniedPath(target); denied {
				b.raise(constants.DecisionReject)
				b.add(constants.ReasonFileWriteDenied, "",
					fmt.Sprintf("Writing '%s' is not allowed (matches %s).", target, pattern))
			}
		}

		if tokens := p.SecretTokens(text); len(tokens) > 0 {
			b.raise(constants.DecisionReject)
			b.add(constants.ReasonSecretExposure, "",
				fmt.Sprintf("The request references secret material (%s).", strings.Join(tokens, ", ")))
		}
		return b.build()
	}
}
