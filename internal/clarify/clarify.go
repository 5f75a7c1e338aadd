// Package clarify turns blocking gate decisions into structured questions
// and turns the answers back into a resolved TaskSpec.
package clarify

import (
	"fmt"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/policy"
)

// IRBField is the clarification field for IRB approval questions.
const IRBField = "irb_approval"

// AnswerKey returns the session context key an answer to field is stored under.
func AnswerKey(field string) string {
	return constants.AnswerKeyPrefix + field
}

// Builder creates ClarifyRequests from the policy tables.
type Builder struct {
	policy *policy.Policy
}

// NewBuilder returns a Builder. A nil policy uses the built-in tables.
func NewBuilder(p *policy.Policy) *Builder {
	if p == nil {
		p = policy.Default()
	}
	return &Builder{policy: p}
}

// ForDecisions returns one request per required field named by the
// blocking decisions, in first-seen order. Fields backed by a policy entry
// carry that entry's options.
func (b *Builder) ForDecisions(spec domain.TaskSpec, decisions []domain.GateDecision) []domain.ClarifyRequest {
	units, terms := b.index(spec.UserInput())

	var out []domain.ClarifyRequest
	seen := map[string]struct{}{}
	for _, d := range gate.GetBlockingDecisions(decisions) {
		for i, field := range d.RequiredFields {
			if _, dup := seen[field]; dup {
				continue
			}
			seen[field] = struct{}{}

			question := ""
			if i < len(d.ClarifyingQuestions) {
				question = d.ClarifyingQuestions[i]
			}
			reason := ""
			if len(d.Reasons) > 0 {
				reason = d.Reasons[min(i, len(d.Reasons)-1)]
			}

			switch {
			case units[field] != nil:
				out = append(out, unitRequest(spec.RequestID(), d.GateID, *units[field]))
			case terms[field] != nil:
				out = append(out, termRequest(spec.RequestID(), d.GateID, *terms[field]))
			case field == IRBField:
				out = append(out, irbRequest(spec.RequestID(), d.GateID, question, reason))
			default:
				out = append(out, domain.ClarifyRequest{
					RequestID:      spec.RequestID(),
					QuestionID:     field,
					ClarifyType:    constants.ClarifyMissingParameter,
					Question:       question,
					RequiredFields: []string{field},
					ReasonCode:     reason,
					GateID:         d.GateID,
				})
			}
		}
	}
	return out
}

// ForTerm returns the request for a single ambiguous term or unit, as if it
// had been found in the input. It reports false when the policy does not
// treat term as ambiguous.
func (b *Builder) ForTerm(requestID, term string) (domain.ClarifyRequest, bool) {
	for _, h := range b.policy.MatchAmbiguousUnits(term) {
		return unitRequest(requestID, constants.GateUnitConsistency, h), true
	}
	for _, h := range b.policy.ScanTerms(term) {
		return termRequest(requestID, constants.GateAmbiguity, h), true
	}
	return domain.ClarifyRequest{}, false
}

// Payload attaches structured requests to the aggregate payload of decisions.
func (b *Builder) Payload(spec domain.TaskSpec, decisions []domain.GateDecision) *domain.ClarifyPayload {
	p := gate.Aggregate(decisions)
	if p == nil {
		return nil
	}
	p.Requests = b.ForDecisions(spec, decisions)
	return p
}

func (b *Builder) index(text string) (map[string]*policy.UnitHit, map[string]*policy.TermHit) {
	units := map[string]*policy.UnitHit{}
	for _, h := range b.policy.MatchAmbiguousUnits(text) {
		units[h.Field] = &h
	}
	terms := map[string]*policy.TermHit{}
	for _, h := range b.policy.ScanTerms(text) {
		terms[h.Field] = &h
	}
	return units, terms
}

func unitRequest(requestID, gateID string, h policy.UnitHit) domain.ClarifyRequest {
	return domain.ClarifyRequest{
		RequestID:      requestID,
		QuestionID:     h.Field,
		ClarifyType:    constants.ClarifyUnitSpecification,
		AmbiguousTerm:  h.Unit,
		Question:       h.Question,
		Options:        h.Options,
		RequiredFields: []string{h.Field},
		ReasonCode:     constants.ReasonUnitAmbiguous,
		GateID:         gateID,
	}
}

func termRequest(requestID, gateID string, h policy.TermHit) domain.ClarifyRequest {
	question := gate.TermQuestion(h)
	if len(h.Options) > 0 {
		question = fmt.Sprintf("'%s' can mean different things. Which do you mean?", capitalize(h.Term))
	}
	return domain.ClarifyRequest{
		RequestID:      requestID,
		QuestionID:     h.Field,
		ClarifyType:    constants.ClarifyTermDisambiguation,
		AmbiguousTerm:  h.Term,
		Question:       question,
		Options:        h.Options,
		RequiredFields: []string{h.Field},
		ReasonCode:     h.ReasonCode(),
		GateID:         gateID,
	}
}

func irbRequest(requestID, gateID, question, reason string) domain.ClarifyRequest {
	return domain.ClarifyRequest{
		RequestID:     requestID,
		QuestionID:    IRBField,
		ClarifyType:   constants.ClarifyConstraintClarification,
		AmbiguousTerm: "human subjects",
		Question:      question,
		Options: []domain.ClarifyOption{
			{OptionID: "yes", Label: "Yes, IRB approval obtained", CanonicalValue: "yes"},
			{OptionID: "no", Label: "No approval", CanonicalValue: "no"},
		},
		RequiredFields: []string{IRBField},
		ReasonCode:     reason,
		GateID:         gateID,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
