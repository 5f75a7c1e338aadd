package clarify

import (
	"fmt"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/policy"
)

// Resolution is the outcome of applying stored answers to a spec.
type Resolution struct {
	Spec     domain.TaskSpec
	Resolved map[string]string // field -> canonical value
	Chain    domain.ClarifyChain
}

// Resolver applies clarification answers found in a context map.
type Resolver struct {
	builder *Builder
}

// NewResolver returns a Resolver over p.
func NewResolver(p *policy.Policy) *Resolver {
	return &Resolver{builder: NewBuilder(p)}
}

// Resolve looks up answer_<field> for every ambiguity in the spec's input
// and returns a new spec carrying the resolved values both as
// clarifications (read by the gates) and as args (read by kernels).
// Option ids are mapped to their canonical values; other answers are kept
// verbatim. The input spec is not modified.
func (r *Resolver) Resolve(spec domain.TaskSpec, ctx map[string]any) Resolution {
	res := Resolution{
		Spec:     spec,
		Resolved: map[string]string{},
		Chain:    domain.ClarifyChain{RequestID: spec.RequestID()},
	}
	p := r.builder.policy
	text := spec.UserInput()

	var requests []domain.ClarifyRequest
	for _, h := range p.MatchAmbiguousUnits(text) {
		requests = append(requests, unitRequest(spec.RequestID(), "", h))
	}
	for _, h := range p.ScanTerms(text) {
		requests = append(requests, termRequest(spec.RequestID(), "", h))
	}
	requests = append(requests, irbRequest(spec.RequestID(), "", "", ""))

	args := map[string]any{}
	for _, req := range requests {
		answer, ok := lookupAnswer(ctx, req.QuestionID)
		if !ok {
			continue
		}
		value := answer
		ans := domain.ClarifyAnswer{RequestID: spec.RequestID(), ClarifyRequestID: req.QuestionID}
		if opt, found := req.Option(answer); found {
			value = opt.CanonicalValue
			ans.SelectedOptionID = opt.OptionID
		} else {
			ans.FreeformResponse = answer
		}
		res.Resolved[req.QuestionID] = value
		args[req.QuestionID] = value
		res.Chain.AddExchange(req, ans)

		if req.ClarifyType == constants.ClarifyUnitSpecification {
			rewriteUnitArgs(p, spec.Args(), args, req.AmbiguousTerm, value)
		}
	}
	if len(res.Resolved) == 0 {
		return res
	}

	res.Chain.Resolved = true
	res.Spec = spec.WithClarifications(res.Resolved).WithArgs(args)
	return res
}

// rewriteUnitArgs replaces unit args spelled as the ambiguous unit ("lb",
// "pounds") with the clarified UCUM code.
func rewriteUnitArgs(p *policy.Policy, current, out map[string]any, unit, code string) {
	for _, key := range []string{"unit", "from_unit", "to_unit"} {
		raw, ok := current[key].(string)
		if !ok {
			continue
		}
		if entry, amb := p.AmbiguousUnit(raw); amb && entry.Unit == unit {
			out[key] = code
		}
	}
}

func lookupAnswer(ctx map[string]any, field string) (string, bool) {
	v, ok := ctx[AnswerKey(field)]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}
