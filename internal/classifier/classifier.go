// Package classifier turns a natural-language TaskRequest into a canonical
// TaskSpec. Classification is rule based and deterministic: the same input
// and hint always produce an equivalent spec.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/policy"
	"github.com/mrz1836/structure/internal/units"
)

// Classifier routes requests. It is safe for concurrent use.
type Classifier struct {
	policy  *policy.Policy
	routes  []compiledRoute
	unitRe  *regexp.Regexp
	gates   map[constants.Domain][]string
	kernels map[constants.Domain][]string
}

type compiledRoute struct {
	route
	patterns []*regexp.Regexp
}

// New creates a Classifier over the given policy.
// A nil policy falls back to the built-in tables.
func New(p *policy.Policy) *Classifier {
	if p == nil {
		p = policy.Default()
	}
	c := &Classifier{
		policy:  p,
		unitRe:  buildUnitPattern(p),
		gates:   gatesByDomain,
		kernels: kernelsByDomain,
	}
	for _, r := range defaultRoutes {
		cr := compiledRoute{route: r}
		for _, kw := range r.keywords {
			cr.patterns = append(cr.patterns, keywordPattern(kw))
		}
		c.routes = append(c.routes, cr)
	}
	return c
}

// Policy returns the policy the classifier reads.
func (c *Classifier) Policy() *policy.Policy {
	return c.policy
}

// Classify produces the TaskSpec for req. It does not reject empty input;
// the schema gate does that. An unknown domain hint is an error because a
// spec cannot name a domain outside the fixed set.
func (c *Classifier) Classify(req domain.TaskRequest) (domain.TaskSpec, error) {
	f := c.ExtractFeatures(req.UserInput)

	dom, sub := constants.DomainGeneral, ""
	confidence := constants.KeywordConfidence
	if hint := strings.TrimSpace(req.DomainHint); hint != "" {
		dom, sub = splitHint(hint)
		confidence = constants.HintConfidence
	} else if best, ok := f.BestRoute(); ok {
		dom, sub = best.Domain, best.Subdomain
	}

	ambiguous := len(f.AmbiguousTerms) + len(f.AmbiguousUnits)
	risk := constants.RiskLow
	switch {
	case ambiguous >= 2:
		risk = constants.RiskHigh
	case ambiguous == 1:
		risk = constants.RiskMedium
	}

	gates := []string{constants.GateSchema}
	if f.NeedsUnits() {
		gates = append(gates, constants.GateUnitConsistency)
	}
	if len(f.AmbiguousTerms) > 0 {
		gates = append(gates, constants.GateAmbiguity)
	}
	gates = appendUnique(gates, c.gates[dom]...)
	if f.WritesFiles {
		gates = appendUnique(gates, constants.GateFileWrite)
	}

	var kernels []string
	if f.NeedsUnits() {
		kernels = append(kernels, constants.KernelUnitConverter)
	}
	kernels = appendUnique(kernels, c.kernels[dom]...)

	spec, err := domain.NewTaskSpec(domain.TaskSpecParams{
		RequestID:       req.RequestID,
		Domain:          dom,
		Subdomain:       sub,
		RiskLevel:       risk,
		NeedsUnits:      f.NeedsUnits(),
		HasEquations:    f.HasEquations,
		Quantities:      f.Quantities(),
		RequiredGates:   gates,
		SelectedKernels: kernels,
		UserInput:       req.UserInput,
		Confidence:      confidence,
	})
	if err != nil {
		return domain.TaskSpec{}, fmt.Errorf("classify request %q: %w", req.RequestID, err)
	}
	return spec, nil
}

func splitHint(hint string) (constants.Domain, string) {
	d, sub, _ := strings.Cut(hint, ".")
	return constants.Domain(strings.ToLower(strings.TrimSpace(d))), strings.TrimSpace(sub)
}

func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		found := false
		for _, have := range dst {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, id)
		}
	}
	return dst
}

// buildUnitPattern matches a unit token that follows a number ("10 kg",
// "5m") or a conversion preposition ("to kg", "in kilograms"). Requiring
// that context keeps single letters like "m" and "s" from matching ordinary
// words. Alternatives are longest first so "m/s" wins over "m".
func buildUnitPattern(p *policy.Policy) *regexp.Regexp {
	seen := map[string]struct{}{}
	var alts []string
	add := func(s string) {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok || s == "" {
			return
		}
		seen[key] = struct{}{}
		alts = append(alts, s)
	}
	for _, a := range units.Aliases() {
		add(a)
	}
	for _, code := range units.Codes() {
		add(code)
	}
	for _, u := range p.Tables().AmbiguousUnits {
		add(u.Unit)
		for _, a := range u.Aliases {
			add(a)
		}
	}
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})

	quoted := make([]string, len(alts))
	for i, a := range alts {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(a), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)(?:(\d+(?:\.\d+)?)\s*|\b(?:to|in|into)\s+)(` +
		strings.Join(quoted, "|") + `)s?(?:$|[^\p{L}\p{N}_])`)
}

func keywordPattern(kw string) *regexp.Regexp {
	parts := strings.Fields(strings.ToLower(kw))
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(parts, `\s+`) + `)s?(?:$|[^\p{L}\p{N}_])`)
}

func parseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
