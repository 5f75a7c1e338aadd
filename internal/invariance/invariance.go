// Package invariance checks that paraphrases of one request classify and
// gate the same way.
//
// Import rules:
//   - CAN import: internal/classifier, internal/constants, internal/domain,
//     internal/errors, internal/gate, std lib
//   - MUST NOT import: internal/orchestrator, internal/service, internal/cli
package invariance

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/structure/internal/classifier"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	"github.com/mrz1836/structure/internal/gate"
)

// Expectation is the outcome every phrasing must share. Zero-valued
// fields are not checked, except that an empty Domain means "same domain
// as the first phrasing".
type Expectation struct {
	// Domain is a qualified domain ("physics.fluids") or a bare one ("math").
	// A bare domain matches any subdomain.
	Domain string `yaml:"domain" json:"domain,omitempty"`

	// Gates must all appear in the spec's required gates.
	Gates []string `yaml:"gates" json:"gates,omitempty"`

	// Blocking, when set, requires the gates to block (true) or pass (false).
	Blocking *bool `yaml:"blocking" json:"blocking,omitempty"`

	// Decision, when set, is the required first blocking decision.
	Decision constants.Decision `yaml:"decision" json:"decision,omitempty"`
}

// Result is the outcome of one phrasing.
type Result struct {
	Phrasing      string   `json:"phrasing"`
	Domain        string   `json:"domain"`
	RequiredGates []string `json:"required_gates"`
	Blocking      []string `json:"blocking_gates"`
	Deviations    []string `json:"deviations,omitempty"`
}

// OK reports whether the phrasing matched the expectation.
func (r Result) OK() bool {
	return len(r.Deviations) == 0
}

// Report collects the results of a Check in phrasing order.
type Report struct {
	Expect  Expectation `json:"expect"`
	Results []Result    `json:"results"`
}

// Failed returns the deviating results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Passed reports whether every phrasing matched.
func (r Report) Passed() bool {
	return len(r.Failed()) == 0
}

// Check classifies and gates every phrasing in parallel and compares each
// outcome with expect. It only fails when ctx is canceled; deviations are
// reported in the Report.
func Check(ctx context.Context, c *classifier.Classifier, runner *gate.Runner, phrasings []string, expect Expectation) (Report, error) {
	results := make([]Result, len(phrasings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, text := range phrasings {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(c, runner, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	want := expect
	if want.Domain == "" && len(results) > 0 {
		want.Domain = results[0].Domain
	}
	for i := range results {
		if results[i].Deviations == nil {
			results[i].Deviations = compare(results[i], want)
		}
	}
	return Report{Expect: expect, Results: results}, nil
}

func evaluate(c *classifier.Classifier, runner *gate.Runner, text string) Result {
	res := Result{Phrasing: text}
	spec, err := c.Classify(domain.TaskRequest{RequestID: "invariance", UserInput: text})
	if err != nil {
		res.Deviations = []string{fmt.Sprintf("classification failed: %v", err)}
		return res
	}
	res.Domain = spec.QualifiedDomain()
	res.RequiredGates = spec.RequiredGates()

	decisions, err := runner.RunGates(spec)
	if err != nil {
		res.Deviations = []string{fmt.Sprintf("gates failed: %v", err)}
		return res
	}
	for _, d := range gate.GetBlockingDecisions(decisions) {
		res.Blocking = append(res.Blocking, d.GateID+"="+d.Decision.String())
	}
	return res
}

func compare(res Result, want Expectation) []string {
	var out []string
	if want.Domain != "" && !domainMatches(res.Domain, want.Domain) {
		out = append(out, fmt.Sprintf("domain %s, want %s", res.Domain, want.Domain))
	}
	for _, g := range want.Gates {
		if !slices.Contains(res.RequiredGates, g) {
			out = append(out, "missing required gate "+g)
		}
	}
	if want.Blocking != nil && *want.Blocking != (len(res.Blocking) > 0) {
		if *want.Blocking {
			out = append(out, "expected a blocking decision, gates passed")
		} else {
			out = append(out, "unexpected blocking decision: "+strings.Join(res.Blocking, ", "))
		}
	}
	if want.Decision != "" && len(res.Blocking) > 0 {
		if _, got, _ := strings.Cut(res.Blocking[0], "="); got != want.Decision.String() {
			out = append(out, fmt.Sprintf("decision %s, want %s", got, want.Decision))
		}
	}
	return out
}

func domainMatches(got, want string) bool {
	if got == want {
		return true
	}
	return !strings.Contains(want, ".") && strings.HasPrefix(got, want+".")
}
