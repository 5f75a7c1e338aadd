package invariance

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/structure/internal/classifier"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/gate"
)

// Case is one named group of paraphrases.
type Case struct {
	Name      string      `yaml:"name"`
	Expect    Expectation `yaml:"expect"`
	Phrasings []string    `yaml:"phrasings"`
}

// Suite is the file format read by LoadSuite.
//
// Example:
//
//	cases:
//	  - name: specific_weight
//	    expect:
//	      domain: physics.fluids
//	      gates: [ambiguity_gate]
//	      blocking: true
//	      decision: CLARIFY
//	    phrasings:
//	      - What is the specific weight of water?
//	      - specific weight of water?
type Suite struct {
	Cases []Case `yaml:"cases"`
}

// CaseReport pairs a case name with its report.
type CaseReport struct {
	Name   string `json:"name"`
	Report Report `json:"report"`
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read invariance suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes a YAML suite.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse invariance suite: %w", err)
	}
	if len(s.Cases) == 0 {
		return nil, fmt.Errorf("invariance suite cases %w", structerrors.ErrEmptyValue)
	}
	for i, c := range s.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("invariance case %d name %w", i, structerrors.ErrEmptyValue)
		}
		if len(c.Phrasings) == 0 {
			return nil, fmt.Errorf("invariance case %s phrasings %w", c.Name, structerrors.ErrEmptyValue)
		}
	}
	return &s, nil
}

// Run checks every case in order.
func (s *Suite) Run(ctx context.Context, c *classifier.Classifier, runner *gate.Runner) ([]CaseReport, error) {
	out := make([]CaseReport, 0, len(s.Cases))
	for _, tc := range s.Cases {
		report, err := Check(ctx, c, runner, tc.Phrasings, tc.Expect)
		if err != nil {
			return out, fmt.Errorf("invariance case %s: %w", tc.Name, err)
		}
		out = append(out, CaseReport{Name: tc.Name, Report: report})
	}
	return out, nil
}
