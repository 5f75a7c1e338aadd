package invariance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/classifier"
	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/gate"
)

//nolint:gochecknoglobals // Shared test fixture
var specificWeight = []string{
	"What is the specific weight of water?",
	"what's the specific weight of water",
	"specific weight of water?",
	"Tell me the specific weight of water",
	"Calculate the specific weight of water",
	"Find the specific weight of water",
	"What is water's specific weight?",
	"I need the specific weight of water",
	"Can you give me the specific weight of water?",
	"What's the specific weight for water?",
	"Specific weight of H2O?",
	"Give me specific weight of water",
	"What is the specific weight of pure water?",
	"What is the specific weight of fresh water?",
	"specific weight water",
	"water specific weight",
	"What would be the specific weight of water?",
	"Please calculate the specific weight of water",
	"Looking for the specific weight of water",
	"Need to know specific weight of water",
}

func newChecker() (*classifier.Classifier, *gate.Runner) {
	return classifier.New(nil), gate.NewRunner(gate.NewDefaultRegistry(nil))
}

func boolPtr(b bool) *bool { return &b }

func TestCheck_SpecificWeightIsInvariant(t *testing.T) {
	c, r := newChecker()

	report, err := Check(context.Background(), c, r, specificWeight, Expectation{
		Domain:   "physics.fluids",
		Gates:    []string{constants.GateAmbiguity},
		Blocking: boolPtr(true),
		Decision: constants.DecisionClarify,
	})
	require.NoError(t, err)

	require.Len(t, report.Results, len(specificWeight))
	for i, res := range report.Results {
		assert.Equal(t, specificWeight[i], res.Phrasing, "results keep phrasing order")
		assert.True(t, res.OK(), "%s: %v", res.Phrasing, res.Deviations)
	}
	assert.True(t, report.Passed())
}

func TestCheck_ReportsDeviations(t *testing.T) {
	c, r := newChecker()

	report, err := Check(context.Background(), c, r, []string{
		"Calculate the area of a circle with radius 5 meters",
		"What is the specific weight of water?",
	}, Expectation{Blocking: boolPtr(false)})
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "What is the specific weight of water?", failed[0].Phrasing)
	assert.NotEmpty(t, failed[0].Deviations)
	assert.False(t, report.Passed())
}

func TestCheck_EmptyDomainUsesFirstPhrasing(t *testing.T) {
	c, r := newChecker()

	report, err := Check(context.Background(), c, r, []string{
		"What is the specific weight of water?",
		"Design a questionnaire with likert scale questions",
	}, Expectation{})
	require.NoError(t, err)

	require.Len(t, report.Failed(), 1)
	assert.Contains(t, report.Failed()[0].Deviations[0], "want physics.fluids")
}

func TestCheck_Canceled(t *testing.T) {
	c, r := newChecker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Check(ctx, c, r, specificWeight, Expectation{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDomainMatches(t *testing.T) {
	assert.True(t, domainMatches("physics.fluids", "physics.fluids"))
	assert.True(t, domainMatches("physics.fluids", "physics"))
	assert.True(t, domainMatches("math", "math"))
	assert.False(t, domainMatches("physics", "physics.fluids"))
	assert.False(t, domainMatches("physicsx.fluids", "physics"))
}

const suiteYAML = `
cases:
  - name: specific_weight
    expect:
      domain: physics.fluids
      gates: [ambiguity_gate]
      blocking: true
      decision: CLARIFY
    phrasings:
      - What is the specific weight of water?
      - specific weight of water?
  - name: circle_area
    expect:
      blocking: false
    phrasings:
      - Calculate the area of a circle with radius 5 meters
`

func TestLoadSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0o600))

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	require.Len(t, suite.Cases, 2)
	assert.Equal(t, constants.DecisionClarify, suite.Cases[0].Expect.Decision)
	require.NotNil(t, suite.Cases[1].Expect.Blocking)
	assert.False(t, *suite.Cases[1].Expect.Blocking)

	c, r := newChecker()
	reports, err := suite.Run(context.Background(), c, r)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, cr := range reports {
		assert.True(t, cr.Report.Passed(), cr.Name)
	}
}

func TestParseSuite_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no cases", "cases: []"},
		{"unnamed case", "cases:\n  - phrasings: [a]"},
		{"no phrasings", "cases:\n  - name: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.data))
			require.ErrorIs(t, err, structerrors.ErrEmptyValue)
		})
	}

	_, err := ParseSuite([]byte("cases: {"))
	require.Error(t, err)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
