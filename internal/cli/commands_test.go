package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
)

// submitOutput mirrors service.SubmitResult with a decodable response.
type submitOutput struct {
	SessionID string `json:"session_id"`
	Workflow  struct {
		ID     string `json:"workflow_id"`
		Status string `json:"status"`
		Steps  []struct {
			Status string `json:"status"`
		} `json:"steps"`
	} `json:"workflow"`
	Response *struct {
		Status  string                 `json:"status"`
		Result  map[string]any         `json:"result"`
		Clarify *domain.ClarifyPayload `json:"clarify"`
		Message string                 `json:"message"`
	} `json:"response"`
}

func TestClassifyCommand(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	t.Run("text", func(t *testing.T) {
		out, err := env.run(t, "classify", "What is the specific weight of water?")
		require.NoError(t, err)
		assert.Contains(t, out, "physics.fluids")
		assert.Contains(t, out, constants.GateAmbiguity)
		assert.Contains(t, out, string(constants.DecisionClarify))
	})

	t.Run("json", func(t *testing.T) {
		var res struct {
			Blocking      bool                   `json:"blocking"`
			GateDecisions []domain.GateDecision  `json:"gate_decisions"`
			Clarify       *domain.ClarifyPayload `json:"clarify"`
		}
		require.NoError(t, env.runJSON(t, &res, "classify", "Summarize", "data", "1,", "2,", "3"))
		assert.False(t, res.Blocking)
		assert.Nil(t, res.Clarify)
		assert.NotEmpty(t, res.GateDecisions)
	})

	t.Run("domain hint", func(t *testing.T) {
		out, err := env.run(t, "classify", "--domain-hint", "math", "area of a circle with radius 5")
		require.NoError(t, err)
		assert.Contains(t, out, "math")
	})

	t.Run("requires text", func(t *testing.T) {
		_, err := env.run(t, "classify")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	})
}

func TestSubmitCommand_Success(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var res submitOutput
	require.NoError(t, env.runJSON(t, &res, "submit", "--user", "alice", "Summarize data 1, 2, 3, 4, 5"))

	require.NotNil(t, res.Response)
	assert.Equal(t, string(constants.TaskResponseSuccess), res.Response.Status)
	assert.InDelta(t, 3.0, res.Response.Result["mean"], 1e-9)
	assert.NotEmpty(t, res.SessionID)

	audit, err := os.ReadFile(env.auditPath)
	require.NoError(t, err)
	assert.Contains(t, string(audit), constants.AuditActionTaskSubmission)
	assert.Contains(t, string(audit), `"actor_id":"alice"`)

	prom, err := os.ReadFile(env.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "structure_workflows_total")
	assert.Contains(t, string(prom), "structure_gate_decisions_total")
}

func TestSubmitCommand_MultiStepText(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out, err := env.run(t, "submit", "1. Convert 10 kg to lbm 2. Summarize data 1, 2, 3")
	require.NoError(t, err)
	assert.Contains(t, out, "STEP")
	assert.Contains(t, out, string(constants.WorkflowStatusCompleted))
}

func TestSubmitCommand_Reject(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	out, err := env.run(t, "submit", "Save the token to .env")
	require.NoError(t, err)
	assert.Contains(t, out, string(constants.TaskResponseReject))
	assert.Contains(t, out, constants.GateFileWrite)
}

func TestSubmitCommand_InvalidInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.run(t, "submit", "   ")
	require.ErrorIs(t, err, structerrors.ErrInvalidInput)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestSubmitCommand_UnknownSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.run(t, "submit", "--session", "missing", "Summarize data 1, 2, 3")
	require.ErrorIs(t, err, structerrors.ErrSessionNotFound)
}

func TestClarifyAnswerRoundTrip(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var first submitOutput
	require.NoError(t, env.runJSON(t, &first, "submit", "Convert 10 lb to kg"))
	require.NotNil(t, first.Response)
	assert.Equal(t, string(constants.TaskResponseClarify), first.Response.Status)
	require.NotNil(t, first.Response.Clarify)
	assert.Contains(t, first.Response.Clarify.RequiredFields, "lb_unit_clarification")

	text, err := env.run(t, "session", first.SessionID)
	require.NoError(t, err)
	assert.Contains(t, text, first.Workflow.ID)
	assert.Contains(t, text, string(constants.StepStatusBlocked))

	var resumed submitOutput
	require.NoError(t, env.runJSON(t, &resumed, "answer", first.SessionID, "lb_unit_clarification=lbm"))
	require.NotNil(t, resumed.Response)
	assert.Equal(t, string(constants.TaskResponseSuccess), resumed.Response.Status)
	assert.InDelta(t, 4.5359, resumed.Response.Result["converted_value"], 1e-3)

	var view struct {
		Session  domain.Session `json:"session"`
		Workflow struct {
			Status string `json:"status"`
		} `json:"active_workflow"`
	}
	require.NoError(t, env.runJSON(t, &view, "session", first.SessionID))
	assert.Equal(t, "lbm", view.Session.Context["answer_lb_unit_clarification"])
	assert.Equal(t, string(constants.WorkflowStatusCompleted), view.Workflow.Status)
}

func TestAnswerCommand_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name   string
		args   []string
		target error
		code   int
	}{
		{"missing equals", []string{"answer", "s1", "lbm"}, structerrors.ErrInvalidAnswer, ExitInvalidInput},
		{"empty value", []string{"answer", "s1", "lb_unit_clarification="}, structerrors.ErrInvalidAnswer, ExitInvalidInput},
		{"unknown session", []string{"answer", "s1", "lb_unit_clarification=lbm"}, structerrors.ErrSessionNotFound, ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.run(t, tc.args...)
			require.ErrorIs(t, err, tc.target)
			assert.Equal(t, tc.code, ExitCodeForError(err))
		})
	}
}

func TestParseAnswers(t *testing.T) {
	t.Parallel()

	answers, err := parseAnswers([]string{"lb_unit_clarification=lbm", " term = specific_weight "})
	require.NoError(t, err)
	assert.Equal(t, []domain.QuestionAnswer{
		{QuestionID: "lb_unit_clarification", Answer: "lbm"},
		{QuestionID: "term", Answer: "specific_weight"},
	}, answers)

	_, err = parseAnswers([]string{"=lbm"})
	require.ErrorIs(t, err, structerrors.ErrInvalidAnswer)
}

func TestSessionCommand_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.run(t, "session", "nope")
	require.ErrorIs(t, err, structerrors.ErrSessionNotFound)

	_, err = env.run(t, "session", "../escape")
	require.ErrorIs(t, err, structerrors.ErrSessionNotFound)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestKernelsCommand(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var kernels []kernelInfo
	require.NoError(t, env.runJSON(t, &kernels, "kernels"))
	ids := make([]string, 0, len(kernels))
	for _, k := range kernels {
		ids = append(ids, k.ID)
		assert.NotEmpty(t, k.Version)
	}
	assert.ElementsMatch(t, []string{
		constants.KernelUnitConverter,
		constants.KernelStatistics,
		constants.KernelDataSummary,
		constants.KernelConstants,
	}, ids)

	out, err := env.run(t, "kernels")
	require.NoError(t, err)
	assert.Contains(t, out, "DETERMINISM")
}

func TestGatesCommand(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var gates []string
	require.NoError(t, env.runJSON(t, &gates, "gates"))
	assert.ElementsMatch(t, []string{
		constants.GateSchema,
		constants.GateUnitConsistency,
		constants.GateAmbiguity,
		constants.GateBounds,
		constants.GateExperimentSafety,
		constants.GateFileWrite,
	}, gates)
}

func TestCheckInvarianceCommand(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	passing := filepath.Join(env.dir, "pass.yaml")
	require.NoError(t, os.WriteFile(passing, []byte(`
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
      - Tell me the specific weight of water
`), 0o600))

	failing := filepath.Join(env.dir, "fail.yaml")
	require.NoError(t, os.WriteFile(failing, []byte(`
cases:
  - name: wrong_domain
    expect:
      domain: chemistry
    phrasings:
      - What is the specific weight of water?
`), 0o600))

	t.Run("pass", func(t *testing.T) {
		out, err := env.run(t, "check-invariance", passing)
		require.NoError(t, err)
		assert.Contains(t, out, "PASS  specific_weight (3 phrasings)")
	})

	t.Run("fail", func(t *testing.T) {
		out, err := env.run(t, "check-invariance", failing)
		require.ErrorIs(t, err, structerrors.ErrInvarianceViolation)
		assert.Equal(t, ExitError, ExitCodeForError(err))
		assert.Contains(t, out, "FAIL  wrong_domain")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := env.run(t, "check-invariance", filepath.Join(env.dir, "nope.yaml"))
		require.Error(t, err)
	})
}
