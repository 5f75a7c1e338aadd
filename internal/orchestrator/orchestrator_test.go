package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/clarify"
	"github.com/mrz1836/structure/internal/classifier"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/domain"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/extract"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/kernel"
	"github.com/mrz1836/structure/internal/store"
	"github.com/mrz1836/structure/internal/testutil"
	"github.com/mrz1836/structure/internal/workflow"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	orch      *Orchestrator
	kernels   *kernel.Registry
	checker   *testutil.FakeChecker
	sink      *audit.MemorySink
	workflows *store.Workflows
	metrics   *recordingMetrics
}

func newHarness(t *testing.T, cfg Config, fakes ...*testutil.FakeKernel) *harness {
	t.Helper()
	h := &harness{
		kernels:   kernel.NewRegistry(),
		checker:   testutil.NewFakeChecker(),
		sink:      audit.NewMemorySink(),
		workflows: store.NewWorkflowStore(store.NewMemoryBackend()),
		metrics:   &recordingMetrics{},
	}
	for _, k := range fakes {
		require.NoError(t, h.kernels.Register(k))
	}
	h.orch = New(gate.NewRunner(gate.NewDefaultRegistry(nil)), h.kernels, h.checker, h.sink, cfg, zerolog.Nop(),
		WithClock(testutil.FixedClock{T: testNow}),
		WithWorkflowStore(h.workflows),
		WithResolver(clarify.NewResolver(nil)),
		WithMetrics(h.metrics),
	)
	return h
}

func newSpec(t *testing.T, input string, kernels []string, args map[string]any) *domain.TaskSpec {
	t.Helper()
	spec, err := domain.NewTaskSpec(domain.TaskSpecParams{
		RequestID:       "req_" + input,
		Domain:          constants.DomainGeneral,
		RequiredGates:   []string{constants.GateSchema, constants.GateAmbiguity},
		SelectedKernels: kernels,
		Args:            args,
		UserInput:       input,
		Confidence:      constants.KeywordConfidence,
	})
	require.NoError(t, err)
	return &spec
}

func newStep(id string, spec *domain.TaskSpec, deps ...string) *domain.WorkflowStep {
	return &domain.WorkflowStep{ID: id, Description: id, Spec: spec, DependsOn: deps, CreatedAt: testNow}
}

func newWorkflow(t *testing.T, steps ...*domain.WorkflowStep) *domain.Workflow {
	t.Helper()
	wf := domain.NewWorkflow("wf_test0001", "Workflow for: test...", nil, testNow)
	for _, s := range steps {
		require.NoError(t, wf.AddStep(s))
	}
	return wf
}

type recordingMetrics struct {
	NoopMetrics
	gates     []string
	steps     []constants.StepStatus
	workflows []constants.WorkflowStatus
}

func (m *recordingMetrics) GateEvaluated(gateID string, _ constants.Decision) {
	m.gates = append(m.gates, gateID)
}

func (m *recordingMetrics) StepFinished(status constants.StepStatus, _ constants.ErrorKind) {
	m.steps = append(m.steps, status)
}

func (m *recordingMetrics) WorkflowFinished(status constants.WorkflowStatus, _ time.Duration) {
	m.workflows = append(m.workflows, status)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to constants.StepStatus
		valid    bool
	}{
		{constants.StepStatusPending, constants.StepStatusActive, true},
		{constants.StepStatusActive, constants.StepStatusCompleted, true},
		{constants.StepStatusActive, constants.StepStatusFailed, true},
		{constants.StepStatusActive, constants.StepStatusBlocked, true},
		{constants.StepStatusBlocked, constants.StepStatusPending, true},
		{constants.StepStatusPending, constants.StepStatusCompleted, false},
		{constants.StepStatusCompleted, constants.StepStatusPending, false},
		{constants.StepStatusFailed, constants.StepStatusPending, false},
		{constants.StepStatusBlocked, constants.StepStatusActive, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValidTransition(tc.from, tc.to))

			step := &domain.WorkflowStep{ID: "s", Status: tc.from}
			err := Transition(step, tc.to, testNow)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.to, step.Status)
				return
			}
			require.ErrorIs(t, err, structerrors.ErrInvalidTransition)
			assert.Equal(t, tc.from, step.Status)
		})
	}

	assert.True(t, IsTerminalStatus(constants.StepStatusCompleted))
	assert.True(t, IsTerminalStatus(constants.StepStatusFailed))
	assert.False(t, IsTerminalStatus(constants.StepStatusBlocked))
}

func TestTransition_ActivationCountsAttempts(t *testing.T) {
	step := &domain.WorkflowStep{ID: "s", Status: constants.StepStatusPending, Error: "old"}
	require.NoError(t, Transition(step, constants.StepStatusActive, testNow))
	assert.Equal(t, 1, step.Attempts)
	assert.Empty(t, step.Error)
	require.NotNil(t, step.StartedAt)
	assert.Nil(t, step.CompletedAt)
}

func TestRunStep_Success(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1", Result: map[string]any{"mean": 3.0}}
	h := newHarness(t, DefaultConfig(), k)
	step := newStep("step_1", newSpec(t, "average of numbers", []string{"fake_v1"}, map[string]any{"data": []any{1.0}}))
	wf := newWorkflow(t, step)
	session := domain.NewSession("sess", "alice", testNow)

	require.NoError(t, h.orch.RunStep(context.Background(), wf, step, session))

	assert.Equal(t, constants.StepStatusCompleted, step.Status)
	assert.Equal(t, map[string]any{"mean": 3.0}, step.Output)
	assert.InDelta(t, 3.0, session.Context["mean"], 1e-9)
	require.NotNil(t, session.LastHistory(constants.HistoryStepComplete))

	calls := k.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "fake_v1", calls[0].KernelID)
	assert.Equal(t, constants.DeterminismD1, calls[0].Determinism)
	assert.Equal(t, int(constants.DefaultKernelTimeout.Milliseconds()), calls[0].TimeoutMS)
	assert.Equal(t, constants.SpecVersion, calls[0].SpecVersion)

	records := h.sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, constants.AuditStatusSuccess, records[0].Status)
	assert.Equal(t, constants.AuditActionStepExecution, records[0].Action)
	assert.Equal(t, "alice", records[0].ActorID)
	assert.Equal(t, []string{constants.GateSchema, constants.GateAmbiguity}, records[0].GatesPassed)
	assert.Equal(t, []string{constants.GateSchema, constants.GateAmbiguity}, h.metrics.gates)
}

func TestRunStep_NonMapResultIsNotMerged(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1", Result: []float64{1, 2}}
	h := newHarness(t, DefaultConfig(), k)
	step := newStep("step_1", newSpec(t, "list", []string{"fake_v1"}, nil))
	session := domain.NewSession("sess", "alice", testNow)

	require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, session))
	assert.Equal(t, constants.StepStatusCompleted, step.Status)
	assert.Empty(t, session.Context)
}

func TestRunStep_AccessDenied(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)
	h.checker.Deny("mallory", "step_1")
	step := newStep("step_1", newSpec(t, "average", []string{"fake_v1"}, nil))
	session := domain.NewSession("sess", "mallory", testNow)

	require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, session))

	assert.Equal(t, constants.StepStatusBlocked, step.Status)
	assert.Equal(t, constants.ErrorKindCompliance, step.ErrorKind)
	assert.Empty(t, k.Calls())

	records := h.sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, constants.AuditStatusBlocked, records[0].Status)
	assert.Equal(t, constants.AuditActionStepExecutionAttempt, records[0].Action)
	assert.Equal(t, []string{constants.AuditPolicyAccessControl}, records[0].PolicyViolations)
	assert.Equal(t, constants.AuditPolicyAccessControl, records[0].Details["reason"])
}

func TestRunStep_GateBlocks(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)
	step := newStep("step_1", newSpec(t, "What is the specific weight of water?", []string{"fake_v1"}, nil))
	session := domain.NewSession("sess", "alice", testNow)

	require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, session))

	assert.Equal(t, constants.StepStatusBlocked, step.Status)
	assert.Equal(t, constants.ErrorKindAmbiguity, step.ErrorKind)
	assert.Contains(t, step.Error, constants.ReasonTermCollision)
	payload, ok := step.Output.(*domain.ClarifyPayload)
	require.True(t, ok)
	assert.Equal(t, constants.GateAmbiguity, payload.GateID)
	assert.NotEmpty(t, payload.Questions)
	assert.Contains(t, payload.RequiredFields, "specific_weight_disambiguation")
	assert.Empty(t, k.Calls())
	require.NotNil(t, session.LastHistory(constants.HistoryStepBlocked))

	records := h.sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, constants.AuditStatusBlocked, records[0].Status)
	assert.Equal(t, constants.AuditActionStepExecutionAttempt, records[0].Action)
	assert.Equal(t, []string{constants.GateSchema}, records[0].GatesPassed)
	require.Len(t, records[0].PolicyViolations, 1)
	assert.Contains(t, records[0].PolicyViolations[0], constants.GateAmbiguity)
}

func TestRunStep_SessionAnswerUnblocks(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1", Result: map[string]any{"value": 9789.0}}
	h := newHarness(t, DefaultConfig(), k)
	step := newStep("step_1", newSpec(t, "What is the specific weight of water?", []string{"fake_v1"}, nil))
	session := domain.NewSession("sess", "alice", testNow)
	session.UpdateContext(map[string]any{clarify.AnswerKey("specific_weight_disambiguation"): "weight_density"}, testNow)

	require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, session))

	assert.Equal(t, constants.StepStatusCompleted, step.Status)
	assert.Equal(t, "weight_density", step.Spec.Clarification("specific_weight_disambiguation"))
	require.Len(t, k.Calls(), 1)
	assert.Equal(t, "weight_density", k.Calls()[0].Args["specific_weight_disambiguation"])
}

func TestRunStep_Failures(t *testing.T) {
	tests := []struct {
		name     string
		kernel   *testutil.FakeKernel
		spec     func(t *testing.T) *domain.TaskSpec
		kind     constants.ErrorKind
		contains string
	}{
		{
			name:     "missing spec",
			kernel:   &testutil.FakeKernel{KernelID: "fake_v1"},
			spec:     func(*testing.T) *domain.TaskSpec { return nil },
			kind:     constants.ErrorKindConfiguration,
			contains: "no task spec",
		},
		{
			name:   "no kernel selected",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1"},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", nil, nil)
			},
			kind:     constants.ErrorKindConfiguration,
			contains: "no kernel selected",
		},
		{
			name:   "unknown kernel",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1"},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", []string{"missing_v9", "fake_v1"}, nil)
			},
			kind:     constants.ErrorKindConfiguration,
			contains: "missing_v9",
		},
		{
			name:   "invalid args",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1", ArgsErr: testutil.ErrMockKernel},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", []string{"fake_v1"}, nil)
			},
			kind:     constants.ErrorKindValidation,
			contains: "kernel rejected arguments",
		},
		{
			name:   "kernel reports failure",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1", FailWith: "division by zero"},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", []string{"fake_v1"}, nil)
			},
			kind:     constants.ErrorKindExecution,
			contains: "division by zero",
		},
		{
			name:   "kernel panics",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1", PanicWith: "boom"},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", []string{"fake_v1"}, nil)
			},
			kind:     constants.ErrorKindUnhandled,
			contains: "boom",
		},
		{
			name:   "kernel exceeds timeout hint",
			kernel: &testutil.FakeKernel{KernelID: "fake_v1", Delay: 5 * time.Second},
			spec: func(t *testing.T) *domain.TaskSpec {
				return newSpec(t, "hello", []string{"fake_v1"}, map[string]any{"timeout_ms": 20.0})
			},
			kind:     constants.ErrorKindTimeout,
			contains: "step timed out",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, DefaultConfig(), tc.kernel)
			step := newStep("step_1", tc.spec(t))
			session := domain.NewSession("sess", "alice", testNow)

			require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, session))

			assert.Equal(t, constants.StepStatusFailed, step.Status)
			assert.Equal(t, tc.kind, step.ErrorKind)
			assert.Contains(t, step.Error, tc.contains)
			assert.NotNil(t, step.Output)
			require.NotNil(t, session.LastHistory(constants.HistoryStepFailed))

			records := h.sink.Records()
			require.Len(t, records, 1)
			assert.Equal(t, constants.AuditStatusFailure, records[0].Status)
			assert.Equal(t, []constants.StepStatus{constants.StepStatusFailed}, h.metrics.steps)
		})
	}
}

func TestRunStep_FailureAuditCanBeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuditExecutionFailures = false
	h := newHarness(t, cfg, &testutil.FakeKernel{KernelID: "fake_v1", FailWith: "nope"})
	step := newStep("step_1", newSpec(t, "hello", []string{"fake_v1"}, nil))

	require.NoError(t, h.orch.RunStep(context.Background(), newWorkflow(t, step), step, domain.NewSession("s", "alice", testNow)))
	assert.Equal(t, constants.StepStatusFailed, step.Status)
	assert.Empty(t, h.sink.Records())
}

func TestRunStep_RequiresPendingStep(t *testing.T) {
	h := newHarness(t, DefaultConfig(), &testutil.FakeKernel{KernelID: "fake_v1"})
	step := newStep("step_1", newSpec(t, "hello", []string{"fake_v1"}, nil))
	wf := newWorkflow(t, step)
	step.Status = constants.StepStatusCompleted

	err := h.orch.RunStep(context.Background(), wf, step, domain.NewSession("s", "alice", testNow))
	require.ErrorIs(t, err, structerrors.ErrInvalidTransition)
	assert.Equal(t, constants.StepStatusCompleted, step.Status)
}

func TestRunWorkflow_CompletesInDependencyOrder(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1", Result: map[string]any{"ok": true}}
	h := newHarness(t, DefaultConfig(), k)

	s1 := newStep("s1", newSpec(t, "one", []string{"fake_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "two", []string{"fake_v1"}, nil))
	s3 := newStep("s3", newSpec(t, "three", []string{"fake_v1"}, nil), "s1", "s2")
	wf := newWorkflow(t, s1, s2, s3)
	session := domain.NewSession("sess", "alice", testNow)

	require.NoError(t, h.orch.RunWorkflow(context.Background(), wf, session))

	assert.Equal(t, constants.WorkflowStatusCompleted, wf.Status)
	var order []string
	for _, c := range k.Calls() {
		order = append(order, c.RequestID)
	}
	assert.Equal(t, []string{"req_one", "req_two", "req_three"}, order)
	assert.Equal(t, wf.ID, session.ActiveWorkflowID)
	assert.Equal(t, []constants.WorkflowStatus{constants.WorkflowStatusCompleted}, h.metrics.workflows)

	stored, err := h.workflows.Get(context.Background(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.WorkflowStatusCompleted, stored.Status)
}

func TestRunWorkflow_FailFast(t *testing.T) {
	ok := &testutil.FakeKernel{KernelID: "ok_v1", Result: map[string]any{"a": 1.0}}
	bad := &testutil.FakeKernel{KernelID: "bad_v1", FailWith: "kernel exploded"}
	h := newHarness(t, DefaultConfig(), ok, bad)

	s1 := newStep("s1", newSpec(t, "one", []string{"ok_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "two", []string{"bad_v1"}, nil), "s1")
	s3 := newStep("s3", newSpec(t, "three", []string{"ok_v1"}, nil), "s2")
	wf := newWorkflow(t, s1, s2, s3)

	require.NoError(t, h.orch.RunWorkflow(context.Background(), wf, domain.NewSession("sess", "alice", testNow)))

	assert.Equal(t, constants.WorkflowStatusFailed, wf.Status)
	assert.Equal(t, constants.StepStatusCompleted, s1.Status)
	assert.Equal(t, constants.StepStatusFailed, s2.Status)
	assert.Equal(t, constants.StepStatusPending, s3.Status)
	assert.Len(t, ok.Calls(), 1)
}

func TestRunWorkflow_FailureSkipsRestOfReadyBatch(t *testing.T) {
	ok := &testutil.FakeKernel{KernelID: "ok_v1"}
	bad := &testutil.FakeKernel{KernelID: "bad_v1", FailWith: "no"}
	h := newHarness(t, DefaultConfig(), ok, bad)

	s1 := newStep("s1", newSpec(t, "one", []string{"bad_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "two", []string{"ok_v1"}, nil))
	wf := newWorkflow(t, s1, s2)

	require.NoError(t, h.orch.RunWorkflow(context.Background(), wf, domain.NewSession("sess", "alice", testNow)))
	assert.Equal(t, constants.WorkflowStatusFailed, wf.Status)
	assert.Equal(t, constants.StepStatusPending, s2.Status)
	assert.Empty(t, ok.Calls())
}

func TestRunWorkflow_BlockedStepBlocksDependents(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)

	s1 := newStep("s1", newSpec(t, "What is the specific weight of water?", []string{"fake_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "then report it", []string{"fake_v1"}, nil), "s1")
	wf := newWorkflow(t, s1, s2)

	require.NoError(t, h.orch.RunWorkflow(context.Background(), wf, domain.NewSession("sess", "alice", testNow)))
	assert.Equal(t, constants.WorkflowStatusBlocked, wf.Status)
	assert.Equal(t, constants.StepStatusBlocked, s1.Status)
	assert.Equal(t, constants.StepStatusPending, s2.Status)
}

func TestRunWorkflow_ParentCancellation(t *testing.T) {
	fast := &testutil.FakeKernel{KernelID: "fast_v1", Result: map[string]any{"done": true}}
	slow := &testutil.FakeKernel{KernelID: "slow_v1", Delay: 10 * time.Second}
	h := newHarness(t, DefaultConfig(), fast, slow)

	s1 := newStep("s1", newSpec(t, "one", []string{"fast_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "two", []string{"slow_v1"}, nil), "s1")
	s3 := newStep("s3", newSpec(t, "three", []string{"fast_v1"}, nil), "s2")
	wf := newWorkflow(t, s1, s2, s3)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := h.orch.RunWorkflow(ctx, wf, domain.NewSession("sess", "alice", testNow))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, constants.WorkflowStatusFailed, wf.Status)
	assert.Equal(t, constants.StepStatusCompleted, s1.Status)
	assert.Equal(t, map[string]any{"done": true}, s1.Output)
	assert.Equal(t, constants.StepStatusFailed, s2.Status)
	assert.Equal(t, constants.ErrorKindTimeout, s2.ErrorKind)
	assert.Equal(t, constants.StepStatusPending, s3.Status)

	stored, getErr := h.workflows.Get(context.Background(), wf.ID)
	require.NoError(t, getErr)
	assert.Equal(t, constants.WorkflowStatusFailed, stored.Status)
}

func TestRunWorkflow_AlreadyCanceled(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)
	wf := newWorkflow(t, newStep("s1", newSpec(t, "one", []string{"fake_v1"}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.orch.RunWorkflow(ctx, wf, domain.NewSession("sess", "alice", testNow))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, k.Calls())
	assert.Equal(t, constants.StepStatusPending, wf.Steps[0].Status)
	assert.Equal(t, constants.WorkflowStatusFailed, wf.Status)
}

type failingWorkflowStore struct{ store.WorkflowStore }

func (failingWorkflowStore) Put(context.Context, *domain.Workflow) error {
	return testutil.ErrMockStoreUnavailable
}

func TestRunWorkflow_PersistFailure(t *testing.T) {
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)
	WithWorkflowStore(failingWorkflowStore{})(h.orch)

	wf := newWorkflow(t, newStep("s1", newSpec(t, "one", []string{"fake_v1"}, nil)))
	err := h.orch.RunWorkflow(context.Background(), wf, domain.NewSession("sess", "alice", testNow))
	require.ErrorIs(t, err, testutil.ErrMockStoreUnavailable)
	assert.Equal(t, constants.WorkflowStatusCompleted, wf.Status)
}

func TestAnswerClarification_ResumesBlockedWorkflow(t *testing.T) {
	ctx := context.Background()
	workflows := store.NewWorkflowStore(store.NewMemoryBackend())
	sink := audit.NewMemorySink()
	orch := New(gate.NewRunner(gate.NewDefaultRegistry(nil)), kernel.NewDefaultRegistry(testutil.FixedClock{T: testNow}),
		testutil.NewFakeChecker(), sink, DefaultConfig(), zerolog.Nop(),
		WithClock(testutil.FixedClock{T: testNow}),
		WithWorkflowStore(workflows),
		WithResolver(clarify.NewResolver(nil)),
	)

	builder := workflow.NewBuilder(classifier.New(nil), extract.New(nil), zerolog.Nop())
	wf := builder.Build(ctx, domain.TaskRequest{RequestID: "req_1", UserInput: "Convert 10 lb to kg"})
	require.Len(t, wf.Steps, 1)
	session := domain.NewSession("sess", "alice", testNow)

	require.NoError(t, orch.RunWorkflow(ctx, wf, session))
	require.Equal(t, constants.WorkflowStatusBlocked, wf.Status)
	require.Equal(t, constants.StepStatusBlocked, wf.Steps[0].Status)

	resumed, err := orch.AnswerClarification(ctx, session, []domain.QuestionAnswer{
		{QuestionID: "lb_unit_clarification", Answer: "lbm"},
	})
	require.NoError(t, err)

	assert.Equal(t, constants.WorkflowStatusCompleted, resumed.Status)
	step := resumed.Steps[0]
	assert.Equal(t, constants.StepStatusCompleted, step.Status)
	assert.Equal(t, 2, step.Attempts)
	result, ok := step.Output.(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 4.5359, result["converted_value"], 1e-3)

	assert.Equal(t, "lbm", session.Context["answer_lb_unit_clarification"])
	assert.Equal(t, "lbm", resumed.Context["answer_lb_unit_clarification"])
	require.NotNil(t, session.LastHistory(constants.HistoryClarificationAnswer))

	entry := session.LastHistory(constants.HistoryClarificationChain)
	require.NotNil(t, entry)
	assert.Equal(t, step.ID, entry.Data["step_id"])
	chain, ok := entry.Data["chain"].(domain.ClarifyChain)
	require.True(t, ok)
	assert.True(t, chain.Resolved)
	assert.Equal(t, step.ID, chain.RequestID)
	require.Len(t, chain.Exchanges, 1)
	assert.Equal(t, "lb_unit_clarification", chain.Exchanges[0].Request.QuestionID)
	assert.Equal(t, "lb_unit_clarification", chain.Exchanges[0].Answer.ClarifyRequestID)

	var resolutions []domain.AuditRecord
	for _, r := range sink.Records() {
		if r.Action == constants.AuditActionClarification {
			resolutions = append(resolutions, r)
		}
	}
	require.Len(t, resolutions, 1)
	assert.Equal(t, step.ID, resolutions[0].ResourceID)
	assert.Equal(t, constants.AuditStatusSuccess, resolutions[0].Status)
	assert.Equal(t, wf.ID, resolutions[0].Details["workflow_id"])

	stored, err := workflows.Get(ctx, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.WorkflowStatusCompleted, stored.Status)
}

func TestAnswerClarification_ResetsEveryBlockedStep(t *testing.T) {
	ctx := context.Background()
	k := &testutil.FakeKernel{KernelID: "fake_v1"}
	h := newHarness(t, DefaultConfig(), k)

	s1 := newStep("s1", newSpec(t, "What is the specific weight of water?", []string{"fake_v1"}, nil))
	s2 := newStep("s2", newSpec(t, "Take a sample of the water", []string{"fake_v1"}, nil))
	wf := newWorkflow(t, s1, s2)
	session := domain.NewSession("sess", "alice", testNow)
	require.NoError(t, h.orch.RunWorkflow(ctx, wf, session))
	require.Equal(t, constants.StepStatusBlocked, s1.Status)
	require.Equal(t, constants.StepStatusBlocked, s2.Status)

	resumed, err := h.orch.AnswerClarification(ctx, session, []domain.QuestionAnswer{
		{QuestionID: "specific_weight_disambiguation", Answer: "weight_density"},
	})
	require.NoError(t, err)

	first, second := resumed.Step("s1"), resumed.Step("s2")
	assert.Equal(t, constants.StepStatusCompleted, first.Status)
	assert.Equal(t, constants.StepStatusBlocked, second.Status)
	assert.Equal(t, 2, first.Attempts)
	assert.Equal(t, 2, second.Attempts, "unrelated blocked step is retried too")
	assert.Equal(t, constants.WorkflowStatusBlocked, resumed.Status)
}

func TestAnswerClarification_Errors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, DefaultConfig())

	t.Run("empty question id", func(t *testing.T) {
		session := domain.NewSession("sess", "alice", testNow)
		_, err := h.orch.AnswerClarification(ctx, session, []domain.QuestionAnswer{{QuestionID: " ", Answer: "x"}})
		require.ErrorIs(t, err, structerrors.ErrInvalidAnswer)
		assert.Empty(t, session.Context)
	})

	t.Run("no active workflow still records answers", func(t *testing.T) {
		session := domain.NewSession("sess", "alice", testNow)
		_, err := h.orch.AnswerClarification(ctx, session, []domain.QuestionAnswer{{QuestionID: "lb_unit_clarification", Answer: "lbm"}})
		require.ErrorIs(t, err, structerrors.ErrNoActiveWorkflow)
		assert.Equal(t, "lbm", session.Context["answer_lb_unit_clarification"])
	})

	t.Run("active workflow missing from store", func(t *testing.T) {
		session := domain.NewSession("sess", "alice", testNow)
		session.ActiveWorkflowID = "wf_gone"
		_, err := h.orch.AnswerClarification(ctx, session, nil)
		require.ErrorIs(t, err, structerrors.ErrWorkflowNotFound)
	})
}

func TestErrorKindFor(t *testing.T) {
	tests := []struct {
		decision constants.Decision
		gateID   string
		want     constants.ErrorKind
	}{
		{constants.DecisionClarify, constants.GateAmbiguity, constants.ErrorKindAmbiguity},
		{constants.DecisionReject, constants.GateSchema, constants.ErrorKindValidation},
		{constants.DecisionReject, constants.GateFileWrite, constants.ErrorKindPolicy},
		{constants.DecisionEscalate, constants.GateExperimentSafety, constants.ErrorKindCompliance},
	}
	for _, tc := range tests {
		got := errorKindFor(domain.GateDecision{GateID: tc.gateID, Decision: tc.decision})
		assert.Equal(t, tc.want, got, "%s/%s", tc.decision, tc.gateID)
	}
}
