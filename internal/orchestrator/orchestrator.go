package orchestrator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/clarify"
	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/compliance"
	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/kernel"
	"github.com/mrz1836/structure/internal/store"
)

// Config holds orchestrator settings.
type Config struct {
	// KernelTimeout bounds one kernel invocation unless the spec args carry
	// a timeout_ms hint.
	KernelTimeout time.Duration

	// Determinism is the level requested from every kernel.
	Determinism constants.Determinism

	// AuditExecutionFailures emits a FAILURE audit record for failed steps.
	AuditExecutionFailures bool
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		KernelTimeout:          constants.DefaultKernelTimeout,
		Determinism:            constants.DeterminismD1,
		AuditExecutionFailures: true,
	}
}

// Orchestrator runs workflows step by step.
// A workflow and its session must be owned by one caller at a time; the
// orchestrator does not lock them.
type Orchestrator struct {
	gates      *gate.Runner
	kernels    *kernel.Registry
	compliance compliance.Checker
	audit      *audit.Recorder
	workflows  store.WorkflowStore
	resolver   *clarify.Resolver
	metrics    Metrics
	clock      clock.Clock
	config     Config
	logger     zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithResolver applies stored clarification answers to each spec before
// its gates run.
func WithResolver(r *clarify.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = r
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithWorkflowStore persists the workflow after every scheduling pass and
// lets AnswerClarification load the active workflow.
func WithWorkflowStore(s store.WorkflowStore) Option {
	return func(o *Orchestrator) {
		o.workflows = s
	}
}

// New creates an orchestrator. The audit sink may be nil.
func New(gates *gate.Runner, kernels *kernel.Registry, checker compliance.Checker, sink audit.Sink, cfg Config, logger zerolog.Logger, opts ...Option) *Orchestrator {
	if cfg.KernelTimeout <= 0 {
		cfg.KernelTimeout = constants.DefaultKernelTimeout
	}
	if !cfg.Determinism.Valid() {
		cfg.Determinism = constants.DeterminismD1
	}
	o := &Orchestrator{
		gates:      gates,
		kernels:    kernels,
		compliance: checker,
		metrics:    NoopMetrics{},
		clock:      clock.RealClock{},
		config:     cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.audit = audit.NewRecorder(sink, o.clock)
	return o
}

func (o *Orchestrator) now() time.Time {
	return o.clock.Now().UTC()
}
