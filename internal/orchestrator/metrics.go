package orchestrator

import (
	"time"

	"github.com/mrz1836/structure/internal/constants"
)

// Metrics collects execution metrics. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// GateEvaluated is called once per gate decision.
	GateEvaluated(gateID string, decision constants.Decision)

	// KernelInvoked is called after each kernel invocation, including
	// timeouts and panics.
	KernelInvoked(kernelID string, duration time.Duration, success bool)

	// StepFinished is called when a step leaves the active state.
	StepFinished(status constants.StepStatus, kind constants.ErrorKind)

	// WorkflowFinished is called once per RunWorkflow call.
	WorkflowFinished(status constants.WorkflowStatus, duration time.Duration)
}

// NoopMetrics is a no-op implementation of Metrics for default behavior.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Metrics interface.
var _ Metrics = (*NoopMetrics)(nil)

// GateEvaluated implements Metrics.
func (NoopMetrics) GateEvaluated(string, constants.Decision) {}

// KernelInvoked implements Metrics.
func (NoopMetrics) KernelInvoked(string, time.Duration, bool) {}

// StepFinished implements Metrics.
func (NoopMetrics) StepFinished(constants.StepStatus, constants.ErrorKind) {}

// WorkflowFinished implements Metrics.
func (NoopMetrics) WorkflowFinished(constants.WorkflowStatus, time.Duration) {}
