// Package metrics exports orchestrator metrics to Prometheus.
//
// Import rules:
//   - CAN import: internal/constants, internal/orchestrator, std lib
//   - MUST NOT import: internal/service, internal/cli
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrz1836/structure/internal/constants"
	"github.com/mrz1836/structure/internal/orchestrator"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "structure"

// Prometheus implements orchestrator.Metrics on its own registry so
// several instances can coexist in one process (tests, embedded use).
type Prometheus struct {
	registry         *prometheus.Registry
	steps            *prometheus.CounterVec
	gateDecisions    *prometheus.CounterVec
	workflows        *prometheus.CounterVec
	kernelDuration   *prometheus.HistogramVec
	workflowDuration prometheus.Histogram
}

// NewPrometheus creates the collectors and registers them. An empty
// namespace uses DefaultNamespace.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Workflow steps finished, by final status and error kind.",
		}, []string{"status", "error_kind"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Gate evaluations by gate and decision.",
		}, []string{"gate", "decision"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Workflow runs by resulting status.",
		}, []string{"status"}),
		kernelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kernel_duration_seconds",
			Help:      "Kernel invocation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"kernel", "success"}),
		workflowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Duration of one RunWorkflow call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	p.registry.MustRegister(p.steps, p.gateDecisions, p.workflows, p.kernelDuration, p.workflowDuration)
	return p
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// WriteTextfile writes the current values to path in the text exposition
// format, for the node_exporter textfile collector. The file is replaced
// atomically.
func (p *Prometheus) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// GateEvaluated implements orchestrator.Metrics.
func (p *Prometheus) GateEvaluated(gateID string, decision constants.Decision) {
	p.gateDecisions.WithLabelValues(gateID, decision.String()).Inc()
}

// KernelInvoked implements orchestrator.Metrics.
func (p *Prometheus) KernelInvoked(kernelID string, duration time.Duration, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	p.kernelDuration.WithLabelValues(kernelID, label).Observe(duration.Seconds())
}

// StepFinished implements orchestrator.Metrics.
func (p *Prometheus) StepFinished(status constants.StepStatus, kind constants.ErrorKind) {
	p.steps.WithLabelValues(status.String(), kind.String()).Inc()
}

// WorkflowFinished implements orchestrator.Metrics.
func (p *Prometheus) WorkflowFinished(status constants.WorkflowStatus, duration time.Duration) {
	p.workflows.WithLabelValues(status.String()).Inc()
	p.workflowDuration.Observe(duration.Seconds())
}

var _ orchestrator.Metrics = (*Prometheus)(nil)
