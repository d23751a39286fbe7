// Package metrics exports engine execution counters in the Prometheus
// format.
//
// Metrics implements engine.Observer. Every Metrics owns a private
// registry, so tests and concurrent CLI invocations never collide on the
// process-wide default registry.
//
// Metrics:
//   - foldr_runs_total{outcome}: finished executions by outcome
//   - foldr_steps_total{op,outcome}: evaluated steps by operation
//   - foldr_degraded_outputs_total: executions whose output was degraded
//   - foldr_run_steps: histogram of completed steps per execution
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/foldr/internal/engine"
)

const namespace = "foldr"

// Metrics collects execution metrics into its own registry.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	steps    *prometheus.CounterVec
	degraded prometheus.Counter
	runSteps prometheus.Histogram
}

var _ engine.Observer = (*Metrics)(nil)

// New creates a Metrics with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Program executions by outcome (ok, degraded or error code).",
		}, []string{"outcome"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Evaluated steps by operation and outcome.",
		}, []string{"op", "outcome"}),
		degraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_outputs_total",
			Help:      "Executions that fell back to returning the whole state document.",
		}),
		runSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_steps",
			Help:      "Steps completed per execution.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
	}
	m.registry.MustRegister(m.runs, m.steps, m.degraded, m.runSteps)
	return m
}

// Registry exposes the private registry for gathering or serving.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep implements engine.Observer.
func (m *Metrics) ObserveStep(ev engine.StepEvent) {
	m.steps.WithLabelValues(ev.Op, engine.Outcome(false, ev.Err)).Inc()
}

// ObserveRun implements engine.Observer.
func (m *Metrics) ObserveRun(ev engine.RunEvent) {
	m.runs.WithLabelValues(engine.Outcome(ev.Degraded, ev.Err)).Inc()
	if ev.Err == nil && ev.Degraded {
		m.degraded.Inc()
	}
	m.runSteps.Observe(float64(ev.Steps))
}

// WriteTextfile writes the current metric values to path in the text
// exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
