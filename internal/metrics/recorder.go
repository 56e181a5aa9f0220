// Package metrics records kiosk run metrics for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kiosk"

// Recorder keeps metrics for a single kiosk run in a private registry.
// All methods are safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	stateTransitions *prometheus.CounterVec
	stepOutcomes     *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	signalsSent      *prometheus.CounterVec
	cancellations    *prometheus.CounterVec
	lastRun          prometheus.Gauge
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		stateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Runner state transitions by target state",
		}, []string{"state"}),
		stepOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_outcomes_total",
			Help:      "Finished steps by step name and outcome",
		}, []string{"step", "outcome"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of each step from launch to reap",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 1800, 3600, 14400, 86400},
		}, []string{"step"}),
		signalsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_sent_total",
			Help:      "SIGTERM and SIGKILL deliveries to step processes",
		}, []string{"step", "signal"}),
		cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Shutdown requests by the signal that caused them",
		}, []string{"signal"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run reached the done state",
		}),
	}
}

// StateChanged counts a transition into state.
func (r *Recorder) StateChanged(state string) {
	r.stateTransitions.WithLabelValues(state).Inc()
}

// StepFinished counts a step outcome and observes its duration.
// Skipped steps never ran, so their duration is not observed.
func (r *Recorder) StepFinished(step, outcome string, duration time.Duration, skipped bool) {
	r.stepOutcomes.WithLabelValues(step, outcome).Inc()
	if !skipped {
		r.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
	}
}

// SignalSent counts a signal delivered to a step's process.
func (r *Recorder) SignalSent(step, signal string) {
	r.signalsSent.WithLabelValues(step, signal).Inc()
}

// Cancelled counts a shutdown request.
func (r *Recorder) Cancelled(signal string) {
	r.cancellations.WithLabelValues(signal).Inc()
}

// RunCompleted records the completion time of the run.
func (r *Recorder) RunCompleted(at time.Time) {
	r.lastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
