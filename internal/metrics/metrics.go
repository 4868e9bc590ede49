// Package metrics records scrape run metrics with Prometheus collectors.
//
// Collectors live on a private registry so several Recorders (one per test,
// say) never collide. The CLI exports a run's metrics in the node exporter
// textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "atg"

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRetryable = "retryable"
	OutcomeFatal     = "fatal"
)

// Recorder holds the run collectors.
type Recorder struct {
	registry *prometheus.Registry

	attempts    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	events      *prometheus.GaugeVec
	runDuration prometheus.Gauge
	lastRun     prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.attempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_attempts_total",
		Help:      "Parse attempts per source by outcome",
	}, []string{"source", "outcome"})
	r.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Sources that failed a run, by error kind",
	}, []string{"source", "kind"})
	r.events = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Events returned by each source in the last run",
	}, []string{"source"})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})

	r.registry.MustRegister(r.attempts, r.failures, r.events, r.runDuration, r.lastRun)
	return r
}

// Registry returns the registry the collectors are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Attempt counts one parse attempt.
func (r *Recorder) Attempt(source, outcome string) {
	r.attempts.WithLabelValues(source, outcome).Inc()
}

// Failure counts a source that ended the run with an error.
func (r *Recorder) Failure(source, kind string) {
	r.failures.WithLabelValues(source, kind).Inc()
}

// Events sets the number of events a source returned.
func (r *Recorder) Events(source string, n int) {
	r.events.WithLabelValues(source).Set(float64(n))
}

// RunFinished records the duration and completion time of a run.
func (r *Recorder) RunFinished(d time.Duration, at time.Time) {
	r.runDuration.Set(d.Seconds())
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
