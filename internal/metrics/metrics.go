// Package metrics exposes scheduler activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/flemzord/every/internal/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "every"

// Result label values.
const (
	resultSucceeded = "succeeded"
	resultFailed    = "failed"
)

// Metrics holds the scheduler collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	nextRun     *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	sweeps      prometheus.Counter
	sweepErrors prometheus.Counter
	registered  prometheus.Gauge
}

// Compile-time interface check.
var _ schedule.Observer = (*Metrics)(nil)

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Job runs by job and result.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Time spent in the job function.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 10),
		}, []string{"job"}),
		nextRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_next_run_timestamp_seconds",
			Help:      "Unix time at which the job is next due.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "RunPending sweeps performed.",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Sweeps that ended with a job error.",
		}),
		registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_jobs",
			Help:      "Jobs currently registered with the scheduler.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.duration, m.nextRun, m.lastSuccess,
		m.sweeps, m.sweepErrors, m.registered,
	)
	return m
}

// JobRan implements schedule.Observer.
func (m *Metrics) JobRan(r schedule.RunRecord) {
	result := resultSucceeded
	if r.Err != nil {
		result = resultFailed
	} else {
		m.lastSuccess.WithLabelValues(r.Job).Set(float64(r.Finished.Unix()))
	}
	m.runs.WithLabelValues(r.Job, result).Inc()
	m.duration.WithLabelValues(r.Job).Observe(r.Duration().Seconds())
	m.nextRun.WithLabelValues(r.Job).Set(float64(r.NextRun.Unix()))
}

// JobScheduled records a newly registered job's first due time.
func (m *Metrics) JobScheduled(j *schedule.Job) {
	m.nextRun.WithLabelValues(j.Name()).Set(float64(j.NextRun().Unix()))
}

// JobRemoved drops the per-job series of a removed job.
func (m *Metrics) JobRemoved(name string) {
	m.runs.DeletePartialMatch(prometheus.Labels{"job": name})
	m.duration.DeleteLabelValues(name)
	m.nextRun.DeleteLabelValues(name)
	m.lastSuccess.DeleteLabelValues(name)
}

// SweepDone records one sweep and the registry size after it.
func (m *Metrics) SweepDone(registered int, err error) {
	m.sweeps.Inc()
	if err != nil {
		m.sweepErrors.Inc()
	}
	m.JobsRegistered(registered)
}

// JobsRegistered sets the registry size.
func (m *Metrics) JobsRegistered(n int) {
	m.registered.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
