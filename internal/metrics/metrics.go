// Package metrics records supervisor activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "supervisor"

// Recorder implements the Metrics interfaces of the rdmp, sample and ingest
// services. A nil *Recorder records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	activations     *prometheus.CounterVec
	activationTime  prometheus.Histogram
	fieldWrites     *prometheus.CounterVec
	classifications *prometheus.CounterVec
	sweeps          *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	sweepExamined   prometheus.Counter
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rdmp",
			Name:      "activations_total",
			Help:      "RDMP version activation attempts by outcome.",
		}, []string{"outcome"}),
		activationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rdmp",
			Name:      "activation_duration_seconds",
			Help:      "Time spent activating an RDMP version.",
			Buckets:   prometheus.DefBuckets,
		}),
		fieldWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sample",
			Name:      "field_writes_total",
			Help:      "Sample field value writes by outcome.",
		}, []string{"outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "classifications_total",
			Help:      "Automatic ingest classifications by resulting status.",
		}, []string{"status"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sweeps_total",
			Help:      "Ingest sweeps by outcome.",
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sweep_duration_seconds",
			Help:      "Time spent reclassifying unresolved ingests.",
			Buckets:   prometheus.DefBuckets,
		}),
		sweepExamined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sweep_examined_total",
			Help:      "Unresolved ingests examined by sweeps.",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.activations,
		r.activationTime,
		r.fieldWrites,
		r.classifications,
		r.sweeps,
		r.sweepDuration,
		r.sweepExamined,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveActivation records one activation attempt.
func (r *Recorder) ObserveActivation(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.activations.WithLabelValues(outcome).Inc()
	r.activationTime.Observe(d.Seconds())
}

// ObserveFieldWrite records one field value write.
func (r *Recorder) ObserveFieldWrite(outcome string) {
	if r == nil {
		return
	}
	r.fieldWrites.WithLabelValues(outcome).Inc()
}

// ObserveClassification records the status assigned by one classification.
func (r *Recorder) ObserveClassification(status string) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(status).Inc()
}

// ObserveSweep records one sweep.
func (r *Recorder) ObserveSweep(d time.Duration, examined int, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.sweeps.WithLabelValues(outcome).Inc()
	r.sweepDuration.Observe(d.Seconds())
	r.sweepExamined.Add(float64(examined))
}
