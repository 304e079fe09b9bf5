// Package metrics exposes engine counters and gauges for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so tests can build many.
type Recorder struct {
	registry *prometheus.Registry

	admitted        prometheus.Counter
	rejected        *prometheus.CounterVec
	evicted         prometheus.Counter
	transportErrors *prometheus.CounterVec
	indexEvents     prometheus.Gauge
	indexBuckets    *prometheus.GaugeVec
	clockLag        prometheus.Gauge
	highlights      prometheus.Gauge
	sweepDur        prometheus.Summary
}

// New creates and registers all collectors.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.admitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventscope",
		Name:      "events_admitted_total",
		Help:      "Raw events admitted into the index",
	})
	r.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventscope",
		Name:      "events_rejected_total",
		Help:      "Raw events dropped by the admission filter",
	}, []string{"reason"})
	r.evicted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventscope",
		Name:      "events_evicted_total",
		Help:      "Events removed by the retention sweep",
	})
	r.transportErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventscope",
		Name:      "transport_errors_total",
		Help:      "Connection-level failures reported by feeds",
	}, []string{"source"})
	r.indexEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventscope",
		Name:      "index_events",
		Help:      "Events currently indexed",
	})
	r.indexBuckets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eventscope",
		Name:      "index_buckets",
		Help:      "Index bucket count by view",
	}, []string{"view"})
	r.clockLag = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventscope",
		Name:      "clock_lag_seconds",
		Help:      "Wall clock minus playback position",
	})
	r.highlights = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventscope",
		Name:      "highlights",
		Help:      "Live highlight entries",
	})
	r.sweepDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "eventscope",
		Name:      "sweep_duration_seconds",
		Help:      "Time spent in the retention sweep",
	})

	r.registry.MustRegister(
		r.admitted, r.rejected, r.evicted, r.transportErrors,
		r.indexEvents, r.indexBuckets, r.clockLag, r.highlights, r.sweepDur,
	)
	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Admitted(n int) { r.admitted.Add(float64(n)) }

func (r *Recorder) Rejected(reason string) { r.rejected.WithLabelValues(reason).Inc() }

func (r *Recorder) Evicted(n int) { r.evicted.Add(float64(n)) }

func (r *Recorder) TransportError(source string) { r.transportErrors.WithLabelValues(source).Inc() }

func (r *Recorder) SweepSeconds(s float64) { r.sweepDur.Observe(s) }

func (r *Recorder) Highlights(n int) { r.highlights.Set(float64(n)) }

func (r *Recorder) ClockLag(seconds float64) { r.clockLag.Set(seconds) }

// IndexSize records the event count and bucket counts.
func (r *Recorder) IndexSize(events, timeBuckets, locationBuckets int) {
	r.indexEvents.Set(float64(events))
	r.indexBuckets.WithLabelValues("time").Set(float64(timeBuckets))
	r.indexBuckets.WithLabelValues("location").Set(float64(locationBuckets))
}
