package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	published     *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		published: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebridge_bus_published_total",
				Help: "Total records published to the event bus",
			},
			[]string{"backend", "topic"},
		),
		dropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebridge_records_dropped_total",
				Help: "Total records dropped by the pipeline",
			},
			[]string{"stage", "reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebridge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		rateLimited: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebridge_rate_limited_total",
				Help: "Total requests denied by the rate limiter",
			},
			[]string{"key"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebridge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "corebridge_bus_queue_depth",
				Help: "Depth of the event bus delivery queue",
			},
		),
	}
}

// RecordPublished records a record published to a bus backend.
func (r *Recorder) RecordPublished(backend, topic string) {
	r.published.WithLabelValues(backend, topic).Inc()
}

// RecordDropped records a record dropped at a pipeline stage.
func (r *Recorder) RecordDropped(stage, reason string) {
	r.dropped.WithLabelValues(stage, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRateLimited records a request denied by the rate limiter.
func (r *Recorder) RecordRateLimited(key string) {
	r.rateLimited.WithLabelValues(key).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.cycleDuration.WithLabelValues(op).Observe(seconds)
}

// RecordQueueDepth records the current bus delivery queue depth.
func (r *Recorder) RecordQueueDepth(n int) {
	r.queueDepth.Set(float64(n))
}
