package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gpscam/internal/structures"
)

type MetricsProviderInterface interface {
	IncCapturesTotal(outcome string)
	ObserveCaptureDuration(duration time.Duration)
	ObservePersistenceDuration(duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	SetRecordsTotal(kind string, count int)
	AddArtifactBytes(n int64)
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
}

type MetricsProvider struct {
	capturesTotal       *prometheus.CounterVec
	captureDuration     prometheus.Histogram
	persistenceDuration prometheus.Histogram
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	recordsTotal        *prometheus.GaugeVec
	artifactBytes       prometheus.Counter
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

func (m *MetricsProvider) IncCapturesTotal(outcome string) {
	m.capturesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) ObserveCaptureDuration(duration time.Duration) {
	m.captureDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) SetRecordsTotal(kind string, count int) {
	m.recordsTotal.WithLabelValues(kind).Set(float64(count))
}

func (m *MetricsProvider) AddArtifactBytes(n int64) {
	m.artifactBytes.Add(float64(n))
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		capturesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gpscam_captures_total",
			Help: "Total number of capture actions by outcome",
		}, []string{"outcome"}),

		captureDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gpscam_capture_duration_seconds",
			Help:    "Full capture pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gpscam_persistence_duration_seconds",
			Help:    "Duration of dual-artifact persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscam_preview_cache_hits_total",
			Help: "Total number of preview cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscam_preview_cache_misses_total",
			Help: "Total number of preview cache misses",
		}),

		recordsTotal: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpscam_records_total",
			Help: "Number of persisted records per record kind",
		}, []string{"kind"}),

		artifactBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscam_artifact_bytes_total",
			Help: "Total bytes written as image artifacts",
		}),

		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gpscam_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gpscam_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncCapturesTotal(_ string)                        {}
func (n *noopMetrics) ObserveCaptureDuration(_ time.Duration)           {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) SetRecordsTotal(_ string, _ int)                  {}
func (n *noopMetrics) AddArtifactBytes(_ int64)                         {}
func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
