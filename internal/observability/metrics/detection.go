// Package metrics provides detection pipeline metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache operation results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// DetectionMetrics contains Prometheus metrics for the analysis pipeline
type DetectionMetrics struct {
	registry *prometheus.Registry

	analysesTotal          *prometheus.CounterVec
	analysisDuration       *prometheus.HistogramVec
	cacheOperationsTotal   *prometheus.CounterVec
	cacheEntries           prometheus.Gauge
	degradationsTotal      *prometheus.CounterVec
	decodeErrorsTotal      *prometheus.CounterVec
	publishErrorsTotal     prometheus.Counter
	historySaveErrorsTotal prometheus.Counter
}

// NewDetectionMetrics creates and registers new detection metrics
func NewDetectionMetrics(registry *prometheus.Registry) (*DetectionMetrics, error) {
	m := &DetectionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DetectionMetrics) initMetrics() {
	m.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_analyses_total",
			Help: "Total number of completed analyses by verdict status",
		},
		[]string{"status"}, // fraud, spam, safe, error
	)

	m.analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callguard_analysis_duration_seconds",
			Help:    "Time spent in each analysis stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"stage"},
	)

	m.cacheOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_feature_cache_operations_total",
			Help: "Feature cache lookups by result",
		},
		[]string{"result"},
	)

	m.cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "callguard_feature_cache_entries",
			Help: "Number of entries held in the feature cache",
		},
	)

	m.degradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_extraction_degradations_total",
			Help: "Feature extraction stages that fell back to zero values",
		},
		[]string{"stage"},
	)

	m.decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_decode_errors_total",
			Help: "Audio payloads that could not be decoded",
		},
		[]string{"format"},
	)

	m.publishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callguard_mqtt_publish_errors_total",
			Help: "Verdict messages that failed to publish",
		},
	)

	m.historySaveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callguard_history_save_errors_total",
			Help: "Analysis records that failed to persist",
		},
	)
}

// Describe implements the Collector interface
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.analysesTotal.Describe(ch)
	m.analysisDuration.Describe(ch)
	m.cacheOperationsTotal.Describe(ch)
	m.cacheEntries.Describe(ch)
	m.degradationsTotal.Describe(ch)
	m.decodeErrorsTotal.Describe(ch)
	m.publishErrorsTotal.Describe(ch)
	m.historySaveErrorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.analysesTotal.Collect(ch)
	m.analysisDuration.Collect(ch)
	m.cacheOperationsTotal.Collect(ch)
	m.cacheEntries.Collect(ch)
	m.degradationsTotal.Collect(ch)
	m.decodeErrorsTotal.Collect(ch)
	m.publishErrorsTotal.Collect(ch)
	m.historySaveErrorsTotal.Collect(ch)
}

// RecordAnalysis counts a finished analysis.
func (m *DetectionMetrics) RecordAnalysis(status string) {
	m.analysesTotal.WithLabelValues(status).Inc()
}

// RecordStageDuration observes how long a pipeline stage took.
func (m *DetectionMetrics) RecordStageDuration(stage string, seconds float64) {
	m.analysisDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordCacheOperation counts a cache hit or miss.
func (m *DetectionMetrics) RecordCacheOperation(result string) {
	m.cacheOperationsTotal.WithLabelValues(result).Inc()
}

// SetCacheEntries updates the cache size gauge.
func (m *DetectionMetrics) SetCacheEntries(n int) {
	m.cacheEntries.Set(float64(n))
}

// RecordDegradation counts a degraded extraction stage.
func (m *DetectionMetrics) RecordDegradation(stage string) {
	m.degradationsTotal.WithLabelValues(stage).Inc()
}

// RecordDecodeError counts an undecodable payload.
func (m *DetectionMetrics) RecordDecodeError(format string) {
	if format == "" {
		format = "unknown"
	}
	m.decodeErrorsTotal.WithLabelValues(format).Inc()
}

// RecordPublishError counts a failed MQTT publish.
func (m *DetectionMetrics) RecordPublishError() {
	m.publishErrorsTotal.Inc()
}

// RecordHistorySaveError counts a failed history write.
func (m *DetectionMetrics) RecordHistorySaveError() {
	m.historySaveErrorsTotal.Inc()
}
