// Package metrics provides custom Prometheus metrics for CallGuard.
package metrics

// Recorder defines the metrics the analysis pipeline reports.
// This interface lets components depend on an abstraction rather than
// concrete Prometheus collectors.
type Recorder interface {
	// RecordAnalysis counts a finished analysis by status (fraud, spam, safe, error).
	RecordAnalysis(status string)

	// RecordStageDuration records the duration of a pipeline stage in seconds.
	RecordStageDuration(stage string, seconds float64)

	// RecordCacheOperation counts a feature cache lookup (CacheHit or CacheMiss).
	RecordCacheOperation(result string)

	// SetCacheEntries reports the current feature cache size.
	SetCacheEntries(n int)

	// RecordDegradation counts an extraction stage that fell back to zero values.
	RecordDegradation(stage string)

	// RecordDecodeError counts a payload that failed to decode.
	RecordDecodeError(format string)
}

// NoOpRecorder discards all metrics.
type NoOpRecorder struct{}

func (NoOpRecorder) RecordAnalysis(string)               {}
func (NoOpRecorder) RecordStageDuration(string, float64) {}
func (NoOpRecorder) RecordCacheOperation(string)         {}
func (NoOpRecorder) SetCacheEntries(int)                 {}
func (NoOpRecorder) RecordDegradation(string)            {}
func (NoOpRecorder) RecordDecodeError(string)            {}

var _ Recorder = (*DetectionMetrics)(nil)
var _ Recorder = NoOpRecorder{}
