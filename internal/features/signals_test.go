package features

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		metric string
		value  float64
		want   Interpretation
	}{
		{MetricPitchVariance, 50, Low},
		{MetricPitchVariance, 100, Medium},
		{MetricPitchVariance, 499, Medium},
		{MetricPitchVariance, 500, High},
		{MetricJitter, 0.01, Low},
		{MetricJitter, 0.1, Medium},
		{MetricJitter, 0.3, High},
		{MetricPitchAcceleration, 4, Low},
		{MetricPitchAcceleration, 25, High},
		{MetricSpectralFlatness, 0.005, High},
		{MetricSpectralFlatness, 0.1, Medium},
		{MetricSpectralFlatness, 0.5, Low},
		{MetricHarmonicConsistency, 1e-4, Low},
		{MetricHarmonicConsistency, 2e-4, High},
		{MetricPauseRate, 0, High},
		{MetricPauseRate, 0.5, Medium},
		{MetricPauseRate, 0.8, Low},
		{MetricPauseEntropy, 0.2, Low},
		{MetricPauseEntropy, 1.0, Medium},
		{MetricPauseEntropy, 1.5, High},
		{MetricPauseIrregularity, 0.1, Low},
		{MetricPauseIrregularity, 0.9, High},
		{"unknown_metric", 100, Low},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.metric, tt.value), "%s=%v", tt.metric, tt.value)
	}
}

func TestZeroSignalSetIsUnmeasured(t *testing.T) {
	t.Parallel()

	for name, sig := range ZeroSignalSet().Map() {
		assert.False(t, sig.Measured, name)
		assert.Zero(t, sig.Value, name)
		assert.Equal(t, Interpret(name, 0), sig.Interpretation, name)
	}
}

func TestSignalSetJSONKeys(t *testing.T) {
	t.Parallel()

	set := ZeroSignalSet()
	set.Jitter = NewSignal(MetricJitter, 0.12)

	data, err := json.Marshal(set)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, 8)
	for name := range set.Map() {
		assert.Contains(t, decoded, name)
	}
	assert.InDelta(t, 0.12, decoded[MetricJitter]["value"], 1e-12)
	assert.Equal(t, "Medium", decoded[MetricJitter]["interpretation"])
	assert.Equal(t, true, decoded[MetricJitter]["measured"])
}
