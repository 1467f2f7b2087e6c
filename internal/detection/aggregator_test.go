package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/callguard/internal/features"
)

func TestScoreChunk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		chunk  features.ChunkFeature
		expect float64
	}{
		{"stable and smooth", features.ChunkFeature{Jitter: 0.1, SpectralFlatness: 0.1}, 0.8},
		{"moderate jitter noisy", features.ChunkFeature{Jitter: 0.2, SpectralFlatness: 0.7}, 0.4},
		{"stable noisy", features.ChunkFeature{Jitter: 0.1, SpectralFlatness: 0.7}, 0.65},
		{"natural", features.ChunkFeature{Jitter: 0.3, SpectralFlatness: 0.4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expect, ScoreChunk(tt.chunk), 1e-9)
		})
	}
}

func TestAggregateScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		scores        []float64
		wantTrend     Trend
		wantStability int
	}{
		{"stable synthetic", []float64{0.9, 0.91, 0.89, 0.92}, TrendStableSynthetic, 12},
		{"fluctuating", []float64{0.9, 0.5, 0.95, 0.3}, TrendFluctuating, 0},
		{"mostly stable", []float64{0.9, 0.65, 0.9, 0.65}, TrendMostlyStable, 8},
		{"low confidence", []float64{0.45, 0.45}, TrendNaturalLowConf, 0},
		{"empty", nil, TrendInsufficientData, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AggregateScores(tt.scores)

			assert.Equal(t, tt.wantTrend, got.Trend)
			assert.Equal(t, tt.wantStability, got.StabilityScore)
			assert.NotNil(t, got.ChunkDetails)
			assert.Len(t, got.ChunkConfidence, len(tt.scores))
		})
	}
}

func TestAggregateScores_ChunkConfidencePercent(t *testing.T) {
	t.Parallel()

	got := AggregateScores([]float64{0.5, 0.25, 0.75})

	assert.Equal(t, []int{50, 25, 75}, got.ChunkConfidence)
	assert.InDelta(t, 0.5, got.AverageConfidence, 1e-9)
}

func TestAggregateChunks(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		got := AggregateChunks(nil)

		assert.Equal(t, TrendInsufficientData, got.Trend)
		assert.Zero(t, got.StabilityScore)
		assert.Empty(t, got.ChunkDetails)
		assert.NotNil(t, got.ChunkDetails)
	})

	t.Run("synthetic chunks", func(t *testing.T) {
		t.Parallel()

		chunks := []features.ChunkFeature{
			{Timestamp: 0, Jitter: 0.05, SpectralFlatness: 0.1, PitchVariance: 10},
			{Timestamp: 1.5, Jitter: 0.06, SpectralFlatness: 0.12, PitchVariance: 12},
			{Timestamp: 3.0, Jitter: 0.04, SpectralFlatness: 0.11, PitchVariance: 11},
		}

		got := AggregateChunks(chunks)

		assert.Equal(t, TrendStableSynthetic, got.Trend)
		assert.Equal(t, 12, got.StabilityScore)
		assert.Equal(t, 8, got.PitchConsistencyScore)
		require.Len(t, got.ChunkDetails, 3)
		assert.InDelta(t, 1.5, got.ChunkDetails[1].Timestamp, 1e-9)
		assert.InDelta(t, 0.8, got.ChunkDetails[1].Confidence, 1e-9)
	})

	t.Run("pitch variance drifts", func(t *testing.T) {
		t.Parallel()

		chunks := []features.ChunkFeature{
			{Jitter: 0.3, SpectralFlatness: 0.4, PitchVariance: 10},
			{Jitter: 0.3, SpectralFlatness: 0.4, PitchVariance: 100},
		}

		got := AggregateChunks(chunks)

		assert.Equal(t, TrendNaturalLowConf, got.Trend)
		assert.Zero(t, got.PitchConsistencyScore)
	})

	t.Run("zero pitch variance earns nothing", func(t *testing.T) {
		t.Parallel()

		chunks := []features.ChunkFeature{{}, {}, {}}
		assert.Zero(t, AggregateChunks(chunks).PitchConsistencyScore)
	})

	t.Run("single chunk earns no consistency", func(t *testing.T) {
		t.Parallel()

		chunks := []features.ChunkFeature{{Jitter: 0.05, SpectralFlatness: 0.1, PitchVariance: 10}}
		assert.Zero(t, AggregateChunks(chunks).PitchConsistencyScore)
	})
}
