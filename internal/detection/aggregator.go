package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/callguard/internal/features"
)

// Chunk scoring rule constants
const (
	chunkConfidenceCap = 0.98

	stableMeanThreshold = 0.6
	stableStdDev        = 0.10
	mostlyStableStdDev  = 0.15

	stableScore       = 12
	mostlyStableScore = 8

	pitchConsistencyStdDev = 5.0
	pitchConsistencyScore  = 8
)

// ScoreChunk returns the synthetic-evidence confidence of one chunk, rounded
// to two decimals.
func ScoreChunk(c features.ChunkFeature) float64 {
	var score float64

	switch {
	case c.Jitter < 0.15:
		score += 0.45
	case c.Jitter < 0.25:
		score += 0.2
	}

	switch {
	case c.SpectralFlatness < 0.3:
		score += 0.35
	case c.SpectralFlatness > 0.6:
		score += 0.2
	}

	return round2(min(score, chunkConfidenceCap))
}

// AggregateChunks scores every chunk and classifies the resulting sequence.
func AggregateChunks(chunks []features.ChunkFeature) AggregationResult {
	if len(chunks) == 0 {
		return AggregationResult{
			Trend:           TrendInsufficientData,
			ChunkDetails:    []ChunkResult{},
			ChunkConfidence: []int{},
		}
	}

	details := make([]ChunkResult, len(chunks))
	scores := make([]float64, len(chunks))
	pitchVariances := make([]float64, len(chunks))
	for i, c := range chunks {
		scores[i] = ScoreChunk(c)
		details[i] = ChunkResult{Timestamp: c.Timestamp, Confidence: scores[i]}
		pitchVariances[i] = c.PitchVariance
	}

	result := AggregateScores(scores)
	result.ChunkDetails = details
	result.PitchConsistencyScore = pitchConsistency(pitchVariances)
	return result
}

// AggregateScores classifies a sequence of chunk confidences. ChunkDetails and
// PitchConsistencyScore are left empty.
func AggregateScores(scores []float64) AggregationResult {
	if len(scores) == 0 {
		return AggregationResult{
			Trend:           TrendInsufficientData,
			ChunkDetails:    []ChunkResult{},
			ChunkConfidence: []int{},
		}
	}

	mean, variance := stat.PopMeanVariance(scores, nil)
	stdDev := math.Sqrt(variance)

	result := AggregationResult{
		Trend:             TrendNaturalLowConf,
		AverageConfidence: round2(mean),
		ChunkDetails:      []ChunkResult{},
		ChunkConfidence:   make([]int, len(scores)),
	}
	for i, s := range scores {
		// truncated, not rounded
		result.ChunkConfidence[i] = int(s * 100)
	}

	if mean > stableMeanThreshold {
		switch {
		case stdDev < stableStdDev:
			result.Trend = TrendStableSynthetic
			result.StabilityScore = stableScore
		case stdDev < mostlyStableStdDev:
			result.Trend = TrendMostlyStable
			result.StabilityScore = mostlyStableScore
		default:
			result.Trend = TrendFluctuating
		}
	}

	return result
}

// pitchConsistency awards points when pitch variance barely moves between chunks.
func pitchConsistency(pitchVariances []float64) int {
	if len(pitchVariances) < 2 || floats.Sum(pitchVariances) <= 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(pitchVariances, nil)
	if math.Sqrt(variance) < pitchConsistencyStdDev {
		return pitchConsistencyScore
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
