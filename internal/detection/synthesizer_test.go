package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		breakdown      ScoreBreakdown
		agg            AggregationResult
		robustness     bool
		wantAdditive   int
		wantConfidence float64
		wantStatus     Status
		wantRisk       RiskLevel
	}{
		{
			name:           "no evidence",
			wantAdditive:   0,
			wantConfidence: 0.55,
			wantStatus:     StatusSafe,
			wantRisk:       RiskLow,
		},
		{
			name:           "additive three forced safe",
			breakdown:      ScoreBreakdown{Timing: 3},
			wantAdditive:   3,
			wantConfidence: 0.58,
			wantStatus:     StatusSafe,
			wantRisk:       RiskLow,
		},
		{
			name:           "additive four keeps spam",
			breakdown:      ScoreBreakdown{Timing: 4},
			wantAdditive:   4,
			wantConfidence: 0.59,
			wantStatus:     StatusSpam,
			wantRisk:       RiskMedium,
		},
		{
			name:           "consistency bonus",
			breakdown:      ScoreBreakdown{Pitch: 8},
			agg:            AggregationResult{StabilityScore: 12},
			wantAdditive:   30,
			wantConfidence: 0.85,
			wantStatus:     StatusFraud,
			wantRisk:       RiskHigh,
		},
		{
			name:           "spectral tier is reported only",
			breakdown:      ScoreBreakdown{Spectral: 12},
			wantAdditive:   0,
			wantConfidence: 0.55,
			wantStatus:     StatusSafe,
			wantRisk:       RiskLow,
		},
		{
			name:           "capped at ninety",
			breakdown:      ScoreBreakdown{Pitch: 12, Timing: 12, Spectral: 12},
			agg:            AggregationResult{StabilityScore: 12, PitchConsistencyScore: 8},
			robustness:     true,
			wantAdditive:   54,
			wantConfidence: 0.90,
			wantStatus:     StatusFraud,
			wantRisk:       RiskHigh,
		},
		{
			name:           "twenty additive lands on the spam boundary",
			breakdown:      ScoreBreakdown{Timing: 12},
			agg:            AggregationResult{PitchConsistencyScore: 8},
			wantAdditive:   20,
			wantConfidence: 0.75,
			wantStatus:     StatusSpam,
			wantRisk:       RiskMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Synthesize(tt.breakdown, tt.agg, tt.robustness)

			assert.Equal(t, tt.wantAdditive, got.Additive)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantRisk, got.RiskLevel)
		})
	}
}

func TestSynthesize_EvidenceScore(t *testing.T) {
	t.Parallel()

	breakdown := ScoreBreakdown{Pitch: 5, Timing: 8, Spectral: 12}
	agg := AggregationResult{StabilityScore: 8, PitchConsistencyScore: 8}

	clean := Synthesize(breakdown, agg, false)
	robust := Synthesize(breakdown, agg, true)

	assert.Equal(t, EvidenceScore{
		Pitch:            5,
		Timing:           8,
		Spectral:         12,
		ChunkStability:   8,
		PitchConsistency: 8,
	}, clean.EvidenceScore)
	assert.Equal(t, 4, robust.EvidenceScore.Robustness)
	assert.Equal(t, clean.Confidence, robust.Confidence)
	assert.Equal(t, clean.Status, robust.Status)
}

func TestStatusForConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		confidence float64
		wantStatus Status
		wantRisk   RiskLevel
	}{
		{0.90, StatusFraud, RiskHigh},
		{0.7501, StatusFraud, RiskHigh},
		{0.75, StatusSpam, RiskMedium},
		{0.55, StatusSpam, RiskMedium},
		{0.5499, StatusSafe, RiskLow},
		{0, StatusSafe, RiskLow},
	}

	for _, tt := range tests {
		status, risk := StatusForConfidence(tt.confidence)
		assert.Equal(t, tt.wantStatus, status, "confidence %v", tt.confidence)
		assert.Equal(t, tt.wantRisk, risk, "confidence %v", tt.confidence)
	}
}

func TestSynthesize_ConfidenceFormula(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		breakdown := ScoreBreakdown{
			Pitch:    rapid.IntRange(0, TierCap).Draw(rt, "pitch"),
			Timing:   rapid.IntRange(0, TierCap).Draw(rt, "timing"),
			Spectral: rapid.IntRange(0, TierCap).Draw(rt, "spectral"),
		}
		agg := AggregationResult{
			StabilityScore:        rapid.SampledFrom([]int{0, 8, 12}).Draw(rt, "stability"),
			PitchConsistencyScore: rapid.SampledFrom([]int{0, 8}).Draw(rt, "pitch_consistency"),
		}
		robustness := rapid.Bool().Draw(rt, "robustness")

		got := Synthesize(breakdown, agg, robustness)

		additive := breakdown.Pitch + breakdown.Timing + agg.StabilityScore + agg.PitchConsistencyScore
		if breakdown.Pitch > 0 && agg.StabilityScore > 0 {
			additive += 10
		}
		require.Equal(rt, additive, got.Additive)
		require.InDelta(rt, float64(min(55+additive, 90))/100, got.Confidence, 1e-9)
		if additive < 4 {
			require.Equal(rt, StatusSafe, got.Status)
			require.Equal(rt, RiskLow, got.RiskLevel)
		}
	})
}
