// Package detection turns acoustic signals into an AI-voice verdict.
// Score applies the tiered evidence rules to clip-level signals,
// AggregateChunks judges temporal stability across analysis windows and
// Synthesize combines both into a bounded confidence and risk status.
package detection

// Classification is the scorer's internal label.
type Classification string

const (
	ClassificationAI      Classification = "AI_GENERATED"
	ClassificationHuman   Classification = "HUMAN"
	ClassificationUnknown Classification = "UNKNOWN"
)

// Status is the verdict reported to callers.
type Status string

const (
	StatusFraud Status = "fraud"
	StatusSpam  Status = "spam"
	StatusSafe  Status = "safe"
)

// RiskLevel accompanies Status.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Trend classifies the chunk confidence sequence.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendNaturalLowConf   Trend = "natural_low_conf"
	TrendStableSynthetic  Trend = "stable_synthetic"
	TrendMostlyStable     Trend = "mostly_stable"
	TrendFluctuating      Trend = "fluctuating_human_like"
)

// ScoreBreakdown holds the capped tier scores, each in [0, TierCap].
type ScoreBreakdown struct {
	Pitch    int `json:"pitch"`
	Timing   int `json:"timing"`
	Spectral int `json:"spectral"`
}

// Total returns the sum of all tiers.
func (b ScoreBreakdown) Total() int {
	return b.Pitch + b.Timing + b.Spectral
}

// DetectionResult is the output of the tiered evidence scorer.
type DetectionResult struct {
	Classification Classification `json:"classification"`
	Confidence     float64        `json:"confidence"` // total evidence over 36, capped at 0.99
	Explanation    []string       `json:"explanation"`
	Breakdown      ScoreBreakdown `json:"score_breakdown"`
}

// ChunkResult is the confidence assigned to one analysis window.
type ChunkResult struct {
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// AggregationResult summarizes chunk-level evidence.
type AggregationResult struct {
	Trend                 Trend         `json:"trend"`
	AverageConfidence     float64       `json:"average_confidence"`
	ChunkDetails          []ChunkResult `json:"chunk_details"`
	ChunkConfidence       []int         `json:"chunk_confidence"`
	StabilityScore        int           `json:"stability_score"`
	PitchConsistencyScore int           `json:"pitch_consistency_score"`
}

// EvidenceScore is the per-component evidence reported with a verdict.
type EvidenceScore struct {
	Pitch            int `json:"pitch"`
	Timing           int `json:"timing"`
	Spectral         int `json:"spectral"`
	ChunkStability   int `json:"chunk_stability"`
	PitchConsistency int `json:"pitch_consistency"`
	Robustness       int `json:"robustness"`
}

// Verdict is the synthesized outcome of one analysis.
type Verdict struct {
	Status        Status        `json:"status"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	Confidence    float64       `json:"confidence"`
	Additive      int           `json:"additive"`
	EvidenceScore EvidenceScore `json:"evidence_score"`
}
