package analysis

import (
	"time"

	"github.com/tphakala/callguard/internal/detection"
	"github.com/tphakala/callguard/internal/features"
	"github.com/tphakala/callguard/internal/language"
)

// Request is one clip submitted for analysis.
type Request struct {
	ID         string // generated when empty
	Data       []byte // encoded audio
	FormatHint string // used when the container has no signature
	Robustness bool   // analyze a noise-injected copy
	Language   string // caller-supplied language; skips detection
}

// Report is the complete outcome of one analysis.
type Report struct {
	RequestID         string                      `json:"request_id"`
	Status            detection.Status            `json:"status"`
	RiskLevel         detection.RiskLevel         `json:"risk_level"`
	Confidence        float64                     `json:"confidence"`
	Classification    detection.Classification    `json:"classification"`
	EvidenceScore     detection.EvidenceScore     `json:"evidence_score"`
	Explanation       []string                    `json:"explanation"`
	Warnings          []string                    `json:"warnings"`
	Signals           features.SignalSet          `json:"signals"`
	ChunkAnalysis     detection.AggregationResult `json:"chunk_analysis"`
	RobustnessApplied bool                        `json:"robustness_applied"`
	Duration          float64                     `json:"duration"`
	AudioQuality      float64                     `json:"audio_quality"`
	Language          language.Result             `json:"language"`
	CacheHit          bool                        `json:"cache_hit"`
	Timestamp         time.Time                   `json:"timestamp"`

	// not part of the response body
	AudioHash      string   `json:"-"`
	DegradedStages []string `json:"-"`
}

// Degraded reports whether any extraction stage fell back to zero values.
func (r *Report) Degraded() bool {
	return len(r.DegradedStages) > 0
}
