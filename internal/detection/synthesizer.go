package detection

// Confidence model constants
const (
	baseConfidence    = 55
	maxConfidence     = 90
	consistencyBonus  = 10
	robustnessScore   = 4
	minimumEvidence   = 4
	fraudThreshold    = 0.75
	suspiciousMinimum = 0.55
	confidencePercent = 100.0
)

// Synthesize combines tier scores and chunk evidence into a verdict.
// The spectral tier and the robustness score are reported but do not add to
// the confidence.
func Synthesize(breakdown ScoreBreakdown, agg AggregationResult, robustness bool) Verdict {
	evidence := EvidenceScore{
		Pitch:            breakdown.Pitch,
		Timing:           breakdown.Timing,
		Spectral:         breakdown.Spectral,
		ChunkStability:   agg.StabilityScore,
		PitchConsistency: agg.PitchConsistencyScore,
	}
	if robustness {
		evidence.Robustness = robustnessScore
	}

	additive := breakdown.Pitch + breakdown.Timing + agg.StabilityScore + agg.PitchConsistencyScore
	if breakdown.Pitch > 0 && agg.StabilityScore > 0 {
		additive += consistencyBonus
	}

	confidence := float64(min(baseConfidence+additive, maxConfidence)) / confidencePercent

	status, risk := StatusForConfidence(confidence)
	// too little evidence to leave the safe band
	if additive < minimumEvidence {
		status, risk = StatusSafe, RiskLow
	}

	return Verdict{
		Status:        status,
		RiskLevel:     risk,
		Confidence:    round2(confidence),
		Additive:      additive,
		EvidenceScore: evidence,
	}
}

// StatusForConfidence maps a confidence to a status and risk level.
func StatusForConfidence(confidence float64) (Status, RiskLevel) {
	switch {
	case confidence > fraudThreshold:
		return StatusFraud, RiskHigh
	case confidence >= suspiciousMinimum:
		return StatusSpam, RiskMedium
	default:
		return StatusSafe, RiskLow
	}
}
