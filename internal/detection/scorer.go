package detection

import (
	"fmt"
	"math"

	"github.com/tphakala/callguard/internal/features"
	"github.com/tphakala/callguard/internal/logger"
)

// TierCap is the maximum score of each evidence tier.
const TierCap = 12

// maxEvidence is the sum of all tier caps.
const maxEvidence = 3 * TierCap

// Explanation strings, reported verbatim
const (
	ReasonMonotone          = "Pitch dynamics show low natural variability (Monotone)."
	ReasonSmoothPitch       = "Pitch variation remains unusually smooth."
	ReasonFlatAcceleration  = "Pitch transitions lack natural acceleration patterns."
	ReasonDigitalPerfection = "Tone lacks natural micro-fluctuations (Digital perfection)."
	ReasonMechanicalPauses  = "Pauses align with mechanical timing rather than biological breathing."
	ReasonRegularPauses     = "Pause durations are unnaturally regular."
	ReasonOverSmoothed      = "Spectral texture is over-smoothed (Vocoder artifacts)."
	ReasonNoiseFloor        = "High spectral noise floor detected."
	ReasonStableHarmonics   = "Harmonic structure is unusually stable across the clip."
	ReasonNatural           = "Acoustic patterns are consistent with natural human speech."
	ReasonFallback          = "Analysis completed using available acoustic signals."
)

// Score applies the tiered evidence rules to signals. Unmeasured signals
// never trigger a rule. Score does not panic: any internal failure, including
// non-finite signal values, yields an UNKNOWN result with zero scores.
func Score(signals features.SignalSet) (result DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Global().Module("detection").Warn("scorer failed, returning fallback result",
				logger.String("panic", fmt.Sprint(r)))
			result = unknownResult()
		}
	}()

	for name, sig := range signals.Map() {
		if sig.Measured && (math.IsNaN(sig.Value) || math.IsInf(sig.Value, 0)) {
			logger.Global().Module("detection").Warn("non-finite signal value",
				logger.String("metric", name))
			return unknownResult()
		}
	}

	var (
		breakdown ScoreBreakdown
		reasons   []string
	)

	// Pitch tier
	if v, ok := measured(signals.PitchVariance); ok {
		switch {
		case v < 80:
			breakdown.Pitch += 8
			reasons = append(reasons, ReasonMonotone)
		case v < 250:
			breakdown.Pitch += 5
			reasons = append(reasons, ReasonSmoothPitch)
		}
	}
	if v, ok := measured(signals.PitchAcceleration); ok && v < 5 {
		breakdown.Pitch += 4
		reasons = append(reasons, ReasonFlatAcceleration)
	}
	breakdown.Pitch = min(breakdown.Pitch, TierCap)

	// Timing tier
	if v, ok := measured(signals.Jitter); ok && v < 0.05 {
		breakdown.Timing += 8
		reasons = append(reasons, ReasonDigitalPerfection)
	}
	if v, ok := measured(signals.PauseEntropy); ok && v < 0.8 {
		breakdown.Timing += 4
		reasons = append(reasons, ReasonMechanicalPauses)
	}
	if v, ok := measured(signals.PauseIrregularity); ok && v < 0.2 {
		breakdown.Timing += 4
		reasons = append(reasons, ReasonRegularPauses)
	}
	breakdown.Timing = min(breakdown.Timing, TierCap)

	// Spectral tier
	if v, ok := measured(signals.SpectralFlatness); ok {
		switch {
		case v < 0.25:
			breakdown.Spectral += 12
			reasons = append(reasons, ReasonOverSmoothed)
		case v > 0.6:
			breakdown.Spectral += 8
			reasons = append(reasons, ReasonNoiseFloor)
		}
	}
	breakdown.Spectral = min(breakdown.Spectral, TierCap)

	// explanation only, no score
	if v, ok := measured(signals.HarmonicConsistency); ok && v > 10 {
		reasons = append(reasons, ReasonStableHarmonics)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonNatural)
	}

	evidence := float64(breakdown.Total()) / maxEvidence
	classification := ClassificationHuman
	if evidence > 0.5 {
		classification = ClassificationAI
	}

	return DetectionResult{
		Classification: classification,
		Confidence:     round2(min(evidence, 0.99)),
		Explanation:    reasons,
		Breakdown:      breakdown,
	}
}

func measured(s features.Signal) (float64, bool) {
	return s.Value, s.Measured
}

func unknownResult() DetectionResult {
	return DetectionResult{
		Classification: ClassificationUnknown,
		Explanation:    []string{ReasonFallback},
	}
}
