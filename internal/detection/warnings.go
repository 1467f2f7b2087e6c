package detection

import "github.com/tphakala/callguard/internal/features"

// Warning strings
const (
	WarningShortDuration = "Short audio duration detected."
	WarningLowActivity   = "Low speech activity detected."
	WarningLowEnergy     = "Low audio energy detected; confidence may be reduced."
)

const (
	shortDurationSeconds = 3.0
	lowActivityPauseRate = 0.8
	lowQualityFactor     = 0.7
)

// GenerateWarnings returns advisory messages about the input. They never
// influence the verdict. The result is never nil.
func GenerateWarnings(signals features.SignalSet, duration, quality float64) []string {
	warnings := []string{}

	if duration < shortDurationSeconds {
		warnings = append(warnings, WarningShortDuration)
	}
	if signals.PauseRate.Value > lowActivityPauseRate {
		warnings = append(warnings, WarningLowActivity)
	}
	if quality < lowQualityFactor {
		warnings = append(warnings, WarningLowEnergy)
	}

	return warnings
}
