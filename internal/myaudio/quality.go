package myaudio

import "math"

// Quality factor levels
const (
	QualityLow    = 0.4
	QualityMedium = 0.6
	QualityFull   = 1.0

	lowEnergyThreshold    = 0.01
	mediumEnergyThreshold = 0.05
)

// QualityFactor grades a waveform by its mean absolute amplitude.
func QualityFactor(samples []float32) float64 {
	energy := MeanAbsAmplitude(samples)
	switch {
	case energy < lowEnergyThreshold:
		return QualityLow
	case energy < mediumEnergyThreshold:
		return QualityMedium
	default:
		return QualityFull
	}
}

// MeanAbsAmplitude returns the mean of |x| over samples, 0 for empty input.
func MeanAbsAmplitude(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(samples))
}
