package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// spectralFlatness returns the mean over frames of the ratio between the
// geometric and arithmetic mean of the power spectrum, and whether every
// frame was digital silence.
func spectralFlatness(sg spectrogram) (float64, bool) {
	if len(sg.mag) == 0 {
		return 0, true
	}

	allSilent := true
	perFrame := make([]float64, len(sg.mag))
	for f, mags := range sg.mag {
		var logSum, sum float64
		silent := true
		for _, m := range mags {
			p := max(m*m, amin)
			if p > amin {
				silent = false
			}
			logSum += math.Log(p)
			sum += p
		}
		n := float64(len(mags))
		perFrame[f] = math.Exp(logSum/n) / (sum / n)
		if !silent {
			allSilent = false
		}
	}

	return stat.Mean(perFrame, nil), allSilent
}

// spectralCentroids returns the magnitude-weighted mean frequency per frame.
// Frames without energy have centroid 0.
func spectralCentroids(sg spectrogram) []float64 {
	centroids := make([]float64, len(sg.mag))
	for f, mags := range sg.mag {
		total := floats.Sum(mags)
		if total <= 0 {
			continue
		}
		var weighted float64
		for b, m := range mags {
			weighted += sg.binFrequency(float64(b)) * m
		}
		centroids[f] = weighted / total
	}
	return centroids
}

// harmonicConsistency is the inverse variance of the spectral centroid track.
func harmonicConsistency(centroids []float64) float64 {
	if len(centroids) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(centroids, nil)
	return 1 / (variance + 1e-5)
}

// zeroCrossingRate returns the fraction of adjacent sample pairs whose sign differs.
func zeroCrossingRate(samples []float32) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}
