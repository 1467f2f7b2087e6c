package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// minPauseSeconds is the shortest gap between voiced intervals counted as a pause
	minPauseSeconds = 0.05

	// pauseHistogramBins is the number of bins of the pause duration histogram
	pauseHistogramBins = 5

	// entropyEpsilon is added to every histogram density before the entropy
	entropyEpsilon = 1e-10
)

// interval is a half-open sample range [start, end).
type interval struct {
	start, end int
}

// voicedIntervals splits n samples into non-silent intervals. A frame is
// voiced when its RMS power lies within topDB of the loudest frame. A signal
// whose loudest frame carries no power has no voiced interval.
func voicedIntervals(rms []float64, n int, topDB float64) []interval {
	if len(rms) == 0 || n == 0 {
		return nil
	}

	peak := floats.Max(rms)
	peakPower := peak * peak
	if peakPower <= amin {
		return nil
	}
	refDB := 10 * math.Log10(peakPower)

	var intervals []interval
	inRun := false
	runStart := 0
	for f, r := range rms {
		db := 10*math.Log10(max(r*r, amin)) - refDB
		voiced := db > -topDB
		switch {
		case voiced && !inRun:
			inRun = true
			runStart = f
		case !voiced && inRun:
			inRun = false
			intervals = append(intervals, frameInterval(runStart, f, n))
		}
	}
	if inRun {
		intervals = append(intervals, frameInterval(runStart, len(rms), n))
	}

	return intervals
}

// frameInterval converts the frame range [from, to) to a sample interval clipped to n.
func frameInterval(from, to, n int) interval {
	return interval{start: min(from*HopLength, n), end: min(to*HopLength, n)}
}

// pauseDurations returns the gaps in seconds between consecutive intervals
// that are longer than minPauseSeconds.
func pauseDurations(intervals []interval, sampleRate int) []float64 {
	var pauses []float64
	for i := 1; i < len(intervals); i++ {
		gap := float64(intervals[i].start-intervals[i-1].end) / float64(sampleRate)
		if gap > minPauseSeconds {
			pauses = append(pauses, gap)
		}
	}
	return pauses
}

// pauseEntropy is the natural-log Shannon entropy of the normalized 5-bin
// density histogram of pause durations.
func pauseEntropy(pauses []float64) float64 {
	if len(pauses) == 0 {
		return 0
	}

	lo, hi := floats.Min(pauses), floats.Max(pauses)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / pauseHistogramBins

	counts := make([]float64, pauseHistogramBins)
	for _, p := range pauses {
		bin := int((p - lo) / width)
		if bin >= pauseHistogramBins {
			bin = pauseHistogramBins - 1
		}
		counts[bin]++
	}

	density := make([]float64, pauseHistogramBins)
	for i, c := range counts {
		density[i] = c/(float64(len(pauses))*width) + entropyEpsilon
	}
	floats.Scale(1/floats.Sum(density), density)

	return stat.Entropy(density)
}

// pauseIrregularity is the coefficient of variation of pause durations.
func pauseIrregularity(pauses []float64) float64 {
	if len(pauses) == 0 {
		return 0
	}
	mean, variance := stat.PopMeanVariance(pauses, nil)
	return math.Sqrt(variance) / (mean + 1e-5)
}

// coefficientOfVariation returns stdev/mean given mean and population variance.
func coefficientOfVariation(mean, variance float64) float64 {
	if mean == 0 {
		return 0
	}
	return math.Sqrt(variance) / mean
}

// voicedSpan returns the range from the first voiced sample to the last.
func voicedSpan(intervals []interval) (interval, bool) {
	if len(intervals) == 0 {
		return interval{}, false
	}
	span := interval{start: intervals[0].start, end: intervals[len(intervals)-1].end}
	return span, span.end > span.start
}
