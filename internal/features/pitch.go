package features

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Pitch tracking bounds and peak threshold relative to the frame maximum
const (
	pitchMinFreq   = 150.0
	pitchMaxFreq   = 4000.0
	pitchThreshold = 0.1

	// tiny guards the parabolic interpolation against a zero denominator
	tiny = 1e-38
)

// pitchCandidate is an interpolated spectral peak.
type pitchCandidate struct {
	freq float64
	mag  float64
}

// trackPitch finds spectral peaks per frame. A bin is a candidate when it
// lies in [pitchMinFreq, pitchMaxFreq), exceeds pitchThreshold times the
// frame maximum and is a local maximum along frequency. Frequency and
// magnitude are refined by parabolic interpolation over the neighbouring bins.
func trackPitch(sg spectrogram) [][]pitchCandidate {
	out := make([][]pitchCandidate, len(sg.mag))
	nBins := sg.bins()

	thresholded := make([]float64, nBins)
	for f, mags := range sg.mag {
		if len(mags) < 3 {
			continue
		}
		ref := pitchThreshold * floats.Max(mags)
		for b, m := range mags {
			if m > ref {
				thresholded[b] = m
			} else {
				thresholded[b] = 0
			}
		}

		for b := 1; b < len(mags)-1; b++ {
			freq := sg.binFrequency(float64(b))
			if freq < pitchMinFreq || freq >= pitchMaxFreq {
				continue
			}
			x := thresholded[b]
			if x <= thresholded[b-1] || x < thresholded[b+1] {
				continue
			}

			avg := 0.5 * (mags[b+1] - mags[b-1])
			den := 2*mags[b] - mags[b+1] - mags[b-1]
			if den > -tiny && den < tiny {
				den += 1
			}
			shift := avg / den

			out[f] = append(out[f], pitchCandidate{
				freq: sg.binFrequency(float64(b) + shift),
				mag:  mags[b] + 0.5*avg*shift,
			})
		}
	}

	return out
}

// framePitches returns the strongest candidate's frequency for each frame
// that has one. Frames without candidates are skipped.
func framePitches(candidates [][]pitchCandidate) []float64 {
	pitches := make([]float64, 0, len(candidates))
	for _, frame := range candidates {
		best := -1
		for i, c := range frame {
			if best < 0 || c.mag > frame[best].mag {
				best = i
			}
		}
		if best >= 0 && frame[best].freq > 0 {
			pitches = append(pitches, frame[best].freq)
		}
	}
	return pitches
}

// pitchStats holds the clip-level pitch metrics.
type pitchStats struct {
	variance     float64
	jitter       float64
	acceleration float64
	mean         float64
}

// computePitchStats derives variance, jitter and mean absolute first
// difference from voiced frame pitches. It needs at least two pitches.
func computePitchStats(pitches []float64) (pitchStats, bool) {
	if len(pitches) < 2 {
		return pitchStats{}, false
	}

	mean, variance := stat.PopMeanVariance(pitches, nil)
	ps := pitchStats{variance: variance, mean: mean}
	if mean > 0 {
		ps.jitter = coefficientOfVariation(mean, variance)
	}

	var diffSum float64
	for i := 1; i < len(pitches); i++ {
		d := pitches[i] - pitches[i-1]
		if d < 0 {
			d = -d
		}
		diffSum += d
	}
	ps.acceleration = diffSum / float64(len(pitches)-1)

	return ps, true
}

// candidatePitchesAboveMedian returns the frequencies of all candidates whose
// magnitude exceeds the median of the full candidate magnitude matrix, where
// bins without a candidate count as zero.
func candidatePitchesAboveMedian(candidates [][]pitchCandidate, nBins int) []float64 {
	var mags []float64
	for _, frame := range candidates {
		for _, c := range frame {
			mags = append(mags, c.mag)
		}
	}
	median := sparseMedian(mags, len(candidates)*nBins)

	var pitches []float64
	for _, frame := range candidates {
		for _, c := range frame {
			if c.mag > median && c.freq > 0 {
				pitches = append(pitches, c.freq)
			}
		}
	}
	return pitches
}

// sparseMedian returns the median of total values of which only nonzero are
// given explicitly; the remaining total-len(nonzero) values are zero.
func sparseMedian(nonzero []float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	sorted := slices.Clone(nonzero)
	slices.Sort(sorted)

	zeros := total - len(sorted)
	negatives, _ := slices.BinarySearch(sorted, 0)
	at := func(i int) float64 {
		switch {
		case i < negatives:
			return sorted[i]
		case i < negatives+zeros:
			return 0
		default:
			return sorted[i-zeros]
		}
	}

	if total%2 == 1 {
		return at(total / 2)
	}
	return 0.5 * (at(total/2-1) + at(total/2))
}
