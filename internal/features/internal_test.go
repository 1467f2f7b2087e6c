package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoicedIntervals(t *testing.T) {
	t.Parallel()

	rms := []float64{0, 1, 1, 0, 0, 1}
	got := voicedIntervals(rms, 10*HopLength, 25)
	assert.Equal(t, []interval{{HopLength, 3 * HopLength}, {5 * HopLength, 6 * HopLength}}, got)

	assert.Nil(t, voicedIntervals([]float64{0, 0, 0}, 3*HopLength, 25))
	assert.Nil(t, voicedIntervals(nil, 0, 25))

	// end is clipped to the signal length
	got = voicedIntervals([]float64{1, 1}, 700, 25)
	assert.Equal(t, []interval{{0, 700}}, got)
}

func TestPauseDurations(t *testing.T) {
	t.Parallel()

	intervals := []interval{{0, 100}, {100 + 400, 1000}, {1000 + 1600, 3000}}
	// 400 samples at 16 kHz is 25 ms and does not count
	assert.Equal(t, []float64{0.1}, pauseDurations(intervals, 16000))
	assert.Empty(t, pauseDurations(intervals[:1], 16000))
}

func TestPauseEntropy(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Log(5), pauseEntropy([]float64{0.1, 0.2, 0.3, 0.4, 0.5}), 1e-6)
	assert.InDelta(t, 0, pauseEntropy([]float64{0.2, 0.2, 0.2}), 1e-6)
	assert.InDelta(t, math.Log(2), pauseEntropy([]float64{0.1, 0.1, 0.5, 0.5}), 1e-6)
	assert.Zero(t, pauseEntropy(nil))
}

func TestPauseIrregularity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, pauseIrregularity([]float64{1, 1}), 1e-9)
	assert.InDelta(t, 0.5, pauseIrregularity([]float64{1, 3}), 1e-5)
}

func TestSparseMedian(t *testing.T) {
	t.Parallel()

	assert.Zero(t, sparseMedian([]float64{5, 6}, 10))
	assert.InDelta(t, 5.5, sparseMedian([]float64{5, 6}, 2), 1e-12)
	assert.InDelta(t, 6, sparseMedian([]float64{6, 5, 7}, 3), 1e-12)
	assert.InDelta(t, 5.5, sparseMedian([]float64{5, 6, 7}, 4), 1e-12)
	assert.Zero(t, sparseMedian(nil, 0))
}

func TestComputePitchStats(t *testing.T) {
	t.Parallel()

	_, ok := computePitchStats([]float64{200})
	assert.False(t, ok)

	ps, ok := computePitchStats([]float64{100, 200, 100, 200})
	assert.True(t, ok)
	assert.InDelta(t, 2500, ps.variance, 1e-9)
	assert.InDelta(t, 150, ps.mean, 1e-9)
	assert.InDelta(t, 50.0/150, ps.jitter, 1e-9)
	assert.InDelta(t, 100, ps.acceleration, 1e-9)
}

func TestTrackPitchFindsTone(t *testing.T) {
	t.Parallel()

	sg := computeSTFT(sine(440, 0.5, testRate), testRate)
	pitches := framePitches(trackPitch(sg))

	assert.Len(t, pitches, frameCount(testRate))
	for _, p := range pitches {
		assert.InDelta(t, 440, p, 8)
	}
}

func TestTrackPitchIgnoresOutOfRangeTones(t *testing.T) {
	t.Parallel()

	sg := computeSTFT(sine(100, 0.5, testRate), testRate)
	assert.Empty(t, framePitches(trackPitch(sg)))
}

func TestSpectralFlatnessSilence(t *testing.T) {
	t.Parallel()

	flatness, silent := spectralFlatness(computeSTFT(make([]float32, 4096), testRate))
	assert.True(t, silent)
	assert.InDelta(t, 1.0, flatness, 1e-9)
}

func TestHarmonicConsistency(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1e5, harmonicConsistency([]float64{1000, 1000}), 1e-3)
	assert.InDelta(t, 1/(2500+1e-5), harmonicConsistency([]float64{950, 1050}), 1e-12)
	assert.Zero(t, harmonicConsistency(nil))
}
