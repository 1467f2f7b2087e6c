package equalizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

func tone(freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	return out
}

// rms skips the first quarter so filter transients do not count.
func rms(samples []float32) float64 {
	tail := samples[len(samples)/4:]
	var sum float64
	for _, s := range tail {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(tail)))
}

func TestFilter_IsZero(t *testing.T) {
	t.Parallel()

	var nilFilter *Filter
	assert.True(t, nilFilter.IsZero())
	assert.True(t, (&Filter{}).IsZero())

	f, err := NewLowPass(testRate, 1000, ButterworthQ, 1)
	require.NoError(t, err)
	assert.False(t, f.IsZero())
	assert.Equal(t, "lowpass", f.Name().String())
}

func TestConstructors_RejectInvalidParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sampleRate float64
		frequency  float64
		q          float64
		passes     int
	}{
		{"zero sample rate", 0, 1000, ButterworthQ, 1},
		{"zero frequency", testRate, 0, ButterworthQ, 1},
		{"frequency at nyquist", testRate, testRate / 2, ButterworthQ, 1},
		{"zero q", testRate, 1000, 0, 1},
		{"zero passes", testRate, 1000, ButterworthQ, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLowPass(tt.sampleRate, tt.frequency, tt.q, tt.passes)
			require.Error(t, err)
			_, err = NewHighPass(tt.sampleRate, tt.frequency, tt.q, tt.passes)
			require.Error(t, err)
			_, err = NewBandPass(tt.sampleRate, tt.frequency, tt.q, tt.passes)
			require.Error(t, err)
		})
	}
}

func TestFilter_Response(t *testing.T) {
	t.Parallel()

	low, err := NewLowPass(testRate, 1000, ButterworthQ, 2)
	require.NoError(t, err)
	high, err := NewHighPass(testRate, 1000, ButterworthQ, 2)
	require.NoError(t, err)
	band, err := NewBandPass(testRate, 1000, 1, 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  *Filter
		freq    float64
		passes  bool
		minGain float64
		maxGain float64
	}{
		{"lowpass keeps 100 Hz", low, 100, true, 0.9, 1.1},
		{"lowpass cuts 6 kHz", low, 6000, false, 0, 0.05},
		{"highpass keeps 6 kHz", high, 6000, true, 0.9, 1.1},
		{"highpass cuts 100 Hz", high, 100, false, 0, 0.05},
		{"bandpass keeps centre", band, 1000, true, 0.9, 1.1},
		{"bandpass cuts 6 kHz", band, 6000, false, 0, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := tone(tt.freq, testRate)
			gain := rms(tt.filter.Process(in)) / rms(in)
			assert.GreaterOrEqual(t, gain, tt.minGain)
			assert.LessOrEqual(t, gain, tt.maxGain)
		})
	}
}

func TestFilter_ProcessLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	f, err := NewHighPass(testRate, 300, ButterworthQ, 1)
	require.NoError(t, err)

	in := tone(100, 512)
	orig := append([]float32(nil), in...)
	out := f.Process(in)

	assert.Equal(t, orig, in)
	assert.Len(t, out, len(in))
	assert.NotEqual(t, in, out)
}

func TestFilter_ProcessIsStateless(t *testing.T) {
	t.Parallel()

	f, err := NewLowPass(testRate, 2000, ButterworthQ, 2)
	require.NoError(t, err)

	in := tone(440, 1024)
	assert.Equal(t, f.Process(in), f.Process(in))
}

func TestNewChain_RejectsUninitialized(t *testing.T) {
	t.Parallel()

	_, err := NewChain(nil)
	require.Error(t, err)
	_, err = NewChain(&Filter{})
	require.Error(t, err)

	c, err := NewChain()
	require.NoError(t, err)
	assert.Equal(t, 0, c.Length())
	assert.Equal(t, []float32{0.25, -0.25}, c.Process([]float32{0.25, -0.25}))
}

func TestNewTelephoneBand(t *testing.T) {
	t.Parallel()

	chain, err := NewTelephoneBand(testRate)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Length())

	voice := tone(1000, testRate)
	hum := tone(60, testRate)
	hiss := tone(7000, testRate)

	assert.InDelta(t, 1, rms(chain.Process(voice))/rms(voice), 0.1)
	assert.Less(t, rms(chain.Process(hum))/rms(hum), 0.05)
	assert.Less(t, rms(chain.Process(hiss))/rms(hiss), 0.05)

	// 3400 Hz is above Nyquist at 6 kHz, so only the high-pass remains
	narrow, err := NewTelephoneBand(6000)
	require.NoError(t, err)
	assert.Equal(t, 1, narrow.Length())

	_, err = NewTelephoneBand(0)
	require.Error(t, err)
}
