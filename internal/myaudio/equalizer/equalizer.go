// Package equalizer provides biquad filters based on Robert Bristow-Johnson's
// audio EQ cookbook, used to simulate narrowband telephone channels.
//
// Filters hold only coefficients. Each Process call starts from zero state,
// so one Filter or Chain can serve concurrent requests.
package equalizer

import (
	"fmt"
	"math"
)

// Telephone channel band edges in Hz (ITU-T G.712 passband)
const (
	TelephoneLowHz  = 300.0
	TelephoneHighHz = 3400.0
)

// ButterworthQ gives a maximally flat passband.
const ButterworthQ = 1 / math.Sqrt2

// FilterName identifies the filter response.
type FilterName int

// FilterName constants are digital filter names.
const (
	Undefined FilterName = iota
	LowPass
	HighPass
	BandPass
)

func (n FilterName) String() string {
	switch n {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	case BandPass:
		return "bandpass"
	default:
		return "undefined"
	}
}

// Filter holds normalized biquad coefficients.
type Filter struct {
	name   FilterName
	passes int

	// coefficients divided by a0
	b0, b1, b2, a1, a2 float64
}

// newFilter normalizes the cookbook coefficients by a0.
func newFilter(name FilterName, a0, a1, a2, b0, b1, b2 float64, passes int) *Filter {
	return &Filter{
		name:   name,
		passes: passes,
		b0:     b0 / a0,
		b1:     b1 / a0,
		b2:     b2 / a0,
		a1:     a1 / a0,
		a2:     a2 / a0,
	}
}

// Name returns the filter response type.
func (f *Filter) Name() FilterName {
	return f.name
}

// IsZero returns true when f is not initialized.
func (f *Filter) IsZero() bool {
	return f == nil || f.name == Undefined
}

// apply filters samples in place, once per pass.
func (f *Filter) apply(samples []float64) {
	for range f.passes {
		var in1, in2, out1, out2 float64
		for i, x := range samples {
			y := f.b0*x + f.b1*in1 + f.b2*in2 - f.a1*out1 - f.a2*out2
			in2, in1 = in1, x
			out2, out1 = out1, y
			samples[i] = y
		}
	}
}

// Process returns a filtered copy of samples.
func (f *Filter) Process(samples []float32) []float32 {
	buf := toFloat64(samples)
	f.apply(buf)
	return toFloat32(buf)
}

func validate(sampleRate, frequency, q float64, passes int) error {
	switch {
	case sampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	case frequency <= 0 || frequency >= sampleRate/2:
		return fmt.Errorf("frequency %v Hz outside (0, %v) Hz", frequency, sampleRate/2)
	case q <= 0:
		return fmt.Errorf("q must be positive, got %v", q)
	case passes < 1:
		return fmt.Errorf("passes must be 1 or greater")
	}
	return nil
}

// NewLowPass returns a low-pass filter. Each pass adds 12 dB/octave of
// roll-off above frequency.
func NewLowPass(sampleRate, frequency, q float64, passes int) (*Filter, error) {
	if err := validate(sampleRate, frequency, q, passes); err != nil {
		return nil, err
	}

	w0 := 2 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)

	return newFilter(LowPass,
		1+alpha, -2*cos, 1-alpha,
		(1-cos)/2, 1-cos, (1-cos)/2,
		passes), nil
}

// NewHighPass returns a high-pass filter. Each pass adds 12 dB/octave of
// roll-off below frequency.
func NewHighPass(sampleRate, frequency, q float64, passes int) (*Filter, error) {
	if err := validate(sampleRate, frequency, q, passes); err != nil {
		return nil, err
	}

	w0 := 2 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cos := math.Cos(w0)

	return newFilter(HighPass,
		1+alpha, -2*cos, 1-alpha,
		(1+cos)/2, -(1 + cos), (1+cos)/2,
		passes), nil
}

// NewBandPass returns a constant 0 dB peak gain band-pass filter centred on
// frequency. width is the bandwidth in octaves.
func NewBandPass(sampleRate, frequency, width float64, passes int) (*Filter, error) {
	if err := validate(sampleRate, frequency, width, passes); err != nil {
		return nil, err
	}

	w0 := 2 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) * math.Sinh(math.Ln2/2*width*w0/math.Sin(w0))
	cos := math.Cos(w0)

	return newFilter(BandPass,
		1+alpha, -2*cos, 1-alpha,
		alpha, 0, -alpha,
		passes), nil
}

// Chain applies filters in sequence.
type Chain struct {
	filters []*Filter
}

// NewChain returns a chain of filters. Uninitialized filters are rejected.
func NewChain(filters ...*Filter) (*Chain, error) {
	for i, f := range filters {
		if f.IsZero() {
			return nil, fmt.Errorf("filter %d is nil or uninitialized", i)
		}
	}
	return &Chain{filters: filters}, nil
}

// Length returns the number of filters in the chain.
func (c *Chain) Length() int {
	return len(c.filters)
}

// Process returns a copy of samples run through every filter in order.
func (c *Chain) Process(samples []float32) []float32 {
	buf := toFloat64(samples)
	for _, f := range c.filters {
		f.apply(buf)
	}
	return toFloat32(buf)
}

// NewTelephoneBand returns a chain limiting audio to the 300-3400 Hz
// telephone passband. At sample rates where 3400 Hz is at or above Nyquist
// only the high-pass stage is used.
func NewTelephoneBand(sampleRate int) (*Chain, error) {
	rate := float64(sampleRate)
	hp, err := NewHighPass(rate, TelephoneLowHz, ButterworthQ, 2)
	if err != nil {
		return nil, err
	}
	if TelephoneHighHz >= rate/2 {
		return NewChain(hp)
	}
	lp, err := NewLowPass(rate, TelephoneHighHz, ButterworthQ, 2)
	if err != nil {
		return nil, err
	}
	return NewChain(hp, lp)
}

func toFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

func toFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}
	return out
}
