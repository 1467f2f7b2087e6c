// Package features extracts acoustic evidence signals from mono waveforms.
//
// Extract produces the clip-level SignalSet scored by the detection package;
// ExtractChunks produces per-window features used to judge temporal
// stability. Both are pure functions of their input and never fail: a stage
// that cannot be computed falls back to zero values and is reported as a
// Degradation.
package features

// Interpretation is a coarse qualitative label for a metric value.
type Interpretation string

const (
	Low    Interpretation = "Low"
	Medium Interpretation = "Medium"
	High   Interpretation = "High"
)

// Metric names as they appear in API responses
const (
	MetricPitchVariance       = "pitch_variance"
	MetricJitter              = "jitter"
	MetricPitchAcceleration   = "pitch_acceleration"
	MetricSpectralFlatness    = "spectral_flatness"
	MetricHarmonicConsistency = "harmonic_consistency"
	MetricPauseRate           = "pause_rate"
	MetricPauseEntropy        = "pause_entropy"
	MetricPauseIrregularity   = "pause_irregularity"
)

// Signal is one measured metric with its interpretation.
// Measured is false when the producing stage degraded and Value is a fallback.
type Signal struct {
	Value          float64        `json:"value"`
	Interpretation Interpretation `json:"interpretation"`
	Measured       bool           `json:"measured"`
}

// SignalSet holds the clip-level metrics. Every field is always present.
type SignalSet struct {
	PitchVariance       Signal `json:"pitch_variance"`
	Jitter              Signal `json:"jitter"`
	PitchAcceleration   Signal `json:"pitch_acceleration"`
	SpectralFlatness    Signal `json:"spectral_flatness"`
	HarmonicConsistency Signal `json:"harmonic_consistency"`
	PauseRate           Signal `json:"pause_rate"`
	PauseEntropy        Signal `json:"pause_entropy"`
	PauseIrregularity   Signal `json:"pause_irregularity"`
}

// threshold describes how a metric maps to an Interpretation.
type threshold struct {
	low, high float64
	inverted  bool
}

var thresholds = map[string]threshold{
	MetricPitchVariance:       {low: 100, high: 500},
	MetricJitter:              {low: 0.05, high: 0.2},
	MetricPitchAcceleration:   {low: 5, high: 20},
	MetricSpectralFlatness:    {low: 0.01, high: 0.2, inverted: true},
	MetricHarmonicConsistency: {low: 1e-4, high: 1e-4},
	MetricPauseRate:           {low: 0.2, high: 0.8, inverted: true},
	MetricPauseEntropy:        {low: 0.5, high: 1.5},
	MetricPauseIrregularity:   {low: 0.2, high: 0.8},
}

// Interpret labels value for the named metric. Unknown metrics are Low.
func Interpret(metric string, value float64) Interpretation {
	th, ok := thresholds[metric]
	if !ok {
		return Low
	}

	// harmonic consistency is binary: above the threshold is High
	if metric == MetricHarmonicConsistency {
		if value > th.high {
			return High
		}
		return Low
	}

	switch {
	case value < th.low:
		if th.inverted {
			return High
		}
		return Low
	case value < th.high:
		return Medium
	default:
		if th.inverted {
			return Low
		}
		return High
	}
}

// NewSignal returns a measured signal for metric.
func NewSignal(metric string, value float64) Signal {
	return Signal{Value: value, Interpretation: Interpret(metric, value), Measured: true}
}

// Unmeasured returns the zero fallback for metric.
func Unmeasured(metric string) Signal {
	return Signal{Value: 0, Interpretation: Interpret(metric, 0)}
}

// ZeroSignalSet returns a SignalSet where every metric is unmeasured.
func ZeroSignalSet() SignalSet {
	return SignalSet{
		PitchVariance:       Unmeasured(MetricPitchVariance),
		Jitter:              Unmeasured(MetricJitter),
		PitchAcceleration:   Unmeasured(MetricPitchAcceleration),
		SpectralFlatness:    Unmeasured(MetricSpectralFlatness),
		HarmonicConsistency: Unmeasured(MetricHarmonicConsistency),
		PauseRate:           Unmeasured(MetricPauseRate),
		PauseEntropy:        Unmeasured(MetricPauseEntropy),
		PauseIrregularity:   Unmeasured(MetricPauseIrregularity),
	}
}

// Map returns the signals keyed by metric name.
func (s SignalSet) Map() map[string]Signal {
	return map[string]Signal{
		MetricPitchVariance:       s.PitchVariance,
		MetricJitter:              s.Jitter,
		MetricPitchAcceleration:   s.PitchAcceleration,
		MetricSpectralFlatness:    s.SpectralFlatness,
		MetricHarmonicConsistency: s.HarmonicConsistency,
		MetricPauseRate:           s.PauseRate,
		MetricPauseEntropy:        s.PauseEntropy,
		MetricPauseIrregularity:   s.PauseIrregularity,
	}
}

