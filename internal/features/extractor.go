package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Extraction stages that can degrade
const (
	StagePitch    = "pitch"
	StageEnergy   = "energy"
	StagePauses   = "pauses"
	StageSpectral = "spectral"
)

// Defaults for the extractor options
const (
	DefaultChunkDuration    = 1.5
	DefaultMinChunkDuration = 0.5
	DefaultSilenceTopDB     = 25.0

	// chunkMinPitchSamples is the pitch sample count a chunk needs before jitter is computed
	chunkMinPitchSamples = 10
)

// Degradation records a stage that fell back to zero values.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// AcousticProfile summarizes the clip for language profiling.
type AcousticProfile struct {
	PitchMean        float64 `json:"pitch_mean"`
	CentroidMean     float64 `json:"centroid_mean"`
	SpectralFlatness float64 `json:"spectral_flatness"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`
	MeanAbsAmplitude float64 `json:"mean_abs_amplitude"`
}

// Extraction is the result of clip-level feature extraction.
type Extraction struct {
	Signals        SignalSet
	EnergyVariance float64
	Duration       float64
	Profile        AcousticProfile
	Degradations   []Degradation
}

// Ok reports whether every stage produced real measurements.
func (e Extraction) Ok() bool {
	return len(e.Degradations) == 0
}

// DegradedStages returns the names of the degraded stages.
func (e Extraction) DegradedStages() []string {
	stages := make([]string, 0, len(e.Degradations))
	for _, d := range e.Degradations {
		stages = append(stages, d.Stage)
	}
	return stages
}

func (e *Extraction) degrade(stage, reason string) {
	e.Degradations = append(e.Degradations, Degradation{Stage: stage, Reason: reason})
}

// ChunkFeature holds the features of one analysis window.
type ChunkFeature struct {
	Timestamp        float64 `json:"timestamp"` // window start in seconds
	Jitter           float64 `json:"jitter"`
	SpectralFlatness float64 `json:"spectral_flatness"`
	PitchVariance    float64 `json:"pitch_variance"`
}

// Extractor computes acoustic features. It holds only configuration and is
// safe for concurrent use.
type Extractor struct {
	chunkDuration    float64
	minChunkDuration float64
	topDB            float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithChunkDuration sets the chunk window length in seconds.
func WithChunkDuration(seconds float64) Option {
	return func(e *Extractor) {
		if seconds > 0 {
			e.chunkDuration = seconds
		}
	}
}

// WithMinChunkDuration sets the shortest trailing window kept, in seconds.
func WithMinChunkDuration(seconds float64) Option {
	return func(e *Extractor) {
		if seconds >= 0 {
			e.minChunkDuration = seconds
		}
	}
}

// WithSilenceTopDB sets the threshold below peak under which frames are silent.
func WithSilenceTopDB(db float64) Option {
	return func(e *Extractor) {
		if db > 0 {
			e.topDB = db
		}
	}
}

// NewExtractor returns an Extractor with defaults overridden by opts.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		chunkDuration:    DefaultChunkDuration,
		minChunkDuration: DefaultMinChunkDuration,
		topDB:            DefaultSilenceTopDB,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the clip-level signals. It never fails; stages that cannot
// be computed yield unmeasured zero signals and a Degradation.
func (e *Extractor) Extract(samples []float32, sampleRate int) Extraction {
	result := Extraction{Signals: ZeroSignalSet()}

	if reason := invalidInput(samples, sampleRate); reason != "" {
		for _, stage := range []string{StagePitch, StageEnergy, StagePauses, StageSpectral} {
			result.degrade(stage, reason)
		}
		return result
	}

	result.Duration = float64(len(samples)) / float64(sampleRate)
	sg := computeSTFT(samples, sampleRate)

	e.extractPitch(&result, sg)
	rms := e.extractEnergy(&result, samples)
	e.extractPauses(&result, rms, len(samples), sampleRate)
	e.extractSpectral(&result, sg)

	result.Profile.ZeroCrossingRate = zeroCrossingRate(samples)
	result.Profile.MeanAbsAmplitude = meanAbs(samples)

	return result
}

func (e *Extractor) extractPitch(result *Extraction, sg spectrogram) {
	pitches := framePitches(trackPitch(sg))
	ps, ok := computePitchStats(pitches)
	if !ok {
		result.degrade(StagePitch, fmt.Sprintf("%d voiced frames, need at least 2", len(pitches)))
		return
	}
	if !allFinite(ps.variance, ps.jitter, ps.acceleration) {
		result.degrade(StagePitch, "non-finite pitch statistics")
		return
	}

	result.Signals.PitchVariance = NewSignal(MetricPitchVariance, ps.variance)
	result.Signals.Jitter = NewSignal(MetricJitter, ps.jitter)
	result.Signals.PitchAcceleration = NewSignal(MetricPitchAcceleration, ps.acceleration)
	result.Profile.PitchMean = ps.mean
}

func (e *Extractor) extractEnergy(result *Extraction, samples []float32) []float64 {
	rms := frameRMS(samples)
	_, variance := stat.PopMeanVariance(rms, nil)
	if !allFinite(variance) {
		result.degrade(StageEnergy, "non-finite energy variance")
		return rms
	}
	result.EnergyVariance = variance
	return rms
}

func (e *Extractor) extractPauses(result *Extraction, rms []float64, n, sampleRate int) {
	pauses := pauseDurations(voicedIntervals(rms, n, e.topDB), sampleRate)

	result.Signals.PauseRate = NewSignal(MetricPauseRate, float64(len(pauses))/result.Duration)

	if len(pauses) < 2 {
		result.degrade(StagePauses, fmt.Sprintf("%d pauses, need at least 2", len(pauses)))
		return
	}

	entropy, irregularity := pauseEntropy(pauses), pauseIrregularity(pauses)
	if !allFinite(entropy, irregularity) {
		result.degrade(StagePauses, "non-finite pause statistics")
		return
	}
	result.Signals.PauseEntropy = NewSignal(MetricPauseEntropy, entropy)
	result.Signals.PauseIrregularity = NewSignal(MetricPauseIrregularity, irregularity)
}

func (e *Extractor) extractSpectral(result *Extraction, sg spectrogram) {
	flatness, silent := spectralFlatness(sg)
	if silent {
		result.degrade(StageSpectral, "all frames are digital silence")
		return
	}

	centroids := spectralCentroids(sg)
	consistency := harmonicConsistency(centroids)
	if !allFinite(flatness, consistency) {
		result.degrade(StageSpectral, "non-finite spectral statistics")
		return
	}

	result.Signals.SpectralFlatness = NewSignal(MetricSpectralFlatness, flatness)
	result.Signals.HarmonicConsistency = NewSignal(MetricHarmonicConsistency, consistency)
	result.Profile.CentroidMean = stat.Mean(centroids, nil)
	result.Profile.SpectralFlatness = flatness
}

// ExtractChunks trims the waveform to its voiced span and computes features
// over consecutive non-overlapping windows. A trailing window shorter than
// the minimum chunk duration is dropped. Silent input yields no chunks.
func (e *Extractor) ExtractChunks(samples []float32, sampleRate int) []ChunkFeature {
	if invalidInput(samples, sampleRate) != "" {
		return nil
	}

	span, ok := voicedSpan(voicedIntervals(frameRMS(samples), len(samples), e.topDB))
	if !ok {
		return nil
	}
	voiced := samples[span.start:span.end]

	chunkSamples := int(e.chunkDuration * float64(sampleRate))
	minSamples := e.minChunkDuration * float64(sampleRate)
	if chunkSamples <= 0 {
		return nil
	}

	var chunks []ChunkFeature
	for start := 0; start < len(voiced); start += chunkSamples {
		end := min(start+chunkSamples, len(voiced))
		if float64(end-start) < minSamples {
			continue
		}
		chunks = append(chunks, chunkFeature(voiced[start:end], sampleRate, span.start+start))
	}

	return chunks
}

func chunkFeature(chunk []float32, sampleRate, offset int) ChunkFeature {
	sg := computeSTFT(chunk, sampleRate)
	flatness, _ := spectralFlatness(sg)

	cf := ChunkFeature{
		Timestamp:        float64(offset) / float64(sampleRate),
		SpectralFlatness: finiteOrZero(flatness),
	}

	pitches := candidatePitchesAboveMedian(trackPitch(sg), sg.bins())
	if len(pitches) > chunkMinPitchSamples {
		mean, variance := stat.PopMeanVariance(pitches, nil)
		cf.Jitter = finiteOrZero(coefficientOfVariation(mean, variance))
		cf.PitchVariance = finiteOrZero(variance)
	}

	return cf
}

// invalidInput returns a reason when samples cannot be analyzed at all.
func invalidInput(samples []float32, sampleRate int) string {
	switch {
	case sampleRate <= 0:
		return fmt.Sprintf("invalid sample rate %d", sampleRate)
	case len(samples) == 0:
		return "empty input"
	}
	for _, s := range samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return "non-finite samples"
		}
	}
	return ""
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func meanAbs(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(samples))
}
