// Package analysis runs the voice detection pipeline: decode, optional noise
// injection, feature extraction (memoized by content), scoring, chunk
// aggregation, confidence synthesis and warnings.
package analysis

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/callguard/internal/detection"
	"github.com/tphakala/callguard/internal/featurecache"
	"github.com/tphakala/callguard/internal/features"
	"github.com/tphakala/callguard/internal/language"
	"github.com/tphakala/callguard/internal/logger"
	"github.com/tphakala/callguard/internal/myaudio"
	"github.com/tphakala/callguard/internal/myaudio/equalizer"
	"github.com/tphakala/callguard/internal/observability/metrics"
)

// Pipeline stages reported to metrics
const (
	StageDecode  = "decode"
	StageExtract = "extract"
	StageScore   = "score"
	StageTotal   = "total"
)

// StatusError labels analyses that did not produce a verdict.
const StatusError = "error"

// Pipeline turns audio payloads into reports. It is safe for concurrent use.
type Pipeline struct {
	decoder   *myaudio.Decoder
	extractor *features.Extractor
	cache     *featurecache.Cache // nil disables memoization
	noise     *myaudio.NoiseInjector
	telephone bool // band-limit robustness input to 300-3400 Hz
	languages *language.Detector
	metrics   metrics.Recorder
	log       logger.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder sets the audio decoder.
func WithDecoder(d *myaudio.Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithExtractor sets the feature extractor.
func WithExtractor(e *features.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithCache enables the feature cache.
func WithCache(c *featurecache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithNoiseInjector sets the injector used in robustness mode.
func WithNoiseInjector(n *myaudio.NoiseInjector) Option {
	return func(p *Pipeline) { p.noise = n }
}

// WithTelephoneBand makes robustness mode also band-limit the audio to the
// telephone passband before noise is added.
func WithTelephoneBand(enabled bool) Option {
	return func(p *Pipeline) { p.telephone = enabled }
}

// WithMetrics reports stage timings, verdicts and degradations to r.
func WithMetrics(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.metrics = r
		}
	}
}

// WithLogger overrides the package logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New returns a Pipeline with default components replaced by opts.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		decoder:   myaudio.NewDecoder(0, 0),
		extractor: features.NewExtractor(),
		noise:     myaudio.NewNoiseInjector(myaudio.DefaultSNRDB, 0),
		languages: language.NewDetector(),
		metrics:   metrics.NoOpRecorder{},
		log:       GetLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs the full pipeline on req. Only input errors and cancellation
// are returned; extraction problems degrade the report instead.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*Report, error) {
	start := p.now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	log := p.log.WithContext(ctx).With(logger.String("request_id", req.ID))

	if len(req.Data) == 0 {
		p.metrics.RecordAnalysis(StatusError)
		return nil, validationError(ErrEmptyPayload, "analyze")
	}

	key := featurecache.Key(req.Data, req.Robustness)
	compute := func(ctx context.Context) (featurecache.Entry, error) {
		return p.extract(ctx, req)
	}

	var (
		entry featurecache.Entry
		hit   bool
		err   error
	)
	if p.cache != nil {
		entry, hit, err = p.cache.GetOrCompute(ctx, key, compute)
	} else {
		entry, err = compute(ctx)
	}
	if err != nil {
		p.metrics.RecordAnalysis(StatusError)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		p.metrics.RecordAnalysis(StatusError)
		return nil, canceledError(err, StageScore, p.now().Sub(start))
	}

	scoreStart := p.now()
	report := p.assemble(req, entry)
	report.CacheHit = hit
	report.AudioHash = key
	report.Timestamp = p.now().UTC()
	p.metrics.RecordStageDuration(StageScore, p.now().Sub(scoreStart).Seconds())

	p.metrics.RecordAnalysis(string(report.Status))
	p.metrics.RecordStageDuration(StageTotal, p.now().Sub(start).Seconds())

	log.Info("analysis complete",
		logger.String("status", string(report.Status)),
		logger.Float64("confidence", report.Confidence),
		logger.String("classification", string(report.Classification)),
		logger.Float64("duration", report.Duration),
		logger.Bool("cache_hit", hit),
		logger.Bool("robustness", req.Robustness))

	return report, nil
}

// extract decodes req and computes clip and chunk features concurrently.
func (p *Pipeline) extract(ctx context.Context, req Request) (featurecache.Entry, error) {
	decodeStart := p.now()
	wave, err := p.decoder.Decode(req.Data, req.FormatHint)
	if err != nil {
		p.metrics.RecordDecodeError(req.FormatHint)
		return featurecache.Entry{}, err
	}
	p.metrics.RecordStageDuration(StageDecode, p.now().Sub(decodeStart).Seconds())

	quality := myaudio.QualityFactor(wave.Samples)
	samples := wave.Samples
	if req.Robustness {
		if p.telephone {
			samples = p.bandLimit(samples, wave.SampleRate)
		}
		samples = p.noise.Inject(samples)
	}

	extractStart := p.now()
	var (
		extraction features.Extraction
		chunks     []features.ChunkFeature
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		extraction = p.extractor.Extract(samples, wave.SampleRate)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		chunks = p.extractor.ExtractChunks(samples, wave.SampleRate)
		return nil
	})
	if err := g.Wait(); err != nil {
		return featurecache.Entry{}, canceledError(err, StageExtract, p.now().Sub(decodeStart))
	}
	p.metrics.RecordStageDuration(StageExtract, p.now().Sub(extractStart).Seconds())

	for _, d := range extraction.Degradations {
		p.metrics.RecordDegradation(d.Stage)
		p.log.Debug("extraction stage degraded",
			logger.String("request_id", req.ID),
			logger.String("stage", d.Stage),
			logger.String("reason", d.Reason))
	}

	return featurecache.Entry{
		Extraction: extraction,
		Chunks:     chunks,
		Quality:    quality,
	}, nil
}

// assemble scores an extraction and builds the report.
func (p *Pipeline) assemble(req Request, entry featurecache.Entry) *Report {
	ex := entry.Extraction

	scored := detection.Score(ex.Signals)
	aggregated := detection.AggregateChunks(entry.Chunks)
	verdict := detection.Synthesize(scored.Breakdown, aggregated, req.Robustness)
	warnings := detection.GenerateWarnings(ex.Signals, ex.Duration, entry.Quality)

	lang := language.FromHint(req.Language)
	if req.Language == "" {
		lang = p.languages.Detect(ex.Profile)
	}

	return &Report{
		RequestID:         req.ID,
		Status:            verdict.Status,
		RiskLevel:         verdict.RiskLevel,
		Confidence:        verdict.Confidence,
		Classification:    scored.Classification,
		EvidenceScore:     verdict.EvidenceScore,
		Explanation:       scored.Explanation,
		Warnings:          warnings,
		Signals:           ex.Signals,
		ChunkAnalysis:     aggregated,
		RobustnessApplied: req.Robustness,
		Duration:          round2(ex.Duration),
		AudioQuality:      entry.Quality,
		Language:          lang,
		DegradedStages:    ex.DegradedStages(),
	}
}

// bandLimit runs samples through the telephone band filter. An unusable rate
// leaves the audio unfiltered.
func (p *Pipeline) bandLimit(samples []float32, sampleRate int) []float32 {
	chain, err := equalizer.NewTelephoneBand(sampleRate)
	if err != nil {
		p.log.Warn("skipping telephone band filter",
			logger.Int("sample_rate", sampleRate),
			logger.Error(err))
		return samples
	}
	return chain.Process(samples)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
