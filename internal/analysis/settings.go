package analysis

import (
	"github.com/tphakala/callguard/internal/conf"
	"github.com/tphakala/callguard/internal/features"
	"github.com/tphakala/callguard/internal/myaudio"
)

// NewFromSettings builds a pipeline whose decoder, extractor and robustness
// degradation follow settings. opts are applied afterwards and may add a cache
// or metrics.
func NewFromSettings(settings *conf.Settings, opts ...Option) *Pipeline {
	base := []Option{
		WithDecoder(myaudio.NewDecoder(settings.Audio.SampleRate, settings.Audio.MaxDuration)),
		WithExtractor(features.NewExtractor(
			features.WithChunkDuration(settings.Analysis.ChunkDuration),
			features.WithMinChunkDuration(settings.Analysis.MinChunkDuration),
			features.WithSilenceTopDB(settings.Analysis.SilenceTopDB),
		)),
		WithNoiseInjector(myaudio.NewNoiseInjector(
			settings.Analysis.Robustness.SNRDB,
			settings.Analysis.Robustness.Seed,
		)),
		WithTelephoneBand(settings.Analysis.Robustness.TelephoneBand),
	}
	return New(append(base, opts...)...)
}
