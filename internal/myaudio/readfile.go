package myaudio

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/tphakala/callguard/internal/logger"
)

// Container formats understood by Decode
const (
	FormatWAV  = "wav"
	FormatFLAC = "flac"
	FormatMP3  = "mp3"
)

const (
	// DefaultSampleRate is the analysis sample rate
	DefaultSampleRate = 16000

	// DefaultMaxDuration rejects uploads longer than five minutes
	DefaultMaxDuration = 5 * time.Minute

	// audioHeaderSize is the number of bytes inspected for format detection
	audioHeaderSize = 12

	// riffHeaderOffset is the offset of the WAVE tag in RIFF files
	riffHeaderOffset = 8

	// mp3SyncByteMask is the mask for MPEG frame sync validation
	mp3SyncByteMask = 0xE0
)

// Waveform is a decoded mono signal.
type Waveform struct {
	Samples    []float32 // mono, normalized to [-1, 1]
	SampleRate int
	SourceRate int // sample rate of the container before resampling
	Channels   int // channel count of the container before downmixing
	Format     string
}

// Duration returns the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// pcm is what the container readers hand back: interleaved float samples.
type pcm struct {
	samples    []float32
	sampleRate int
	channels   int
}

// Decoder converts encoded audio into analysis-ready waveforms.
type Decoder struct {
	sampleRate  int
	maxDuration time.Duration
}

// NewDecoder returns a Decoder producing waveforms at sampleRate. Zero values
// select DefaultSampleRate and DefaultMaxDuration.
func NewDecoder(sampleRate int, maxDuration time.Duration) *Decoder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	return &Decoder{sampleRate: sampleRate, maxDuration: maxDuration}
}

// Decode decodes data with default settings.
func Decode(data []byte, formatHint string) (Waveform, error) {
	return NewDecoder(0, 0).Decode(data, formatHint)
}

// Decode detects the container, decodes it, downmixes to mono and resamples.
// formatHint is used only when the bytes carry no recognizable signature.
func (d *Decoder) Decode(data []byte, formatHint string) (Waveform, error) {
	if len(data) == 0 {
		return Waveform{}, decodeError(ErrEmptyAudio, formatHint, "decode")
	}

	format := DetectFormat(data)
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(formatHint, "."))
	}

	var (
		raw pcm
		err error
	)
	switch format {
	case FormatWAV:
		raw, err = readWAV(data)
	case FormatFLAC:
		raw, err = readFLAC(data)
	case FormatMP3:
		raw, err = readMP3(data, d.maxDuration)
	default:
		return Waveform{}, decodeError(fmt.Errorf("%w: %q", ErrUnsupportedFormat, formatHint), formatHint, "detect_format")
	}
	if err != nil {
		return Waveform{}, decodeError(err, format, "read_"+format)
	}

	if raw.channels < 1 {
		raw.channels = 1
	}
	frames := len(raw.samples) / raw.channels
	if frames == 0 {
		return Waveform{}, decodeError(ErrNoSamples, format, "decode")
	}
	if raw.sampleRate <= 0 {
		return Waveform{}, decodeError(fmt.Errorf("invalid sample rate %d", raw.sampleRate), format, "decode")
	}

	duration := time.Duration(float64(frames) / float64(raw.sampleRate) * float64(time.Second))
	if duration > d.maxDuration {
		return Waveform{}, decodeError(fmt.Errorf("%w: %s > %s", ErrTooLong, duration.Round(time.Millisecond), d.maxDuration), format, "decode")
	}

	mono := Downmix(raw.samples, raw.channels)
	resampled, err := ResampleAudio(mono, raw.sampleRate, d.sampleRate)
	if err != nil {
		return Waveform{}, decodeError(err, format, "resample")
	}

	GetLogger().Debug("decoded audio",
		logger.String("format", format),
		logger.Int("source_rate", raw.sampleRate),
		logger.Int("channels", raw.channels),
		logger.Int("samples", len(resampled)))

	return Waveform{
		Samples:    resampled,
		SampleRate: d.sampleRate,
		SourceRate: raw.sampleRate,
		Channels:   raw.channels,
		Format:     format,
	}, nil
}

// DetectFormat returns the container format signalled by the leading bytes
// of data, or "" when no known signature matches.
func DetectFormat(data []byte) string {
	header := data
	if len(header) > audioHeaderSize {
		header = header[:audioHeaderSize]
	}

	switch {
	case len(header) >= audioHeaderSize && bytes.HasPrefix(header, []byte("RIFF")) &&
		bytes.Equal(header[riffHeaderOffset:audioHeaderSize], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(header, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(header, []byte("ID3")):
		return FormatMP3
	case len(header) >= 2 && header[0] == 0xFF && header[1]&mp3SyncByteMask == mp3SyncByteMask:
		return FormatMP3
	}
	return ""
}

// Downmix averages interleaved channels into a mono signal.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	scale := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum * scale
	}
	return mono
}

// getAudioDivisor returns the divisor that maps signed PCM of the given bit
// depth to [-1, 1].
func getAudioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported audio bit depth: %d", bitDepth)
	}
}
