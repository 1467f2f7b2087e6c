package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

const (
	// go-mp3 always produces 16-bit little-endian stereo
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

func readMP3(data []byte, maxDuration time.Duration) (pcm, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm{}, err
	}

	sampleRate := decoder.SampleRate()
	if length := decoder.Length(); length > 0 && sampleRate > 0 {
		frames := length / mp3BytesPerFrame
		duration := time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
		if duration > maxDuration {
			return pcm{}, fmt.Errorf("%w: %s > %s", ErrTooLong, duration.Round(time.Millisecond), maxDuration)
		}
	}

	raw, err := io.ReadAll(decoder)
	if err != nil {
		return pcm{}, err
	}

	divisor, err := getAudioDivisor(16)
	if err != nil {
		return pcm{}, err
	}

	samples := make([]float32, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(raw[i:]))
		samples = append(samples, float32(sample)/divisor)
	}

	return pcm{
		samples:    samples,
		sampleRate: sampleRate,
		channels:   mp3Channels,
	}, nil
}
