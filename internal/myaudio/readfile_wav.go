package myaudio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavReadFrames is the number of interleaved samples read per PCMBuffer call
const wavReadFrames = 16384

func readWAV(data []byte) (pcm, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return pcm{}, errors.New("input is not a valid WAV audio file")
	}

	if decoder.NumChans < 1 || decoder.NumChans > 8 {
		return pcm{}, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}

	bitDepth := int(decoder.BitDepth)
	divisor, err := getAudioDivisor(bitDepth)
	if err != nil {
		return pcm{}, err
	}

	channels := int(decoder.NumChans)
	buf := &audio.IntBuffer{
		Data:   make([]int, wavReadFrames*channels),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: channels},
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return pcm{}, err
		}
		if n == 0 {
			break
		}

		for _, sample := range buf.Data[:n] {
			// 8-bit WAV is unsigned
			if bitDepth == 8 {
				sample -= 128
			}
			samples = append(samples, float32(sample)/divisor)
		}
	}

	return pcm{
		samples:    samples,
		sampleRate: int(decoder.SampleRate),
		channels:   channels,
	}, nil
}
