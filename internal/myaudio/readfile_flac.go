package myaudio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tphakala/flac"
)

func readFLAC(data []byte) (pcm, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm{}, err
	}

	if decoder.NChannels < 1 {
		return pcm{}, fmt.Errorf("unsupported number of channels: %d", decoder.NChannels)
	}

	divisor, err := getAudioDivisor(decoder.BitsPerSample)
	if err != nil {
		return pcm{}, err
	}
	bytesPerSample := decoder.BitsPerSample / 8

	var samples []float32
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return pcm{}, err
		}

		// Frames are interleaved little-endian PCM
		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			var sample int32
			switch decoder.BitsPerSample {
			case 8:
				sample = int32(int8(frame[i]))
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				sample = int32(frame[i]) | int32(frame[i+1])<<8 | int32(int8(frame[i+2]))<<16
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			samples = append(samples, float32(sample)/divisor)
		}
	}

	return pcm{
		samples:    samples,
		sampleRate: decoder.SampleRate,
		channels:   decoder.NChannels,
	}, nil
}
