package myaudio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth     = 16
	wavPCMFormat    = 1
	wavMaxAmplitude = 32767
)

// seekableBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// rewrites the header sizes on Close.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (sb *seekableBuffer) Write(p []byte) (int, error) {
	end := sb.pos + int64(len(p))
	if end > int64(len(sb.buf)) {
		sb.buf = append(sb.buf, make([]byte, end-int64(len(sb.buf)))...)
	}
	copy(sb.buf[sb.pos:end], p)
	sb.pos = end
	return len(p), nil
}

func (sb *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = sb.pos + offset
	case io.SeekEnd:
		next = int64(len(sb.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, errors.New("negative seek position")
	}
	sb.pos = next
	return next, nil
}

// EncodeWAV writes mono float32 samples as 16-bit PCM WAV to w.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, wavPCMFormat)

	buf := &audio.IntBuffer{
		Data:           floatsToInts(samples),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write to WAV encoder: %w", err)
	}

	// Close finalizes the header sizes
	return enc.Close()
}

// WAVBytes returns samples encoded as an in-memory 16-bit PCM WAV file.
func WAVBytes(samples []float32, sampleRate int) ([]byte, error) {
	sb := &seekableBuffer{}
	if err := EncodeWAV(sb, samples, sampleRate); err != nil {
		return nil, err
	}
	return sb.buf, nil
}

// SaveWAV writes samples to filePath, creating parent directories.
func SaveWAV(filePath string, samples []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	return EncodeWAV(outFile, samples, sampleRate)
}

// floatsToInts converts [-1, 1] floats to clipped 16-bit integer samples.
func floatsToInts(samples []float32) []int {
	ints := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * wavMaxAmplitude)
		ints[i] = int(max(-wavMaxAmplitude-1, min(wavMaxAmplitude, v)))
	}
	return ints
}

// SineWave generates a sine tone of the given frequency, amplitude and length.
func SineWave(freq, amplitude, seconds float64, sampleRate int) []float32 {
	n := int(seconds * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}
