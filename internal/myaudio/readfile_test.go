package myaudio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/callguard/internal/errors"
)

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatWAV},
		{"riff without wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), ""},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), FormatFLAC},
		{"mp3 id3", []byte("ID3\x04\x00\x00\x00\x00"), FormatMP3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, FormatMP3},
		{"ogg", []byte("OggS\x00\x02"), ""},
		{"short", []byte{0xFF}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectFormat(tt.header))
		})
	}
}

func TestDecodeWAVResamplesToAnalysisRate(t *testing.T) {
	t.Parallel()

	data, err := WAVBytes(SineWave(220, 0.5, 1.0, 44100), 44100)
	require.NoError(t, err)

	wf, err := Decode(data, "")
	require.NoError(t, err)

	assert.Equal(t, FormatWAV, wf.Format)
	assert.Equal(t, DefaultSampleRate, wf.SampleRate)
	assert.Equal(t, 44100, wf.SourceRate)
	assert.Equal(t, 1, wf.Channels)
	assert.InDelta(t, 1.0, wf.Duration(), 0.01)
	assert.InDelta(t, 0.5/1.414, RMS(wf.Samples), 0.02)
}

func TestDecodeWAVFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, SaveWAV(path, SineWave(440, 0.3, 0.5, DefaultSampleRate), DefaultSampleRate))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	wf, err := Decode(data, "wav")
	require.NoError(t, err)
	assert.Len(t, wf.Samples, DefaultSampleRate/2)
}

func TestDecodeStereoWAVDownmixes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	// left channel at full scale, right channel silent
	frames := 1600
	data := make([]int, frames*2)
	for i := range frames {
		data[i*2] = 16384
	}
	enc := wav.NewEncoder(f, DefaultSampleRate, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: DefaultSampleRate, NumChannels: 2},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	wf, err := Decode(raw, "")
	require.NoError(t, err)
	assert.Equal(t, 2, wf.Channels)
	require.Len(t, wf.Samples, frames)
	assert.InDelta(t, 0.25, wf.Samples[10], 1e-4)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		hint    string
		wantErr error
	}{
		{"empty input", nil, "wav", ErrEmptyAudio},
		{"unknown format", []byte("hello world, not audio"), "", ErrUnsupportedFormat},
		{"unsupported hint", []byte("hello world, not audio"), "ogg", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.data, tt.hint)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

func TestDecodeCorruptContainers(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{
		[]byte("RIFF\x00\x00\x00\x00WAVEjunkjunkjunk"),
		[]byte("fLaCgarbage"),
		append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...),
	} {
		_, err := Decode(data, "")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}
}

func TestDecodeRejectsLongAudio(t *testing.T) {
	t.Parallel()

	data, err := WAVBytes(make([]float32, DefaultSampleRate), DefaultSampleRate)
	require.NoError(t, err)

	_, err = NewDecoder(DefaultSampleRate, 500*time.Millisecond).Decode(data, "")
	require.ErrorIs(t, err, ErrTooLong)
}

func TestDecodeRejectsEmptyWAV(t *testing.T) {
	t.Parallel()

	data, err := WAVBytes(nil, DefaultSampleRate)
	require.NoError(t, err)

	_, err = Decode(data, "")
	require.Error(t, err)
}

func TestDownmix(t *testing.T) {
	t.Parallel()

	mono := []float32{0.1, 0.2}
	assert.Equal(t, mono, Downmix(mono, 1))

	assert.InDeltaSlice(t, []float32{0.5, 0}, Downmix([]float32{1, 0, 0.5, -0.5}, 2), 1e-6)
	assert.Len(t, Downmix([]float32{1, 1, 1}, 2), 1, "partial trailing frame is dropped")
}

func TestResampleAudio(t *testing.T) {
	t.Parallel()

	in := SineWave(100, 1, 1, 48000)

	out, err := ResampleAudio(in, 48000, 16000)
	require.NoError(t, err)
	assert.Len(t, out, 16000)

	same, err := ResampleAudio(in, 16000, 16000)
	require.NoError(t, err)
	assert.Len(t, same, len(in))

	short, err := ResampleAudio([]float32{0.5, -0.5}, 8000, 16000)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, -0.5, -0.5}, short)

	_, err = ResampleAudio(in, 0, 16000)
	require.Error(t, err)
}

func TestGetAudioDivisor(t *testing.T) {
	t.Parallel()

	for depth, want := range map[int]float32{8: 128, 16: 32768, 24: 8388608, 32: 2147483648} {
		got, err := getAudioDivisor(depth)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 0)
	}

	_, err := getAudioDivisor(12)
	require.Error(t, err)
}
