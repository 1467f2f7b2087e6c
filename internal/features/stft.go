package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// FrameLength is the STFT window size in samples
	FrameLength = 2048

	// HopLength is the STFT hop size in samples
	HopLength = 512

	// amin is the power floor used by flatness and dB conversions
	amin = 1e-10
)

// spectrogram holds STFT magnitudes indexed as mag[frame][bin].
type spectrogram struct {
	mag        [][]float64
	sampleRate int
	nfft       int
}

// bins returns the number of frequency bins per frame.
func (s spectrogram) bins() int {
	return s.nfft/2 + 1
}

// binFrequency returns the centre frequency of bin in Hz.
func (s spectrogram) binFrequency(bin float64) float64 {
	return bin * float64(s.sampleRate) / float64(s.nfft)
}

// hannWindow returns a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// frameCount returns the number of centred frames covering n samples.
func frameCount(n int) int {
	return 1 + n/HopLength
}

// centredFrame copies frame f of samples into dst, zero padding FrameLength/2
// samples on each side of the signal.
func centredFrame(dst []float64, samples []float32, f int) {
	start := f*HopLength - FrameLength/2
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(samples) {
			dst[i] = 0
			continue
		}
		dst[i] = float64(samples[j])
	}
}

// computeSTFT returns the magnitude spectrogram of samples using a Hann
// window, FrameLength and HopLength. An FFT plan is not safe for concurrent
// use so each call builds its own.
func computeSTFT(samples []float32, sampleRate int) spectrogram {
	fft := fourier.NewFFT(FrameLength)
	window := hannWindow(FrameLength)

	nFrames := frameCount(len(samples))
	sg := spectrogram{
		mag:        make([][]float64, nFrames),
		sampleRate: sampleRate,
		nfft:       FrameLength,
	}

	frame := make([]float64, FrameLength)
	coeffs := make([]complex128, FrameLength/2+1)
	for f := range nFrames {
		centredFrame(frame, samples, f)
		for i := range frame {
			frame[i] *= window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)

		mags := make([]float64, len(coeffs))
		for i, c := range coeffs {
			mags[i] = cmplx.Abs(c)
		}
		sg.mag[f] = mags
	}

	return sg
}

// frameRMS returns the RMS of each centred frame of samples.
func frameRMS(samples []float32) []float64 {
	nFrames := frameCount(len(samples))
	rms := make([]float64, nFrames)
	frame := make([]float64, FrameLength)
	for f := range nFrames {
		centredFrame(frame, samples, f)
		var sum float64
		for _, x := range frame {
			sum += x * x
		}
		rms[f] = math.Sqrt(sum / FrameLength)
	}
	return rms
}
