package myaudio

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultSNRDB is the signal-to-noise ratio used in robustness mode
	DefaultSNRDB = 30.0

	// silentNoiseFloor is the noise standard deviation used for silent input
	silentNoiseFloor = 1e-4
)

// NoiseInjector adds Gaussian white noise at a fixed SNR.
// It is safe for concurrent use.
type NoiseInjector struct {
	snrDB float64
	seed  uint64
}

// NewNoiseInjector returns an injector adding noise at snrDB relative to the
// input RMS. With a zero seed every call draws fresh noise. Any other seed
// makes the noise a function of the seed and the samples, so the same clip
// gets the same noise regardless of what was injected before it.
func NewNoiseInjector(snrDB float64, seed uint64) *NoiseInjector {
	if snrDB <= 0 {
		snrDB = DefaultSNRDB
	}
	return &NoiseInjector{snrDB: snrDB, seed: seed}
}

// SNR returns the configured signal-to-noise ratio in dB.
func (n *NoiseInjector) SNR() float64 {
	return n.snrDB
}

// Inject returns a noisy copy of samples. The input slice is not modified.
func (n *NoiseInjector) Inject(samples []float32) []float32 {
	out := make([]float32, len(samples))
	if len(samples) == 0 {
		return out
	}

	sigma := silentNoiseFloor
	if rms := RMS(samples); rms > 0 {
		sigma = rms / math.Pow(10, n.snrDB/20)
	}

	rng := n.source(samples)
	for i, s := range samples {
		out[i] = s + float32(rng.NormFloat64()*sigma)
	}
	return out
}

// source returns the generator for one Inject call.
func (n *NoiseInjector) source(samples []float32) *rand.Rand {
	if n.seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(n.seed, samplesHash(samples)))
}

func samplesHash(samples []float32) uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(s))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
