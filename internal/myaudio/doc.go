// Package myaudio turns uploaded audio bytes into mono float32 waveforms.
//
// Decode sniffs WAV, FLAC and MP3 containers by their magic bytes, converts
// integer PCM to float32 in [-1, 1], downmixes to mono and resamples to the
// analysis rate. NoiseInjector and QualityFactor operate on the decoded
// waveform and never modify their input.
package myaudio
