package myaudio

import (
	"github.com/tphakala/callguard/internal/errors"
)

const componentName = "myaudio"

// Sentinel errors for audio decoding
var (
	ErrEmptyAudio        = errors.NewStd("audio input is empty")
	ErrUnsupportedFormat = errors.NewStd("unsupported audio format")
	ErrNoSamples         = errors.NewStd("audio contains no samples")
	ErrTooLong           = errors.NewStd("audio exceeds maximum duration")
)

// decodeError wraps a decoder failure as a client input error.
func decodeError(err error, format, operation string) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryValidation).
		Context("format", format).
		Context("operation", operation).
		Build()
}
