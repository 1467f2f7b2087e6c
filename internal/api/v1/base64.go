package api

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/tphakala/callguard/internal/errors"
)

// ErrInvalidBase64 is returned for payloads that do not decode.
var ErrInvalidBase64 = errors.NewStd("Invalid base64 audio")

// dataURIPrefix matches "data:audio/<type>;base64," at the start of a payload
var dataURIPrefix = regexp.MustCompile(`^data:audio/[^;]+;base64,`)

// NormalizeBase64 strips a data URI prefix and whitespace and pads the
// payload to a multiple of four.
func NormalizeBase64(s string) string {
	s = dataURIPrefix.ReplaceAllString(s, "")
	s = strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}

// DecodeAudioBase64 normalizes and decodes a base64 audio payload.
func DecodeAudioBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(NormalizeBase64(s))
	if err != nil {
		return nil, errors.New(errors.Join(ErrInvalidBase64, err)).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "decode_base64").
			Build()
	}
	if len(data) == 0 {
		return nil, errors.New(ErrInvalidBase64).
			Component("api").
			Category(errors.CategoryValidation).
			Context("operation", "decode_base64").
			Build()
	}
	return data, nil
}
