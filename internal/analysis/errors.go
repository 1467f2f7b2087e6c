package analysis

import (
	"time"

	"github.com/tphakala/callguard/internal/errors"
)

// ErrEmptyPayload is returned when a request carries no audio bytes.
var ErrEmptyPayload = errors.NewStd("audio payload is empty")

// ErrAnalysisCanceled is returned when the caller gives up before the verdict is ready.
var ErrAnalysisCanceled = errors.NewStd("analysis canceled")

func validationError(err error, operation string) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryValidation).
		Context("operation", operation).
		Build()
}

// canceledError records how long stage ran before the caller gave up.
func canceledError(cause error, stage string, elapsed time.Duration) error {
	return errors.New(errors.Join(ErrAnalysisCanceled, cause)).
		Component("analysis").
		Category(errors.CategoryTimeout).
		Context("stage", stage).
		Timing("analyze", elapsed).
		Build()
}
