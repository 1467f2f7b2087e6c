// Package datastore persists analysis history.
package datastore

import (
	"context"

	"github.com/tphakala/callguard/internal/errors"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit bounds a single List call.
const MaxListLimit = 500

// ErrNotFound is returned when no analysis has the requested ID.
var ErrNotFound = errors.NewStd("analysis not found")

// Store is the analysis history backend.
type Store interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	List(ctx context.Context, limit int) ([]Analysis, error)
	Close() error
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

func errNotFound(id string) error {
	return errors.New(ErrNotFound).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Context("id", id).
		Build()
}
