package datastore

import "context"

// NoopStore is used when history is disabled. It keeps nothing.
type NoopStore struct{}

func (NoopStore) Save(context.Context, *Analysis) error { return nil }

func (NoopStore) Get(_ context.Context, id string) (*Analysis, error) {
	return nil, errNotFound(id)
}

func (NoopStore) List(context.Context, int) ([]Analysis, error) { return []Analysis{}, nil }

func (NoopStore) Close() error { return nil }

var (
	_ Store = NoopStore{}
	_ Store = (*SQLiteStore)(nil)
)
