package datastore

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/callguard/internal/errors"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history", "callguard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	a := &Analysis{
		ID:             "3f1c9a0e-7d7b-4a3e-9d8e-2b5c6f7a8b9c",
		AudioHash:      "abc123",
		Status:         "fraud",
		RiskLevel:      "High",
		Confidence:     0.9,
		Classification: "AI_GENERATED",
		Duration:       4.5,
		Robustness:     true,
		Language:       "English",
	}
	require.NoError(t, store.Save(t.Context(), a))
	assert.False(t, a.CreatedAt.IsZero())

	got, err := store.Get(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Status, got.Status)
	assert.Equal(t, a.RiskLevel, got.RiskLevel)
	assert.InDelta(t, a.Confidence, got.Confidence, 1e-12)
	assert.True(t, got.Robustness)
	assert.False(t, got.Degraded)
	assert.Equal(t, "English", got.Language)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	_, err := store.Get(t.Context(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	require.NoError(t, store.Save(t.Context(), &Analysis{ID: "dup", Status: "safe"}))
	err := store.Save(t.Context(), &Analysis{ID: "dup", Status: "spam"})

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, store.Save(t.Context(), &Analysis{
			ID:        fmt.Sprintf("id-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Status:    "safe",
		}))
	}

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{"limited", 2, []string{"id-4", "id-3"}},
		{"default limit", 0, []string{"id-4", "id-3", "id-2", "id-1", "id-0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(t.Context(), tt.limit)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	got, err := store.List(t.Context(), 10)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite("")

	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestClampLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultListLimit, clampLimit(0))
	assert.Equal(t, DefaultListLimit, clampLimit(-3))
	assert.Equal(t, 7, clampLimit(7))
	assert.Equal(t, MaxListLimit, clampLimit(MaxListLimit+1))
}

func TestNoopStore(t *testing.T) {
	t.Parallel()

	var s Store = NoopStore{}
	require.NoError(t, s.Save(t.Context(), &Analysis{ID: "x"}))

	_, err := s.Get(t.Context(), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, s.Close())
}
