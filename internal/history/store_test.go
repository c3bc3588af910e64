package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapadmin/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := OpenStore(path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_OpenClose(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close(), "closing twice is harmless")
}

func TestStore_NotOpened(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Record(ctx, Entry{}), errNotOpen)
	_, err := store.Recent(ctx, 1)
	assert.ErrorIs(t, err, errNotOpen)
	assert.ErrorIs(t, store.Clear(ctx), errNotOpen)
	assert.ErrorIs(t, store.Migrate(), errNotOpen)
}

func TestStore_RecordRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixed := uuid.MustParse("6f1c7a52-3e0b-4d8a-9b8e-2f6a1c0d9e11")

	entries := []Entry{
		{ID: fixed, Driver: "mysql", Server: "db:3306", Database: "shop", Statement: "SELECT 1", Duration: 3 * time.Millisecond, CreatedAt: base},
		{Driver: "mysql", Statement: "DELETE FROM t", Failed: true, Error: "permission denied", CreatedAt: base.Add(time.Second)},
		{Driver: "postgres", Statement: "SELECT now()", CreatedAt: base.Add(1500 * time.Millisecond)},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
	}

	tests := []struct {
		name       string
		limit      int
		statements []string
	}{
		{name: "all", limit: 0, statements: []string{"SELECT now()", "DELETE FROM t", "SELECT 1"}},
		{name: "limited", limit: 2, statements: []string{"SELECT now()", "DELETE FROM t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Recent(ctx, tt.limit)
			require.NoError(t, err)
			statements := make([]string, len(got))
			for i, e := range got {
				statements[i] = e.Statement
			}
			assert.Equal(t, tt.statements, statements)
		})
	}

	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	first := got[2]
	assert.Equal(t, fixed, first.ID)
	assert.Equal(t, "db:3306", first.Server)
	assert.Equal(t, "shop", first.Database)
	assert.Equal(t, 3*time.Millisecond, first.Duration)
	assert.True(t, base.Equal(first.CreatedAt))
	assert.False(t, first.Failed)

	failed := got[1]
	assert.NotEqual(t, uuid.Nil, failed.ID, "missing ids are generated")
	assert.True(t, failed.Failed)
	assert.Equal(t, "permission denied", failed.Error)
}

func TestStore_RecordDefaultsTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Record(ctx, Entry{Driver: "sqlite", Statement: "VACUUM"}))

	got, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.After(before))
}

func TestStore_Clear(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{Driver: "mysql", Statement: "SELECT 1"}))
	require.NoError(t, store.Clear(ctx))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := OpenStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, Entry{Driver: "mysql", Statement: "SELECT 1"}))
	require.NoError(t, store.Close())

	store, err = OpenStore(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, path, store.Path())
}
