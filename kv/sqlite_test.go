package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SetAndGet(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "failedAttempts", "1"))

	v, ok, err := s.Get(ctx, "failedAttempts")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}

func TestSQLiteStore_GetAbsent(t *testing.T) {
	s := setupSQLite(t)

	v, ok, err := s.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, v)
}

func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "theme", "light"))
	require.NoError(t, s.Set(ctx, "theme", "dark"))

	v, _, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	require.Equal(t, "dark", v)
}

func TestSQLiteStore_RemoveIsIdempotent(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "userData", "{}"))
	require.NoError(t, s.Remove(ctx, "userData"))
	require.NoError(t, s.Remove(ctx, "userData"))

	_, ok, err := s.Get(ctx, "userData")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteStore_CompareAndSwap(t *testing.T) {
	testCompareAndSwap(t, setupSQLite(t))
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "users", `[{"username":"alice"}]`))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"username":"alice"}]`, v)
}
