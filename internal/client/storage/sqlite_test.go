package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKeyIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	value, err := s.Get(context.Background(), KeyAccessToken)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestSetOverwritesExistingKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyAccessToken, []byte("first")))
	require.NoError(t, s.Set(ctx, KeyAccessToken, []byte("second")))

	value, err := s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), value)
}

func TestDeleteThenGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyRefreshToken, []byte("tok")))
	require.NoError(t, s.Delete(ctx, KeyRefreshToken))

	value, err := s.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestClearRemovesEveryKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyAccessToken, []byte("a")))
	require.NoError(t, s.Set(ctx, KeyRefreshToken, []byte("r")))
	require.NoError(t, s.Set(ctx, KeyUser, []byte(`{"id":"u"}`)))

	require.NoError(t, s.Clear(ctx))

	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		value, err := s.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, value, "key %s should be gone", key)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "metadata.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyAccessToken, []byte("persisted")))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), value)
}

func TestMemoryStoreMatchesContract(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	value, err := m.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, m.Set(ctx, KeyUser, []byte("v1")))
	require.NoError(t, m.Set(ctx, KeyUser, []byte("v2")))
	value, err = m.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, m.Clear(ctx))
	value, err = m.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.Nil(t, value)
}
