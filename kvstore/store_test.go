package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/appwrite"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLite(filepath.Join(dir, "kv.db"), zerolog.Nop())
	require.NoError(t, err)

	memFile, err := NewFile(afero.NewMemMapFs(), "/data/kv.json", zerolog.Nop())
	require.NoError(t, err)

	osFile, err := NewFile(afero.NewOsFs(), filepath.Join(dir, "kv.json"), zerolog.Nop(),
		WithLockFile(filepath.Join(dir, "kv.json.lock")))
	require.NoError(t, err)

	stores := map[string]Store{"sqlite": sqlite, "memfile": memFile, "osfile": osFile}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "search_history", `["dune"]`))
			value, ok, err := store.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `["dune"]`, value)

			require.NoError(t, store.Set(ctx, "search_history", `["arrival","dune"]`))
			require.NoError(t, store.Set(ctx, "other", "x"))
			value, _, err = store.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.Equal(t, `["arrival","dune"]`, value)

			require.NoError(t, store.Delete(ctx, "search_history"))
			require.NoError(t, store.Delete(ctx, "search_history"))
			_, ok, err = store.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.False(t, ok)

			value, ok, err = store.Get(ctx, "other")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "x", value)

			assert.ErrorIs(t, store.Set(ctx, " ", "x"), ErrEmptyKey)

			require.NoError(t, store.Close())
			_, _, err = store.Get(ctx, "other")
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	store, err := NewSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Close())

	// migrations are idempotent and data survives
	store, err = NewSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestFile_CorruptDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kv.json", []byte("{not json"), 0o600))

	store, err := NewFile(fs, "/kv.json", zerolog.Nop())
	require.NoError(t, err)
	_, _, err = store.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	for _, driver := range []string{DriverSQLite, DriverFile} {
		store, err := Open(driver, dir, zerolog.Nop())
		require.NoError(t, err, driver)
		require.NoError(t, store.Set(context.Background(), "k", driver))
		require.NoError(t, store.Close())
	}

	_, err := Open("redis", dir, zerolog.Nop())
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFile(afero.NewMemMapFs(), "/kv.json", zerolog.Nop())
	require.NoError(t, err)

	var sessions appwrite.SessionStore = NewSessionStore(store, "")

	cookies, err := sessions.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cookies)

	require.NoError(t, sessions.SaveSession(ctx, map[string]string{"a_session_p": "secret"}))
	cookies, err = sessions.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a_session_p": "secret"}, cookies)

	raw, ok, err := store.Get(ctx, DefaultSessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a_session_p":"secret"}`, raw)

	require.NoError(t, sessions.ClearSession(ctx))
	cookies, err = sessions.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cookies)
}
