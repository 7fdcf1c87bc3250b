package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/kvstore"
)

// failingStore implements kvstore.Store and fails every call
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("disk on fire") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("disk on fire") }
func (failingStore) Close() error                              { return nil }

func newHistory(t *testing.T) (*History, kvstore.Store) {
	t.Helper()
	store, err := kvstore.NewFile(afero.NewMemMapFs(), "/kv.json", zerolog.Nop())
	require.NoError(t, err)
	return New(store, zerolog.Nop()), store
}

func TestHistory_Add(t *testing.T) {
	ctx := context.Background()
	h, store := newHistory(t)

	assert.Equal(t, []string{}, h.Load(ctx))

	h.Add(ctx, "dune")
	h.Add(ctx, "arrival")
	got := h.Add(ctx, " dune ")
	assert.Equal(t, []string{"dune", "arrival"}, got)
	assert.Equal(t, got, h.Load(ctx))

	raw, ok, err := store.Get(ctx, Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["dune","arrival"]`, raw)

	// blank terms are ignored
	assert.Equal(t, []string{"dune", "arrival"}, h.Add(ctx, "   "))
}

func TestHistory_Bounded(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)

	for i := 0; i < 15; i++ {
		h.Add(ctx, fmt.Sprintf("term %d", i))
	}

	got := h.Load(ctx)
	require.Len(t, got, MaxEntries)
	assert.Equal(t, "term 14", got[0])
	assert.Equal(t, "term 5", got[MaxEntries-1])

	// re-adding an existing term does not drop another one
	got = h.Add(ctx, "term 9")
	require.Len(t, got, MaxEntries)
	assert.Equal(t, "term 9", got[0])
	assert.Equal(t, "term 5", got[MaxEntries-1])
}

func TestHistory_Clear(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)

	h.Add(ctx, "dune")
	h.Clear(ctx)
	assert.Empty(t, h.Load(ctx))
}

func TestHistory_MalformedValue(t *testing.T) {
	ctx := context.Background()
	h, store := newHistory(t)

	require.NoError(t, store.Set(ctx, Key, `{"not":"a list"}`))
	assert.Equal(t, []string{}, h.Load(ctx))
	assert.Equal(t, []string{"dune"}, h.Add(ctx, "dune"))
}

func TestHistory_StoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	h := New(failingStore{}, zerolog.Nop())

	assert.Equal(t, []string{}, h.Load(ctx))
	assert.Equal(t, []string{}, h.Add(ctx, "dune"))
	assert.NotPanics(t, func() { h.Clear(ctx) })
}
