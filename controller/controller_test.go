package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/fetch"
	"github.com/s0up4200/marquee/history"
	"github.com/s0up4200/marquee/kvstore"
	"github.com/s0up4200/marquee/tmdb"
)

// mockCatalog implements Catalog for testing
type mockCatalog struct {
	mu      sync.Mutex
	queries []string
	items   map[string][]tmdb.CatalogItem
	err     error
	// gates hold back the response for a query until closed
	gates   map[string]chan struct{}
}

func (m *mockCatalog) FetchCatalog(_ context.Context, query string, _ tmdb.MediaKind) ([]tmdb.CatalogItem, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	gate := m.gates[query]
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.items[query], nil
}

func (m *mockCatalog) MovieDetails(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &tmdb.MovieDetails{ID: id, Title: fmt.Sprintf("Movie %d", id), VoteAverage: 7, ReleaseDate: "2020-01-01"}, nil
}

func (m *mockCatalog) TVDetails(_ context.Context, id int64) (*tmdb.TVDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &tmdb.TVDetails{ID: id, Name: fmt.Sprintf("Show %d", id), FirstAirDate: "2019-05-01"}, nil
}

func (m *mockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

type increment struct {
	term string
	id   int64
}

// mockBackend implements SearchCounter, Library and Trending for testing
type mockBackend struct {
	mu            sync.Mutex
	increments    []increment
	counterErr    error
	saved         []backend.SavedItem
	removeFail    bool
	nextID        int
	trendingKinds []tmdb.MediaKind
}

func (m *mockBackend) IncrementSearchCount(_ context.Context, term string, item tmdb.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments = append(m.increments, increment{term: term, id: item.ID})
	return m.counterErr
}

func (m *mockBackend) Increments() []increment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]increment(nil), m.increments...)
}

func (m *mockBackend) SaveItem(_ context.Context, item tmdb.CatalogItem, userID string) (*backend.SavedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	saved := backend.SavedItem{
		ID:        fmt.Sprintf("doc-%d", m.nextID),
		UserID:    userID,
		CatalogID: item.ID,
		Title:     item.Title,
		Kind:      item.Kind,
	}
	m.saved = append([]backend.SavedItem{saved}, m.saved...)
	return &saved, nil
}

func (m *mockBackend) ListSavedItems(_ context.Context, userID string) []backend.SavedItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []backend.SavedItem{}
	for _, s := range m.saved {
		if s.UserID == userID {
			items = append(items, s)
		}
	}
	return items
}

func (m *mockBackend) RemoveSavedItem(_ context.Context, documentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeFail {
		return false
	}
	for i, s := range m.saved {
		if s.ID == documentID {
			m.saved = append(m.saved[:i], m.saved[i+1:]...)
			return true
		}
	}
	return false
}

func (m *mockBackend) TrendingSearches(_ context.Context, kind tmdb.MediaKind, _ int) []backend.SearchCounter {
	m.mu.Lock()
	m.trendingKinds = append(m.trendingKinds, kind)
	m.mu.Unlock()

	if kind == tmdb.KindTV {
		return []backend.SearchCounter{{Term: "severance", Count: 2, Kind: tmdb.KindTV}}
	}
	return []backend.SearchCounter{{Term: "dune", Count: 3}, {Term: "heat", Count: 1}}
}

// stubSession implements Session for testing
type stubSession struct {
	user *backend.User
}

func (s stubSession) User() *backend.User { return s.user }

// switchSession is a session whose user can change between calls
type switchSession struct {
	user *backend.User
}

func (s *switchSession) User() *backend.User { return s.user }

func newHistory(t *testing.T) *history.History {
	t.Helper()
	store, err := kvstore.NewFile(afero.NewMemMapFs(), "/kv.json", zerolog.Nop())
	require.NoError(t, err)
	return history.New(store, zerolog.Nop())
}

func loaded[T any](t *testing.T, get func() fetch.State[T]) fetch.State[T] {
	t.Helper()
	require.Eventually(t, func() bool {
		s := get()
		return s.Status == fetch.StatusLoaded || s.Status == fetch.StatusFailed
	}, time.Second, 5*time.Millisecond)
	return get()
}

var (
	dune   = tmdb.CatalogItem{ID: 438631, Title: "Dune", Kind: tmdb.KindMovie}
	dune2  = tmdb.CatalogItem{ID: 693134, Title: "Dune: Part Two", Kind: tmdb.KindMovie}
	ctxBG  = context.Background()
	nopLog = zerolog.Nop()
)

func TestSearch_DebouncedQuery(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{"dune": {dune, dune2}}}
	counter := &mockBackend{}
	s := NewSearch(ctxBG, catalog, counter, newHistory(t), tmdb.KindMovie, 20*time.Millisecond, nopLog)

	assert.Equal(t, fetch.StatusIdle, s.Results().Status)

	s.SetQuery("d")
	s.SetQuery("du")
	s.SetQuery(" dune ")

	state := loaded(t, s.Results)
	assert.Equal(t, fetch.StatusLoaded, state.Status)
	assert.Equal(t, []tmdb.CatalogItem{dune, dune2}, state.Data)
	assert.Equal(t, []string{"dune"}, catalog.Queries())
	assert.Equal(t, []increment{{term: "dune", id: dune.ID}}, counter.Increments())

	// typing does not touch the history
	assert.Empty(t, s.History(ctxBG))

	s.SetQuery("   ")
	assert.Equal(t, fetch.StatusIdle, s.Results().Status)
	assert.Nil(t, s.Results().Data)
}

func TestSearch_ClearingCancelsPendingSearch(t *testing.T) {
	catalog := &mockCatalog{}
	s := NewSearch(ctxBG, catalog, &mockBackend{}, newHistory(t), tmdb.KindMovie, 20*time.Millisecond, nopLog)

	s.SetQuery("dune")
	s.SetQuery("")
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, catalog.Queries())
	assert.Equal(t, fetch.StatusIdle, s.Results().Status)
}

func TestSearch_SupersededQueryIsNotCounted(t *testing.T) {
	duneGate := make(chan struct{})
	catalog := &mockCatalog{
		items: map[string][]tmdb.CatalogItem{"dune": {dune}, "heat": {{ID: 949, Title: "Heat", Kind: tmdb.KindMovie}}},
		gates: map[string]chan struct{}{"dune": duneGate},
	}
	counter := &mockBackend{}
	s := NewSearch(ctxBG, catalog, counter, newHistory(t), tmdb.KindMovie, 5*time.Millisecond, nopLog)

	s.SetQuery("dune")
	require.Eventually(t, func() bool {
		return len(catalog.Queries()) == 1
	}, time.Second, time.Millisecond)

	s.SetQuery("heat")
	require.Eventually(t, func() bool {
		return len(catalog.Queries()) == 2
	}, time.Second, time.Millisecond)

	close(duneGate)
	state, err := s.Wait(ctxBG)
	require.NoError(t, err)

	assert.Equal(t, fetch.StatusLoaded, state.Status)
	require.Len(t, state.Data, 1)
	assert.Equal(t, "Heat", state.Data[0].Title)
	assert.Equal(t, []increment{{term: "heat", id: 949}}, counter.Increments())
}

func TestSearch_CounterFailureIsSwallowed(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{"dune": {dune}}}
	counter := &mockBackend{counterErr: errors.New("appwrite down")}
	s := NewSearch(ctxBG, catalog, counter, newHistory(t), tmdb.KindMovie, 0, nopLog)

	state, err := s.Submit(ctxBG, "dune")
	require.NoError(t, err)
	assert.Equal(t, fetch.StatusLoaded, state.Status)
	assert.Len(t, state.Data, 1)
	assert.Len(t, counter.Increments(), 1)
}

func TestSearch_NoResultsNoCount(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{}}
	counter := &mockBackend{}
	s := NewSearch(ctxBG, catalog, counter, newHistory(t), tmdb.KindMovie, 0, nopLog)

	state, err := s.Submit(ctxBG, "zzzz")
	require.NoError(t, err)
	assert.Equal(t, fetch.StatusLoaded, state.Status)
	assert.Empty(t, state.Data)
	assert.Empty(t, counter.Increments())
}

func TestSearch_SubmitRecordsHistory(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{"dune": {dune}, "heat": {}}}
	s := NewSearch(ctxBG, catalog, &mockBackend{}, newHistory(t), tmdb.KindMovie, 0, nopLog)

	_, err := s.Submit(ctxBG, "dune")
	require.NoError(t, err)
	_, err = s.Submit(ctxBG, "heat")
	require.NoError(t, err)
	_, err = s.Submit(ctxBG, "dune")
	require.NoError(t, err)
	assert.Equal(t, []string{"dune", "heat"}, s.History(ctxBG))

	state, err := s.Submit(ctxBG, " ")
	require.NoError(t, err)
	assert.Equal(t, fetch.StatusIdle, state.Status)
	assert.Len(t, s.History(ctxBG), 2)

	s.ClearHistory(ctxBG)
	assert.Empty(t, s.History(ctxBG))
}

func TestSearch_CatalogFailure(t *testing.T) {
	catalog := &mockCatalog{err: errors.New("tmdb unavailable")}
	s := NewSearch(ctxBG, catalog, &mockBackend{}, newHistory(t), tmdb.KindMovie, 0, nopLog)

	state, err := s.Submit(ctxBG, "dune")
	require.NoError(t, err)
	assert.Equal(t, fetch.StatusFailed, state.Status)
	assert.EqualError(t, state.Err, "tmdb unavailable")
}

func TestDetail_ToggleSaved(t *testing.T) {
	catalog := &mockCatalog{}
	library := &mockBackend{}
	user := &backend.User{ID: "u1", Username: "ada"}

	t.Run("requires login", func(t *testing.T) {
		d := NewDetail(ctxBG, catalog, library, stubSession{}, tmdb.KindMovie, 42, nopLog)
		_, err := d.Wait(ctxBG)
		require.NoError(t, err)
		assert.False(t, d.RefreshSaved(ctxBG))

		_, err = d.ToggleSaved(ctxBG)
		assert.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("save then remove", func(t *testing.T) {
		d := NewDetail(ctxBG, catalog, library, stubSession{user: user}, tmdb.KindMovie, 42, nopLog)
		state, err := d.Wait(ctxBG)
		require.NoError(t, err)
		require.Equal(t, fetch.StatusLoaded, state.Status)
		assert.Equal(t, "Movie 42", state.Data.Item.Title)
		assert.NotNil(t, state.Data.Movie)

		assert.False(t, d.RefreshSaved(ctxBG))

		saved, err := d.ToggleSaved(ctxBG)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.True(t, d.IsSaved())
		require.Len(t, library.ListSavedItems(ctxBG, "u1"), 1)

		// a fresh screen finds the saved item
		other := NewDetail(ctxBG, catalog, library, stubSession{user: user}, tmdb.KindMovie, 42, nopLog)
		assert.True(t, other.RefreshSaved(ctxBG))

		saved, err = d.ToggleSaved(ctxBG)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Empty(t, library.ListSavedItems(ctxBG, "u1"))
	})

	t.Run("remove failure keeps saved state", func(t *testing.T) {
		lib := &mockBackend{}
		d := NewDetail(ctxBG, catalog, lib, stubSession{user: user}, tmdb.KindMovie, 7, nopLog)
		_, err := d.Wait(ctxBG)
		require.NoError(t, err)
		_, err = d.ToggleSaved(ctxBG)
		require.NoError(t, err)

		lib.removeFail = true
		saved, err := d.ToggleSaved(ctxBG)
		assert.ErrorIs(t, err, ErrRemoveFailed)
		assert.True(t, saved)
		assert.True(t, d.IsSaved())
	})

	t.Run("show and movie with same id are distinct", func(t *testing.T) {
		lib := &mockBackend{}
		movie := NewDetail(ctxBG, catalog, lib, stubSession{user: user}, tmdb.KindMovie, 9, nopLog)
		_, err := movie.Wait(ctxBG)
		require.NoError(t, err)
		_, err = movie.ToggleSaved(ctxBG)
		require.NoError(t, err)

		show := NewDetail(ctxBG, catalog, lib, stubSession{user: user}, tmdb.KindTV, 9, nopLog)
		state, err := show.Wait(ctxBG)
		require.NoError(t, err)
		assert.Equal(t, "Show 9", state.Data.Item.Title)
		assert.NotNil(t, state.Data.TV)
		assert.False(t, show.RefreshSaved(ctxBG))
	})

	t.Run("toggle without refresh removes existing bookmark", func(t *testing.T) {
		lib := &mockBackend{}
		_, err := lib.SaveItem(ctxBG, tmdb.CatalogItem{ID: 11, Title: "Star Wars", Kind: tmdb.KindMovie}, "u1")
		require.NoError(t, err)

		d := NewDetail(ctxBG, catalog, lib, stubSession{user: user}, tmdb.KindMovie, 11, nopLog)
		_, err = d.Wait(ctxBG)
		require.NoError(t, err)

		saved, err := d.ToggleSaved(ctxBG)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Empty(t, lib.ListSavedItems(ctxBG, "u1"))
	})

	t.Run("signed-out lookup is redone after login", func(t *testing.T) {
		lib := &mockBackend{}
		_, err := lib.SaveItem(ctxBG, tmdb.CatalogItem{ID: 12, Title: "Alien", Kind: tmdb.KindMovie}, "u1")
		require.NoError(t, err)

		sess := &switchSession{}
		d := NewDetail(ctxBG, catalog, lib, sess, tmdb.KindMovie, 12, nopLog)
		_, err = d.Wait(ctxBG)
		require.NoError(t, err)
		assert.False(t, d.RefreshSaved(ctxBG))

		sess.user = user
		saved, err := d.ToggleSaved(ctxBG)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Empty(t, lib.ListSavedItems(ctxBG, "u1"))
	})

	t.Run("not loaded", func(t *testing.T) {
		d := NewDetail(ctxBG, &mockCatalog{err: errors.New("404")}, &mockBackend{}, stubSession{user: user}, tmdb.KindMovie, 1, nopLog)
		state, err := d.Wait(ctxBG)
		require.NoError(t, err)
		assert.Equal(t, fetch.StatusFailed, state.Status)

		_, err = d.ToggleSaved(ctxBG)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})
}

func TestHome(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{"": {dune, dune2}}}
	h := NewHome(ctxBG, catalog, &mockBackend{}, tmdb.KindMovie, nopLog)

	require.NoError(t, h.Wait(ctxBG))
	popular := h.Popular.State()
	assert.Equal(t, fetch.StatusLoaded, popular.Status)
	assert.Equal(t, []tmdb.CatalogItem{dune, dune2}, popular.Data)

	trending := h.Trending.State()
	assert.Equal(t, fetch.StatusLoaded, trending.Status)
	require.Len(t, trending.Data, 2)
	assert.Equal(t, "dune", trending.Data[0].Term)

	h.Refresh(ctxBG)
	require.NoError(t, h.Wait(ctxBG))
	assert.Equal(t, []string{"", ""}, catalog.Queries())
}

func TestHome_TrendingFollowsKind(t *testing.T) {
	catalog := &mockCatalog{items: map[string][]tmdb.CatalogItem{}}
	trending := &mockBackend{}
	h := NewHome(ctxBG, catalog, trending, tmdb.KindTV, nopLog)

	require.NoError(t, h.Wait(ctxBG))
	state := h.Trending.State()
	require.Len(t, state.Data, 1)
	assert.Equal(t, "severance", state.Data[0].Term)
	assert.Equal(t, []tmdb.MediaKind{tmdb.KindTV}, trending.trendingKinds)
}

func TestSaved(t *testing.T) {
	lib := &mockBackend{}
	_, err := lib.SaveItem(ctxBG, dune, "u1")
	require.NoError(t, err)

	signedOut := NewSaved(ctxBG, lib, stubSession{}, nopLog)
	state, err := signedOut.Items.Wait(ctxBG)
	require.NoError(t, err)
	assert.Equal(t, fetch.StatusLoaded, state.Status)
	assert.Empty(t, state.Data)

	signedIn := NewSaved(ctxBG, lib, stubSession{user: &backend.User{ID: "u1"}}, nopLog)
	state, err = signedIn.Items.Wait(ctxBG)
	require.NoError(t, err)
	require.Len(t, state.Data, 1)
	assert.Equal(t, "Dune", state.Data[0].Title)
}
