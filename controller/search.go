package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/fetch"
	"github.com/s0up4200/marquee/history"
	"github.com/s0up4200/marquee/tmdb"
)

// Search drives the search screen: typed queries are debounced into catalog
// searches, submitted queries go into the history and the first result of a
// search is counted towards trending.
type Search struct {
	catalog Catalog
	counter SearchCounter
	history *history.History
	kind    tmdb.MediaKind
	logger  zerolog.Logger

	ctx       context.Context
	debouncer *fetch.Debouncer
	results   *fetch.Hook[[]tmdb.CatalogItem]

	mu    sync.Mutex
	query string
}

// NewSearch creates a search controller. ctx bounds every search it starts.
func NewSearch(ctx context.Context, catalog Catalog, counter SearchCounter, hist *history.History, kind tmdb.MediaKind, debounce time.Duration, logger zerolog.Logger) *Search {
	s := &Search{
		catalog:   catalog,
		counter:   counter,
		history:   hist,
		kind:      kind.OrDefault(),
		logger:    logger.With().Str("screen", "search").Logger(),
		ctx:       ctx,
		debouncer: fetch.NewDebouncer(debounce),
	}
	s.results = fetch.New(ctx, s.search, false, fetch.WithLogger(s.logger, "search"))
	return s
}

// search is the producer behind the results hook
func (s *Search) search(ctx context.Context) ([]tmdb.CatalogItem, error) {
	query := s.Query()
	items, err := s.catalog.FetchCatalog(ctx, query, s.kind)
	if err != nil {
		return nil, err
	}

	if query == "" || len(items) == 0 {
		return items, nil
	}

	// a superseded query is not counted
	if current := s.Query(); current != query {
		s.logger.Debug().Str("query", query).Str("current", current).Msg("Skipping search count for superseded query")
		return items, nil
	}
	if err := s.counter.IncrementSearchCount(ctx, query, items[0]); err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Failed to update search count")
	}
	return items, nil
}

// Query returns the current trimmed query
func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery records typed input. A blank query clears the results right
// away; anything else searches once typing pauses.
func (s *Search) SetQuery(query string) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	if query == "" {
		s.debouncer.Cancel()
		s.results.Reset()
		return
	}
	s.debouncer.Trigger(func() {
		s.results.Refetch(s.ctx)
	})
}

// Submit searches for query immediately, waits for the results and adds the
// query to the history
func (s *Search) Submit(ctx context.Context, query string) (fetch.State[[]tmdb.CatalogItem], error) {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	s.debouncer.Cancel()

	if query == "" {
		s.results.Reset()
		return s.results.State(), nil
	}

	s.history.Add(ctx, query)
	return s.results.Run(ctx)
}

// Results returns the current state of the search results
func (s *Search) Results() fetch.State[[]tmdb.CatalogItem] {
	return s.results.State()
}

// Wait blocks until no search is pending and returns the results
func (s *Search) Wait(ctx context.Context) (fetch.State[[]tmdb.CatalogItem], error) {
	return s.results.Wait(ctx)
}

// History returns the recent search terms
func (s *Search) History(ctx context.Context) []string {
	return s.history.Load(ctx)
}

// ClearHistory forgets the recent search terms
func (s *Search) ClearHistory(ctx context.Context) {
	s.history.Clear(ctx)
}
