package controller

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/fetch"
	"github.com/s0up4200/marquee/tmdb"
)

// Home drives the landing screen: the popular list and trending searches,
// both for a single media kind
type Home struct {
	Popular  *fetch.Hook[[]tmdb.CatalogItem]
	Trending *fetch.Hook[[]backend.SearchCounter]
}

// NewHome creates the home controller; both lists start loading immediately
func NewHome(ctx context.Context, catalog Catalog, trending Trending, kind tmdb.MediaKind, logger zerolog.Logger) *Home {
	logger = logger.With().Str("screen", "home").Logger()
	kind = kind.OrDefault()

	return &Home{
		Popular: fetch.New(ctx, func(ctx context.Context) ([]tmdb.CatalogItem, error) {
			return catalog.FetchCatalog(ctx, "", kind)
		}, true, fetch.WithLogger(logger, "popular")),
		Trending: fetch.New(ctx, func(ctx context.Context) ([]backend.SearchCounter, error) {
			return trending.TrendingSearches(ctx, kind, backend.DefaultTrendingLimit), nil
		}, true, fetch.WithLogger(logger, "trending")),
	}
}

// Refresh reloads both lists
func (h *Home) Refresh(ctx context.Context) {
	h.Popular.Refetch(ctx)
	h.Trending.Refetch(ctx)
}

// Wait blocks until both lists settled
func (h *Home) Wait(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := h.Popular.Wait(ctx)
		return err
	})
	g.Go(func() error {
		_, err := h.Trending.Wait(ctx)
		return err
	})
	return g.Wait()
}
