package tmdb

import (
	"context"
)

// API defines the catalog operations used by the rest of the application
type API interface {
	// FetchCatalog returns the popularity-ranked discover list for an empty
	// query, or the search results for a non-empty one
	FetchCatalog(ctx context.Context, query string, kind MediaKind) ([]CatalogItem, error)

	// MovieDetails retrieves the expanded record of a movie
	MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)

	// TVDetails retrieves the expanded record of a show, first season included
	TVDetails(ctx context.Context, showID int64) (*TVDetails, error)

	// SeasonDetails retrieves a single season with its episodes
	SeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error)
}

var _ API = (*Client)(nil)
