package controller

import (
	"context"
	"errors"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/tmdb"
)

// Common errors
var (
	// ErrLoginRequired is returned by actions that need a signed-in user
	ErrLoginRequired = errors.New("please login to save items to your collection")
	// ErrNotLoaded is returned when acting on a detail screen before it loaded
	ErrNotLoaded = errors.New("item is not loaded")
	// ErrBusy is returned while a previous toggle is still running
	ErrBusy = errors.New("a save operation is already in progress")
	// ErrRemoveFailed is returned when the saved item could not be removed
	ErrRemoveFailed = errors.New("failed to remove saved item")
)

// Catalog is the subset of the catalog client the screens use
type Catalog interface {
	FetchCatalog(ctx context.Context, query string, kind tmdb.MediaKind) ([]tmdb.CatalogItem, error)
	MovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	TVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
}

// SearchCounter records which term led to which item
type SearchCounter interface {
	IncrementSearchCount(ctx context.Context, term string, item tmdb.CatalogItem) error
}

// Library is the saved-items part of the backend
type Library interface {
	SaveItem(ctx context.Context, item tmdb.CatalogItem, userID string) (*backend.SavedItem, error)
	ListSavedItems(ctx context.Context, userID string) []backend.SavedItem
	RemoveSavedItem(ctx context.Context, documentID string) bool
}

// Trending lists the most searched terms
type Trending interface {
	TrendingSearches(ctx context.Context, kind tmdb.MediaKind, limit int) []backend.SearchCounter
}

// Session exposes the signed-in user
type Session interface {
	User() *backend.User
}

var (
	_ Catalog       = (*tmdb.Client)(nil)
	_ SearchCounter = (*backend.Service)(nil)
	_ Library       = (*backend.Service)(nil)
	_ Trending      = (*backend.Service)(nil)
)
