package backend

import (
	"time"

	"github.com/s0up4200/marquee/appwrite"
	"github.com/s0up4200/marquee/tmdb"
)

// User is the authenticated account as seen by the screens
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// SavedItem is a catalog item bookmarked by a user
type SavedItem struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	CatalogID   int64          `json:"catalog_id"`
	Title       string         `json:"title"`
	PosterPath  *string        `json:"poster_path"`
	VoteAverage float64        `json:"vote_average"`
	ReleaseDate string         `json:"release_date,omitempty"`
	Kind        tmdb.MediaKind `json:"media_type"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Matches reports whether the saved item refers to the given catalog item
func (s SavedItem) Matches(item tmdb.CatalogItem) bool {
	return s.CatalogID == item.ID && s.Kind.OrDefault() == item.Kind.OrDefault()
}

// Item returns the denormalized catalog view of the saved item
func (s SavedItem) Item() tmdb.CatalogItem {
	return tmdb.CatalogItem{
		ID:          s.CatalogID,
		Title:       s.Title,
		PosterPath:  s.PosterPath,
		VoteAverage: s.VoteAverage,
		ReleaseDate: s.ReleaseDate,
		Kind:        s.Kind,
	}
}

// SearchCounter aggregates how often a search term produced results
type SearchCounter struct {
	ID        string         `json:"id"`
	Term      string         `json:"search_term"`
	CatalogID int64          `json:"catalog_id"`
	Title     string         `json:"title"`
	PosterURL string         `json:"poster_url"`
	Count     int            `json:"count"`
	Kind      tmdb.MediaKind `json:"media_type"`
}

// savedDocument is the stored shape of a saved item. Documents written
// before shows could be saved have no type attribute; they are movies.
type savedDocument struct {
	appwrite.Document
	UserID      string         `json:"user_id"`
	MovieID     int64          `json:"movie_id"`
	Title       string         `json:"title"`
	PosterPath  *string        `json:"poster_path"`
	VoteAverage float64        `json:"vote_average"`
	ReleaseDate string         `json:"release_date"`
	Type        tmdb.MediaKind `json:"type,omitempty"`
}

func (d savedDocument) toSavedItem() SavedItem {
	created, _ := parseTimestamp(d.CreatedAt)
	return SavedItem{
		ID:          d.ID,
		UserID:      d.UserID,
		CatalogID:   d.MovieID,
		Title:       d.Title,
		PosterPath:  d.PosterPath,
		VoteAverage: d.VoteAverage,
		ReleaseDate: d.ReleaseDate,
		Kind:        d.Type.OrDefault(),
		CreatedAt:   created,
	}
}

type savedData struct {
	UserID      string         `json:"user_id"`
	MovieID     int64          `json:"movie_id"`
	Title       string         `json:"title"`
	PosterPath  *string        `json:"poster_path"`
	VoteAverage float64        `json:"vote_average"`
	ReleaseDate string         `json:"release_date"`
	Type        tmdb.MediaKind `json:"type"`
}

// counterDocument is the stored shape of a search counter
type counterDocument struct {
	appwrite.Document
	SearchTerm string         `json:"searchTerm"`
	MovieID    int64          `json:"movie_id"`
	Count      int            `json:"count"`
	Title      string         `json:"title"`
	PosterURL  string         `json:"poster_url"`
	Type       tmdb.MediaKind `json:"type,omitempty"`
}

func (d counterDocument) toCounter() SearchCounter {
	return SearchCounter{
		ID:        d.ID,
		Term:      d.SearchTerm,
		CatalogID: d.MovieID,
		Title:     d.Title,
		PosterURL: d.PosterURL,
		Count:     d.Count,
		Kind:      d.Type.OrDefault(),
	}
}

type counterData struct {
	SearchTerm string         `json:"searchTerm"`
	MovieID    int64          `json:"movie_id"`
	Count      int            `json:"count"`
	Title      string         `json:"title"`
	PosterURL  string         `json:"poster_url"`
	Type       tmdb.MediaKind `json:"type"`
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
