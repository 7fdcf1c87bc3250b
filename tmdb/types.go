package tmdb

import (
	"fmt"
	"strings"
)

// MediaKind distinguishes movie records from TV records
type MediaKind string

const (
	// KindMovie represents a movie
	KindMovie MediaKind = "movie"
	// KindTV represents a TV show
	KindTV MediaKind = "tv"
)

// ParseMediaKind parses a media kind, accepting "show" and "series" as aliases for tv
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "":
		return KindMovie, nil
	case "tv", "show", "shows", "series":
		return KindTV, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// OrDefault returns the kind, or KindMovie when the kind is unset
func (k MediaKind) OrDefault() MediaKind {
	if k == "" {
		return KindMovie
	}
	return k
}

// CatalogItem is the normalized shape shared by movies and TV shows
type CatalogItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PosterPath  *string   `json:"poster_path"`
	VoteAverage float64   `json:"vote_average"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Overview    string    `json:"overview,omitempty"`
	Popularity  float64   `json:"popularity,omitempty"`
	Kind        MediaKind `json:"media_type"`
}

// Poster returns the poster path or an empty string
func (i CatalogItem) Poster() string {
	if i.PosterPath == nil {
		return ""
	}
	return *i.PosterPath
}

// Year returns the release year, or 0 when the release date is absent or malformed
func (i CatalogItem) Year() int {
	if len(i.ReleaseDate) < 4 {
		return 0
	}
	var year int
	if _, err := fmt.Sscanf(i.ReleaseDate[:4], "%d", &year); err != nil {
		return 0
	}
	return year
}

// rawItem is a list entry as returned by the discover and search endpoints
type rawItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   *string `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	Popularity   float64 `json:"popularity"`
}

// normalize maps a raw entry into a CatalogItem. TV entries carry name and
// first_air_date instead of title and release_date.
func (r rawItem) normalize(kind MediaKind) CatalogItem {
	item := CatalogItem{
		ID:          r.ID,
		Title:       r.Title,
		PosterPath:  r.PosterPath,
		VoteAverage: r.VoteAverage,
		ReleaseDate: r.ReleaseDate,
		Overview:    r.Overview,
		Popularity:  r.Popularity,
		Kind:        kind,
	}
	if kind == KindTV {
		item.Title = r.Name
		item.ReleaseDate = r.FirstAirDate
	}
	return item
}

// listResponse models the paginated list endpoints
type listResponse struct {
	Page         int       `json:"page"`
	Results      []rawItem `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

// Genre is a movie or TV genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Company is a production company
type Company struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	LogoPath      *string `json:"logo_path"`
	OriginCountry string  `json:"origin_country"`
}

// MovieDetails is the response from GET /movie/{id}
type MovieDetails struct {
	ID                  int64     `json:"id"`
	IMDBID              string    `json:"imdb_id"`
	Title               string    `json:"title"`
	Tagline             string    `json:"tagline"`
	Overview            string    `json:"overview"`
	ReleaseDate         string    `json:"release_date"`
	Runtime             int       `json:"runtime"`
	Status              string    `json:"status"`
	VoteAverage         float64   `json:"vote_average"`
	VoteCount           int64     `json:"vote_count"`
	Budget              int64     `json:"budget"`
	Revenue             int64     `json:"revenue"`
	PosterPath          *string   `json:"poster_path"`
	BackdropPath        *string   `json:"backdrop_path"`
	Genres              []Genre   `json:"genres"`
	ProductionCompanies []Company `json:"production_companies"`
}

// Item returns the catalog view of the movie
func (m *MovieDetails) Item() CatalogItem {
	return CatalogItem{
		ID:          m.ID,
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		VoteAverage: m.VoteAverage,
		ReleaseDate: m.ReleaseDate,
		Overview:    m.Overview,
		Kind:        KindMovie,
	}
}

// SeasonSummary is a season entry embedded in the TV details payload
type SeasonSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      string  `json:"air_date"`
	PosterPath   *string `json:"poster_path"`
}

// Episode describes a single episode
type Episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Runtime       int     `json:"runtime"`
	AirDate       string  `json:"air_date"`
	StillPath     *string `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
}

// SeasonDetails is the response from GET /tv/{id}/season/{n}
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	PosterPath   *string   `json:"poster_path"`
	Episodes     []Episode `json:"episodes"`
}

// TVDetails is the response from GET /tv/{id}?append_to_response=season/1
type TVDetails struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Tagline             string          `json:"tagline"`
	Overview            string          `json:"overview"`
	FirstAirDate        string          `json:"first_air_date"`
	LastAirDate         string          `json:"last_air_date"`
	Status              string          `json:"status"`
	EpisodeRunTime      []int           `json:"episode_run_time"`
	NumberOfSeasons     int             `json:"number_of_seasons"`
	NumberOfEpisodes    int             `json:"number_of_episodes"`
	VoteAverage         float64         `json:"vote_average"`
	VoteCount           int64           `json:"vote_count"`
	PosterPath          *string         `json:"poster_path"`
	BackdropPath        *string         `json:"backdrop_path"`
	Genres              []Genre         `json:"genres"`
	ProductionCompanies []Company       `json:"production_companies"`
	Seasons             []SeasonSummary `json:"seasons"`
	FirstSeason         *SeasonDetails  `json:"season/1,omitempty"`
}

// Item returns the catalog view of the show
func (t *TVDetails) Item() CatalogItem {
	return CatalogItem{
		ID:          t.ID,
		Title:       t.Name,
		PosterPath:  t.PosterPath,
		VoteAverage: t.VoteAverage,
		ReleaseDate: t.FirstAirDate,
		Overview:    t.Overview,
		Kind:        KindTV,
	}
}

// Runtime returns the typical episode runtime in minutes
func (t *TVDetails) Runtime() int {
	if len(t.EpisodeRunTime) == 0 {
		return 0
	}
	return t.EpisodeRunTime[0]
}

// SeasonNumbers returns the numbers of all regular seasons. Specials (season 0) are skipped.
func (t *TVDetails) SeasonNumbers() []int {
	numbers := make([]int, 0, len(t.Seasons))
	for _, s := range t.Seasons {
		if s.SeasonNumber > 0 {
			numbers = append(numbers, s.SeasonNumber)
		}
	}
	return numbers
}
