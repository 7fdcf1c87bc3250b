package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// ImageBaseURL is the root for poster and still images
	ImageBaseURL = "https://image.tmdb.org/t/p/"
)

// Client represents a TMDB API client
type Client struct {
	baseURL           string
	apiKey            string
	language          string
	seasonConcurrency int
	httpClient        *http.Client
	logger            zerolog.Logger
}

// NewClient creates a new TMDB client. The API key is sent as a bearer token.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		apiKey:            apiKey,
		seasonConcurrency: 4,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "tmdb").Logger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// doRequest performs an authenticated GET and decodes the JSON body into out
func (c *Client) doRequest(ctx context.Context, name, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" {
		params.Set("language", c.language)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		requestsTotal.WithLabelValues(name, "network_error").Inc()
		return fmt.Errorf("tmdb %s request failed (latency=%v): %w", name, latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(name, "network_error").Inc()
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", path).
		Int("status", resp.StatusCode).
		Dur("latency", latency).
		Msg("TMDB request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		requestsTotal.WithLabelValues(name, "http_error").Inc()
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: path}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.StatusMessage != "" {
			apiErr.Message = eb.StatusMessage
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		requestsTotal.WithLabelValues(name, "decode_error").Inc()
		return fmt.Errorf("failed to parse %s response: %w", name, err)
	}
	requestsTotal.WithLabelValues(name, "ok").Inc()
	return nil
}

// FetchCatalog returns catalog items for the given kind. A blank query returns
// the discover list sorted by popularity; anything else is a text search.
// Items are returned in upstream order.
func (c *Client) FetchCatalog(ctx context.Context, query string, kind MediaKind) ([]CatalogItem, error) {
	kind = kind.OrDefault()
	if kind != KindMovie && kind != KindTV {
		return nil, fmt.Errorf("unsupported media kind %q", kind)
	}

	params := url.Values{}
	var name, path string
	if q := strings.TrimSpace(query); q != "" {
		name, path = "search", "/search/"+string(kind)
		params.Set("query", q)
	} else {
		name, path = "discover", "/discover/"+string(kind)
		params.Set("sort_by", "popularity.desc")
	}

	var payload listResponse
	if err := c.doRequest(ctx, name, path, params, &payload); err != nil {
		return nil, err
	}

	items := make([]CatalogItem, 0, len(payload.Results))
	for _, r := range payload.Results {
		items = append(items, r.normalize(kind))
	}

	c.logger.Debug().
		Str("kind", string(kind)).
		Str("query", query).
		Int("count", len(items)).
		Msg("Retrieved catalog items")

	return items, nil
}

// MovieDetails fetches movie details by TMDB ID
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, ErrInvalidID
	}
	var payload MovieDetails
	if err := c.doRequest(ctx, "movie", fmt.Sprintf("/movie/%d", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// TVDetails fetches show details by TMDB ID with the first season appended
func (c *Client) TVDetails(ctx context.Context, showID int64) (*TVDetails, error) {
	if showID <= 0 {
		return nil, ErrInvalidID
	}
	params := url.Values{}
	params.Set("append_to_response", "season/1")

	var payload TVDetails
	if err := c.doRequest(ctx, "tv", fmt.Sprintf("/tv/%d", showID), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SeasonDetails fetches a season of a show, episodes included
func (c *Client) SeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, ErrInvalidID
	}
	if seasonNumber < 0 {
		return nil, fmt.Errorf("season number must not be negative")
	}
	var payload SeasonDetails
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if err := c.doRequest(ctx, "season", path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PosterURL builds an image URL for a poster path at the given size (w92 … w780, original)
func PosterURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return ImageBaseURL + size + path
}
