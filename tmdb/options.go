package tmdb

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLanguage sets the ISO 639-1 language sent with every request.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = language
	}
}

// WithSeasonConcurrency bounds the number of season requests AllSeasons runs at once.
func WithSeasonConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.seasonConcurrency = n
		}
	}
}
