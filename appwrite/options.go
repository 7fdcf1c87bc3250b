package appwrite

import (
	"crypto/tls"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// WithSessionStore persists session cookies through store instead of keeping
// them in memory only.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		if store != nil {
			c.sessions = store
		}
	}
}

// WithSelfSigned accepts self-signed certificates.
// Use with caution and only for development/testing.
func WithSelfSigned(enabled bool) Option {
	return func(c *Client) {
		if enabled {
			c.http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
		}
	}
}
