package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to the Appwrite REST API on behalf of a single end user
type Client struct {
	endpoint  string
	projectID string
	http      *resty.Client
	sessions  SessionStore
	logger    zerolog.Logger

	mu      sync.Mutex
	cookies map[string]string
	loaded  bool
}

// NewClient creates a new Appwrite client for the given endpoint (".../v1") and project
func NewClient(endpoint, projectID string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: endpoint: %v", ErrInvalidConfig, err)
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidConfig)
	}

	c := &Client{
		endpoint:  endpoint,
		projectID: projectID,
		sessions:  NewMemorySessionStore(),
		logger:    logger.With().Str("component", "appwrite").Logger(),
	}

	c.http = resty.New().
		SetBaseURL(endpoint).
		SetTimeout(30*time.Second).
		SetHeader("X-Appwrite-Project", projectID).
		SetHeader("X-Appwrite-Response-Format", "1.6.0").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewID returns a client-generated identifier accepted by Appwrite
// (at most 36 characters of a-z, 0-9).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Endpoint returns the API endpoint the client was configured with
func (c *Client) Endpoint() string {
	return c.endpoint
}

// sessionHeader returns the X-Fallback-Cookies value for the current session, loading
// persisted cookies on first use
func (c *Client) sessionHeader(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.loaded = true
		stored, err := c.sessions.LoadSession(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to load stored session")
		} else {
			c.cookies = stored
		}
	}

	if len(c.cookies) == 0 {
		return ""
	}
	b, err := json.Marshal(c.cookies)
	if err != nil {
		return ""
	}
	return string(b)
}

// rememberSession stores session cookies returned by the server
func (c *Client) rememberSession(ctx context.Context, cookies map[string]string) {
	c.mu.Lock()
	c.cookies = cookies
	c.loaded = true
	c.mu.Unlock()

	if err := c.sessions.SaveSession(ctx, cookies); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to persist session")
	}
}

// forgetSession drops any cookies held for the current session
func (c *Client) forgetSession(ctx context.Context) {
	c.mu.Lock()
	c.cookies = nil
	c.loaded = true
	c.mu.Unlock()

	// the cookie jar would otherwise keep replaying the deleted session
	if u, err := url.Parse(c.endpoint); err == nil && c.http.GetClient().Jar != nil {
		jar := c.http.GetClient().Jar
		var expired []*http.Cookie
		for _, ck := range jar.Cookies(u) {
			if strings.HasPrefix(ck.Name, sessionCookiePrefix) {
				expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
			}
		}
		if len(expired) > 0 {
			jar.SetCookies(u, expired)
		}
	}

	if err := c.sessions.ClearSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear stored session")
	}
}

// request describes a single API call
type request struct {
	operation string
	method    string
	path      string
	params    map[string]string
	query     url.Values
	body      any
	result    any
}

// do executes a request and converts error responses into *APIError
func (c *Client) do(ctx context.Context, r request) (*resty.Response, error) {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})

	if header := c.sessionHeader(ctx); header != "" {
		req.SetHeader(fallbackCookiesHeader, header)
	}
	if r.params != nil {
		req.SetPathParams(r.params)
	}
	if r.query != nil {
		req.SetQueryParamsFromValues(r.query)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}
	if r.result != nil {
		req.SetResult(r.result)
	}

	resp, err := req.Execute(r.method, r.path)
	if err != nil {
		requestsTotal.WithLabelValues(r.operation, "network_error").Inc()
		return nil, fmt.Errorf("appwrite %s request failed: %w", r.operation, err)
	}

	c.logger.Debug().
		Str("operation", r.operation).
		Str("method", r.method).
		Int("status", resp.StatusCode()).
		Dur("latency", resp.Time()).
		Msg("Appwrite request completed")

	if resp.IsError() {
		requestsTotal.WithLabelValues(r.operation, "http_error").Inc()
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok && eb.Message != "" {
			apiErr.Type = eb.Type
			apiErr.Message = eb.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return resp, apiErr
	}

	requestsTotal.WithLabelValues(r.operation, "ok").Inc()
	return resp, nil
}
