package appwrite

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

const (
	fallbackCookiesHeader = "X-Fallback-Cookies"
	sessionCookiePrefix   = "a_session_"
)

// SessionStore persists the session cookies between processes
type SessionStore interface {
	LoadSession(ctx context.Context) (map[string]string, error)
	SaveSession(ctx context.Context, cookies map[string]string) error
	ClearSession(ctx context.Context) error
}

// MemorySessionStore keeps session cookies for the lifetime of the process
type MemorySessionStore struct {
	mu      sync.Mutex
	cookies map[string]string
}

// NewMemorySessionStore creates an empty in-process session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// LoadSession returns a copy of the stored cookies
func (m *MemorySessionStore) LoadSession(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCookies(m.cookies), nil
}

// SaveSession replaces the stored cookies
func (m *MemorySessionStore) SaveSession(_ context.Context, cookies map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies = copyCookies(cookies)
	return nil
}

// ClearSession drops the stored cookies
func (m *MemorySessionStore) ClearSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies = nil
	return nil
}

func copyCookies(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// extractSessionCookies collects session cookies from the fallback header
// and from Set-Cookie. An empty map means the response carried none.
func extractSessionCookies(header http.Header, cookies []*http.Cookie) map[string]string {
	found := make(map[string]string)

	if raw := header.Get(fallbackCookiesHeader); raw != "" {
		var fallback map[string]string
		if err := json.Unmarshal([]byte(raw), &fallback); err == nil {
			for k, v := range fallback {
				if strings.HasPrefix(k, sessionCookiePrefix) && v != "" {
					found[k] = v
				}
			}
		}
	}

	for _, c := range cookies {
		if strings.HasPrefix(c.Name, sessionCookiePrefix) && c.Value != "" && c.MaxAge >= 0 {
			found[c.Name] = c.Value
		}
	}

	return found
}
