package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultSessionKey is the key the BaaS session cookies are stored under
const DefaultSessionKey = "appwrite_session"

// SessionStore persists BaaS session cookies in a Store
type SessionStore struct {
	store Store
	key   string
}

// NewSessionStore stores the session under key, or DefaultSessionKey when blank
func NewSessionStore(store Store, key string) *SessionStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{store: store, key: key}
}

// LoadSession returns the stored cookies, or nil when none are stored
func (s *SessionStore) LoadSession(ctx context.Context) (map[string]string, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		return nil, err
	}
	var cookies map[string]string
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return cookies, nil
}

// SaveSession replaces the stored cookies
func (s *SessionStore) SaveSession(ctx context.Context, cookies map[string]string) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Set(ctx, s.key, string(data))
}

// ClearSession removes the stored cookies
func (s *SessionStore) ClearSession(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}
