// Package session tracks who is signed in for the screens of one process.
//
// State does not observe sign-in or sign-out on its own; callers that change
// the session must call Refetch afterwards.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/backend"
)

// UserSource resolves the current user, returning nil when signed out
type UserSource interface {
	CurrentUser(ctx context.Context) *backend.User
}

// Snapshot is a copy of the session state
type Snapshot struct {
	LoggedIn bool          `json:"logged_in"`
	User     *backend.User `json:"user,omitempty"`
	Loading  bool          `json:"loading"`
}

// State holds the signed-in user
type State struct {
	source UserSource
	logger zerolog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a state that is loading until the first Refetch completes
func New(source UserSource, logger zerolog.Logger) *State {
	return &State{
		source: source,
		logger: logger.With().Str("component", "session").Logger(),
		snap:   Snapshot{Loading: true},
	}
}

// Refetch reloads the current user and returns the new snapshot
func (s *State) Refetch(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.snap.Loading = true
	s.mu.Unlock()

	user := s.source.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		LoggedIn: user != nil,
		User:     user,
		Loading:  false,
	}

	if user != nil {
		s.logger.Debug().Str("user", user.ID).Msg("Session refreshed")
	} else {
		s.logger.Debug().Msg("Session refreshed: signed out")
	}
	return s.snap
}

// Snapshot returns the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// User returns the signed-in user or nil
func (s *State) User() *backend.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.User
}

// LoggedIn reports whether a user is signed in
func (s *State) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.LoggedIn
}
