// Package history keeps the recent search terms entered on this device.
//
// Terms are stored most recent first as a JSON array under one key. Storage
// failures never reach the caller: they are logged and the operation becomes
// a no-op.
package history

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/kvstore"
)

const (
	// Key is the store key holding the history
	Key = "search_history"
	// MaxEntries bounds the number of remembered terms
	MaxEntries = 10
)

// History reads and writes the search history in a kvstore.Store
type History struct {
	store  kvstore.Store
	logger zerolog.Logger
}

// New creates a History on store
func New(store kvstore.Store, logger zerolog.Logger) *History {
	return &History{
		store:  store,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Load returns the stored terms, most recent first. Missing or unreadable
// history yields an empty list.
func (h *History) Load(ctx context.Context) []string {
	raw, ok, err := h.store.Get(ctx, Key)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read search history")
		return []string{}
	}
	if !ok {
		return []string{}
	}

	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		h.logger.Warn().Err(err).Msg("Discarding malformed search history")
		return []string{}
	}
	if len(terms) > MaxEntries {
		terms = terms[:MaxEntries]
	}
	return terms
}

// Add moves term to the front, dropping older duplicates and entries beyond
// MaxEntries, and returns the new list.
func (h *History) Add(ctx context.Context, term string) []string {
	term = strings.TrimSpace(term)
	current := h.Load(ctx)
	if term == "" {
		return current
	}

	terms := make([]string, 0, MaxEntries)
	terms = append(terms, term)
	for _, t := range current {
		if t == term {
			continue
		}
		if len(terms) == MaxEntries {
			break
		}
		terms = append(terms, t)
	}

	data, err := json.Marshal(terms)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode search history")
		return current
	}
	if err := h.store.Set(ctx, Key, string(data)); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to save search history")
		return current
	}
	return terms
}

// Clear removes the stored history
func (h *History) Clear(ctx context.Context) {
	if err := h.store.Delete(ctx, Key); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to clear search history")
	}
}
