package controller

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/fetch"
)

// Saved drives the saved screen
type Saved struct {
	Items *fetch.Hook[[]backend.SavedItem]
}

// NewSaved creates the saved controller. The list is empty while signed out.
func NewSaved(ctx context.Context, library Library, session Session, logger zerolog.Logger) *Saved {
	logger = logger.With().Str("screen", "saved").Logger()
	return &Saved{
		Items: fetch.New(ctx, func(ctx context.Context) ([]backend.SavedItem, error) {
			user := session.User()
			if user == nil {
				return []backend.SavedItem{}, nil
			}
			return library.ListSavedItems(ctx, user.ID), nil
		}, true, fetch.WithLogger(logger, "saved")),
	}
}
