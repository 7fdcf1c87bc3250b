package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/fetch"
	"github.com/s0up4200/marquee/tmdb"
)

// Details is the expanded record shown on a detail screen. Exactly one of
// Movie and TV is set.
type Details struct {
	Item  tmdb.CatalogItem
	Movie *tmdb.MovieDetails
	TV    *tmdb.TVDetails
}

// Detail drives a movie or show detail screen and its saved toggle
type Detail struct {
	catalog Catalog
	library Library
	session Session
	kind    tmdb.MediaKind
	id      int64
	logger  zerolog.Logger

	details *fetch.Hook[Details]

	toggling sync.Mutex

	mu          sync.Mutex
	savedDocID  string
	resolvedFor string // user the saved state was looked up for
}

// NewDetail creates a detail controller and starts loading the item
func NewDetail(ctx context.Context, catalog Catalog, library Library, session Session, kind tmdb.MediaKind, id int64, logger zerolog.Logger) *Detail {
	d := &Detail{
		catalog: catalog,
		library: library,
		session: session,
		kind:    kind.OrDefault(),
		id:      id,
		logger:  logger.With().Str("screen", "detail").Str("kind", string(kind.OrDefault())).Int64("id", id).Logger(),
	}
	d.details = fetch.New(ctx, d.load, true, fetch.WithLogger(d.logger, "details"))
	return d
}

func (d *Detail) load(ctx context.Context) (Details, error) {
	if d.kind == tmdb.KindTV {
		show, err := d.catalog.TVDetails(ctx, d.id)
		if err != nil {
			return Details{}, err
		}
		return Details{Item: show.Item(), TV: show}, nil
	}

	movie, err := d.catalog.MovieDetails(ctx, d.id)
	if err != nil {
		return Details{}, err
	}
	return Details{Item: movie.Item(), Movie: movie}, nil
}

// Details returns the load state of the item
func (d *Detail) Details() fetch.State[Details] {
	return d.details.State()
}

// Wait blocks until the item finished loading
func (d *Detail) Wait(ctx context.Context) (fetch.State[Details], error) {
	return d.details.Wait(ctx)
}

// Reload fetches the item again
func (d *Detail) Reload(ctx context.Context) {
	d.details.Refetch(ctx)
}

func (d *Detail) savedRef() tmdb.CatalogItem {
	return tmdb.CatalogItem{ID: d.id, Kind: d.kind}
}

// RefreshSaved looks the item up in the signed-in user's saved list and
// reports whether it is saved. Signed-out users have nothing saved.
func (d *Detail) RefreshSaved(ctx context.Context) bool {
	user := d.session.User()
	if user == nil {
		d.setSavedDoc("", "")
		return false
	}

	ref := d.savedRef()
	for _, saved := range d.library.ListSavedItems(ctx, user.ID) {
		if saved.Matches(ref) {
			d.setSavedDoc(user.ID, saved.ID)
			return true
		}
	}
	d.setSavedDoc(user.ID, "")
	return false
}

// IsSaved reports the saved state found by the last RefreshSaved or ToggleSaved
func (d *Detail) IsSaved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.savedDocID != ""
}

func (d *Detail) setSavedDoc(userID, id string) {
	d.mu.Lock()
	d.savedDocID = id
	d.resolvedFor = userID
	d.mu.Unlock()
}

// ToggleSaved removes the item from the saved list when it is saved and
// saves it otherwise. It returns the new saved state. The saved list is
// looked up first unless RefreshSaved already ran for the current user.
func (d *Detail) ToggleSaved(ctx context.Context) (bool, error) {
	user := d.session.User()
	if user == nil {
		return false, ErrLoginRequired
	}

	if !d.toggling.TryLock() {
		return d.IsSaved(), ErrBusy
	}
	defer d.toggling.Unlock()

	d.mu.Lock()
	resolved := d.resolvedFor == user.ID
	d.mu.Unlock()
	if !resolved {
		d.RefreshSaved(ctx)
	}

	d.mu.Lock()
	docID := d.savedDocID
	d.mu.Unlock()

	if docID != "" {
		if !d.library.RemoveSavedItem(ctx, docID) {
			return true, ErrRemoveFailed
		}
		d.setSavedDoc(user.ID, "")
		d.logger.Info().Msg("Removed from saved items")
		return false, nil
	}

	state := d.details.State()
	if state.Status != fetch.StatusLoaded {
		return false, ErrNotLoaded
	}

	saved, err := d.library.SaveItem(ctx, state.Data.Item, user.ID)
	if err != nil {
		return false, fmt.Errorf("save %s: %w", state.Data.Item.Title, err)
	}
	d.setSavedDoc(user.ID, saved.ID)
	d.logger.Info().Str("document", saved.ID).Msg("Added to saved items")
	return true, nil
}
