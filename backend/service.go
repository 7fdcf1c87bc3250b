package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/appwrite"
	"github.com/s0up4200/marquee/tmdb"
)

const (
	// DefaultTrendingLimit is the number of counters TrendingSearches returns by default
	DefaultTrendingLimit = 5

	listPageSize = 100
)

// SignInPolicy decides what happens when a session already exists at sign-in
type SignInPolicy string

const (
	// PolicyReplace deletes any current session, then creates a new one
	PolicyReplace SignInPolicy = "replace"
	// PolicyReuse keeps a valid current session instead of creating one
	PolicyReuse SignInPolicy = "reuse"
)

// ParseSignInPolicy parses a policy name; blank means PolicyReplace
func ParseSignInPolicy(s string) (SignInPolicy, error) {
	switch SignInPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyReuse:
		return PolicyReuse, nil
	default:
		return "", fmt.Errorf("unknown sign-in policy %q", s)
	}
}

// Config identifies the database and collections the service works on
type Config struct {
	DatabaseID         string
	SavedCollectionID  string
	SearchCollectionID string
	SignInPolicy       SignInPolicy
}

// Service implements account and document operations on top of Appwrite
type Service struct {
	account AccountAPI
	docs    DocumentsAPI
	cfg     Config
	logger  zerolog.Logger

	// counterMu serializes the read-then-write of search counters
	counterMu sync.Mutex
}

// NewService creates a service. The Appwrite client usually serves as both
// account and docs.
func NewService(account AccountAPI, docs DocumentsAPI, cfg Config, logger zerolog.Logger) (*Service, error) {
	if account == nil || docs == nil {
		return nil, fmt.Errorf("%w: account and document clients are required", ErrInvalidConfig)
	}
	if cfg.DatabaseID == "" || cfg.SavedCollectionID == "" || cfg.SearchCollectionID == "" {
		return nil, fmt.Errorf("%w: database and collection ids are required", ErrInvalidConfig)
	}
	if cfg.SignInPolicy == "" {
		cfg.SignInPolicy = PolicyReplace
	}

	return &Service{
		account: account,
		docs:    docs,
		cfg:     cfg,
		logger:  logger.With().Str("component", "backend").Logger(),
	}, nil
}

// Register creates an account, signs it in and stores the initials avatar in
// the account preferences.
func (s *Service) Register(ctx context.Context, email, password, username string) (*User, error) {
	acct, err := s.account.CreateAccount(ctx, appwrite.NewID(), email, password, username)
	if err != nil {
		return nil, authError(err)
	}

	// a new account always gets its own session, whatever the sign-in policy
	s.replaceSession(ctx)
	if _, err := s.createSession(ctx, email, password); err != nil {
		return nil, err
	}

	avatar := s.account.InitialsURL(username)
	if _, err := s.account.UpdatePrefs(ctx, map[string]any{"avatar": avatar}); err != nil {
		// the avatar is derivable from the name, so the account stays usable
		s.logger.Warn().Err(err).Str("user", acct.ID).Msg("Failed to store avatar preference")
	}

	s.logger.Info().Str("user", acct.ID).Msg("Registered account")
	return &User{
		ID:       acct.ID,
		Username: acct.Name,
		Email:    acct.Email,
		Avatar:   avatar,
	}, nil
}

// SignIn creates an email/password session according to the configured policy
func (s *Service) SignIn(ctx context.Context, email, password string) (*appwrite.Session, error) {
	switch s.cfg.SignInPolicy {
	case PolicyReuse:
		current, err := s.account.GetSession(ctx, appwrite.CurrentSession)
		if err == nil && current != nil && current.ID != "" && !current.Expired(time.Now()) {
			s.logger.Debug().Str("session", current.ID).Msg("Reusing current session")
			return current, nil
		}
	default:
		s.replaceSession(ctx)
	}
	return s.createSession(ctx, email, password)
}

// replaceSession deletes the current session; having none is fine
func (s *Service) replaceSession(ctx context.Context) {
	if err := s.account.DeleteSession(ctx, appwrite.CurrentSession); err != nil {
		s.logger.Debug().Err(err).Msg("No session to replace")
	}
}

func (s *Service) createSession(ctx context.Context, email, password string) (*appwrite.Session, error) {
	session, err := s.account.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		return nil, authError(err)
	}
	s.logger.Debug().Str("user", session.UserID).Msg("Signed in")
	return session, nil
}

// SignOut deletes the current session. Signing out without a session is not an error.
func (s *Service) SignOut(ctx context.Context) error {
	err := s.account.DeleteSession(ctx, appwrite.CurrentSession)
	if err == nil {
		return nil
	}
	if apiErr, ok := appwrite.AsAPIError(err); ok && (apiErr.IsUnauthorized() || apiErr.IsNotFound()) {
		return nil
	}
	return fmt.Errorf("sign out: %w", err)
}

// CurrentUser returns the signed-in user, or nil when there is none or the
// account cannot be fetched.
func (s *Service) CurrentUser(ctx context.Context) *User {
	acct, err := s.account.GetAccount(ctx)
	if err != nil {
		if apiErr, ok := appwrite.AsAPIError(err); ok && apiErr.IsUnauthorized() {
			s.logger.Debug().Msg("No active session")
		} else {
			s.logger.Warn().Err(err).Msg("Failed to fetch current account")
		}
		return nil
	}

	avatar := acct.Pref("avatar")
	if avatar == "" {
		avatar = s.account.InitialsURL(acct.Name)
	}
	return &User{
		ID:       acct.ID,
		Username: acct.Name,
		Email:    acct.Email,
		Avatar:   avatar,
	}
}

// SaveItem stores a bookmark for userID. Existing bookmarks are not checked.
func (s *Service) SaveItem(ctx context.Context, item tmdb.CatalogItem, userID string) (*SavedItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("save item %d: user id is required", item.ID)
	}

	data := savedData{
		UserID:      userID,
		MovieID:     item.ID,
		Title:       item.Title,
		PosterPath:  item.PosterPath,
		VoteAverage: item.VoteAverage,
		ReleaseDate: item.ReleaseDate,
		Type:        item.Kind.OrDefault(),
	}

	var doc savedDocument
	if err := s.docs.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.SavedCollectionID, appwrite.NewID(), data, &doc); err != nil {
		return nil, fmt.Errorf("save item %d: %w", item.ID, err)
	}

	saved := doc.toSavedItem()
	s.logger.Debug().
		Str("document", saved.ID).
		Int64("id", item.ID).
		Str("title", item.Title).
		Msg("Saved item")
	return &saved, nil
}

// ListSavedItems returns every bookmark of userID, newest first. Failures
// are logged and yield an empty list.
func (s *Service) ListSavedItems(ctx context.Context, userID string) []SavedItem {
	items := []SavedItem{}
	if userID == "" {
		return items
	}

	for offset := 0; ; offset += listPageSize {
		list, err := s.docs.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.SavedCollectionID,
			appwrite.Equal("user_id", userID),
			appwrite.OrderDesc("$createdAt"),
			appwrite.Limit(listPageSize),
			appwrite.Offset(offset),
		)
		if err != nil {
			swallowedErrors.WithLabelValues("list_saved").Inc()
			s.logger.Error().Err(err).Str("user", userID).Msg("Failed to list saved items")
			return []SavedItem{}
		}

		for _, raw := range list.Documents {
			var doc savedDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				s.logger.Warn().Err(err).Msg("Skipping malformed saved document")
				continue
			}
			items = append(items, doc.toSavedItem())
		}

		if len(list.Documents) < listPageSize || offset+len(list.Documents) >= list.Total {
			break
		}
	}
	return items
}

// RemoveSavedItem deletes a bookmark and reports whether the deletion succeeded
func (s *Service) RemoveSavedItem(ctx context.Context, documentID string) bool {
	if documentID == "" {
		return false
	}
	if err := s.docs.DeleteDocument(ctx, s.cfg.DatabaseID, s.cfg.SavedCollectionID, documentID); err != nil {
		swallowedErrors.WithLabelValues("remove_saved").Inc()
		s.logger.Error().Err(err).Str("document", documentID).Msg("Failed to remove saved item")
		return false
	}
	return true
}

// IncrementSearchCount bumps the counter for term, creating it with the
// item's details on first use. Calls are serialized within the process only.
func (s *Service) IncrementSearchCount(ctx context.Context, term string, item tmdb.CatalogItem) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return ErrEmptyTerm
	}
	kind := item.Kind.OrDefault()

	s.counterMu.Lock()
	defer s.counterMu.Unlock()

	list, err := s.docs.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.SearchCollectionID,
		appwrite.Equal("searchTerm", term),
		appwrite.Equal("type", string(kind)),
		appwrite.Limit(1),
	)
	if err != nil {
		return fmt.Errorf("find search counter %q: %w", term, err)
	}

	if len(list.Documents) > 0 {
		var doc counterDocument
		if err := json.Unmarshal(list.Documents[0], &doc); err != nil {
			return fmt.Errorf("decode search counter %q: %w", term, err)
		}
		if err := s.docs.UpdateDocument(ctx, s.cfg.DatabaseID, s.cfg.SearchCollectionID, doc.ID,
			map[string]any{"count": doc.Count + 1}, nil); err != nil {
			return fmt.Errorf("update search counter %q: %w", term, err)
		}
		s.logger.Debug().Str("term", term).Int("count", doc.Count+1).Msg("Incremented search counter")
		return nil
	}

	data := counterData{
		SearchTerm: term,
		MovieID:    item.ID,
		Count:      1,
		Title:      item.Title,
		PosterURL:  tmdb.PosterURL(item.Poster(), ""),
		Type:       kind,
	}
	if err := s.docs.CreateDocument(ctx, s.cfg.DatabaseID, s.cfg.SearchCollectionID, appwrite.NewID(), data, nil); err != nil {
		return fmt.Errorf("create search counter %q: %w", term, err)
	}
	s.logger.Debug().Str("term", term).Msg("Created search counter")
	return nil
}

// TrendingSearches returns the counters of kind with the highest counts.
// Failures are logged and yield nil.
func (s *Service) TrendingSearches(ctx context.Context, kind tmdb.MediaKind, limit int) []SearchCounter {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	list, err := s.docs.ListDocuments(ctx, s.cfg.DatabaseID, s.cfg.SearchCollectionID,
		appwrite.Equal("type", string(kind.OrDefault())),
		appwrite.OrderDesc("count"),
		appwrite.Limit(limit),
	)
	if err != nil {
		swallowedErrors.WithLabelValues("trending").Inc()
		s.logger.Error().Err(err).Str("kind", string(kind.OrDefault())).Msg("Failed to load trending searches")
		return nil
	}

	counters := make([]SearchCounter, 0, len(list.Documents))
	for _, raw := range list.Documents {
		var doc counterDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.logger.Warn().Err(err).Msg("Skipping malformed search counter")
			continue
		}
		counters = append(counters, doc.toCounter())
	}
	return counters
}
