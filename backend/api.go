package backend

import (
	"context"

	"github.com/s0up4200/marquee/appwrite"
	"github.com/s0up4200/marquee/tmdb"
)

// AccountAPI is the subset of the Appwrite account surface the service needs
type AccountAPI interface {
	CreateAccount(ctx context.Context, userID, email, password, name string) (*appwrite.Account, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*appwrite.Session, error)
	GetSession(ctx context.Context, sessionID string) (*appwrite.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	GetAccount(ctx context.Context) (*appwrite.Account, error)
	UpdatePrefs(ctx context.Context, prefs map[string]any) (*appwrite.Account, error)
	InitialsURL(name string) string
}

// DocumentsAPI is the subset of the Appwrite databases surface the service needs
type DocumentsAPI interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data, out any) error
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...appwrite.Query) (*appwrite.DocumentList, error)
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data, out any) error
	DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error
}

// API defines the account and document operations used by the screens
type API interface {
	Register(ctx context.Context, email, password, username string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*appwrite.Session, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) *User
	SaveItem(ctx context.Context, item tmdb.CatalogItem, userID string) (*SavedItem, error)
	ListSavedItems(ctx context.Context, userID string) []SavedItem
	RemoveSavedItem(ctx context.Context, documentID string) bool
	IncrementSearchCount(ctx context.Context, term string, item tmdb.CatalogItem) error
	TrendingSearches(ctx context.Context, kind tmdb.MediaKind, limit int) []SearchCounter
}

// Ensure Service implements API
var _ API = (*Service)(nil)

// Ensure the Appwrite client satisfies both halves
var (
	_ AccountAPI   = (*appwrite.Client)(nil)
	_ DocumentsAPI = (*appwrite.Client)(nil)
)
