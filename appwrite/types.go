package appwrite

import (
	"encoding/json"
	"time"
)

// Account is the authenticated user as returned by GET /account
type Account struct {
	ID                string         `json:"$id"`
	CreatedAt         string         `json:"$createdAt"`
	UpdatedAt         string         `json:"$updatedAt"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Status            bool           `json:"status"`
	EmailVerification bool           `json:"emailVerification"`
	Prefs             map[string]any `json:"prefs"`
}

// Pref returns a string preference, or "" when unset or not a string
func (a *Account) Pref(key string) string {
	if a == nil || a.Prefs == nil {
		return ""
	}
	s, _ := a.Prefs[key].(string)
	return s
}

// Session is an email/password session
type Session struct {
	ID        string `json:"$id"`
	CreatedAt string `json:"$createdAt"`
	UserID    string `json:"userId"`
	Expire    string `json:"expire"`
	Provider  string `json:"provider"`
	Current   bool   `json:"current"`
	Secret    string `json:"secret,omitempty"`
}

// Expired reports whether the session expiry lies in the past. Unparseable
// expiries count as not expired; the server is the authority.
func (s *Session) Expired(now time.Time) bool {
	t, err := time.Parse(time.RFC3339Nano, s.Expire)
	if err != nil {
		return false
	}
	return now.After(t)
}

// Document carries the system attributes common to every document
type Document struct {
	ID           string `json:"$id"`
	CollectionID string `json:"$collectionId,omitempty"`
	DatabaseID   string `json:"$databaseId,omitempty"`
	CreatedAt    string `json:"$createdAt"`
	UpdatedAt    string `json:"$updatedAt"`
}

// DocumentList is the response of the list documents endpoint. Documents
// are kept raw so callers can decode them into their own schema.
type DocumentList struct {
	Total     int               `json:"total"`
	Documents []json.RawMessage `json:"documents"`
}

type createAccountRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updatePrefsRequest struct {
	Prefs map[string]any `json:"prefs"`
}

type createDocumentRequest struct {
	DocumentID string `json:"documentId"`
	Data       any    `json:"data"`
}

type updateDocumentRequest struct {
	Data any `json:"data"`
}
