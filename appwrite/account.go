package appwrite

import (
	"context"
	"net/http"
	"net/url"
)

// CurrentSession is the alias Appwrite accepts for the caller's own session
const CurrentSession = "current"

// CreateAccount registers a new email/password account
func (c *Client) CreateAccount(ctx context.Context, userID, email, password, name string) (*Account, error) {
	if userID == "" {
		userID = NewID()
	}
	var account Account
	_, err := c.do(ctx, request{
		operation: "account.create",
		method:    http.MethodPost,
		path:      "/account",
		body: createAccountRequest{
			UserID:   userID,
			Email:    email,
			Password: password,
			Name:     name,
		},
		result: &account,
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateEmailPasswordSession signs in and keeps the returned session cookies
func (c *Client) CreateEmailPasswordSession(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	resp, err := c.do(ctx, request{
		operation: "session.create",
		method:    http.MethodPost,
		path:      "/account/sessions/email",
		body:      createSessionRequest{Email: email, Password: password},
		result:    &session,
	})
	if err != nil {
		return nil, err
	}

	cookies := extractSessionCookies(resp.Header(), resp.Cookies())
	if len(cookies) == 0 && session.Secret != "" {
		cookies = map[string]string{sessionCookiePrefix + c.projectID: session.Secret}
	}
	if len(cookies) > 0 {
		c.rememberSession(ctx, cookies)
	} else {
		c.logger.Warn().Msg("Session created but no session cookie was returned")
	}

	return &session, nil
}

// GetSession retrieves a session by id, or the caller's own with CurrentSession
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	_, err := c.do(ctx, request{
		operation: "session.get",
		method:    http.MethodGet,
		path:      "/account/sessions/{sessionId}",
		params:    map[string]string{"sessionId": sessionID},
		result:    &session,
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes a session. Local cookies are dropped when the
// current session is deleted or the server no longer recognises it.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, request{
		operation: "session.delete",
		method:    http.MethodDelete,
		path:      "/account/sessions/{sessionId}",
		params:    map[string]string{"sessionId": sessionID},
	})
	if sessionID == CurrentSession {
		if apiErr, ok := AsAPIError(err); err == nil || (ok && (apiErr.IsUnauthorized() || apiErr.IsNotFound())) {
			c.forgetSession(ctx)
		}
	}
	return err
}

// GetAccount returns the account owning the current session
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	_, err := c.do(ctx, request{
		operation: "account.get",
		method:    http.MethodGet,
		path:      "/account",
		result:    &account,
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdatePrefs replaces the preferences of the current account
func (c *Client) UpdatePrefs(ctx context.Context, prefs map[string]any) (*Account, error) {
	var account Account
	_, err := c.do(ctx, request{
		operation: "account.prefs",
		method:    http.MethodPatch,
		path:      "/account/prefs",
		body:      updatePrefsRequest{Prefs: prefs},
		result:    &account,
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// InitialsURL builds the avatar URL rendering the initials of name
func (c *Client) InitialsURL(name string) string {
	params := url.Values{}
	params.Set("name", name)
	params.Set("project", c.projectID)
	return c.endpoint + "/avatars/initials?" + params.Encode()
}
