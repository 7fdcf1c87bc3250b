// Package appwrite is a small REST client for the parts of Appwrite the
// application uses: email/password accounts and sessions, account
// preferences, initials avatars, and documents in a database.
//
// Requests are sent with go-resty. The session is identified by the
// a_session_<project> cookie; the client captures it from Set-Cookie or the
// X-Fallback-Cookies response header and replays it through
// X-Fallback-Cookies, so a SessionStore can carry a session across process
// restarts.
//
//	client, err := appwrite.NewClient(endpoint, projectID, logger,
//		appwrite.WithSessionStore(store))
//	if err != nil {
//		return err
//	}
//	if _, err := client.CreateEmailPasswordSession(ctx, email, password); err != nil {
//		return err
//	}
//	list, err := client.ListDocuments(ctx, databaseID, collectionID,
//		appwrite.Equal("user_id", userID), appwrite.OrderDesc("$createdAt"))
//
// Error responses are returned as *APIError carrying Appwrite's error type
// and message.
package appwrite
