package appwrite_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/appwrite"
	"github.com/s0up4200/marquee/appwrite/appwritetest"
)

const testProject = "marquee-test"

func newClient(t *testing.T, server *appwritetest.Server, opts ...appwrite.Option) *appwrite.Client {
	t.Helper()
	client, err := appwrite.NewClient(server.Endpoint(), testProject, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		projectID string
		wantErr   bool
	}{
		{name: "valid", endpoint: "https://cloud.appwrite.io/v1", projectID: "p"},
		{name: "missing endpoint", endpoint: "", projectID: "p", wantErr: true},
		{name: "relative endpoint", endpoint: "cloud.appwrite.io", projectID: "p", wantErr: true},
		{name: "missing project", endpoint: "https://cloud.appwrite.io/v1", projectID: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := appwrite.NewClient(tt.endpoint, tt.projectID, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, appwrite.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://cloud.appwrite.io/v1", client.Endpoint())
		})
	}
}

func TestNewID(t *testing.T) {
	id := appwrite.NewID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, appwrite.NewID())
}

func TestSessionLifecycle(t *testing.T) {
	server := appwritetest.NewServer(testProject)
	defer server.Close()

	ctx := context.Background()
	store := appwrite.NewMemorySessionStore()
	client := newClient(t, server, appwrite.WithSessionStore(store))

	_, err := client.GetAccount(ctx)
	require.Error(t, err)
	apiErr, ok := appwrite.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())

	created, err := client.CreateAccount(ctx, "", "ada@example.com", "correct-horse", "Ada Lovelace")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada Lovelace", created.Name)

	session, err := client.CreateEmailPasswordSession(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, session.UserID)

	stored, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, "a_session_"+testProject)

	account, err := client.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", account.Email)

	// a second client sharing the store resumes the session
	resumed := newClient(t, server, appwrite.WithSessionStore(store))
	account, err = resumed.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	updated, err := client.UpdatePrefs(ctx, map[string]any{"avatar": "https://example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", updated.Pref("avatar"))

	require.NoError(t, client.DeleteSession(ctx, appwrite.CurrentSession))
	stored, err = store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = client.GetAccount(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, server.SessionCount())
}

func TestCreateAccount_Duplicate(t *testing.T) {
	server := appwritetest.NewServer(testProject)
	defer server.Close()

	ctx := context.Background()
	client := newClient(t, server)

	_, err := client.CreateAccount(ctx, "", "dup@example.com", "password123", "dup")
	require.NoError(t, err)

	_, err = client.CreateAccount(ctx, "", "dup@example.com", "password123", "dup")
	require.Error(t, err)
	apiErr, ok := appwrite.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, appwrite.TypeUserAlreadyExists, apiErr.Type)
	assert.Contains(t, apiErr.Message, "already exists")
}

func TestDocuments(t *testing.T) {
	server := appwritetest.NewServer(testProject)
	defer server.Close()

	ctx := context.Background()
	client := newClient(t, server)

	type saved struct {
		appwrite.Document
		UserID  string `json:"user_id"`
		MovieID int64  `json:"movie_id"`
		Count   int    `json:"count"`
	}

	var first, second saved
	require.NoError(t, client.CreateDocument(ctx, "db", "saved", "", map[string]any{"user_id": "u1", "movie_id": 1, "count": 3}, &first))
	require.NoError(t, client.CreateDocument(ctx, "db", "saved", "", map[string]any{"user_id": "u1", "movie_id": 2, "count": 9}, &second))
	require.NoError(t, client.CreateDocument(ctx, "db", "saved", "", map[string]any{"user_id": "u2", "movie_id": 3, "count": 1}, nil))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := client.ListDocuments(ctx, "db", "saved",
		appwrite.Equal("user_id", "u1"),
		appwrite.OrderDesc("$createdAt"))
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Documents, 2)
	assert.Contains(t, string(list.Documents[0]), second.ID)

	var updated saved
	require.NoError(t, client.UpdateDocument(ctx, "db", "saved", first.ID, map[string]any{"count": 4}, &updated))
	assert.Equal(t, 4, updated.Count)
	assert.Equal(t, int64(1), updated.MovieID)

	require.NoError(t, client.DeleteDocument(ctx, "db", "saved", first.ID))
	err = client.DeleteDocument(ctx, "db", "saved", first.ID)
	apiErr, ok := appwrite.AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())

	top, err := client.ListDocuments(ctx, "db", "saved", appwrite.OrderDesc("count"), appwrite.Limit(1))
	require.NoError(t, err)
	require.Len(t, top.Documents, 1)
	assert.Contains(t, string(top.Documents[0]), second.ID)
}

func TestQueryEncoding(t *testing.T) {
	assert.Equal(t, `{"method":"equal","attribute":"searchTerm","values":["dune"]}`, appwrite.Equal("searchTerm", "dune").String())
	assert.Equal(t, `{"method":"orderDesc","attribute":"count"}`, appwrite.OrderDesc("count").String())
	assert.Equal(t, `{"method":"limit","values":[5]}`, appwrite.Limit(5).String())

	q, err := appwrite.ParseQuery(`{"method":"offset","values":[10]}`)
	require.NoError(t, err)
	assert.Equal(t, "offset", q.Method)
}

func TestInitialsURL(t *testing.T) {
	client, err := appwrite.NewClient("https://cloud.appwrite.io/v1", "proj", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.appwrite.io/v1/avatars/initials?name=Ada+Lovelace&project=proj", client.InitialsURL("Ada Lovelace"))
}

func TestErrorWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client, err := appwrite.NewClient(server.URL+"/v1", "proj", zerolog.Nop())
	require.NoError(t, err)

	_, err = client.GetAccount(context.Background())
	apiErr, ok := appwrite.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expire string
		want   bool
	}{
		{name: "future", expire: "2027-10-17T12:00:00.000+00:00", want: false},
		{name: "past", expire: "2026-10-17T11:59:59.000+00:00", want: true},
		{name: "unparseable", expire: "soon", want: false},
		{name: "empty", expire: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &appwrite.Session{Expire: tt.expire}
			assert.Equal(t, tt.want, s.Expired(now))
		})
	}
}
