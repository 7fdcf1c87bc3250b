// Package appwritetest provides an in-memory Appwrite server for tests.
//
// It implements the account, session and document endpoints used by the
// appwrite package closely enough to exercise real request/response flows,
// including session cookies, JSON queries and error envelopes.
package appwritetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const timeLayout = "2006-01-02T15:04:05.000+00:00"

type account struct {
	ID       string
	Name     string
	Email    string
	Password string
	Prefs    map[string]any
	Created  string
}

type document struct {
	seq  int
	data map[string]any
}

// Server is a fake Appwrite API rooted at URL + "/v1"
type Server struct {
	*httptest.Server

	ProjectID string

	mu          sync.Mutex
	accounts    map[string]*account
	byEmail     map[string]string
	sessions    map[string]string
	collections map[string]map[string]*document
	seq         int
	clock       time.Time
	failDocs    bool
}

// NewServer starts a fake Appwrite server for projectID
func NewServer(projectID string) *Server {
	s := &Server{
		ProjectID:   projectID,
		accounts:    make(map[string]*account),
		byEmail:     make(map[string]string),
		sessions:    make(map[string]string),
		collections: make(map[string]map[string]*document),
		clock:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.requireProject)

	v1.HandleFunc("/account", s.createAccount).Methods(http.MethodPost)
	v1.HandleFunc("/account", s.withSession(s.getAccount)).Methods(http.MethodGet)
	v1.HandleFunc("/account/prefs", s.withSession(s.updatePrefs)).Methods(http.MethodPatch)
	v1.HandleFunc("/account/sessions/email", s.createSession).Methods(http.MethodPost)
	v1.HandleFunc("/account/sessions/{sessionId}", s.withSession(s.getSession)).Methods(http.MethodGet)
	v1.HandleFunc("/account/sessions/{sessionId}", s.withSession(s.deleteSession)).Methods(http.MethodDelete)

	docs := v1.PathPrefix("/databases/{databaseId}/collections/{collectionId}/documents").Subrouter()
	docs.Use(s.documentFailures)
	docs.HandleFunc("", s.createDocument).Methods(http.MethodPost)
	docs.HandleFunc("", s.listDocuments).Methods(http.MethodGet)
	docs.HandleFunc("/{documentId}", s.updateDocument).Methods(http.MethodPatch)
	docs.HandleFunc("/{documentId}", s.deleteDocument).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	return s
}

// Endpoint returns the API root to configure clients with
func (s *Server) Endpoint() string {
	return s.URL + "/v1"
}

// FailDocuments makes every document endpoint answer 503 while enabled
func (s *Server) FailDocuments(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDocs = enabled
}

// Documents returns a snapshot of a collection in creation order
func (s *Server) Documents(databaseID, collectionID string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.sortedLocked(databaseID, collectionID)
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, copyMap(d.data))
	}
	return out
}

// SessionCount returns the number of live sessions
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) now() string {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock.Format(timeLayout)
}

func (s *Server) cookieName() string {
	return "a_session_" + s.ProjectID
}

func (s *Server) requireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Appwrite-Project") != s.ProjectID {
			writeError(w, http.StatusNotFound, "project_not_found", "Project with the requested ID could not be found.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) documentFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail := s.failDocs
		s.mu.Unlock()
		if fail {
			writeError(w, http.StatusServiceUnavailable, "general_service_disabled", "The requested service is disabled.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionSecret finds the session secret in the fallback header or cookie
func (s *Server) sessionSecret(r *http.Request) string {
	if raw := r.Header.Get("X-Fallback-Cookies"); raw != "" {
		var fallback map[string]string
		if json.Unmarshal([]byte(raw), &fallback) == nil {
			if v := fallback[s.cookieName()]; v != "" {
				return v
			}
		}
	}
	if c, err := r.Cookie(s.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, secret string, acct *account)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := s.sessionSecret(r)

		s.mu.Lock()
		userID, ok := s.sessions[secret]
		acct := s.accounts[userID]
		s.mu.Unlock()

		if secret == "" || !ok || acct == nil {
			writeError(w, http.StatusUnauthorized, "general_unauthorized_scope",
				"User (role: guests) missing scope (account)")
			return
		}
		h(w, r, secret, acct)
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
		return
	}
	if !strings.Contains(body.Email, "@") {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid `email` param: Value must be a valid email address")
		return
	}
	if len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid `password` param: Password must be between 8 and 256 characters long.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[strings.ToLower(body.Email)]; exists {
		writeError(w, http.StatusConflict, "user_already_exists", "A user with the same id, email, or phone already exists in this project.")
		return
	}
	if body.UserID == "" || body.UserID == "unique()" {
		body.UserID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if _, exists := s.accounts[body.UserID]; exists {
		writeError(w, http.StatusConflict, "user_already_exists", "A user with the same id, email, or phone already exists in this project.")
		return
	}

	acct := &account{
		ID:       body.UserID,
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Prefs:    map[string]any{},
		Created:  s.now(),
	}
	s.accounts[acct.ID] = acct
	s.byEmail[strings.ToLower(acct.Email)] = acct.ID

	writeJSON(w, http.StatusCreated, accountJSON(acct))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.sessionSecret(r); existing != "" {
		if _, ok := s.sessions[existing]; ok {
			writeError(w, http.StatusUnauthorized, "user_session_already_exists",
				"Creation of a session is prohibited when a session is active.")
			return
		}
	}

	userID, ok := s.byEmail[strings.ToLower(body.Email)]
	acct := s.accounts[userID]
	if !ok || acct == nil || acct.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "user_invalid_credentials",
			"Invalid credentials. Please check the email and password.")
		return
	}

	secret := uuid.NewString()
	s.sessions[secret] = acct.ID

	fallback, _ := json.Marshal(map[string]string{s.cookieName(): secret})
	w.Header().Set("X-Fallback-Cookies", string(fallback))
	http.SetCookie(w, &http.Cookie{Name: s.cookieName(), Value: secret, Path: "/", HttpOnly: true})

	writeJSON(w, http.StatusCreated, sessionJSON(secret, acct.ID, s.now()))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, secret string, acct *account) {
	id := mux.Vars(r)["sessionId"]
	if id != "current" && id != secret {
		writeError(w, http.StatusNotFound, "user_session_not_found", "The current user session could not be found.")
		return
	}
	s.mu.Lock()
	created := s.now()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, sessionJSON(secret, acct.ID, created))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, secret string, _ *account) {
	id := mux.Vars(r)["sessionId"]
	if id != "current" && id != secret {
		writeError(w, http.StatusNotFound, "user_session_not_found", "The current user session could not be found.")
		return
	}
	s.mu.Lock()
	delete(s.sessions, secret)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAccount(w http.ResponseWriter, _ *http.Request, _ string, acct *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, accountJSON(acct))
}

func (s *Server) updatePrefs(w http.ResponseWriter, r *http.Request, _ string, acct *account) {
	var body struct {
		Prefs map[string]any `json:"prefs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct.Prefs = body.Prefs
	writeJSON(w, http.StatusOK, accountJSON(acct))
}

func collectionKey(r *http.Request) (string, string, string) {
	vars := mux.Vars(r)
	return vars["databaseId"] + "/" + vars["collectionId"], vars["databaseId"], vars["collectionId"]
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentID string         `json:"documentId"`
		Data       map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
		return
	}
	key, dbID, colID := collectionKey(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collections[key]
	if col == nil {
		col = make(map[string]*document)
		s.collections[key] = col
	}
	if body.DocumentID == "" || body.DocumentID == "unique()" {
		body.DocumentID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if _, exists := col[body.DocumentID]; exists {
		writeError(w, http.StatusConflict, "document_already_exists", "Document with the requested ID already exists.")
		return
	}

	now := s.now()
	data := copyMap(body.Data)
	data["$id"] = body.DocumentID
	data["$databaseId"] = dbID
	data["$collectionId"] = colID
	data["$createdAt"] = now
	data["$updatedAt"] = now

	s.seq++
	col[body.DocumentID] = &document{seq: s.seq, data: data}
	writeJSON(w, http.StatusCreated, data)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	_, dbID, colID := collectionKey(r)

	var filters []query
	limit, offset := 25, 0
	var order *query
	for _, raw := range r.URL.Query()["queries[]"] {
		var q query
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			writeError(w, http.StatusBadRequest, "general_query_invalid", "Invalid query: "+raw)
			return
		}
		switch q.Method {
		case "equal":
			filters = append(filters, q)
		case "orderDesc", "orderAsc":
			qq := q
			order = &qq
		case "limit":
			limit = intValue(q.Values)
		case "offset":
			offset = intValue(q.Values)
		default:
			writeError(w, http.StatusBadRequest, "general_query_invalid", "Unsupported query method: "+q.Method)
			return
		}
	}

	s.mu.Lock()
	docs := s.sortedLocked(dbID, colID)
	var matched []map[string]any
	for _, d := range docs {
		if matchesAll(d.data, filters) {
			matched = append(matched, copyMap(d.data))
		}
	}
	s.mu.Unlock()

	if order != nil {
		desc := order.Method == "orderDesc"
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][order.Attribute], matched[j][order.Attribute]
			if desc {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}

	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	if matched == nil {
		matched = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"total": total, "documents": matched})
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
		return
	}
	key, _, _ := collectionKey(r)
	id := mux.Vars(r)["documentId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.collections[key][id]
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")
		return
	}
	for k, v := range body.Data {
		if !strings.HasPrefix(k, "$") {
			d.data[k] = v
		}
	}
	d.data["$updatedAt"] = s.now()
	writeJSON(w, http.StatusOK, copyMap(d.data))
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	key, _, _ := collectionKey(r)
	id := mux.Vars(r)["documentId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[key][id]; !ok {
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")
		return
	}
	delete(s.collections[key], id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sortedLocked(databaseID, collectionID string) []*document {
	col := s.collections[databaseID+"/"+collectionID]
	docs := make([]*document, 0, len(col))
	for _, d := range col {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })
	return docs
}

type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute"`
	Values    []any  `json:"values"`
}

func matchesAll(data map[string]any, filters []query) bool {
	for _, f := range filters {
		got := fmt.Sprint(data[f.Attribute])
		matched := false
		for _, v := range f.Values {
			if fmt.Sprint(v) == got {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lessValue(a, b any) bool {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func intValue(values []any) int {
	if len(values) == 0 {
		return 0
	}
	if f, ok := values[0].(float64); ok {
		return int(f)
	}
	return 0
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func accountJSON(a *account) map[string]any {
	return map[string]any{
		"$id":               a.ID,
		"$createdAt":        a.Created,
		"$updatedAt":        a.Created,
		"name":              a.Name,
		"email":             a.Email,
		"status":            true,
		"emailVerification": false,
		"prefs":             copyMap(a.Prefs),
	}
}

func sessionJSON(secret, userID, created string) map[string]any {
	return map[string]any{
		"$id":        secret[:8],
		"$createdAt": created,
		"userId":     userID,
		"expire":     "2099-01-01T00:00:00.000+00:00",
		"provider":   "email",
		"current":    true,
		"secret":     "",
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"message": message,
		"code":    status,
		"type":    errType,
		"version": "1.6.0",
	})
}
