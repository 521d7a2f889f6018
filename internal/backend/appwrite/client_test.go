package appwrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lijstje/internal/gateway"
	"lijstje/internal/testutil"
)

const testProject = "proj1"

type fakeUser struct {
	id, name, email, password string
	created                   time.Time
}

type fakeDoc struct {
	ID        string `json:"$id"`
	CreatedAt string `json:"$createdAt"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	UserID    string `json:"user_id"`
}

// fakeServer is a minimal Appwrite account and documents API.
type fakeServer struct {
	mu       sync.Mutex
	users    map[string]*fakeUser // email -> user
	sessions map[string]string    // secret -> user id
	docs     []fakeDoc
	queries  []string
	clock    time.Time

	fallbackOnly bool
	failDelete   bool
	createCookie []string // session cookies seen on account and session creation
}

func newFakeServer(t *testing.T) (*fakeServer, *Client, *testutil.MemorySessions) {
	t.Helper()
	fs := &fakeServer{
		users:    make(map[string]*fakeUser),
		sessions: make(map[string]string),
		clock:    time.Date(2024, 10, 27, 12, 0, 0, 0, time.UTC),
	}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	store := &testutil.MemorySessions{}
	c := NewWithOptions(Options{
		Endpoint:     srv.URL + "/v1/",
		ProjectID:    testProject,
		DatabaseID:   "db1",
		CollectionID: "tasks",
		Sessions:     store,
		HTTPClient:   srv.Client(),
	})
	return fs, c, store
}

func (fs *fakeServer) tick() string {
	fs.clock = fs.clock.Add(time.Minute)
	return fs.clock.Format("2006-01-02T15:04:05.000+00:00")
}

func writeError(w http.ResponseWriter, status int, typ, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": msg, "code": status, "type": typ})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (fs *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if r.Header.Get("X-Appwrite-Project") != testProject {
		writeError(w, http.StatusBadRequest, "project_unknown", "missing project header")
		return
	}
	if r.Header.Get("X-Appwrite-Response-Format") != ResponseFormat {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "missing response format")
		return
	}

	var userID string
	ck, cookieErr := r.Cookie("a_session_" + testProject)
	if cookieErr == nil {
		userID = fs.sessions[ck.Value]
	}
	creating := r.Method == http.MethodPost && (r.URL.Path == "/v1/account" || r.URL.Path == "/v1/account/sessions/email")
	if creating && cookieErr == nil {
		fs.createCookie = append(fs.createCookie, ck.Value)
	}
	if creating && userID != "" {
		writeError(w, http.StatusUnauthorized, "user_session_already_exists", "Creation of a session is prohibited when a session is active.")
		return
	}

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	str := func(k string) string {
		s, _ := body[k].(string)
		return s
	}

	const docs = "/v1/databases/db1/collections/tasks/documents"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v1/account":
		for _, u := range fs.users {
			if u.id == userID && userID != "" {
				writeJSON(w, http.StatusOK, map[string]any{
					"$id":        u.id,
					"$createdAt": u.created.Format("2006-01-02T15:04:05.000+00:00"),
					"name":       u.name,
					"email":      u.email,
				})
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (account)")

	case r.Method == http.MethodPost && r.URL.Path == "/v1/account":
		if _, ok := fs.users[str("email")]; ok {
			writeError(w, http.StatusConflict, "user_already_exists", "A user with the same id, email, or phone already exists")
			return
		}
		fs.tick()
		fs.users[str("email")] = &fakeUser{id: str("userId"), name: str("name"), email: str("email"), password: str("password"), created: fs.clock}
		writeJSON(w, http.StatusCreated, map[string]any{"$id": str("userId")})

	case r.Method == http.MethodPost && r.URL.Path == "/v1/account/sessions/email":
		u, ok := fs.users[str("email")]
		if !ok || u.password != str("password") {
			writeError(w, http.StatusUnauthorized, "user_invalid_credentials", "Invalid credentials")
			return
		}
		secret := "secret-" + u.id
		fs.sessions[secret] = u.id
		if fs.fallbackOnly {
			fallback, _ := json.Marshal(map[string]string{"a_session_" + testProject: secret})
			w.Header().Set("X-Fallback-Cookies", string(fallback))
		} else {
			http.SetCookie(w, &http.Cookie{Name: "a_session_" + testProject, Value: secret})
		}
		writeJSON(w, http.StatusCreated, map[string]any{"$id": "s1", "userId": u.id, "secret": ""})

	case r.Method == http.MethodDelete && r.URL.Path == "/v1/account/sessions/current":
		if fs.failDelete {
			writeError(w, http.StatusInternalServerError, "general_unknown", "Server Error")
			return
		}
		for s, id := range fs.sessions {
			if id == userID {
				delete(fs.sessions, s)
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && r.URL.Path == docs:
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "missing scope")
			return
		}
		owner := ""
		for i := 0; ; i++ {
			raw := r.URL.Query().Get(fmt.Sprintf("queries[%d]", i))
			if raw == "" {
				break
			}
			fs.queries = append(fs.queries, raw)
			var q query
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				writeError(w, http.StatusBadRequest, "general_query_invalid", err.Error())
				return
			}
			if q.Method == "equal" && q.Attribute == OwnerAttribute && len(q.Values) == 1 {
				owner, _ = q.Values[0].(string)
			}
		}
		out := []fakeDoc{}
		for _, d := range fs.docs {
			if d.UserID == owner {
				out = append(out, d)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": len(out), "documents": out})

	case r.Method == http.MethodPost && r.URL.Path == docs:
		data, _ := body["data"].(map[string]any)
		title, _ := data["title"].(string)
		completed, _ := data["completed"].(bool)
		owner, _ := data[OwnerAttribute].(string)
		d := fakeDoc{ID: str("documentId"), CreatedAt: fs.tick(), Title: title, Completed: completed, UserID: owner}
		fs.docs = append(fs.docs, d)
		writeJSON(w, http.StatusCreated, d)

	case strings.HasPrefix(r.URL.Path, docs+"/"):
		id := strings.TrimPrefix(r.URL.Path, docs+"/")
		for i, d := range fs.docs {
			if d.ID != id {
				continue
			}
			switch r.Method {
			case http.MethodPatch:
				data, _ := body["data"].(map[string]any)
				fs.docs[i].Completed, _ = data["completed"].(bool)
				writeJSON(w, http.StatusOK, fs.docs[i])
			case http.MethodDelete:
				fs.docs = append(fs.docs[:i], fs.docs[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
			}
			return
		}
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")

	default:
		writeError(w, http.StatusNotFound, "general_route_not_found", "Route not found")
	}
}

func TestSignupLoginAndCurrentSession(t *testing.T) {
	_, c, store := newFakeServer(t)
	ctx := context.Background()

	if err := c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan Jansen"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := c.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if store.Secret() != "secret-u1" {
		t.Errorf("expected secret from cookie, got %q", store.Secret())
	}

	ident, err := c.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if ident.ID != "u1" || ident.Name != "Jan Jansen" || ident.Email != "jan@test.nl" {
		t.Errorf("unexpected identity %+v", ident)
	}
	if ident.CreatedAt.IsZero() {
		t.Error("expected creation time to be decoded")
	}
}

func TestCreateSession_FallbackCookieHeader(t *testing.T) {
	fs, c, store := newFakeServer(t)
	fs.fallbackOnly = true
	ctx := context.Background()

	if err := c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := c.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if store.Secret() != "secret-u1" {
		t.Errorf("expected secret from fallback header, got %q", store.Secret())
	}
}

func TestCreateSession_InvalidCredentials(t *testing.T) {
	_, c, store := newFakeServer(t)
	ctx := context.Background()
	_ = c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan")

	err := c.CreateSession(ctx, "jan@test.nl", "wrong")

	if !errors.Is(err, gateway.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Type != "user_invalid_credentials" {
		t.Errorf("expected APIError with type, got %v", err)
	}
	if store.Secret() != "" {
		t.Error("no secret should be stored")
	}
}

func TestCurrentSession_NoSecretSkipsRequest(t *testing.T) {
	c := NewWithOptions(Options{
		Endpoint: "http://127.0.0.1:1/v1",
		Sessions: &testutil.MemorySessions{},
	})
	if _, err := c.CurrentSession(context.Background()); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestCurrentSession_RevokedSecretIsForgotten(t *testing.T) {
	_, c, store := newFakeServer(t)
	_ = store.SaveSession("stale")

	_, err := c.CurrentSession(context.Background())

	if !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if store.Secret() != "" {
		t.Error("expected stale secret to be removed")
	}
}

func TestCreateAccount_Conflict(t *testing.T) {
	_, c, _ := newFakeServer(t)
	ctx := context.Background()
	_ = c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan")

	err := c.CreateAccount(ctx, "u2", "jan@test.nl", "password123", "Jan")

	if !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func loggedIn(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	fs, c, _ := newFakeServer(t)
	ctx := context.Background()
	if err := c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := c.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return fs, c
}

func TestTasks_CreateListUpdateDelete(t *testing.T) {
	fs, c := loggedIn(t)
	ctx := context.Background()
	fs.docs = append(fs.docs, fakeDoc{ID: "x1", CreatedAt: "2030-01-01T00:00:00.000+00:00", Title: "Niet van mij", UserID: "u2"})

	first, err := c.CreateTask(ctx, "t1", gateway.TaskDraft{Title: "Stofzuigen", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if first.ID != "t1" || first.OwnerID != "u1" || first.CreatedAt.IsZero() {
		t.Errorf("unexpected record %+v", first)
	}
	if _, err := c.CreateTask(ctx, "t2", gateway.TaskDraft{Title: "Boodschappen", OwnerID: "u1"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	tasks, err := c.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "t2" || tasks[1].ID != "t1" {
		t.Errorf("expected [t2 t1], got %+v", tasks)
	}
	if len(fs.queries) != 3 {
		t.Fatalf("expected 3 queries, got %v", fs.queries)
	}
	if !strings.Contains(fs.queries[1], `"orderDesc"`) || !strings.Contains(fs.queries[1], `"$createdAt"`) {
		t.Errorf("expected newest-first ordering query, got %s", fs.queries[1])
	}
	if !strings.Contains(fs.queries[2], `"limit"`) {
		t.Errorf("expected limit query, got %s", fs.queries[2])
	}

	updated, err := c.UpdateTask(ctx, "t1", true)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if !updated.Completed || updated.Title != "Stofzuigen" {
		t.Errorf("unexpected record %+v", updated)
	}

	if err := c.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := c.DeleteTask(ctx, "t1"); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession_RemovesSecretOnServerError(t *testing.T) {
	fs, c := loggedIn(t)
	fs.failDelete = true

	err := c.DeleteSession(context.Background())

	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.CurrentSession(context.Background()); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected no session after logout, got %v", err)
	}
}

func TestDeleteSession_WithoutSession(t *testing.T) {
	_, c, _ := newFakeServer(t)
	if err := c.DeleteSession(context.Background()); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestTimestamp_Formats(t *testing.T) {
	cases := []string{
		`"2024-10-27T12:00:00.000+00:00"`,
		`"2024-10-27T14:00:00.123+02:00"`,
		`"2024-10-27T12:00:00Z"`,
	}
	for _, in := range cases {
		var ts timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if ts.UTC().Format("2006-01-02 15") != "2024-10-27 12" {
			t.Errorf("%s: unexpected time %v", in, ts.Time)
		}
	}
}

func TestCreateSession_IgnoresStoredSecret(t *testing.T) {
	fs, c, store := newFakeServer(t)
	ctx := context.Background()
	if err := c.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := c.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// The secret is still valid on the server, as after a failed lookup.
	if err := c.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if err := store.SaveSession("stale"); err != nil {
		t.Fatal(err)
	}
	if err := c.CreateAccount(ctx, "u2", "piet@test.nl", "password123", "Piet"); err != nil {
		t.Fatalf("signup with stored secret: %v", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.createCookie) != 0 {
		t.Errorf("expected no session cookie on creation requests, got %v", fs.createCookie)
	}
}
