// Package appwrite implements gateway.Gateway against the Appwrite REST API.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"lijstje/internal/config"
	"lijstje/internal/gateway"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// ListLimit is the maximum number of documents fetched by ListTasks.
	ListLimit = 5000

	// ResponseFormat pins the document shape the client decodes.
	ResponseFormat = "1.5.0"

	// OwnerAttribute is the document attribute holding the owner identity id.
	OwnerAttribute = "user_id"
)

// Options configures a Client.
type Options struct {
	Endpoint     string
	ProjectID    string
	DatabaseID   string
	CollectionID string

	// Sessions stores the session secret between runs.
	Sessions config.SessionStore

	// HTTPClient defaults to a plain http.Client.
	HTTPClient *http.Client

	Log *slog.Logger
}

// Client implements gateway.Gateway using the Appwrite REST API.
type Client struct {
	http     *http.Client
	endpoint string
	project  string
	database string
	coll     string
	sessions config.SessionStore
	log      *slog.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// New creates a client from config. The config doubles as session store.
func New(cfg *config.Config) *Client {
	return NewWithOptions(Options{
		Endpoint:     cfg.Endpoint,
		ProjectID:    cfg.ProjectID,
		DatabaseID:   cfg.DatabaseID,
		CollectionID: cfg.CollectionID,
		Sessions:     cfg,
		Log:          cfg.Logger(),
	})
}

// NewWithOptions creates a client with explicit options (for testing).
func NewWithOptions(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		project:  opts.ProjectID,
		database: opts.DatabaseID,
		coll:     opts.CollectionID,
		sessions: opts.Sessions,
		log:      log,
	}
}

// SessionCookie returns the name of the cookie carrying the session secret.
func (c *Client) SessionCookie() string {
	return "a_session_" + strings.ToLower(c.project)
}

// CurrentSession implements gateway.Gateway.
func (c *Client) CurrentSession(ctx context.Context) (gateway.Identity, error) {
	secret, err := c.sessions.LoadSession()
	if err != nil {
		return gateway.Identity{}, err
	}
	if secret == "" {
		return gateway.Identity{}, gateway.ErrNoSession
	}

	var u user
	if _, err := c.do(ctx, http.MethodGet, "/account", nil, nil, &u); err != nil {
		if isStatus(err, http.StatusUnauthorized) {
			// Expired or revoked; forget it so the next run does not retry.
			_ = c.sessions.RemoveSession()
			return gateway.Identity{}, gateway.ErrNoSession
		}
		return gateway.Identity{}, err
	}
	return u.identity(), nil
}

// CreateSession implements gateway.Gateway.
func (c *Client) CreateSession(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var s sessionResponse
	resp, err := c.send(ctx, http.MethodPost, "/account/sessions/email", nil, body, &s, false)
	if err != nil {
		return err
	}

	secret := s.Secret
	if secret == "" {
		secret = c.secretFromResponse(resp)
	}
	if secret == "" {
		return fmt.Errorf("session created but no secret returned")
	}
	return c.sessions.SaveSession(secret)
}

// DeleteSession implements gateway.Gateway. The local secret is removed
// even if the backend call fails.
func (c *Client) DeleteSession(ctx context.Context) error {
	secret, err := c.sessions.LoadSession()
	if err != nil {
		return err
	}
	if secret == "" {
		return gateway.ErrNoSession
	}

	_, callErr := c.do(ctx, http.MethodDelete, "/account/sessions/current", nil, nil, nil)
	if err := c.sessions.RemoveSession(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return callErr
}

// CreateAccount implements gateway.Gateway.
func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) error {
	body := map[string]string{
		"userId":   id,
		"email":    email,
		"password": password,
		"name":     name,
	}
	_, err := c.send(ctx, http.MethodPost, "/account", nil, body, nil, false)
	return err
}

// ListTasks implements gateway.Gateway.
func (c *Client) ListTasks(ctx context.Context, ownerID string) ([]gateway.Task, error) {
	queries, err := encodeQueries(
		query{Method: "equal", Attribute: OwnerAttribute, Values: []any{ownerID}},
		query{Method: "orderDesc", Attribute: "$createdAt"},
		query{Method: "limit", Values: []any{ListLimit}},
	)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	for i, q := range queries {
		params.Add(fmt.Sprintf("queries[%d]", i), q)
	}

	var list documentList
	if _, err := c.do(ctx, http.MethodGet, c.documentsPath(""), params, nil, &list); err != nil {
		return nil, err
	}

	tasks := make([]gateway.Task, 0, len(list.Documents))
	for _, d := range list.Documents {
		tasks = append(tasks, d.task())
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// CreateTask implements gateway.Gateway.
func (c *Client) CreateTask(ctx context.Context, id string, draft gateway.TaskDraft) (gateway.Task, error) {
	body := map[string]any{
		"documentId": id,
		"data": map[string]any{
			"title":        draft.Title,
			"completed":    draft.Completed,
			OwnerAttribute: draft.OwnerID,
		},
	}
	var d document
	if _, err := c.do(ctx, http.MethodPost, c.documentsPath(""), nil, body, &d); err != nil {
		return gateway.Task{}, err
	}
	return d.task(), nil
}

// UpdateTask implements gateway.Gateway.
func (c *Client) UpdateTask(ctx context.Context, id string, completed bool) (gateway.Task, error) {
	body := map[string]any{"data": map[string]any{"completed": completed}}
	var d document
	if _, err := c.do(ctx, http.MethodPatch, c.documentsPath(id), nil, body, &d); err != nil {
		return gateway.Task{}, err
	}
	return d.task(), nil
}

// DeleteTask implements gateway.Gateway.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.documentsPath(id), nil, nil, nil)
	return err
}

func (c *Client) documentsPath(id string) string {
	p := "/databases/" + url.PathEscape(c.database) + "/collections/" + url.PathEscape(c.coll) + "/documents"
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// do sends one API request with the stored session and decodes a JSON
// response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) (*http.Response, error) {
	return c.send(ctx, method, path, params, in, out, true)
}

// send is do with the session cookie optional. Appwrite refuses to create a
// session or an account while the request carries an active session.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, in, out any, withSession bool) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	u := c.endpoint + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Appwrite-Project", c.project)
	req.Header.Set("X-Appwrite-Response-Format", ResponseFormat)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if secret, _ := c.sessions.LoadSession(); withSession && secret != "" {
		req.AddCookie(&http.Cookie{Name: c.SessionCookie(), Value: secret})
	}

	c.log.Debug("appwrite request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp, decodeError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("invalid response from %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

// secretFromResponse reads the session secret from the Set-Cookie header,
// falling back to the JSON X-Fallback-Cookies header used by cookieless clients.
func (c *Client) secretFromResponse(resp *http.Response) string {
	name := c.SessionCookie()
	for _, ck := range resp.Cookies() {
		if ck.Name == name && ck.Value != "" {
			return ck.Value
		}
	}
	if raw := resp.Header.Get("X-Fallback-Cookies"); raw != "" {
		var fallback map[string]string
		if err := json.Unmarshal([]byte(raw), &fallback); err == nil {
			return fallback[name]
		}
	}
	return ""
}
