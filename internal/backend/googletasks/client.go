// Package googletasks implements gateway.Gateway using the Google Tasks API.
// One task list, created on first use, holds the tasks of the signed-in
// Google account.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"lijstje/internal/config"
	"lijstje/internal/gateway"
)

const (
	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// DefaultRevokeURL is Google's token revocation endpoint.
	DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Scopes requested at login.
var Scopes = []string{
	tasks.TasksScope,
	goauth2.UserinfoEmailScope,
	goauth2.UserinfoProfileScope,
}

// ErrNoOAuthClient is returned by CreateSession when oauth_client.json is missing.
var ErrNoOAuthClient = errors.New("oauth_client.json not found")

// Options configures a Client.
type Options struct {
	// OAuth is the OAuth client config. Nil disables login.
	OAuth *oauth2.Config

	// Config stores token.json. Nil keeps the token in memory only.
	Config *config.Config

	// Prompt receives the authorization URL during login.
	Prompt io.Writer

	// HTTPClient, if set, is used for API calls instead of a token-based client.
	HTTPClient *http.Client

	// Endpoint overrides the API base URL.
	Endpoint string

	// RevokeURL defaults to DefaultRevokeURL.
	RevokeURL string

	// TaskList is the title of the list holding the tasks.
	TaskList string

	Log *slog.Logger
}

// Client implements gateway.Gateway using Google Tasks.
type Client struct {
	base   context.Context
	opts   Options
	log    *slog.Logger
	listen func() (int, net.Listener, error)

	mu       sync.Mutex
	token    *oauth2.Token
	tasksSvc *tasks.Service
	userSvc  *goauth2.Service
	identity gateway.Identity
	listID   string
}

var _ gateway.Gateway = (*Client)(nil)

// New creates a Google Tasks client from config. oauth_client.json is only
// needed to log in; token.json is read when the first call needs it.
func New(ctx context.Context, cfg *config.Config, prompt io.Writer) (*Client, error) {
	opts := Options{
		Config:   cfg,
		Prompt:   prompt,
		TaskList: cfg.TaskList,
		Log:      cfg.Logger(),
	}
	if cfg.HasOAuthClient() {
		clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
		}
		oauthConfig, err := google.ConfigFromJSON(clientJSON, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
		}
		opts.OAuth = oauthConfig
	}
	return NewWithOptions(ctx, opts), nil
}

// NewWithOptions creates a client with explicit options (for testing).
func NewWithOptions(ctx context.Context, opts Options) *Client {
	if opts.RevokeURL == "" {
		opts.RevokeURL = DefaultRevokeURL
	}
	if opts.TaskList == "" {
		opts.TaskList = config.DefaultTaskList
	}
	if opts.Prompt == nil {
		opts.Prompt = io.Discard
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		base:   context.WithoutCancel(ctx),
		opts:   opts,
		log:    log,
		listen: findAvailablePort,
	}
}

// services returns the API services, building them on first use.
func (c *Client) services() (*tasks.Service, *goauth2.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tasksSvc != nil {
		return c.tasksSvc, c.userSvc, nil
	}

	httpClient := c.opts.HTTPClient
	if httpClient == nil {
		token, err := c.loadToken()
		if err != nil {
			return nil, nil, err
		}
		if c.opts.OAuth == nil {
			return nil, nil, ErrNoOAuthClient
		}
		// Create HTTP client with a token source that auto-refreshes
		httpClient = oauth2.NewClient(c.base, c.opts.OAuth.TokenSource(c.base, token))
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(c.opts.Endpoint))
	}
	tasksSvc, err := tasks.NewService(c.base, clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	userSvc, err := goauth2.NewService(c.base, clientOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	c.tasksSvc, c.userSvc = tasksSvc, userSvc
	return tasksSvc, userSvc, nil
}

// loadToken returns the OAuth token from memory or token.json. Caller holds c.mu.
func (c *Client) loadToken() (*oauth2.Token, error) {
	if c.token != nil {
		return c.token, nil
	}
	if c.opts.Config == nil || !c.opts.Config.HasToken() {
		return nil, gateway.ErrNoSession
	}
	data, err := os.ReadFile(c.opts.Config.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	if token.RefreshToken == "" && token.AccessToken == "" {
		return nil, gateway.ErrNoSession
	}
	c.token = &token
	return c.token, nil
}

// reset forgets the token, services and caches.
func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
	c.tasksSvc = nil
	c.userSvc = nil
	c.identity = gateway.Identity{}
	c.listID = ""
}

// CurrentSession implements gateway.Gateway. Google does not expose the
// account creation time, so Identity.CreatedAt is zero.
func (c *Client) CurrentSession(ctx context.Context) (gateway.Identity, error) {
	_, userSvc, err := c.services()
	if err != nil {
		return gateway.Identity{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	info, err := userSvc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return gateway.Identity{}, wrapError(err)
	}
	ident := gateway.Identity{ID: info.Id, Name: info.Name, Email: info.Email}

	c.mu.Lock()
	c.identity = ident
	c.mu.Unlock()
	return ident, nil
}

// SubmitTimeout is the time a login form must allow CreateSession: the
// browser consent window plus the token exchange.
func (c *Client) SubmitTimeout() time.Duration {
	return oauthCallbackTimeout + tokenExchangeTimeout + APITimeout
}

// CreateSession implements gateway.Gateway by running the OAuth flow in a
// browser. The email is passed as login hint; the password is not used.
func (c *Client) CreateSession(ctx context.Context, email, password string) error {
	if c.opts.OAuth == nil {
		return ErrNoOAuthClient
	}
	token, err := c.authorize(ctx, email)
	if err != nil {
		return err
	}
	if c.opts.Config != nil {
		if err := c.opts.Config.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := saveToken(c.opts.Config.TokenPath(), token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
	}
	c.reset()
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// DeleteSession implements gateway.Gateway. Revocation is best effort;
// token.json is always removed.
func (c *Client) DeleteSession(ctx context.Context) error {
	c.mu.Lock()
	token, err := c.loadToken()
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.revoke(ctx, token); err != nil {
		c.log.Debug("token revocation failed", "err", err)
	}
	if c.opts.Config != nil {
		if err := c.opts.Config.RemoveToken(); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
	}
	c.reset()
	return nil
}

// CreateAccount implements gateway.Gateway. Google accounts cannot be created here.
func (c *Client) CreateAccount(ctx context.Context, id, email, password, name string) error {
	return fmt.Errorf("create a Google account at accounts.google.com: %w", gateway.ErrUnsupported)
}

// ListTasks implements gateway.Gateway. New tasks are inserted at the top of
// the list, so position order is newest first for tasks created here.
func (c *Client) ListTasks(ctx context.Context, ownerID string) ([]gateway.Task, error) {
	if err := c.checkOwner(ownerID); err != nil {
		return nil, err
	}
	svc, listID, err := c.list(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var items []*tasks.Task
	err = svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				// Subtask positions are relative to their parent.
				if item.Parent == "" {
					items = append(items, item)
				}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	result := make([]gateway.Task, 0, len(items))
	for _, item := range items {
		result = append(result, toTask(item, ownerID))
	}
	return result, nil
}

// CreateTask implements gateway.Gateway. Google assigns its own task id;
// the returned record carries it.
func (c *Client) CreateTask(ctx context.Context, id string, draft gateway.TaskDraft) (gateway.Task, error) {
	if err := c.checkOwner(draft.OwnerID); err != nil {
		return gateway.Task{}, err
	}
	svc, listID, err := c.list(ctx)
	if err != nil {
		return gateway.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	task := &tasks.Task{Title: draft.Title, Status: statusNeedsAction}
	if draft.Completed {
		task.Status = statusCompleted
	}
	created, err := svc.Tasks.Insert(listID, task).Context(ctx).Do()
	if err != nil {
		return gateway.Task{}, wrapError(err)
	}
	return toTask(created, draft.OwnerID), nil
}

// UpdateTask implements gateway.Gateway.
func (c *Client) UpdateTask(ctx context.Context, id string, completed bool) (gateway.Task, error) {
	svc, listID, err := c.list(ctx)
	if err != nil {
		return gateway.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	patch := &tasks.Task{Status: statusCompleted}
	if !completed {
		// Reopening also clears the completion date.
		patch.Status = statusNeedsAction
		patch.NullFields = []string{"Completed"}
	}
	updated, err := svc.Tasks.Patch(listID, id, patch).Context(ctx).Do()
	if err != nil {
		return gateway.Task{}, wrapError(err)
	}
	return toTask(updated, c.ownerID()), nil
}

// DeleteTask implements gateway.Gateway.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	svc, listID, err := c.list(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := svc.Tasks.Delete(listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// list returns the tasks service and the id of the configured task list,
// creating the list if it does not exist.
func (c *Client) list(ctx context.Context) (*tasks.Service, string, error) {
	svc, _, err := c.services()
	if err != nil {
		return nil, "", err
	}
	c.mu.Lock()
	listID := c.listID
	c.mu.Unlock()
	if listID != "" {
		return svc, listID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	want := strings.ToLower(strings.TrimSpace(c.opts.TaskList))
	err = svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if listID == "" && strings.ToLower(strings.TrimSpace(list.Title)) == want {
				listID = list.Id
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", wrapError(err)
	}
	if listID == "" {
		created, err := svc.Tasklists.Insert(&tasks.TaskList{Title: c.opts.TaskList}).Context(ctx).Do()
		if err != nil {
			return nil, "", wrapError(err)
		}
		c.log.Debug("created task list", "title", c.opts.TaskList, "id", created.Id)
		listID = created.Id
	}

	c.mu.Lock()
	c.listID = listID
	c.mu.Unlock()
	return svc, listID, nil
}

// checkOwner rejects owners other than the resolved identity.
func (c *Client) checkOwner(ownerID string) error {
	if current := c.ownerID(); current != "" && current != ownerID {
		return gateway.ErrForbidden
	}
	return nil
}

func (c *Client) ownerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.ID
}

// toTask converts an API task. Google Tasks has no creation time; the last
// update time is the closest available.
func toTask(t *tasks.Task, ownerID string) gateway.Task {
	task := gateway.Task{
		ID:        t.Id,
		Title:     t.Title,
		Completed: t.Status == statusCompleted,
		OwnerID:   ownerID,
	}
	if updated, err := time.Parse(time.RFC3339, t.Updated); err == nil {
		task.CreatedAt = updated
	}
	return task
}

// revoke invalidates the token at Google.
func (c *Client) revoke(ctx context.Context, token *oauth2.Token) error {
	value := token.RefreshToken
	if value == "" {
		value = token.AccessToken
	}
	if value == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body := strings.NewReader(url.Values{"token": {value}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.RevokeURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := c.opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke returned %s", resp.Status)
	}
	return nil
}

// saveToken saves an OAuth token to a file with mode 0600.
func saveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
