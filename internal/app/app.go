// Package app wires the session controller, the credential forms and the
// task list controller together.
package app

import (
	"context"
	"log/slog"
	"sync"

	"lijstje/internal/forms"
	"lijstje/internal/gateway"
	"lijstje/internal/notify"
	"lijstje/internal/session"
	"lijstje/internal/tasklist"
)

// App is the state behind every view: which top-level view to show and,
// when authenticated, the task list of the current identity.
type App struct {
	gw  gateway.Gateway
	n   notify.Notifier
	log *slog.Logger

	Session *session.Controller
	Login   *forms.Login
	Signup  *forms.Signup

	mu    sync.Mutex
	tasks *tasklist.Controller
}

// New creates an App in the Resolving state. Nothing is fetched until Start.
func New(gw gateway.Gateway, n notify.Notifier, log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	a := &App{gw: gw, n: n, log: log}
	a.Session = session.New(gw, n, log)
	a.Login = forms.NewLogin(gw, n, log, a.onAuthSuccess)
	a.Signup = forms.NewSignup(gw, n, log, a.onAuthSuccess)
	return a
}

// Start resolves the session and, if authenticated, loads the task list.
func (a *App) Start(ctx context.Context) session.Snapshot {
	snap := a.Session.Resolve(ctx)
	a.sync(ctx, snap)
	return snap
}

// Snapshot returns the current session state.
func (a *App) Snapshot() session.Snapshot {
	return a.Session.Snapshot()
}

// Tasks returns the task list of the current identity, or nil when not
// authenticated.
func (a *App) Tasks() *tasklist.Controller {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tasks
}

// Logout ends the session and tears down the task list.
func (a *App) Logout(ctx context.Context) session.Snapshot {
	snap := a.Session.Logout(ctx)
	a.sync(ctx, snap)
	return snap
}

func (a *App) onAuthSuccess(ctx context.Context) {
	snap := a.Session.OnAuthSuccess(ctx)
	a.sync(ctx, snap)
}

// sync keeps exactly one task list per authenticated identity. A new list
// is created and loaded only when the identity id changes.
func (a *App) sync(ctx context.Context, snap session.Snapshot) {
	a.mu.Lock()
	if snap.State != session.Authenticated {
		a.tasks = nil
		a.mu.Unlock()
		return
	}
	if a.tasks != nil && a.tasks.Owner() == snap.Identity.ID {
		a.mu.Unlock()
		return
	}
	tasks := tasklist.New(a.gw, a.n, a.log, snap.Identity.ID)
	a.tasks = tasks
	a.mu.Unlock()

	a.log.Debug("loading tasks", "owner", snap.Identity.ID)
	_ = tasks.Load(ctx)
}
