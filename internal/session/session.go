// Package session resolves and holds the current authentication state.
//
// The Controller is the only place that decides which top-level view the
// shell shows: a loading indicator while Resolving, the credential forms
// while Unauthenticated, and the home view while Authenticated.
package session

import (
	"context"
	"log/slog"
	"sync"

	"lijstje/internal/gateway"
	"lijstje/internal/notify"
)

// State is the authentication state.
type State int

const (
	// Resolving means a session lookup is outstanding. It is the initial state.
	Resolving State = iota
	// Unauthenticated means no usable session exists.
	Unauthenticated
	// Authenticated means the gateway reported a current identity.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the controller's state.
// Identity is the zero value unless State is Authenticated.
type Snapshot struct {
	State    State
	Identity gateway.Identity
}

// Controller owns the authentication state.
type Controller struct {
	gw  gateway.Gateway
	n   notify.Notifier
	log *slog.Logger

	mu       sync.Mutex
	state    State
	identity gateway.Identity
}

// New creates a Controller in the Resolving state.
func New(gw gateway.Gateway, n notify.Notifier, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{gw: gw, n: n, log: log, state: Resolving}
}

// Snapshot returns the current state and identity.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Identity: c.identity}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.Snapshot().State
}

// Identity returns the current identity and whether one is present.
func (c *Controller) Identity() (gateway.Identity, bool) {
	s := c.Snapshot()
	return s.Identity, s.State == Authenticated
}

// Resolve asks the gateway for the current session. Any failure, whatever
// its cause, resolves to Unauthenticated; no notification is emitted.
func (c *Controller) Resolve(ctx context.Context) Snapshot {
	c.set(Resolving, gateway.Identity{})

	ident, err := c.gw.CurrentSession(ctx)
	if err != nil {
		c.log.Debug("session resolve failed", "err", err)
		return c.set(Unauthenticated, gateway.Identity{})
	}
	c.log.Debug("session resolved", "identity", ident.ID)
	return c.set(Authenticated, ident)
}

// OnAuthSuccess is called by the credential forms after a successful
// login or signup. It re-resolves rather than trusting a handed-off identity.
func (c *Controller) OnAuthSuccess(ctx context.Context) Snapshot {
	return c.Resolve(ctx)
}

// Logout deletes the current session and resets to Unauthenticated
// whether or not the gateway confirmed the deletion.
func (c *Controller) Logout(ctx context.Context) Snapshot {
	if err := c.gw.DeleteSession(ctx); err != nil {
		c.log.Debug("session delete failed", "err", err)
		notify.Failed(c.n, notify.LogoutFailed)
	} else {
		notify.Succeeded(c.n, notify.LogoutSucceeded)
	}
	return c.set(Unauthenticated, gateway.Identity{})
}

func (c *Controller) set(state State, ident gateway.Identity) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.identity = ident
	return Snapshot{State: state, Identity: ident}
}
