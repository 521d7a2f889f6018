package commands

import (
	"context"
	"fmt"
	"io"
	"sync"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/notify"
	"lijstje/internal/session"
	"lijstje/internal/tasklist"
)

// tracker prints notifications and remembers whether any was a failure.
type tracker struct {
	w *notify.Writer

	mu     sync.Mutex
	failed bool
}

func newTracker(cfg *config.Config, out, errOut io.Writer) *tracker {
	return &tracker{w: notify.NewWriter(out, errOut, cfg.Quiet)}
}

func (t *tracker) Notify(n notify.Notification) {
	t.mu.Lock()
	if n.Kind == notify.Failure {
		t.failed = true
	}
	t.mu.Unlock()
	t.w.Notify(n)
}

func (t *tracker) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// resolve looks up the current session. It prints the not-logged-in error
// and returns exitcode.AuthError when there is none.
func resolve(ctx context.Context, cfg *config.Config, gw gateway.Gateway, n notify.Notifier, errOut io.Writer) (session.Snapshot, int) {
	snap := session.New(gw, n, cfg.Logger()).Resolve(ctx)
	if snap.State != session.Authenticated {
		fmt.Fprintln(errOut, "error: not logged in (run: lijstje login)")
		return snap, exitcode.AuthError
	}
	return snap, exitcode.Success
}

// openTasks resolves the session and loads the task list of its identity.
func openTasks(ctx context.Context, cfg *config.Config, gw gateway.Gateway, n notify.Notifier, errOut io.Writer) (*tasklist.Controller, int) {
	snap, code := resolve(ctx, cfg, gw, n, errOut)
	if code != exitcode.Success {
		return nil, code
	}
	tasks := tasklist.New(gw, n, cfg.Logger(), snap.Identity.ID)
	if err := tasks.Load(ctx); err != nil {
		return nil, exitcode.BackendError
	}
	return tasks, exitcode.Success
}
