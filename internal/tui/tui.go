// Package tui implements the interactive shell: a loading view while the
// session resolves, the login and signup forms, and the task list home.
package tui

import (
	"context"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"lijstje/internal/app"
	"lijstje/internal/gateway"
)

// Options configures Run.
type Options struct {
	In  io.Reader
	Out io.Writer
	Log *slog.Logger

	// PasswordOptional lets the login form submit without a password, for
	// backends that authenticate in a browser.
	PasswordOptional bool
}

// Run starts the shell against gw and blocks until the user quits or ctx
// is cancelled. The shell renders inline so prompts printed by a backend
// during login stay visible.
func Run(ctx context.Context, gw gateway.Gateway, opts Options) error {
	toasts := &toastSink{}
	a := app.New(gw, toasts, opts.Log)
	a.Login.PasswordOptional = opts.PasswordOptional

	m := newModel(ctx, a, toasts)
	_, err := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(opts.In),
		tea.WithOutput(opts.Out),
	).Run()
	return err
}
