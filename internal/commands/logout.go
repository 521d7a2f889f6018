package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/session"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "End the current session" }
func (c *LogoutCmd) Usage() string      { return "lijstje logout [common flags]" }
func (c *LogoutCmd) NeedsBackend() bool { return true }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	n := newTracker(cfg, out, errOut)
	sess := session.New(gw, n, cfg.Logger())

	if snap := sess.Resolve(ctx); snap.State != session.Authenticated {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	sess.Logout(ctx)
	if n.Failed() {
		return exitcode.BackendError
	}
	return exitcode.Success
}
