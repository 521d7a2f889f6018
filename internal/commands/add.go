package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/tasklist"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "lijstje add [common flags] <title...>" }
func (c *AddCmd) NeedsBackend() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	n := newTracker(cfg, out, errOut)
	snap, code := resolve(ctx, cfg, gw, n, errOut)
	if code != exitcode.Success {
		return code
	}

	tasks := tasklist.New(gw, n, cfg.Logger(), snap.Identity.ID)
	if _, err := tasks.Create(ctx, title); err != nil {
		if errors.Is(err, tasklist.ErrBlankTitle) {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		return exitcode.BackendError
	}
	return exitcode.Success
}
