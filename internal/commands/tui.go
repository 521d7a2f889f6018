package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/tui"
)

func init() {
	Register(&TUICmd{})
}

// TUICmd implements the tui command.
type TUICmd struct{}

func (c *TUICmd) Name() string       { return "tui" }
func (c *TUICmd) Aliases() []string  { return []string{"ui"} }
func (c *TUICmd) Synopsis() string   { return "Start the interactive shell" }
func (c *TUICmd) Usage() string      { return "lijstje tui [common flags]" }
func (c *TUICmd) NeedsBackend() bool { return true }

func (c *TUICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *TUICmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	opts := tui.Options{
		In:               Stdin,
		Out:              out,
		Log:              cfg.Logger(),
		PasswordOptional: cfg.Backend == config.BackendGoogleTasks,
	}
	if err := tui.Run(ctx, gw, opts); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
