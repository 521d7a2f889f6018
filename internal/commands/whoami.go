package commands

import (
	"context"
	"flag"
	"io"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return []string{"account"} }
func (c *WhoamiCmd) Synopsis() string   { return "Show the logged-in account" }
func (c *WhoamiCmd) Usage() string      { return "lijstje whoami [common flags]" }
func (c *WhoamiCmd) NeedsBackend() bool { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	snap, code := resolve(ctx, cfg, gw, newTracker(cfg, out, errOut), errOut)
	if code != exitcode.Success {
		return code
	}
	output.FormatWhoami(out, snap.Identity)
	return exitcode.Success
}
