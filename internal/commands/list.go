package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
type ListCmd struct{}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks, newest first" }
func (c *ListCmd) Usage() string      { return "lijstje list [common flags]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks, code := openTasks(ctx, cfg, gw, newTracker(cfg, out, errOut), errOut)
	if code != exitcode.Success {
		return code
	}
	output.FormatTasks(out, tasks.Tasks())
	return exitcode.Success
}
