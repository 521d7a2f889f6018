package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. It lists the commands of Registry,
// or of DefaultRegistry when nil.
type HelpCmd struct {
	Registry *Registry
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "lijstje help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	reg := c.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	fmt.Fprint(out, helpHeader)
	for _, cmd := range reg.All() {
		names := strings.Join(append([]string{cmd.Name()}, cmd.Aliases()...), ", ")
		fmt.Fprintf(out, "  %-16s %s\n", names, cmd.Synopsis())
		fmt.Fprintf(out, "      %s\n", cmd.Usage())
	}
	fmt.Fprint(out, helpFlags)
	return exitcode.Success
}

const helpHeader = `Usage:
  lijstje [command] [common flags] [args]

Commands (no command runs list):
`

const helpFlags = `
Common flags:
  --config <dir>      Override config directory
  --backend <name>    appwrite, googletasks or local
  --quiet             Suppress informational output
  --debug             Print debug logs to stderr
`
