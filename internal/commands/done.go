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
	Register(NewDoneCmd())
	Register(NewUndoneCmd())
	Register(NewToggleCmd())
}

type toggleMode int

const (
	markDone toggleMode = iota
	markOpen
	flip
)

// ToggleCmd implements the done, undone and toggle commands.
type ToggleCmd struct {
	name     string
	synopsis string
	mode     toggleMode
}

// NewDoneCmd returns the done command.
func NewDoneCmd() *ToggleCmd {
	return &ToggleCmd{name: "done", synopsis: "Mark a task completed", mode: markDone}
}

// NewUndoneCmd returns the undone command.
func NewUndoneCmd() *ToggleCmd {
	return &ToggleCmd{name: "undone", synopsis: "Mark a task open again", mode: markOpen}
}

// NewToggleCmd returns the toggle command.
func NewToggleCmd() *ToggleCmd {
	return &ToggleCmd{name: "toggle", synopsis: "Flip the completion state of a task", mode: flip}
}

func (c *ToggleCmd) Name() string       { return c.name }
func (c *ToggleCmd) Aliases() []string  { return nil }
func (c *ToggleCmd) Synopsis() string   { return c.synopsis }
func (c *ToggleCmd) Usage() string      { return "lijstje " + c.name + " [common flags] <n>" }
func (c *ToggleCmd) NeedsBackend() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	tasks, code := openTasks(ctx, cfg, gw, newTracker(cfg, out, errOut), errOut)
	if code != exitcode.Success {
		return code
	}
	task, ok := taskAt(tasks, num)
	if !ok {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
		return exitcode.UserError
	}

	completed := c.mode == markDone || (c.mode == flip && !task.Completed)
	if err := tasks.Toggle(ctx, task.ID, completed); err != nil {
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		updated, _ := tasks.Find(task.ID)
		output.FormatTask(out, num, updated)
	}
	return exitcode.Success
}
