package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/forms"
	"lijstje/internal/gateway"
	"lijstje/internal/session"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	name          string
	email         string
	password      string
	passwordStdin bool
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account and log in" }
func (c *SignupCmd) Usage() string {
	return "lijstje signup [common flags] --name <name> --email <email> [--password <pw> | --password-stdin]"
}
func (c *SignupCmd) NeedsBackend() bool { return true }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	registerCredentialFlags(fs, &c.email, &c.password, &c.passwordStdin)
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	password, err := readPassword(c.password, c.passwordStdin)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	n := newTracker(cfg, out, errOut)
	sess := session.New(gw, n, cfg.Logger())

	if snap := sess.Resolve(ctx); snap.State == session.Authenticated {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", snap.Identity.Email)
		}
		return exitcode.Success
	}

	f := forms.NewSignup(gw, n, cfg.Logger(), welcome(cfg, sess, out))
	err = f.Submit(ctx, forms.Credentials{
		Name:     c.name,
		Email:    strings.TrimSpace(c.email),
		Password: password,
	})
	return submitExitCode(cfg, err, errOut)
}
