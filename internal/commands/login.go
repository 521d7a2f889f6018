package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"lijstje/internal/backend/googletasks"
	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/forms"
	"lijstje/internal/gateway"
	"lijstje/internal/output"
	"lijstje/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email         string
	password      string
	passwordStdin bool
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in" }
func (c *LoginCmd) Usage() string {
	return "lijstje login [common flags] --email <email> [--password <pw> | --password-stdin]"
}
func (c *LoginCmd) NeedsBackend() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	registerCredentialFlags(fs, &c.email, &c.password, &c.passwordStdin)
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
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

	// Appwrite refuses a second session while one is active.
	if snap := sess.Resolve(ctx); snap.State == session.Authenticated {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", snap.Identity.Email)
		}
		return exitcode.Success
	}

	f := forms.NewLogin(gw, n, cfg.Logger(), welcome(cfg, sess, out))
	f.PasswordOptional = cfg.Backend == config.BackendGoogleTasks
	err = f.Submit(ctx, forms.Credentials{Email: strings.TrimSpace(c.email), Password: password})
	return submitExitCode(cfg, err, errOut)
}

// welcome re-resolves the session after a successful submission and
// greets the identity.
func welcome(cfg *config.Config, sess *session.Controller, out io.Writer) forms.SuccessFunc {
	return func(ctx context.Context) {
		snap := sess.OnAuthSuccess(ctx)
		if snap.State == session.Authenticated && !cfg.Quiet {
			fmt.Fprintln(out, output.Welcome(snap.Identity))
		}
	}
}

// submitExitCode maps a form submission result to an exit code. The form
// has already printed the generic failure notification.
func submitExitCode(cfg *config.Config, err error, errOut io.Writer) int {
	var verr *forms.ValidationError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &verr):
		fmt.Fprintf(errOut, "error: %v\n", verr)
		return exitcode.UserError
	case errors.Is(err, gateway.ErrUnsupported):
		fmt.Fprintf(errOut, "error: not supported by the %s backend\n", cfg.Backend)
		return exitcode.UserError
	case errors.Is(err, googletasks.ErrNoOAuthClient):
		printOAuthSetup(cfg, errOut)
		return exitcode.AuthError
	default:
		return exitcode.AuthError
	}
}

func registerCredentialFlags(fs *flag.FlagSet, email, password *string, passwordStdin *bool) {
	fs.StringVar(email, "email", "", "")
	fs.StringVar(password, "password", "", "")
	fs.BoolVar(passwordStdin, "password-stdin", false, "")
}

// readPassword returns the --password value or the first line of Stdin.
func readPassword(flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		return flagValue, nil
	}
	if flagValue != "" {
		return "", errors.New("cannot use both --password and --password-stdin")
	}
	scanner := bufio.NewScanner(Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", nil
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}

func printOAuthSetup(cfg *config.Config, errOut io.Writer) {
	fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
	fmt.Fprintln(errOut, "To log in with Google Tasks, you need OAuth credentials:")
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(errOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(errOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(errOut, "4. Create OAuth 2.0 credentials:")
	fmt.Fprintln(errOut, "   - Click 'Create Credentials' > 'OAuth client ID'")
	fmt.Fprintln(errOut, "   - Choose 'Desktop app' as application type")
	fmt.Fprintln(errOut, "   - Download the JSON file")
	fmt.Fprintln(errOut, "5. Save it as:")
	fmt.Fprintf(errOut, "   %s/oauth_client.json\n", cfg.Dir)
	fmt.Fprintln(errOut, "")
	fmt.Fprintln(errOut, "Then run 'lijstje login --backend googletasks --email <address>' again.")
}
