package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"lijstje/internal/cli"
	"lijstje/internal/commands"
	"lijstje/internal/config"
	"lijstje/internal/exitcode"
	"lijstje/internal/gateway"
	"lijstje/internal/testutil"
)

// testFactory creates a gateway factory that returns gw and records the
// backend it was asked for.
func testFactory(gw gateway.Gateway, backend *string) cli.GatewayFactory {
	return func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
		if backend != nil {
			*backend = cfg.Backend
		}
		return gw, nil
	}
}

// closingGateway records whether the dispatcher closed it.
type closingGateway struct {
	*testutil.FakeGateway
	closed bool
}

func (g *closingGateway) Close() error {
	g.closed = true
	return nil
}

func run(t *testing.T, factory cli.GatewayFactory, args ...string) (string, string, int) {
	t.Helper()
	t.Setenv("LIJSTJE_BACKEND", "")
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeGateway(), nil), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeGateway(), nil), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "help", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !bytes.Contains([]byte(stdout), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionDoesNotOpenBackend(t *testing.T) {
	opened := false
	factory := func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
		opened = true
		return nil, errors.New("unreachable")
	}

	stdout, _, code := run(t, factory, "version", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "lijstje 0.1.0\n" {
		t.Errorf("expected 'lijstje 0.1.0\\n', got %q", stdout)
	}
	if opened {
		t.Error("version must not open a backend")
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	_, stderr, code := run(t, nil, "login", "--email")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -email\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_BackendFlag(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.AddAccount("u1", "Jan Jansen", "jan@test.nl", "password123")
	gw.LogIn("u1")
	var backend string

	_, _, code := run(t, testFactory(gw, &backend), "list", "--config", t.TempDir(), "--backend", "local")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if backend != config.BackendLocal {
		t.Errorf("expected backend %q, got %q", config.BackendLocal, backend)
	}
}

func TestDispatcher_UnknownBackend(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeGateway(), nil), "list", "--config", t.TempDir(), "--backend", "firebase")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown backend: firebase\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (gateway.Gateway, error) {
		return nil, errors.New("database is locked")
	}

	_, stderr, code := run(t, factory, "list", "--config", t.TempDir())

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: database is locked\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_NoArgsListsAndClosesBackend(t *testing.T) {
	gw := &closingGateway{FakeGateway: testutil.NewFakeGateway()}
	gw.AddAccount("u1", "Jan Jansen", "jan@test.nl", "password123")
	gw.LogIn("u1")
	gw.AddTask(gateway.Task{ID: "t1", Title: "Boodschappen", OwnerID: "u1", CreatedAt: testutil.BaseTime})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	stdout, stderr, code := run(t, testFactory(gw, nil))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "   1  [ ] Boodschappen\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if gw.CallCount(testutil.OpListTasks) != 1 {
		t.Error("expected no arguments to run list")
	}
	if !gw.closed {
		t.Error("expected backend to be closed")
	}
}
