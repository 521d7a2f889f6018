package commands

import (
	"context"
	"flag"
	"io"
	"testing"

	"lijstje/internal/config"
	"lijstje/internal/gateway"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c stubCmd) Name() string                  { return c.name }
func (c stubCmd) Aliases() []string             { return c.aliases }
func (c stubCmd) Synopsis() string              { return "stub" }
func (c stubCmd) Usage() string                 { return "lijstje " + c.name }
func (c stubCmd) NeedsBackend() bool            { return false }
func (c stubCmd) RegisterFlags(fs *flag.FlagSet) {}
func (c stubCmd) Run(ctx context.Context, cfg *config.Config, gw gateway.Gateway, args []string, out, errOut io.Writer) int {
	return 0
}

func TestRegistry_FindByAlias(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubCmd{name: "rm", aliases: []string{"delete"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd, ok := r.Find("delete")
	if !ok || cmd.Name() != "rm" {
		t.Errorf("expected rm via alias, got %v, %v", cmd, ok)
	}
	if _, ok := r.Find("verwijder"); ok {
		t.Error("expected unknown name to be missing")
	}
}

func TestRegistry_Clashes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubCmd{name: "add", aliases: []string{"create"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := r.Register(stubCmd{name: "create"}); err == nil {
		t.Error("expected name clashing with an alias to fail")
	}
	if err := r.Register(stubCmd{name: "new", aliases: []string{"add"}}); err == nil {
		t.Error("expected alias clashing with a name to fail")
	}
	if _, ok := r.Find("new"); ok {
		t.Error("failed registration must leave the registry unchanged")
	}
}

func TestRegistry_AllSortedOnce(t *testing.T) {
	r := NewRegistry()
	for _, c := range []stubCmd{{name: "rm", aliases: []string{"delete"}}, {name: "add"}, {name: "list", aliases: []string{"ls"}}} {
		if err := r.Register(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(all))
	}
	for i, want := range []string{"add", "list", "rm"} {
		if all[i].Name() != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].Name())
		}
	}
}
