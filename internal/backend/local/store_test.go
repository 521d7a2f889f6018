package local

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lijstje/internal/gateway"
	"lijstje/internal/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTest(t *testing.T) (*Store, *testutil.MemorySessions, *clock) {
	t.Helper()
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 10, 27, 12, 0, 0, 0, time.UTC)}
	sessions := &testutil.MemorySessions{}
	s, err := Open(ctx, Options{
		Path:       filepath.Join(t.TempDir(), "lijstje.db"),
		Sessions:   sessions,
		BcryptCost: bcrypt.MinCost,
		Now:        clk.now,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, sessions, clk
}

func signedUp(t *testing.T) (*Store, *testutil.MemorySessions, *clock) {
	t.Helper()
	s, sessions, clk := openTest(t)
	ctx := context.Background()
	if err := s.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan Jansen"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := s.CreateSession(ctx, "jan@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s, sessions, clk
}

func TestAccountAndSession(t *testing.T) {
	s, sessions, _ := signedUp(t)
	ctx := context.Background()

	ident, err := s.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if ident.ID != "u1" || ident.Name != "Jan Jansen" || ident.Email != "jan@test.nl" {
		t.Errorf("unexpected identity %+v", ident)
	}
	if !ident.CreatedAt.Equal(time.Date(2024, 10, 27, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected creation time %v", ident.CreatedAt)
	}

	// The stored token is not what the database keeps.
	var stored string
	if err := s.db.QueryRowContext(ctx, `SELECT token_hash FROM sessions`).Scan(&stored); err != nil {
		t.Fatalf("query: %v", err)
	}
	if stored == sessions.Secret() || stored != hashToken(sessions.Secret()) {
		t.Error("expected token to be stored hashed")
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	s, _, _ := signedUp(t)

	err := s.CreateAccount(context.Background(), "u2", "JAN@test.nl", "password123", "Jan")

	if !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestCreateAccount_ShortPassword(t *testing.T) {
	s, _, _ := openTest(t)

	err := s.CreateAccount(context.Background(), "u1", "jan@test.nl", "abc", "Jan")

	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := s.CreateSession(context.Background(), "jan@test.nl", "abc"); !errors.Is(err, gateway.ErrInvalidCredentials) {
		t.Errorf("expected no account to be stored, got %v", err)
	}
}

func TestCreateSession_InvalidCredentials(t *testing.T) {
	s, _, _ := openTest(t)
	ctx := context.Background()
	_ = s.CreateAccount(ctx, "u1", "jan@test.nl", "password123", "Jan")

	for _, c := range []struct{ email, password string }{
		{"jan@test.nl", "wrong-password"},
		{"piet@test.nl", "password123"},
	} {
		if err := s.CreateSession(ctx, c.email, c.password); !errors.Is(err, gateway.ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", c.email, err)
		}
	}
}

func TestCurrentSession_Expired(t *testing.T) {
	s, _, clk := signedUp(t)
	clk.advance(SessionLifetime)

	if _, err := s.CurrentSession(context.Background()); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s, sessions, _ := signedUp(t)
	ctx := context.Background()

	if err := s.DeleteSession(ctx); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if sessions.Secret() != "" {
		t.Error("expected local token removed")
	}
	if _, err := s.CurrentSession(ctx); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if err := s.DeleteSession(ctx); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession for second logout, got %v", err)
	}
}

func TestTasks_NewestFirst(t *testing.T) {
	s, _, clk := signedUp(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		if _, err := s.CreateTask(ctx, id, gateway.TaskDraft{Title: id, OwnerID: "u1"}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	// Same millisecond: insertion order breaks the tie.
	if _, err := s.CreateTask(ctx, "t3", gateway.TaskDraft{Title: "t3", OwnerID: "u1"}); err != nil {
		t.Fatalf("create t3: %v", err)
	}
	clk.advance(time.Second)
	if _, err := s.CreateTask(ctx, "t4", gateway.TaskDraft{Title: "t4", OwnerID: "u1"}); err != nil {
		t.Fatalf("create t4: %v", err)
	}

	tasks, err := s.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, task := range tasks {
		got = append(got, task.ID)
	}
	want := []string{"t4", "t3", "t2", "t1"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestTasks_UpdateAndDelete(t *testing.T) {
	s, _, _ := signedUp(t)
	ctx := context.Background()
	if _, err := s.CreateTask(ctx, "t1", gateway.TaskDraft{Title: "Stofzuigen", OwnerID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateTask(ctx, "t1", gateway.TaskDraft{Title: "Dubbel", OwnerID: "u1"}); !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate id, got %v", err)
	}

	task, err := s.UpdateTask(ctx, "t1", true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !task.Completed || task.Title != "Stofzuigen" {
		t.Errorf("unexpected record %+v", task)
	}

	if err := s.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.UpdateTask(ctx, "t1", false); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTasks_OwnerScoped(t *testing.T) {
	s, sessions, _ := signedUp(t)
	ctx := context.Background()
	if _, err := s.CreateTask(ctx, "t1", gateway.TaskDraft{Title: "van Jan", OwnerID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.CreateAccount(ctx, "u2", "piet@test.nl", "password123", "Piet"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	_ = sessions.RemoveSession()
	if err := s.CreateSession(ctx, "piet@test.nl", "password123"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := s.ListTasks(ctx, "u1"); !errors.Is(err, gateway.ErrForbidden) {
		t.Errorf("expected ErrForbidden listing another owner, got %v", err)
	}
	if _, err := s.UpdateTask(ctx, "t1", true); !errors.Is(err, gateway.ErrForbidden) {
		t.Errorf("expected ErrForbidden updating another owner's task, got %v", err)
	}
	if err := s.DeleteTask(ctx, "t1"); !errors.Is(err, gateway.ErrForbidden) {
		t.Errorf("expected ErrForbidden deleting another owner's task, got %v", err)
	}
	tasks, err := s.ListTasks(ctx, "u2")
	if err != nil || len(tasks) != 0 {
		t.Errorf("expected empty list for u2, got %v, %v", tasks, err)
	}
}

func TestTasks_RequireSession(t *testing.T) {
	s, _, _ := openTest(t)
	if _, err := s.ListTasks(context.Background(), "u1"); !errors.Is(err, gateway.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}
