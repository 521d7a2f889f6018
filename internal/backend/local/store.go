// Package local implements gateway.Gateway on a SQLite database in the
// config directory, for offline use and tests.
package local

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lijstje/internal/config"
	"lijstje/internal/gateway"
)

const (
	// SessionLifetime is how long a session token stays valid.
	SessionLifetime = 30 * 24 * time.Hour

	// MinPasswordLength is the shortest password an account accepts.
	MinPasswordLength = 8
)

// ErrPasswordTooShort is returned by CreateAccount for passwords shorter
// than MinPasswordLength.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// Options configures a Store.
type Options struct {
	// Path of the SQLite database file.
	Path string

	// Sessions stores the session token between runs.
	Sessions config.SessionStore

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int

	// Now defaults to time.Now.
	Now func() time.Time

	Log *slog.Logger
}

// Store implements gateway.Gateway on SQLite.
type Store struct {
	db       *sql.DB
	sessions config.SessionStore
	cost     int
	now      func() time.Time
	log      *slog.Logger
}

var _ gateway.Gateway = (*Store)(nil)

// New opens the database in the config directory.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return Open(ctx, Options{
		Path:     cfg.DatabasePath(),
		Sessions: cfg,
		Log:      cfg.Logger(),
	})
}

// Open opens (and migrates) the database at opts.Path.
func Open(ctx context.Context, opts Options) (*Store, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		sessions: opts.Sessions,
		cost:     opts.BcryptCost,
		now:      opts.Now,
		log:      opts.Log,
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token_hash TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at_unixms INTEGER NOT NULL,
			expires_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			completed INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at_unixms);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// CurrentSession implements gateway.Gateway.
func (s *Store) CurrentSession(ctx context.Context) (gateway.Identity, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return gateway.Identity{}, err
	}

	var ident gateway.Identity
	var createdMs int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at_unixms FROM users WHERE id = ?`, userID,
	).Scan(&ident.ID, &ident.Name, &ident.Email, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.Identity{}, gateway.ErrNoSession
	}
	if err != nil {
		return gateway.Identity{}, err
	}
	ident.CreatedAt = time.UnixMilli(createdMs).UTC()
	return ident, nil
}

// CreateSession implements gateway.Gateway.
func (s *Store) CreateSession(ctx context.Context, email, password string) error {
	var userID, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email,
	).Scan(&userID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return gateway.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(token_hash, user_id, created_at_unixms, expires_at_unixms) VALUES(?, ?, ?, ?)`,
		hashToken(token), userID, now.UnixMilli(), now.Add(SessionLifetime).UnixMilli(),
	); err != nil {
		return err
	}
	s.log.Debug("session created", "user", userID)
	return s.sessions.SaveSession(token)
}

// DeleteSession implements gateway.Gateway.
func (s *Store) DeleteSession(ctx context.Context) error {
	token, err := s.sessions.LoadSession()
	if err != nil {
		return err
	}
	if token == "" {
		return gateway.ErrNoSession
	}
	_, execErr := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token))
	if err := s.sessions.RemoveSession(); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return execErr
}

// CreateAccount implements gateway.Gateway.
func (s *Store) CreateAccount(ctx context.Context, id, email, password, name string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, password_hash, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		id, name, email, string(hash), s.now().UTC().UnixMilli(),
	)
	return mapConstraint(err)
}

// ListTasks implements gateway.Gateway.
func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]gateway.Task, error) {
	if err := s.authorize(ctx, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, completed, created_at_unixms FROM tasks
		 WHERE user_id = ? ORDER BY created_at_unixms DESC, seq DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []gateway.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CreateTask implements gateway.Gateway.
func (s *Store) CreateTask(ctx context.Context, id string, draft gateway.TaskDraft) (gateway.Task, error) {
	if err := s.authorize(ctx, draft.OwnerID); err != nil {
		return gateway.Task{}, err
	}

	task := gateway.Task{
		ID:        id,
		Title:     draft.Title,
		Completed: draft.Completed,
		OwnerID:   draft.OwnerID,
		CreatedAt: time.UnixMilli(s.now().UTC().UnixMilli()).UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, user_id, title, completed, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, boolToInt(task.Completed), task.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return gateway.Task{}, mapConstraint(err)
	}
	return task, nil
}

// UpdateTask implements gateway.Gateway.
func (s *Store) UpdateTask(ctx context.Context, id string, completed bool) (gateway.Task, error) {
	if err := s.authorizeTask(ctx, id); err != nil {
		return gateway.Task{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = ? WHERE id = ?`, boolToInt(completed), id,
	); err != nil {
		return gateway.Task{}, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, completed, created_at_unixms FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// DeleteTask implements gateway.Gateway.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.authorizeTask(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// currentUser returns the user id of the stored, unexpired session.
func (s *Store) currentUser(ctx context.Context) (string, error) {
	token, err := s.sessions.LoadSession()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", gateway.ErrNoSession
	}

	var userID string
	var expiresMs int64
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at_unixms FROM sessions WHERE token_hash = ?`, hashToken(token),
	).Scan(&userID, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", gateway.ErrNoSession
	}
	if err != nil {
		return "", err
	}
	if !s.now().Before(time.UnixMilli(expiresMs)) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hashToken(token))
		return "", gateway.ErrNoSession
	}
	return userID, nil
}

// authorize checks that the current session belongs to ownerID.
func (s *Store) authorize(ctx context.Context, ownerID string) error {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if userID != ownerID {
		return gateway.ErrForbidden
	}
	return nil
}

// authorizeTask checks that task id exists and belongs to the current session.
func (s *Store) authorizeTask(ctx context.Context, id string) error {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	var owner string
	err = s.db.QueryRowContext(ctx, `SELECT user_id FROM tasks WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return gateway.ErrForbidden
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (gateway.Task, error) {
	var (
		task      gateway.Task
		completed int
		createdMs int64
	)
	if err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &completed, &createdMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gateway.Task{}, gateway.ErrNotFound
		}
		return gateway.Task{}, err
	}
	task.Completed = completed != 0
	task.CreatedAt = time.UnixMilli(createdMs).UTC()
	return task, nil
}

// mapConstraint turns unique violations into gateway.ErrConflict.
func mapConstraint(err error) error {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", gateway.ErrConflict, err)
		}
	}
	return err
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
