package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// storedSession is the on-disk form of a session file.
type storedSession struct {
	Backend   string    `json:"backend"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists the secret of the current session.
// Backends receive it as an interface so tests can swap in memory stores.
type SessionStore interface {
	LoadSession() (string, error)
	SaveSession(secret string) error
	RemoveSession() error
}

// LoadSession returns the stored session secret for the configured backend.
// Returns "" and no error if no session is stored. Each backend has its own
// file; a record naming another backend is ignored.
func (c *Config) LoadSession() (string, error) {
	data, err := os.ReadFile(c.SessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", c.sessionFile(), err)
	}
	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("invalid %s: %w", c.sessionFile(), err)
	}
	if s.Backend != c.Backend {
		return "", nil
	}
	return s.Secret, nil
}

// SaveSession writes the session secret with mode 0600.
func (c *Config) SaveSession(secret string) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(storedSession{
		Backend:   c.Backend,
		Secret:    secret,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionPath(), data, 0600)
}

// RemoveSession deletes the session file. A missing file is not an error.
func (c *Config) RemoveSession() error {
	err := os.Remove(c.SessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// HasSession checks if a session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}
