// Package config handles the XDG configuration directory, settings and
// the files backends keep there.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the application directory name.
	AppName = "lijstje"

	// SettingsFile is the optional settings filename.
	SettingsFile = "config.json"

	// SessionFilePattern names the per-backend file holding the session
	// secret of the appwrite and local backends.
	SessionFilePattern = "session-%s.json"

	// OAuthClientFile is the OAuth client credentials filename (googletasks).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename (googletasks).
	TokenFile = "token.json"

	// DatabaseFile is the SQLite database filename (local).
	DatabaseFile = "lijstje.db"
)

// Backend names.
const (
	BackendAppwrite    = "appwrite"
	BackendGoogleTasks = "googletasks"
	BackendLocal       = "local"
)

// Defaults for the hosted Appwrite project the app was built against.
const (
	DefaultEndpoint     = "https://cloud.appwrite.io/v1"
	DefaultProjectID    = "671a3b3b001e61070268"
	DefaultDatabaseID   = "671e03290035f2fb88c0"
	DefaultCollectionID = "671e0342000513c274c7"
	DefaultTaskList     = "Snel Lijstje"
)

// Settings are the user-editable values from config.json.
// Empty fields fall back to defaults.
type Settings struct {
	Backend      string `json:"backend,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	DatabaseID   string `json:"database_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	TaskList     string `json:"task_list,omitempty"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	Settings

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Log receives debug logs. Nil means discard.
	Log *slog.Logger
}

// New creates a Config for the default or specified config directory and
// loads config.json and environment overrides.
// If configDir is empty, uses XDG_CONFIG_HOME/lijstje or $HOME/.config/lijstje.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}
	if err := json.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"LIJSTJE_BACKEND", &c.Backend},
		{"LIJSTJE_ENDPOINT", &c.Endpoint},
		{"LIJSTJE_PROJECT", &c.ProjectID},
		{"LIJSTJE_DATABASE", &c.DatabaseID},
		{"LIJSTJE_COLLECTION", &c.CollectionID},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendAppwrite
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.ProjectID == "" {
		c.ProjectID = DefaultProjectID
	}
	if c.DatabaseID == "" {
		c.DatabaseID = DefaultDatabaseID
	}
	if c.CollectionID == "" {
		c.CollectionID = DefaultCollectionID
	}
	if c.TaskList == "" {
		c.TaskList = DefaultTaskList
	}
}

// Validate checks that the backend name is known.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAppwrite, BackendGoogleTasks, BackendLocal:
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
}

// Logger returns the configured logger, or a discarding one.
func (c *Config) Logger() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}

// SettingsPath returns the path to config.json.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// SessionPath returns the path to the session file of the configured backend.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, c.sessionFile())
}

func (c *Config) sessionFile() string {
	return fmt.Sprintf(SessionFilePattern, c.Backend)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// DatabasePath returns the path to the local SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dir, DatabaseFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file. A missing file is not an error.
func (c *Config) RemoveToken() error {
	err := os.Remove(c.TokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
