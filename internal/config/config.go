// Package config loads ctm configuration from a TOML file with sane
// defaults, so a missing config is never an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config controls where shared state lives and how agents are launched.
type Config struct {
	// StorageRoot holds the sessions/ and mail/ directories shared by every
	// ctm invocation on this machine.
	StorageRoot string `toml:"storage_root"`
	// TmuxSession is the tmux session agent windows are created in.
	TmuxSession string `toml:"tmux_session"`
	// AgentCommand is the command launched in each new window.
	AgentCommand string `toml:"agent_command"`
	// SpawnAttempts bounds the id disambiguation retry loop.
	SpawnAttempts int `toml:"spawn_attempts"`
	// MailRetentionHours is how long an orphaned mailbox (messages queued
	// for an id that was never spawned) survives an explicit cleanup.
	MailRetentionHours int `toml:"mail_retention_hours"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StorageRoot:        defaultStorageRoot(),
		TmuxSession:        "claude",
		AgentCommand:       "claude",
		SpawnAttempts:      5,
		MailRetentionHours: 168,
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ctm", "config.toml")
}

// Load reads the config at path, or the default path when empty. A missing
// file yields the defaults; values present in the file override them
// individually.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if cfg.SpawnAttempts <= 0 {
		cfg.SpawnAttempts = Default().SpawnAttempts
	}
	if cfg.MailRetentionHours <= 0 {
		cfg.MailRetentionHours = Default().MailRetentionHours
	}
	return cfg, nil
}

// SessionsDir returns the shared session record directory.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.StorageRoot, "sessions")
}

// MailDir returns the shared mailbox root.
func (c *Config) MailDir() string {
	return filepath.Join(c.StorageRoot, "mail")
}

// MailRetention returns the orphan mailbox retention as a duration.
func (c *Config) MailRetention() time.Duration {
	return time.Duration(c.MailRetentionHours) * time.Hour
}

// defaultStorageRoot resolves the shared state directory. CTM_DATA_DIR wins
// so tests and scripts can point ctm at an isolated root; then XDG, then a
// temp fallback that at least keeps the path absolute.
func defaultStorageRoot() string {
	if dir := os.Getenv("CTM_DATA_DIR"); dir != "" {
		return dir
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return filepath.Join(os.TempDir(), "ctm")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "ctm")
}
