// Package config handles chronline configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for chronline.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Sync controller timing
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Timeline domain settings
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
}

// GlobalConfig contains global chronline settings.
type GlobalConfig struct {
	// DataDir is where chronline stores its data (default: ~/.local/share/chronline).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/chronline).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`

	// Origin identifies this process's writes on the change feed.
	// Defaults to a per-process value when empty.
	Origin string `yaml:"origin" mapstructure:"origin"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`

	// WatchFile enables the fsnotify watcher on the database file, so
	// writes from other processes feed the sync controller.
	WatchFile bool `yaml:"watch_file" mapstructure:"watch_file"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`
}

// SyncConfig contains the sync controller's timing windows.
type SyncConfig struct {
	// SuppressionWindow is how long after a local write incoming
	// change notifications are treated as echoes.
	SuppressionWindow time.Duration `yaml:"suppression_window" mapstructure:"suppression_window"`

	// DebounceInterval is the quiet period required before a foreign
	// change triggers a reload.
	DebounceInterval time.Duration `yaml:"debounce_interval" mapstructure:"debounce_interval"`
}

// TimelineConfig contains domain settings.
type TimelineConfig struct {
	// ExtraIcons extends the built-in icon set.
	ExtraIcons []string `yaml:"extra_icons" mapstructure:"extra_icons"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "chronline"),
			ConfigDir: filepath.Join(homeDir, ".config", "chronline"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/chronline.db
			BusyTimeoutMs: 5000,
			WatchFile:     true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Sync: SyncConfig{
			SuppressionWindow: 300 * time.Millisecond,
			DebounceInterval:  500 * time.Millisecond,
		},
		Timeline: TimelineConfig{},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}

	if c.Sync.SuppressionWindow < 10*time.Millisecond {
		return fmt.Errorf("sync.suppression_window must be at least 10ms")
	}

	if c.Sync.DebounceInterval < 10*time.Millisecond {
		return fmt.Errorf("sync.debounce_interval must be at least 10ms")
	}

	switch c.Logging.Format {
	case "json", "console":
		// ok
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	for i, icon := range c.Timeline.ExtraIcons {
		if icon == "" {
			return fmt.Errorf("timeline.extra_icons[%d] must not be empty", i)
		}
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "chronline.db")
}
