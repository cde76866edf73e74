package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Set up Viper
	l.setupViper(cfg)

	// Load config file
	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply env var overrides (Viper's Unmarshal doesn't properly merge env vars for nested structs)
	l.applyEnvOverrides(cfg)

	// Expand ~ in paths
	expandPaths(cfg)

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Database.Path = expandTilde(cfg.Database.Path)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// XDG config directory, then home fallback
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "chronline"))
	}

	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "chronline"))
	}

	// Current directory
	v.AddConfigPath(".")

	// Environment variables - CHRONLINE_ prefix
	v.SetEnvPrefix("CHRONLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults from config struct
	l.setDefaults(cfg)

	// Explicitly bind environment variables (Viper's Unmarshal has issues without this)
	bindEnvVars(v)

	// AutomaticEnv for any keys not explicitly bound
	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Global
	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)
	v.SetDefault("global.origin", cfg.Global.Origin)

	// Database
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.busy_timeout_ms", cfg.Database.BusyTimeoutMs)
	v.SetDefault("database.watch_file", cfg.Database.WatchFile)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)

	// Sync
	v.SetDefault("sync.suppression_window", cfg.Sync.SuppressionWindow)
	v.SetDefault("sync.debounce_interval", cfg.Sync.DebounceInterval)

	// Timeline
	v.SetDefault("timeline.extra_icons", cfg.Timeline.ExtraIcons)
}

// bindEnvVars explicitly binds the env vars viper must honor.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"global.data_dir",
		"global.config_dir",
		"global.origin",
		"database.path",
		"database.busy_timeout_ms",
		"database.watch_file",
		"logging.level",
		"logging.format",
		"logging.file",
		"sync.suppression_window",
		"sync.debounce_interval",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// applyEnvOverrides re-reads the bound keys so env vars win over file
// values inside nested structs.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	v := l.v

	if s := v.GetString("global.data_dir"); s != "" {
		cfg.Global.DataDir = s
	}
	if s := v.GetString("global.config_dir"); s != "" {
		cfg.Global.ConfigDir = s
	}
	if s := v.GetString("global.origin"); s != "" {
		cfg.Global.Origin = s
	}
	if s := v.GetString("database.path"); s != "" {
		cfg.Database.Path = s
	}
	if v.IsSet("database.busy_timeout_ms") {
		cfg.Database.BusyTimeoutMs = v.GetInt("database.busy_timeout_ms")
	}
	if v.IsSet("database.watch_file") {
		cfg.Database.WatchFile = v.GetBool("database.watch_file")
	}
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if s := v.GetString("logging.format"); s != "" {
		cfg.Logging.Format = s
	}
	if s := v.GetString("logging.file"); s != "" {
		cfg.Logging.File = s
	}
	if d := v.GetDuration("sync.suppression_window"); d > 0 {
		cfg.Sync.SuppressionWindow = d
	}
	if d := v.GetDuration("sync.debounce_interval"); d > 0 {
		cfg.Sync.DebounceInterval = d
	}
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// Load is the package-level convenience: default loader, optional
// explicit file.
func Load(configFile string) (*Config, error) {
	loader := NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	return loader.Load()
}
