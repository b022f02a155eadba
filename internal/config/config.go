package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dshills/patrol/internal/rules"
)

// Config represents the complete patrol configuration.
type Config struct {
	Format           string        `mapstructure:"format"`
	FailOn           string        `mapstructure:"fail_on"`
	MaxIssuesPerFile int           `mapstructure:"max_issues_per_file"`
	MinSeverity      string        `mapstructure:"min_severity"`
	Include          []string      `mapstructure:"include"`
	Exclude          []string      `mapstructure:"exclude"`
	MaxFileBytes     int64         `mapstructure:"max_file_bytes"`
	Analyzers        []string      `mapstructure:"analyzers"`
	Engine           EngineConfig  `mapstructure:"engine"`
	Cache            CacheConfig   `mapstructure:"cache"`
	Watch            WatchConfig   `mapstructure:"watch"`
	Privacy          PrivacyConfig `mapstructure:"privacy"`
	Logging          LoggingConfig `mapstructure:"logging"`
}

// EngineConfig tunes the parallel execution engine.
type EngineConfig struct {
	// Workers is the fixed pool size.
	Workers int `mapstructure:"workers"`
	// QueueCapacity bounds the backlog of undispatched tasks.
	QueueCapacity int `mapstructure:"queue_capacity"`
	// TaskTimeoutMs is the per-task deadline in milliseconds.
	TaskTimeoutMs int `mapstructure:"task_timeout_ms"`
	// ShutdownGraceMs is how long shutdown waits for busy workers.
	ShutdownGraceMs int `mapstructure:"shutdown_grace_ms"`
	// RespawnBudget is how many crashed workers get replaced per run.
	RespawnBudget int `mapstructure:"respawn_budget"`
}

// CacheConfig controls result caching behavior.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Dir        string `mapstructure:"dir"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// DebounceMs is how long to wait after the last file event before
	// re-analyzing, in milliseconds.
	DebounceMs int `mapstructure:"debounce_ms"`
}

// PrivacyConfig controls snippet redaction.
type PrivacyConfig struct {
	RedactSnippets bool     `mapstructure:"redact_snippets"`
	RedactPaths    []string `mapstructure:"redact_paths"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `mapstructure:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// TaskTimeout returns the per-task deadline as a time.Duration.
func (e *EngineConfig) TaskTimeout() time.Duration {
	return time.Duration(e.TaskTimeoutMs) * time.Millisecond
}

// ShutdownGrace returns the shutdown grace period as a time.Duration.
func (e *EngineConfig) ShutdownGrace() time.Duration {
	return time.Duration(e.ShutdownGraceMs) * time.Millisecond
}

// Debounce returns the watch debounce interval as a time.Duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Format:           "text",
		FailOn:           "none",
		MaxIssuesPerFile: 50,
		MinSeverity:      "",
		Include:          []string{},
		Exclude:          []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/node_modules/**"},
		MaxFileBytes:     1 << 20,
		Analyzers:        []string{},
		Engine: EngineConfig{
			Workers:         4,
			QueueCapacity:   256,
			TaskTimeoutMs:   30000,
			ShutdownGraceMs: 5000,
			RespawnBudget:   2,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        "",
			TTLSeconds: 86400,
		},
		Watch: WatchConfig{
			DebounceMs: 250,
		},
		Privacy: PrivacyConfig{
			RedactSnippets: true,
			RedactPaths:    []string{"**/.env", "**/*secrets*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("format", defaults.Format)
	viper.SetDefault("fail_on", defaults.FailOn)
	viper.SetDefault("max_issues_per_file", defaults.MaxIssuesPerFile)
	viper.SetDefault("min_severity", defaults.MinSeverity)
	viper.SetDefault("include", defaults.Include)
	viper.SetDefault("exclude", defaults.Exclude)
	viper.SetDefault("max_file_bytes", defaults.MaxFileBytes)
	viper.SetDefault("analyzers", defaults.Analyzers)

	viper.SetDefault("engine.workers", defaults.Engine.Workers)
	viper.SetDefault("engine.queue_capacity", defaults.Engine.QueueCapacity)
	viper.SetDefault("engine.task_timeout_ms", defaults.Engine.TaskTimeoutMs)
	viper.SetDefault("engine.shutdown_grace_ms", defaults.Engine.ShutdownGraceMs)
	viper.SetDefault("engine.respawn_budget", defaults.Engine.RespawnBudget)

	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.dir", defaults.Cache.Dir)
	viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)

	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	viper.SetDefault("privacy.redact_snippets", defaults.Privacy.RedactSnippets)
	viper.SetDefault("privacy.redact_paths", defaults.Privacy.RedactPaths)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
}

// Init wires defaults, the config file, and PATROL_* environment
// variables into viper. A missing config file is not an error.
func Init() error {
	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(ConfigDir())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("PATROL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values against their allowed ranges.
func (c *Config) Validate() error {
	validFormats := map[string]bool{"text": true, "json": true, "markdown": true, "sarif": true, "junit": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format %q (valid: text, json, markdown, sarif, junit)", c.Format)
	}

	validSeverities := map[string]bool{"none": true, "low": true, "medium": true, "high": true}
	if !validSeverities[c.FailOn] {
		return fmt.Errorf("invalid fail_on %q (valid: none, low, medium, high)", c.FailOn)
	}
	if c.MinSeverity != "" && !validSeverities[c.MinSeverity] {
		return fmt.Errorf("invalid min_severity %q (valid: low, medium, high)", c.MinSeverity)
	}

	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Engine.QueueCapacity < 1 {
		return fmt.Errorf("engine.queue_capacity must be at least 1, got %d", c.Engine.QueueCapacity)
	}
	if c.Engine.RespawnBudget < 0 {
		return fmt.Errorf("engine.respawn_budget cannot be negative, got %d", c.Engine.RespawnBudget)
	}

	for _, name := range c.Analyzers {
		if !rules.Known(name) {
			return fmt.Errorf("unknown analyzer %q (valid: %s)", name, strings.Join(rules.Names(), ", "))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level %q (valid: debug, info, warn, error)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format %q (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patrol")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".patrol"
	}
	return filepath.Join(home, ".config", "patrol")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// WriteDefault writes the effective settings to the config file and
// returns its path. It refuses to overwrite an existing file.
func WriteDefault() (string, error) {
	path := ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// Set updates a single key and persists the config file. Used by the
// `patrol config set` command.
func Set(key, value string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	viper.Set(key, value)

	if _, err := Load(); err != nil {
		return err
	}

	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := viper.WriteConfigAs(ConfigFile()); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
