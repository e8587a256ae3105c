package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"mvdan.cc/sh/v3/shell"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "UNITYCTX_CONFIG"

// Config represents the top-level application configuration.
type Config struct {
	Analyzer  AnalyzerConfig  `toml:"analyzer"`
	Workspace WorkspaceConfig `toml:"workspace"`
	HTTP      HTTPConfig      `toml:"http"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
}

// AnalyzerConfig describes the external analyzer executable and the budget
// each invocation gets.
type AnalyzerConfig struct {
	Path string `toml:"path"`
	// ExtraArgs is a shell-style word list appended to every invocation.
	ExtraArgs         string        `toml:"extra_args"`
	CredentialEnv     string        `toml:"credential_env"`
	FileTimeout       time.Duration `toml:"file_timeout"`
	ProjectTimeout    time.Duration `toml:"project_timeout"`
	MaxConcurrent     int           `toml:"max_concurrent"`
	VersionConstraint string        `toml:"version_constraint"`
}

// WorkspaceConfig controls where per-run working directories live and how
// many finished runs are kept around for archive export.
type WorkspaceConfig struct {
	Root   string `toml:"root"`
	Retain int    `toml:"retain"`
}

// HTTPConfig holds settings for the HTTP front-end.
type HTTPConfig struct {
	Addr         string  `toml:"addr"`
	RateLimit    float64 `toml:"rate_limit"`
	Burst        int     `toml:"burst"`
	MaxBodyBytes int64   `toml:"max_body_bytes"`
}

// StoreConfig selects the run ledger database. An empty DSN means the
// default SQLite file under the user config directory.
type StoreConfig struct {
	DSN string `toml:"dsn"`
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Path:              "./build/CLI/unity_context_generator",
			CredentialEnv:     "ANTHROPIC_API_KEY",
			FileTimeout:       30 * time.Second,
			ProjectTimeout:    120 * time.Second,
			MaxConcurrent:     2,
			VersionConstraint: ">= 1.0.0",
		},
		Workspace: WorkspaceConfig{
			Root:   filepath.Join(os.TempDir(), "unityctx"),
			Retain: 5,
		},
		HTTP: HTTPConfig{
			Addr:         "localhost:5000",
			RateLimit:    2,
			Burst:        4,
			MaxBodyBytes: 1 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns $UNITYCTX_CONFIG, or ~/.config/unityctx/config.toml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "unityctx", "config.toml")
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error and yields DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.Analyzer.Path == "" {
		return fmt.Errorf("analyzer.path must not be empty")
	}
	if c.Analyzer.FileTimeout <= 0 || c.Analyzer.ProjectTimeout <= 0 {
		return fmt.Errorf("analyzer timeouts must be positive")
	}
	if c.Analyzer.MaxConcurrent < 1 {
		return fmt.Errorf("analyzer.max_concurrent must be at least 1")
	}
	if c.Workspace.Retain < 0 {
		return fmt.Errorf("workspace.retain must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := c.Analyzer.ExtraArgList(); err != nil {
		return err
	}
	return nil
}

// ExtraArgList splits ExtraArgs into words using shell quoting rules.
func (a AnalyzerConfig) ExtraArgList() ([]string, error) {
	if a.ExtraArgs == "" {
		return nil, nil
	}
	words, err := shell.Fields(a.ExtraArgs, nil)
	if err != nil {
		return nil, fmt.Errorf("analyzer.extra_args: %w", err)
	}
	return words, nil
}
