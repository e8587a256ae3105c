// cmd/unityctx/main.go
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/julianshen/unityctx/internal/config"
	"github.com/julianshen/unityctx/internal/logging"
	"github.com/julianshen/unityctx/internal/runner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded by the root command's PersistentPreRunE.
	cfg *config.Config
)

func versionString() string {
	return fmt.Sprintf("unityctx %s (commit: %s, built: %s)", version, commit, date)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "unityctx",
		Short: "Unity C# analysis context for LLMs",
		Long: `unityctx runs the Unity context analyzer on scripts and projects and turns
its artifacts into markdown context for LLM assistants. It serves the same
pipeline over MCP (stdio) and a JSON HTTP API, or runs it once from the shell.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: $UNITYCTX_CONFIG or ~/.config/unityctx/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveMCPCmd())
	rootCmd.AddCommand(serveHTTPCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(runsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(runner.ExitCodeFor(err))
	}
}

// setup loads .env, the config file and flag overrides, then configures
// logging. Logs always go to stderr; stdout belongs to command output or
// the MCP transport.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", cfg.Log.Format)
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

// loadConfig resolves the config path, loads the config, and applies flag
// overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	return c, nil
}
