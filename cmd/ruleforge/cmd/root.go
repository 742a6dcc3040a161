package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruleforge/ruleforge/internal/client"
	"github.com/ruleforge/ruleforge/internal/core/config"
)

const Version = "0.1.0"

var (
	configFile string
	serviceURL string
	tenantID   string
	draftDBURL string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "ruleforge",
	Short: "RuleForge rule management CLI",
	Long:  `RuleForge manages the rules of a per-user daily evaluation service: logic trees, message variants, simulation and trigger analytics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "base URL of the rule evaluation service")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant id for rule and simulate calls")
	rootCmd.PersistentFlags().StringVar(&draftDBURL, "draft-db-url", "", "database connection URL for local drafts (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads file/env configuration and applies flag overrides.
// Flags win over environment, environment wins over the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if serviceURL != "" {
		cfg.ServiceURL = serviceURL
	}
	if tenantID != "" {
		cfg.TenantID = tenantID
	}
	if draftDBURL != "" {
		cfg.DraftDBURL = draftDBURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from config. Logs go to stderr so
// stdout stays clean for command output and piped JSON.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newClient builds a service client from config.
func newClient(cfg *config.Config, logger *slog.Logger) (*client.Client, error) {
	c, err := client.New(cfg.ServiceURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}
	return c, nil
}
