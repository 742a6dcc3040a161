package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flag
// overrides are applied by the command layer after Load returns.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults matching Default()
	v.SetDefault("service_url", "http://localhost:8000")
	v.SetDefault("tenant_id", "default")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("draft_db_url", "sqlite://ruleforge-drafts.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Bind environment variables with RF_ prefix
	v.SetEnvPrefix("RF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		ServiceURL:     v.GetString("service_url"),
		TenantID:       v.GetString("tenant_id"),
		RequestTimeout: v.GetDuration("request_timeout"),
		DraftDBURL:     v.GetString("draft_db_url"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
