// Package config provides configuration management for the ruleforge CLI.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds everything the CLI needs to reach the evaluator service and
// its local draft store.
type Config struct {
	ServiceURL     string        // base URL of the rule-evaluation service
	TenantID       string        // default tenant for rule and simulate calls
	RequestTimeout time.Duration // per-request HTTP timeout
	DraftDBURL     string        // sqlite:// or postgres:// URL for local drafts
	LogLevel       string        // debug, info, warn, error
	LogFormat      string        // json, text
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		ServiceURL:     "http://localhost:8000",
		TenantID:       "default",
		RequestTimeout: 30 * time.Second,
		DraftDBURL:     "sqlite://ruleforge-drafts.db",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Validate checks the service URL scheme, tenant, timeout and log settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("service_url must be an http(s) URL, got %q", c.ServiceURL)
	}
	if c.TenantID == "" {
		return fmt.Errorf("tenant_id must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format must be json or text, got %q", c.LogFormat)
	}
	return nil
}
