// Package config loads the runtime's configuration from an optional YAML
// file layered with environment-variable overrides, following the
// defaults()-on-a-struct pattern used throughout the wider codebase.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RateLimit configures the per-IP fixed-window limiter guarding POST /messages.
type RateLimit struct {
	MaxRequests   int `yaml:"max_requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Browser configures the Driven Browser Runtime.
type Browser struct {
	StealthLevel     string   `yaml:"stealth_level"` // "http" | "headless" | "headful"
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// Search configures the Search Fallback Engine.
type Search struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// Config is the top-level runtime configuration.
type Config struct {
	Host        string    `yaml:"host"`
	Port        int       `yaml:"port"`
	LogLevel    string    `yaml:"log_level"`
	AuditDBPath string    `yaml:"audit_db_path"`
	RateLimit   RateLimit `yaml:"rate_limit"`
	Browser     Browser   `yaml:"browser"`
	Search      Search    `yaml:"search"`
}

func (c *Config) defaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8787
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AuditDBPath == "" {
		c.AuditDBPath = "shopagent-audit.db"
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 120
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Browser.StealthLevel == "" {
		c.Browser.StealthLevel = "headless"
	}
	if c.Search.CooldownSeconds <= 0 {
		c.Search.CooldownSeconds = 60
	}
}

// Load reads path if it exists (a missing file is not an error — it just
// means "use defaults"), then applies MCP_HOST/MCP_PORT/LOG_LEVEL env
// overrides, then fills remaining zero values with defaults().
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if v := os.Getenv("MCP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.defaults()
	return cfg, nil
}
