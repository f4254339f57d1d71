package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath    string // .hcl/.yaml file or directory; empty uses the built-in profile
	BenchmarkName string
	Scenes        []string // overrides the configured scene list

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	MetricsFile     string

	DryRun       bool
	CheckData    bool
	StrictReport bool

	ArchiveAccessKey string
	ArchiveSecretKey string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.Scenes != nil && len(cfg.Scenes) == 0 {
		return nil, errors.New("scene override must not be empty")
	}
	return &cfg, nil
}
