package config

import (
	"errors"
	"time"
)

// APIConfig contains the read-only table API settings.
type APIConfig struct {
	Listen          string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins     []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Validate checks the API configuration for errors.
func (c *APIConfig) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}

	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown_timeout must not be negative")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rate_limit.requests_per_minute must be positive when enabled")
	}

	return nil
}
