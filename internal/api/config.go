// Package api provides the HTTP server infrastructure for CallGuard.
// This package contains the main server implementation while the JSON API
// endpoints are organized in the v1 subpackage.
package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tphakala/callguard/internal/conf"
	"github.com/tphakala/callguard/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultAnalysisTimeout = 45 * time.Second
	DefaultBodyLimit       = "25M"
)

// Config holds the HTTP server configuration.
// It consolidates settings from various sources into a single structure
// for easy server initialization.
type Config struct {
	// Server binding
	Host string
	Port int

	// Authentication
	APIKey string

	// Security settings
	AllowedOrigins []string // CORS allowed origins

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown
	AnalysisTimeout time.Duration // Deadline for one pipeline run, 0 disables

	// Limits
	BodyLimit      string // Maximum request body size (e.g., "1M", "10M")
	RateLimit      float64
	RateBurst      int
	AllowedFormats []string

	// Metrics endpoint
	MetricsEnabled bool
	MetricsPath    string

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            5000,
		AllowedOrigins:  []string{"*"},
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		AnalysisTimeout: DefaultAnalysisTimeout,
		BodyLimit:       DefaultBodyLimit,
		AllowedFormats:  []string{"wav", "mp3", "flac"},
		MetricsEnabled:  true,
		MetricsPath:     "/metrics",
	}
}

// ConfigFromSettings creates a Config from the application settings.
func ConfigFromSettings(settings *conf.Settings) *Config {
	cfg := DefaultConfig()

	cfg.Host = settings.API.Host
	cfg.Port = settings.API.Port
	cfg.APIKey = settings.API.Key
	cfg.Debug = settings.Debug

	if len(settings.API.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = settings.API.AllowedOrigins
	}
	if len(settings.API.AllowedFormats) > 0 {
		cfg.AllowedFormats = settings.API.AllowedFormats
	}
	if settings.API.ReadTimeout > 0 {
		cfg.ReadTimeout = settings.API.ReadTimeout
	}
	if settings.API.WriteTimeout > 0 {
		cfg.WriteTimeout = settings.API.WriteTimeout
	}
	if settings.API.IdleTimeout > 0 {
		cfg.IdleTimeout = settings.API.IdleTimeout
	}
	cfg.AnalysisTimeout = settings.API.AnalysisTimeout
	if settings.API.BodyLimit != "" {
		cfg.BodyLimit = settings.API.BodyLimit
	}

	if settings.API.RateLimit.Enabled {
		cfg.RateLimit = settings.API.RateLimit.RequestsPerSecond
		cfg.RateBurst = settings.API.RateLimit.Burst
	}

	cfg.MetricsEnabled = settings.Metrics.Enabled
	if settings.Metrics.Path != "" {
		cfg.MetricsPath = settings.Metrics.Path
	}

	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// port 0 binds an ephemeral port
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	// Validate timeouts
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1")
	}

	return nil
}

// Address returns the full address string for the server to listen on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	rateStatus := "disabled"
	if c.RateLimit > 0 {
		rateStatus = fmt.Sprintf("%.1f/s burst %d", c.RateLimit, c.RateBurst)
	}

	return fmt.Sprintf("Server Config: address=%s, rate_limit=%s, body_limit=%s, debug=%v",
		c.Address(), rateStatus, c.BodyLimit, c.Debug)
}
