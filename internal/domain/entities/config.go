package entities

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Watch   WatchConfig   `toml:"watch"`
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	if s.Host != "" {
		if ip := net.ParseIP(s.Host); ip == nil {
			if _, err := net.LookupHost(s.Host); err != nil {
				return fmt.Errorf("invalid host: %w", err)
			}
		}
	}

	if s.ReadTimeout < 0 {
		return errors.New("read timeout must be non-negative")
	}

	if s.WriteTimeout < 0 {
		return errors.New("write timeout must be non-negative")
	}

	if s.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must be non-negative")
	}

	for _, origin := range s.CORSOrigins {
		if origin == "" {
			return errors.New("CORS origin cannot be empty")
		}
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("invalid CORS origin format: %s (must start with http:// or https://)", origin)
		}
	}

	return nil
}

// GetReadTimeout returns the read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	if s.WriteTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// WatchConfig contains observation configuration
type WatchConfig struct {
	Root           string   `toml:"root"`
	Filters        []string `toml:"filters"`
	UsePolling     bool     `toml:"use_polling"`
	PollIntervalMs int      `toml:"poll_interval_ms"`
}

// Validate validates watch configuration
func (w WatchConfig) Validate() error {
	if w.Root != "" && !filepath.IsAbs(w.Root) {
		return errors.New("watch root must be absolute")
	}

	if w.PollIntervalMs < 0 {
		return errors.New("poll interval must be non-negative")
	}

	for _, filter := range w.Filters {
		if strings.TrimSpace(filter) == "" {
			return errors.New("watch filter cannot be blank")
		}
	}

	return nil
}

// GetPollInterval returns the polling interval as a duration
func (w WatchConfig) GetPollInterval() time.Duration {
	if w.PollIntervalMs <= 0 {
		return 4 * time.Second
	}
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// CacheConfig contains metadata cache configuration
type CacheConfig struct {
	Enabled     bool   `toml:"enabled"`
	Size        int    `toml:"size"`
	WatchFilter string `toml:"watch_filter"`
}

// Validate validates cache configuration
func (c CacheConfig) Validate() error {
	if c.Size < 0 {
		return errors.New("cache size must be non-negative")
	}
	return nil
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`
	JSONFormat bool   `toml:"json_format"`
}

// Validate validates logging configuration
func (l LoggingConfig) Validate() error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %s", l.Level)
	}
}
