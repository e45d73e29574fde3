package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/framechat/internal/core"
	"github.com/vovakirdan/framechat/internal/frame"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	MaxFrameBytes     int           `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              "127.0.0.1:1111",
		HTTPAddr:          "127.0.0.1:8080",
		LogLevel:          "info",
		LogFormat:         "console",
		MaxFrameBytes:     frame.MaxPayload,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// HTTPAddr is not touched here: an empty value is meaningful and callers
// set it explicitly.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.MaxFrameBytes != 0 {
		c.MaxFrameBytes = other.MaxFrameBytes
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// Validate reports the first setting the server cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.MaxFrameBytes < core.MinFrameBytes || c.MaxFrameBytes > frame.MaxPayload {
		return fmt.Errorf("max_frame_bytes must be between %d and %d, got %d", core.MinFrameBytes, frame.MaxPayload, c.MaxFrameBytes)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if c.ShutdownTimeout < 0 || c.ReadHeaderTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}
