// Package config provides configuration for the framedigest command.
// Defaults are overridden by an optional TOML file and then by
// environment variables.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/framedigest/pkg/camera"
	"github.com/teslashibe/framedigest/pkg/capture"
	"github.com/teslashibe/framedigest/pkg/frame"
	"github.com/teslashibe/framedigest/pkg/web"
)

// Environment variables applied by Load.
const (
	EnvCameraIndex = "FRAMEDIGEST_CAMERA_INDEX"
	EnvPixelFormat = "FRAMEDIGEST_PIXEL_FORMAT"
	EnvInterval    = "FRAMEDIGEST_INTERVAL"
	EnvListenAddr  = "FRAMEDIGEST_LISTEN_ADDR"
	EnvReopen      = "FRAMEDIGEST_REOPEN"
	EnvLogLevel    = "FRAMEDIGEST_LOG_LEVEL"
	EnvLogFormat   = "FRAMEDIGEST_LOG_FORMAT"
)

// Config is the full runtime configuration.
type Config struct {
	Camera          camera.Config
	Interval        time.Duration
	ReopenEachCycle bool
	ListenAddr      string
	LogLevel        string
	LogFormat       string
	Debug           bool
}

// Default returns the built-in configuration: camera 0, RGB at the
// highest frame rate, reopened every 200ms cycle, served on
// 127.0.0.1:3030.
func Default() Config {
	return Config{
		Camera:          camera.DefaultConfig(),
		Interval:        capture.DefaultInterval,
		ReopenEachCycle: true,
		ListenAddr:      web.DefaultAddr,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// applyEnv overrides cfg with any variables lookup reports. Malformed
// values are reported rather than ignored.
func applyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	if v, ok := lookup(EnvCameraIndex); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvCameraIndex, err)
		}
		cfg.Camera.Index = n
	}
	if v, ok := lookup(EnvPixelFormat); ok {
		f, err := frame.ParseFormat(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvPixelFormat, err)
		}
		cfg.Camera.Format = f
	}
	if v, ok := lookup(EnvInterval); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvInterval, err)
		}
		cfg.Interval = d
	}
	if v, ok := lookup(EnvReopen); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvReopen, err)
		}
		cfg.ReopenEachCycle = b
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return cfg, nil
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	errors := c.Camera.Validate()

	if c.Interval <= 0 {
		errors = append(errors, "interval must be positive")
	}

	if _, port, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errors = append(errors, fmt.Sprintf("listen address %q: %v", c.ListenAddr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errors = append(errors, fmt.Sprintf("listen port %q is not a valid port", port))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, "log level must be debug, info, warn, or error")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errors = append(errors, "log format must be text or json")
	}

	return errors
}

// DigestURL returns the HTTP URL of the digest endpoint for ListenAddr.
// An unspecified host maps to loopback.
func (c *Config) DigestURL() string {
	host, port, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return "http://" + c.ListenAddr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}
