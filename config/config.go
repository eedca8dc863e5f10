// Package config loads adb monitor settings from a YAML file with environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// DefaultPath is where the daemon looks for its config file when none is given
const DefaultPath = "/etc/adb-monitor/config.yaml"

// Environment variable overrides
const (
	EnvConfigPath   = "ADB_MONITOR_CONFIG"
	EnvADBPath      = "ADB_MONITOR_ADB_PATH"
	EnvPollInterval = "ADB_MONITOR_POLL_INTERVAL"
	EnvLogLevel     = "ADB_MONITOR_LOG_LEVEL"
	EnvAutoRoot     = "ADB_MONITOR_AUTO_ROOT"
)

// Config holds all daemon settings
type Config struct {
	ADBPath         string        `yaml:"adb_path"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	ListTimeout     time.Duration `yaml:"list_timeout"`
	RootTimeout     time.Duration `yaml:"root_timeout"`
	RootSettleDelay time.Duration `yaml:"root_settle_delay"`
	PropertyTimeout time.Duration `yaml:"property_timeout"`
	ReportInterval  time.Duration `yaml:"report_interval"`
	AutoRoot        bool          `yaml:"auto_root"`
	ResolveModel    bool          `yaml:"resolve_model"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		PollInterval:    2 * time.Second,
		ListTimeout:     2 * time.Second,
		RootTimeout:     10 * time.Second,
		RootSettleDelay: 3 * time.Second,
		PropertyTimeout: 5 * time.Second,
		ReportInterval:  time.Second,
		AutoRoot:        true,
		ResolveModel:    true,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads the config file at path on top of the defaults, then applies
// environment overrides. A missing file is only an error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			log.WithField("path", path).Debug("Loaded config file")
		case errors.Is(err, os.ErrNotExist) && !required:
			log.WithField("path", path).Debug("Config file not found, using defaults")
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvADBPath); v != "" {
		c.ADBPath = v
	}

	if v := getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPollInterval, v, err)
		}
		c.PollInterval = d
	}

	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}

	if v := getenv(EnvAutoRoot); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvAutoRoot, v, err)
		}
		c.AutoRoot = b
	}

	return nil
}

// Validate checks durations, log level and log format
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"poll_interval", c.PollInterval},
		{"list_timeout", c.ListTimeout},
		{"root_timeout", c.RootTimeout},
		{"property_timeout", c.PropertyTimeout},
		{"report_interval", c.ReportInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}

	if c.RootSettleDelay < 0 {
		return fmt.Errorf("root_settle_delay cannot be negative, got %v", c.RootSettleDelay)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}

	return nil
}
