// Package config provides configuration management for the minv CLI.
// It supports loading configuration from a YAML file, a .env file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".minv"
	DefaultConfigFile = "config.yaml"

	DefaultHourlyRate = 250.00
	DefaultDaysBack   = 7
	DefaultCurrency   = "usd"
)

// CalendarConfig selects the calendar-event source.
type CalendarConfig struct {
	// ICS is a local .ics file path or an http(s) feed URL, such as a
	// Google Calendar private export address.
	ICS string `yaml:"ics"`
}

// MatchingConfig tunes participant matching and identity derivation.
// Both defaults were inherited from the predecessor tool without a
// documented rationale; they are configurable pending product review.
type MatchingConfig struct {
	// ProximityWindow is the max character distance between a customer's
	// name and email in a description for the co-occurrence channel.
	ProximityWindow int `yaml:"proximity_window"`

	// IDLength is the hex length of meeting identifiers.
	IDLength int `yaml:"id_length"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format"`
}

// Config is the full CLI configuration.
type Config struct {
	// DefaultHourlyRate applies to customers without an hourly_rate
	// attribute.
	DefaultHourlyRate float64 `yaml:"default_hourly_rate"`

	// DaysBack is the lookback window for calendar events.
	DaysBack int `yaml:"days_back"`

	// IncludeUnassociated collects events matching no customer for manual
	// assignment.
	IncludeUnassociated bool `yaml:"include_unassociated"`

	// Currency is the ISO code for emitted line items.
	Currency string `yaml:"currency"`

	Calendar CalendarConfig `yaml:"calendar"`
	Matching MatchingConfig `yaml:"matching"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		DefaultHourlyRate: DefaultHourlyRate,
		DaysBack:          DefaultDaysBack,
		Currency:          DefaultCurrency,
		Log:               LogConfig{Level: "info", Format: "console"},
	}
}

// ConfigPath returns the default config file location,
// ~/.minv/config.yaml.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// LoadConfig loads configuration from the default path. A missing file is
// not an error: defaults plus environment overrides apply.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom loads configuration from an explicit path, then applies
// environment overrides and validates.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config. DAYS_BACK and
// DEFAULT_HOURLY_RATE are honored alongside the MINV_ names for
// compatibility with the predecessor tool's .env files.
func (c *Config) applyEnv() {
	if v := envFirst("MINV_DEFAULT_HOURLY_RATE", "DEFAULT_HOURLY_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultHourlyRate = rate
		}
	}
	if v := envFirst("MINV_DAYS_BACK", "DAYS_BACK"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.DaysBack = days
		}
	}
	if v := os.Getenv("MINV_INCLUDE_UNASSOCIATED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.IncludeUnassociated = b
		}
	}
	if v := os.Getenv("MINV_CURRENCY"); v != "" {
		c.Currency = strings.ToLower(v)
	}
	if v := os.Getenv("MINV_CALENDAR_ICS"); v != "" {
		c.Calendar.ICS = v
	}
	if v := os.Getenv("MINV_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MINV_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func envFirst(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// validate rejects configurations the run could not act on sensibly.
func (c *Config) validate() error {
	if c.DefaultHourlyRate <= 0 {
		return fmt.Errorf("config: default_hourly_rate must be positive, got %v", c.DefaultHourlyRate)
	}
	if c.DaysBack <= 0 {
		return fmt.Errorf("config: days_back must be positive, got %d", c.DaysBack)
	}
	if c.Currency == "" {
		return fmt.Errorf("config: currency must not be empty")
	}
	if c.Matching.ProximityWindow < 0 {
		return fmt.Errorf("config: matching.proximity_window must not be negative")
	}
	if c.Matching.IDLength < 0 {
		return fmt.Errorf("config: matching.id_length must not be negative")
	}
	return nil
}
