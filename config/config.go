// Package config loads plwdash settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/plwdash/loader"
	"github.com/spektr-org/plwdash/schema"
)

// Config holds all plwdash configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Schema  SchemaConfig  `yaml:"schema"`
	Server  ServerConfig  `yaml:"server"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the sheet and controls how it is read.
type DataConfig struct {
	Path        string   `yaml:"path"`
	CacheTTL    string   `yaml:"cache_ttl"` // "0" keeps the table until refreshed
	DateFormats []string `yaml:"date_formats,omitempty"`
}

// SchemaConfig adjusts header resolution.
type SchemaConfig struct {
	Required []string            `yaml:"required,omitempty"`
	Aliases  map[string][]string `yaml:"aliases,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// DisplayConfig controls how amounts are formatted in tables, cards and the API.
type DisplayConfig struct {
	Currency string `yaml:"currency"` // prefix, e.g. "Rs." or "PKR"
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:     "data/plw.csv",
			CacheTTL: "5m",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: "10s",
		},
		Display: DisplayConfig{
			Currency: "Rs.",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PLW_DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("PLW_CACHE_TTL"); v != "" {
		c.Data.CacheTTL = v
	}
	if v := os.Getenv("PLW_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PLW_CURRENCY"); v != "" {
		c.Display.Currency = v
	}
	if v := os.Getenv("PLW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PLW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// GetCacheTTL returns the cache TTL. Invalid values fall back to 5m.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Data.CacheTTL == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.Data.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetDateFormats returns the configured layouts or the loader defaults.
func (c *Config) GetDateFormats() []string {
	if len(c.Data.DateFormats) == 0 {
		return loader.DefaultDateLayouts
	}
	return c.Data.DateFormats
}

// BuildSchema applies the configured aliases and required set to the
// default schema.
func (c *Config) BuildSchema() (*schema.Schema, error) {
	sch := schema.Default()

	if len(c.Schema.Aliases) > 0 {
		extra := make(map[schema.Field][]string, len(c.Schema.Aliases))
		for name, aliases := range c.Schema.Aliases {
			extra[schema.Field(name)] = aliases
		}
		var err error
		if sch, err = sch.WithAliases(extra); err != nil {
			return nil, fmt.Errorf("schema.aliases: %w", err)
		}
	}

	if len(c.Schema.Required) > 0 {
		required := make([]schema.Field, 0, len(c.Schema.Required))
		for _, name := range c.Schema.Required {
			required = append(required, schema.Field(name))
		}
		var err error
		if sch, err = sch.WithRequired(required); err != nil {
			return nil, fmt.Errorf("schema.required: %w", err)
		}
	}
	return sch, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("data.path is required")
	}
	if c.Data.CacheTTL != "" && c.Data.CacheTTL != "0" {
		d, err := time.ParseDuration(c.Data.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid data.cache_ttl: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid data.cache_ttl: %s is negative", c.Data.CacheTTL)
		}
	}
	if c.Server.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
		}
	}
	if _, err := c.BuildSchema(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}
	return nil
}

// LoaderOptions turns the data and schema sections into loader options.
func (c *Config) LoaderOptions() ([]loader.Option, error) {
	sch, err := c.BuildSchema()
	if err != nil {
		return nil, err
	}
	return []loader.Option{
		loader.WithSchema(sch),
		loader.WithDateLayouts(c.GetDateFormats()...),
	}, nil
}
