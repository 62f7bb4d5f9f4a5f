// ABOUTME: Configuration loading and parsing for the solon settings tools
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration shorthand

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/solon/internal/codex"
	"github.com/2389/solon/internal/duration"
	"github.com/2389/solon/internal/store"
)

// DefaultSaveInterval is used when database.save_interval is not set.
const DefaultSaveInterval = 5 * time.Minute

// Config represents the complete solon configuration
type Config struct {
	Database DatabaseConfig       `yaml:"database" toml:"database"`
	Logging  LoggingConfig        `yaml:"logging" toml:"logging"`
	Guilds   GuildsConfig         `yaml:"guilds" toml:"guilds"`
	Cogs     map[string]CogConfig `yaml:"cogs" toml:"cogs"`
}

// DatabaseConfig holds settings persistence configuration
type DatabaseConfig struct {
	Driver  string `yaml:"driver" toml:"driver"` // "sqlite" (default) or "sqlite3"
	Path    string `yaml:"path" toml:"path"`
	Enabled *bool  `yaml:"enabled" toml:"enabled"` // nil means enabled

	SaveInterval time.Duration `yaml:"-" toml:"-"`

	// Raw string value, e.g. "5m" or "1h30m"
	SaveIntervalRaw string `yaml:"save_interval" toml:"save_interval"`
}

// SavingEnabled reports whether records are written to the store.
func (d DatabaseConfig) SavingEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GuildsConfig points at the guild snapshot used to resolve entities offline
type GuildsConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// CogConfig declares the settings schema of one cog
type CogConfig struct {
	Fields map[string]FieldConfig `yaml:"fields" toml:"fields"`
}

// FieldConfig declares one settings field: a type expression such as "int",
// "[]Role" or "map[int]Role", and the default in serialized text form.
type FieldConfig struct {
	Type    string `yaml:"type" toml:"type"`
	Default string `yaml:"default" toml:"default"`
}

// FieldSpecs resolves the cog's field types against reg, building list and
// mapping types as needed, and returns the structure field defaults.
func (c CogConfig) FieldSpecs(reg *codex.Registry) (map[string]codex.SerializedData, error) {
	specs := make(map[string]codex.SerializedData, len(c.Fields))
	for name, f := range c.Fields {
		typ, err := codex.ParseTypeExpr(reg, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		specs[name] = codex.SerializedData{Value: f.Default, TypeName: typ.TypeName()}
	}
	return specs, nil
}

// CogNames returns the configured cog names in sorted order.
func (c *Config) CogNames() []string {
	names := make([]string, 0, len(c.Cogs))
	for name := range c.Cogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Database.Driver {
	case "", store.DriverModernc, store.DriverCGo:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", store.DriverModernc, store.DriverCGo, c.Database.Driver)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	for _, name := range c.CogNames() {
		if name == "" || strings.Contains(name, ".") {
			return fmt.Errorf("cog name %q must be non-empty and contain no dots", name)
		}
		for field, f := range c.Cogs[name].Fields {
			if field != strings.ToLower(field) {
				return fmt.Errorf("cogs.%s.fields.%s: field names must be lower case", name, field)
			}
			if strings.TrimSpace(f.Type) == "" {
				return fmt.Errorf("cogs.%s.fields.%s.type is required", name, field)
			}
		}
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	cfg.Database.SaveInterval = DefaultSaveInterval
	if cfg.Database.SaveIntervalRaw == "" {
		return nil
	}

	d, err := duration.Parse(cfg.Database.SaveIntervalRaw)
	if err != nil {
		return fmt.Errorf("parsing save_interval %q: %w", cfg.Database.SaveIntervalRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("save_interval must be positive, got %q", cfg.Database.SaveIntervalRaw)
	}
	cfg.Database.SaveInterval = d
	return nil
}
