// Package config loads the cmdtree configuration file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Permission store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the main configuration structure for cmdtree.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Commands    CommandsConfig    `yaml:"commands"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Console     ConsoleConfig     `yaml:"console"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Discord     DiscordConfig     `yaml:"discord"`
}

type LoggingConfig struct {
	Level          string   `yaml:"level"`
	Format         string   `yaml:"format"`
	AddSource      bool     `yaml:"add_source"`
	RedactPatterns []string `yaml:"redact_patterns"`
}

type CommandsConfig struct {
	// Prefixes are stripped from incoming lines ("/", "!")
	Prefixes []string `yaml:"prefixes"`
}

// PermissionsConfig selects where permission grants are stored.
type PermissionsConfig struct {
	// Backend is "memory", "file" or "sqlite"
	Backend string `yaml:"backend"`

	// Path is the YAML file or SQLite database; an empty SQLite path is
	// an in-memory database
	Path string `yaml:"path"`

	// Watch reloads the file backend when it changes on disk
	Watch bool `yaml:"watch"`

	// Debounce delays a reload until writes settle
	Debounce time.Duration `yaml:"debounce"`

	// Defaults are granted to every subject ([town.use] unless set)
	Defaults []string `yaml:"defaults"`
}

type ConsoleConfig struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`

	// Player makes the console act as the named player
	Player string `yaml:"player"`
}

type MetricsConfig struct {
	// Address serves /metrics when set (e.g., ":9090")
	Address string `yaml:"address"`
}

// TracingConfig controls OpenTelemetry tracing. Tracing is off without an
// endpoint.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`

	// SamplingRate is the fraction of dispatches traced; 1 when the key
	// is absent, and 0 turns sampling off
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

type DiscordConfig struct {
	Token  string `yaml:"token"`
	Prefix string `yaml:"prefix"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given. Load
// decodes the file over it, so keys present in the file win even when they
// hold a zero value.
func Default() *Config {
	cfg := &Config{
		Permissions: PermissionsConfig{Defaults: []string{"town.use"}},
		Tracing:     TracingConfig{SamplingRate: 1},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills settings left blank, where blank is never meaningful.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if len(cfg.Commands.Prefixes) == 0 {
		cfg.Commands.Prefixes = []string{"/", "!"}
	}
	if cfg.Permissions.Backend == "" {
		cfg.Permissions.Backend = BackendMemory
	}
	if cfg.Permissions.Debounce == 0 {
		cfg.Permissions.Debounce = 250 * time.Millisecond
	}
	if cfg.Console.Prompt == "" {
		cfg.Console.Prompt = "> "
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "cmdtree"
	}
	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = "!"
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error
	invalid := func(field, format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...)))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		invalid("logging.format", "must be json or text, got %q", c.Logging.Format)
	}

	for _, prefix := range c.Commands.Prefixes {
		if strings.TrimSpace(prefix) == "" || strings.ContainsAny(prefix, " \t") {
			invalid("commands.prefixes", "prefix %q must be non-empty without spaces", prefix)
		}
	}

	switch c.Permissions.Backend {
	case BackendMemory, BackendSQLite:
		if c.Permissions.Watch {
			invalid("permissions.watch", "only the file backend can be watched")
		}
	case BackendFile:
		if strings.TrimSpace(c.Permissions.Path) == "" {
			invalid("permissions.path", "required for the file backend")
		}
	default:
		invalid("permissions.backend", "must be memory, file or sqlite, got %q", c.Permissions.Backend)
	}
	if c.Permissions.Debounce < 0 {
		invalid("permissions.debounce", "must not be negative")
	}

	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		invalid("tracing.sampling_rate", "must be between 0 and 1, got %v", c.Tracing.SamplingRate)
	}
	if strings.ContainsAny(c.Discord.Prefix, " \t") {
		invalid("discord.prefix", "must not contain spaces")
	}
	return err
}
