// Package daemon manages the habitloop daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/habitloop/habitloop/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Reminders RemindersConfig `toml:"reminders"`
	Nudges    NudgesConfig    `toml:"nudges"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host               string `toml:"host" env:"HABITLOOP_API_HOST"`
	Port               int    `toml:"port" env:"HABITLOOP_API_PORT"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute" env:"HABITLOOP_API_RATE_LIMIT"`
}

// RemindersConfig controls the reminder tick loop.
type RemindersConfig struct {
	TickInterval time.Duration `toml:"tick_interval" env:"HABITLOOP_REMINDER_TICK"`
}

// NudgesConfig controls the trigger-driven nudge loop and its policy.
type NudgesConfig struct {
	Enabled    bool          `toml:"enabled" env:"HABITLOOP_NUDGES_ENABLED"`
	Interval   time.Duration `toml:"interval" env:"HABITLOOP_NUDGE_INTERVAL"`
	MaxPerDay  int           `toml:"max_per_day" env:"HABITLOOP_NUDGE_MAX_PER_DAY"`
	QuietStart string        `toml:"quiet_start" env:"HABITLOOP_QUIET_START"`
	QuietEnd   string        `toml:"quiet_end" env:"HABITLOOP_QUIET_END"`
}

// Policy returns the notification policy these settings describe.
func (n NudgesConfig) Policy() domain.NotificationPolicy {
	return domain.NotificationPolicy{
		MaxPerDay:  n.MaxPerDay,
		QuietStart: n.QuietStart,
		QuietEnd:   n.QuietEnd,
	}
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `toml:"level" env:"HABITLOOP_LOG_LEVEL"`
	File       string `toml:"file" env:"HABITLOOP_LOG_FILE"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxFiles   int    `toml:"max_files"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" env:"HABITLOOP_PROMETHEUS"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return defaultConfigIn(habitloopHome())
}

// defaultConfigIn returns the defaults with files placed under homeDir.
func defaultConfigIn(homeDir string) Config {
	policy := domain.DefaultNotificationPolicy()
	return Config{
		API: APIConfig{
			Host:               "127.0.0.1",
			Port:               7420,
			RateLimitPerMinute: 120,
		},
		Reminders: RemindersConfig{
			TickInterval: time.Minute,
		},
		Nudges: NudgesConfig{
			Enabled:    true,
			Interval:   15 * time.Minute,
			MaxPerDay:  policy.MaxPerDay,
			QuietStart: policy.QuietStart,
			QuietEnd:   policy.QuietEnd,
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(homeDir, "habitloop.log"),
			MaxSizeMB:  20,
			MaxFiles:   3,
			MaxAgeDays: 14,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $HABITLOOP_HOME/config.toml over the defaults,
// then applies HABITLOOP_* environment overrides.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(habitloopHome())
}

// LoadConfigFrom is LoadConfig for an explicit data directory: config.toml
// and the default log file both live under home.
func LoadConfigFrom(home string) (Config, error) {
	cfg := defaultConfigIn(home)
	path := filepath.Join(home, "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("config: api.port %d out of range", c.API.Port)
	}
	if c.Reminders.TickInterval <= 0 {
		return fmt.Errorf("config: reminders.tick_interval must be positive")
	}
	if c.Reminders.TickInterval > time.Minute {
		// Slots are minute-granular; a slower tick would skip reminders.
		return fmt.Errorf("config: reminders.tick_interval %s exceeds 1m", c.Reminders.TickInterval)
	}
	if c.Nudges.Enabled && c.Nudges.Interval <= 0 {
		return fmt.Errorf("config: nudges.interval must be positive")
	}
	for _, s := range []string{c.Nudges.QuietStart, c.Nudges.QuietEnd} {
		if _, err := time.Parse(domain.TimeLayout, s); err != nil {
			return fmt.Errorf("config: quiet hours %q is not HH:MM", s)
		}
	}
	return nil
}

// SaveConfig writes the config to $HABITLOOP_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(habitloopHome(), "config.toml")
}

// habitloopHome returns the habitloop data directory.
func habitloopHome() string {
	if env := os.Getenv("HABITLOOP_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".habitloop")
}

// Home is exported for use by other packages.
func Home() string {
	return habitloopHome()
}
