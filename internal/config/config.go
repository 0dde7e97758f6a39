// Package config loads soralvi settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-provided defaults for the CLI. Command-line
// flags override these when set explicitly.
type Config struct {
	// Elements is the array size used when a command does not specify one.
	Elements int `env:"SORALVI_ELEMENTS" envDefault:"32"`

	// FPS is the playback frame rate. Values <= 0 replay unpaced.
	FPS float64 `env:"SORALVI_FPS" envDefault:"30"`

	// MaxActions caps the actions one run may record. Values <= 0 disable the cap.
	MaxActions int `env:"SORALVI_MAX_ACTIONS" envDefault:"1000000"`

	// DB is the path of the SQLite trace archive.
	DB string `env:"SORALVI_DB" envDefault:"soralvi.db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level `env:"SORALVI_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and the
// process environment ignored.
func Default() Config {
	var cfg Config
	// Defaults are compile-time constants; parsing them cannot fail.
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate reports settings the engine would reject.
func (c Config) Validate() error {
	var errs []error
	if c.Elements <= 0 {
		errs = append(errs, fmt.Errorf("SORALVI_ELEMENTS must be positive, got %d", c.Elements))
	}
	if c.DB == "" {
		errs = append(errs, errors.New("SORALVI_DB must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
