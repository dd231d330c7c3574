// Package config reads ceremony settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "CEREMONY_"

// Config holds every CEREMONY_ setting. Command-line flags take precedence
// over the values here.
type Config struct {
	FPS           int        `env:"FPS" envDefault:"60"`
	ReducedMotion bool       `env:"REDUCED_MOTION" envDefault:"false"`
	TimelinesDir  string     `env:"TIMELINES"`
	DBPath        string     `env:"DB"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom parses the given variables instead of the process environment.
// Keys carry the full prefixed name.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("parsing environment: %sFPS must be positive, got %d", Prefix, cfg.FPS)
	}
	return &cfg, nil
}

// Journal returns the trace journal path, preferring flag over CEREMONY_DB.
// It reports false when neither names a journal.
func (c *Config) Journal(flag string) (string, bool) {
	if flag != "" {
		return flag, true
	}
	return c.DBPath, c.DBPath != ""
}
