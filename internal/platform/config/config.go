// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration.
type Config struct {
	Addr           string        `env:"MINES_ADDR" envDefault:":8080"`
	DBPath         string        `env:"MINES_DB_PATH" envDefault:"data/mines.db"`
	Profile        string        `env:"MINES_PROFILE" envDefault:"default"`
	Placement      string        `env:"MINES_PLACEMENT" envDefault:"rejection"`
	SessionTTL     time.Duration `env:"MINES_SESSION_TTL" envDefault:"30m"`
	EventRetention int           `env:"MINES_EVENT_RETENTION" envDefault:"10000"`
	AllowedOrigins []string      `env:"MINES_ALLOWED_ORIGINS" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the server configuration and checks its values.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("MINES_SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.EventRetention < 0 {
		return Config{}, fmt.Errorf("MINES_EVENT_RETENTION must not be negative, got %d", cfg.EventRetention)
	}
	return cfg, nil
}
