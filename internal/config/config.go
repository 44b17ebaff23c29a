// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store kinds accepted in DAILYWORD_STORE
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds everything the server needs at startup
type Config struct {
	Listen         string `env:"DAILYWORD_LISTEN" envDefault:":8080"`
	Store          string `env:"DAILYWORD_STORE" envDefault:"file"`
	StorePath      string `env:"DAILYWORD_STORE_PATH"`
	DictionaryPath string `env:"DAILYWORD_DICTIONARY"`
	Timezone       string `env:"DAILYWORD_TIMEZONE"`
	OTelEndpoint   string `env:"DAILYWORD_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills path defaults and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if strings.TrimSpace(cfg.StorePath) == "" {
		switch cfg.Store {
		case StoreSQLite:
			cfg.StorePath = filepath.Join("data", "ledger.db")
		default:
			cfg.StorePath = filepath.Join("data", "ledger.json")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown store kinds and time zones
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreFile, StoreSQLite, StoreMemory)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone whose midnight starts a new day
// An empty Timezone means the host's local zone
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
