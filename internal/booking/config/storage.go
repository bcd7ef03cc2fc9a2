package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// StorageConfig is the part of the configuration the directory commands need.
// It does not require the Telegram and Rubitime credentials.
type StorageConfig struct {
	EnvDBDriver     string `env:"DB_DRIVER" envDefault:"sqlite3"`
	EnvDBDSN        string `env:"DB_DSN" envDefault:"bookingBot.db"`
	EnvWorkdayOpen  string `env:"WORKDAY_OPEN" envDefault:"09:00"`
	EnvWorkdayClose string `env:"WORKDAY_CLOSE" envDefault:"21:00"`
}

// NewStorageConfig loads bot.env, if present, and parses the storage settings.
func NewStorageConfig() (*StorageConfig, error) {
	if err := godotenv.Load("bot.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("new load .env: %w", err)
	}
	cfg := &StorageConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := cfg.Workday(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Workday returns the length of the working day, the longest a service may take.
func (c *StorageConfig) Workday() (time.Duration, error) {
	open, err := ParseClock(c.EnvWorkdayOpen)
	if err != nil {
		return 0, fmt.Errorf("WORKDAY_OPEN: %w", err)
	}
	closing, err := ParseClock(c.EnvWorkdayClose)
	if err != nil {
		return 0, fmt.Errorf("WORKDAY_CLOSE: %w", err)
	}
	if closing <= open {
		return 0, fmt.Errorf("WORKDAY_CLOSE %s must be after WORKDAY_OPEN %s", c.EnvWorkdayClose, c.EnvWorkdayOpen)
	}
	return closing - open, nil
}
