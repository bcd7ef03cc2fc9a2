// Package config loads the booking bot configuration from bot.env and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the application configuration parameters.
// Each field corresponds to an expected environment variable.
type Config struct {
	EnvLogsLevel   string `env:"LOG_LEVEL" envDefault:"info"`                // Log level for the application (e.g., debug, info)
	EnvLogFileName string `env:"LOG_FILE_NAME" envDefault:"bookingBot.log"` // File's name for log

	EnvBotToken    string `env:"TELEGRAM_API_TOKEN,required"` // Telegram Bot Token for authentication with the Telegram API
	EnvBotDebug    bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`
	EnvAdminIDsRaw string `env:"ADMIN_USER_IDS"` // Comma separated Telegram ids allowed to manage the directory

	EnvRubitimeAPIKey   string `env:"RUBITIME_API_KEY,required"`                            // Key sent as "rk" in every provider request
	EnvRubitimeEndpoint string `env:"RUBITIME_ENDPOINT" envDefault:"https://rubitime.ru/api2"` // Base URL of the schedule provider
	EnvBranchID         int64  `env:"BRANCH_ID,required"`                                   // Branch all bookings are made in
	EnvProviderTimeout  int    `env:"PROVIDER_TIMEOUT" envDefault:"10"`                     // seconds

	EnvSmsRuAPIID            string `env:"SMSRU_API_ID"`
	EnvSmsRuEndpoint         string `env:"SMSRU_ENDPOINT" envDefault:"https://sms.ru/sms/send"`
	EnvPhoneConfirmation     bool   `env:"PHONE_CONFIRMATION_ENABLED" envDefault:"false"` // Ask for an SMS code before booking
	EnvCodeMaxAttempts       int    `env:"CODE_MAX_ATTEMPTS" envDefault:"3"`
	EnvCacheExpiredTimeout   int    `env:"CACHE_EXPIRED_TIMEOUT" envDefault:"300"` // seconds
	EnvReminderInterval      int    `env:"REMINDER_INTERVAL" envDefault:"600"`     // seconds
	EnvReminderSendRate      int    `env:"REMINDER_SEND_RATE" envDefault:"10"`     // messages per second
	EnvSyncInterval          int    `env:"SYNC_INTERVAL" envDefault:"60"`          // seconds
	EnvSyncGracePeriod       int    `env:"SYNC_GRACE_PERIOD" envDefault:"300"`     // seconds after booking before a record is synced
	EnvWorkdayOpen           string `env:"WORKDAY_OPEN" envDefault:"09:00"`
	EnvWorkdayClose          string `env:"WORKDAY_CLOSE" envDefault:"21:00"` // A service must end no later than this
	EnvDatePageSize          int    `env:"DATE_PAGE_SIZE" envDefault:"7"`
	EnvDuplicateWindowMinute int    `env:"DUPLICATE_WINDOW_MINUTES" envDefault:"0"` // 0 means exact datetime match
	EnvTimezone              string `env:"TIMEZONE" envDefault:"Europe/Moscow"`

	EnvDBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"` // sqlite3, mysql or postgres
	EnvDBDSN    string `env:"DB_DSN" envDefault:"bookingBot.db"`

	adminIDs map[int64]struct{}
	location *time.Location
}

// NewConfig initializes a new Config instance by loading environment variables from a .env file.
// A missing bot.env is not an error, the process environment is used as is.
// It returns a pointer to the Config struct and an error if any of the environment variables are missing or invalid.
func NewConfig() (*Config, error) {
	if err := godotenv.Load("bot.env"); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("new load .env: %w", err)
		}
		logrus.Info("bot.env not found, using process environment")
	}
	return Parse()
}

// Parse builds a Config from the current process environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parsed values and prepares derived fields.
func (c *Config) Validate() error {
	if c.EnvPhoneConfirmation && c.EnvSmsRuAPIID == "" {
		return errors.New("SMSRU_API_ID is required when PHONE_CONFIRMATION_ENABLED is set")
	}
	switch c.EnvDBDriver {
	case "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.EnvDBDriver)
	}
	if c.EnvDatePageSize <= 0 {
		return fmt.Errorf("DATE_PAGE_SIZE must be positive, got %d", c.EnvDatePageSize)
	}
	if c.EnvCodeMaxAttempts <= 0 {
		return fmt.Errorf("CODE_MAX_ATTEMPTS must be positive, got %d", c.EnvCodeMaxAttempts)
	}
	for name, v := range map[string]int{
		"PROVIDER_TIMEOUT":      c.EnvProviderTimeout,
		"CACHE_EXPIRED_TIMEOUT": c.EnvCacheExpiredTimeout,
		"REMINDER_INTERVAL":     c.EnvReminderInterval,
		"SYNC_INTERVAL":         c.EnvSyncInterval,
		"REMINDER_SEND_RATE":    c.EnvReminderSendRate,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}

	open, err := ParseClock(c.EnvWorkdayOpen)
	if err != nil {
		return fmt.Errorf("WORKDAY_OPEN: %w", err)
	}
	closing, err := ParseClock(c.EnvWorkdayClose)
	if err != nil {
		return fmt.Errorf("WORKDAY_CLOSE: %w", err)
	}
	if closing <= open {
		return fmt.Errorf("WORKDAY_CLOSE %s must be after WORKDAY_OPEN %s", c.EnvWorkdayClose, c.EnvWorkdayOpen)
	}

	c.location, err = time.LoadLocation(c.EnvTimezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	c.adminIDs, err = parseAdminIDs(c.EnvAdminIDsRaw)
	if err != nil {
		return err
	}
	return nil
}

// ParseClock converts "HH:MM" into the offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func parseAdminIDs(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_USER_IDS: invalid id %q: %w", part, err)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// IsAdmin reports whether the Telegram user may manage the directory.
func (c *Config) IsAdmin(userID int64) bool {
	_, ok := c.adminIDs[userID]
	return ok
}

// Location returns the time zone the business works in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.EnvProviderTimeout) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.EnvCacheExpiredTimeout) * time.Second
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.EnvReminderInterval) * time.Second
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.EnvSyncInterval) * time.Second
}

func (c *Config) SyncGracePeriod() time.Duration {
	return time.Duration(c.EnvSyncGracePeriod) * time.Second
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.EnvDuplicateWindowMinute) * time.Minute
}

// WorkdayOpen returns the opening time as an offset from midnight.
func (c *Config) WorkdayOpen() time.Duration {
	d, _ := ParseClock(c.EnvWorkdayOpen)
	return d
}

// WorkdayClose returns the closing time as an offset from midnight.
func (c *Config) WorkdayClose() time.Duration {
	d, _ := ParseClock(c.EnvWorkdayClose)
	return d
}
