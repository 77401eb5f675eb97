// Package config manages application configuration from config.yaml,
// POLYGATE_* environment variables, and default values.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/polygate-bot/polygate/internal/apperr"
)

// LogConfig controls logger construction.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig controls the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig controls the maintenance scheduler.
type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	MaintenanceSchedule string `mapstructure:"maintenance_schedule"`
}

// PlatformConfig is the per-platform record the adapter is constructed
// from. AllowedUsers entries may be native ids or usernames; an empty list
// means every sender is allowed.
type PlatformConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Token        string   `mapstructure:"token"`
	WebhookURL   string   `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookAddr  string   `mapstructure:"webhook_addr"`
	AllowedUsers []string `mapstructure:"allowed_users"`

	RefusalMessage     string `mapstructure:"refusal_message"`
	UnsupportedMessage string `mapstructure:"unsupported_message"`
}

// PlatformsConfig groups the supported networks.
type PlatformsConfig struct {
	Telegram PlatformConfig `mapstructure:"telegram"`
}

// Config is the root application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
}

// Validate checks struct tags plus the cross-field rules the tags cannot
// express: an enabled platform must carry a credential, and webhook
// delivery needs a listen address.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for name, pc := range map[string]PlatformConfig{
		"telegram": c.Platforms.Telegram,
	} {
		if !pc.Enabled {
			continue
		}
		if pc.Token == "" {
			return apperr.NewConfigurationError(
				fmt.Sprintf("platform %s is enabled but has no token", name), nil)
		}
		if pc.WebhookURL != "" && pc.WebhookAddr == "" {
			return apperr.NewConfigurationError(
				fmt.Sprintf("platform %s has webhook_url but no webhook_addr", name), nil)
		}
	}

	return nil
}
