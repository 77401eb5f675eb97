package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Default messages sent by adapters on the bot's behalf.
const (
	DefaultRefusalMessage     = "You are not authorized to use this bot."
	DefaultUnsupportedMessage = "[Unsupported message type]"
)

// Load reads configuration in order of precedence:
//  1. Default values
//  2. The YAML file at path (optional; missing file falls back to defaults)
//  3. POLYGATE_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("POLYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("database.path", "polygate.db")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.maintenance_schedule", "0 4 * * *")

	v.SetDefault("platforms.telegram.enabled", false)
	v.SetDefault("platforms.telegram.refusal_message", DefaultRefusalMessage)
	v.SetDefault("platforms.telegram.unsupported_message", DefaultUnsupportedMessage)
}
