package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/polygate-bot/polygate/internal/apperr"
	"github.com/polygate-bot/polygate/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Log:      config.LogConfig{Level: "info"},
		Database: config.DatabaseConfig{Path: "polygate.db"},
		Platforms: config.PlatformsConfig{
			Telegram: config.PlatformConfig{Enabled: true, Token: "T"},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		// wantConfigErr means the failure must be a ConfigurationError,
		// not just a validator tag violation.
		wantConfigErr bool
	}{
		{
			name:   "valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *config.Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "malformed webhook url",
			mutate:  func(c *config.Config) { c.Platforms.Telegram.WebhookURL = "not-a-url" },
			wantErr: true,
		},
		{
			name:          "enabled platform without token",
			mutate:        func(c *config.Config) { c.Platforms.Telegram.Token = "" },
			wantErr:       true,
			wantConfigErr: true,
		},
		{
			name: "webhook url without listen address",
			mutate: func(c *config.Config) {
				c.Platforms.Telegram.WebhookURL = "https://example.com/hook"
				c.Platforms.Telegram.WebhookAddr = ""
			},
			wantErr:       true,
			wantConfigErr: true,
		},
		{
			name: "disabled platform skips cross-field checks",
			mutate: func(c *config.Config) {
				c.Platforms.Telegram.Enabled = false
				c.Platforms.Telegram.Token = ""
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
			if tt.wantConfigErr && !apperr.IsConfiguration(err) {
				t.Errorf("error = %v, want a ConfigurationError", err)
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
  json: true
database:
  path: /tmp/gateway.db
scheduler:
  enabled: false
platforms:
  telegram:
    enabled: true
    token: "123:abc"
    allowed_users:
      - "42"
      - someuser
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log config = %+v, want debug/json", cfg.Log)
	}
	if cfg.Database.Path != "/tmp/gateway.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Scheduler.Enabled {
		t.Error("scheduler enabled, want disabled from file")
	}
	tg := cfg.Platforms.Telegram
	if !tg.Enabled || tg.Token != "123:abc" {
		t.Errorf("telegram config = %+v", tg)
	}
	if len(tg.AllowedUsers) != 2 || tg.AllowedUsers[0] != "42" || tg.AllowedUsers[1] != "someuser" {
		t.Errorf("allowed users = %v", tg.AllowedUsers)
	}
	if tg.RefusalMessage != config.DefaultRefusalMessage {
		t.Errorf("refusal message = %q, want default applied", tg.RefusalMessage)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info default", cfg.Log.Level)
	}
	if cfg.Database.Path != "polygate.db" {
		t.Errorf("database path = %q, want default", cfg.Database.Path)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.MaintenanceSchedule != "0 4 * * *" {
		t.Errorf("scheduler config = %+v, want enabled with default schedule", cfg.Scheduler)
	}
	if cfg.Platforms.Telegram.Enabled {
		t.Error("telegram enabled by default, want disabled")
	}
	if cfg.Platforms.Telegram.UnsupportedMessage != config.DefaultUnsupportedMessage {
		t.Errorf("unsupported message = %q, want default", cfg.Platforms.Telegram.UnsupportedMessage)
	}
}

func TestLoad_InvalidFileFailsValidation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
platforms:
  telegram:
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := config.Load(path)
	if !apperr.IsConfiguration(err) {
		t.Fatalf("error = %v, want ConfigurationError for enabled platform without token", err)
	}
}
