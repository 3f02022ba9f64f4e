package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneybot/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestLoad_AppliesFileValuesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[engine]
timezone = "UTC"
history_window = 20

[alerts]
interval = "2m"
concurrency = 3

[market]
provider = "static"
`)
	writeFile(t, dir, "credentials.toml", `
[kite]
api_key = "key"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, 20, cfg.Engine.HistoryWindow)
	assert.Equal(t, 5*time.Second, cfg.Engine.QuoteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Alerts.Interval)
	assert.Equal(t, 3, cfg.Alerts.Concurrency)
	assert.Equal(t, "static", cfg.Market.Provider)
	assert.Equal(t, "key", cfg.Credentials.Kite.APIKey)
	assert.Equal(t, filepath.Join(dir, "moneybot.db"), cfg.Storage.Path)

	hour, minute, err := cfg.DigestTime()
	require.NoError(t, err)
	assert.Equal(t, 21, hour)
	assert.Equal(t, 0, minute)
}

func TestLoad_MissingConfigCreatesTemplate(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.toml"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[market]\nprovider = \"static\"\n")
	writeFile(t, dir, "credentials.toml", "")
	t.Setenv("MONEYBOT_DB_PATH", "/tmp/other.db")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.Path)
	assert.Equal(t, "bot-token", cfg.Credentials.Telegram.BotToken)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }},
		{"zero concurrency", func(c *Config) { c.Alerts.Concurrency = 0 }},
		{"sub-second interval", func(c *Config) { c.Alerts.Interval = time.Millisecond }},
		{"bad digest time", func(c *Config) { c.Digest.At = "9pm" }},
		{"unknown provider", func(c *Config) { c.Market.Provider = "yahoo" }},
		{"stop loss over 100", func(c *Config) { c.Alerts.DefaultStopLoss = 150 }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
		})
	}
}
