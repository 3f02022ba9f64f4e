// Package config provides configuration management for the assistant.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	apperrors "moneybot/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Engine        EngineConfig       `mapstructure:"engine"`
	Alerts        AlertsConfig       `mapstructure:"alerts"`
	Digest        DigestConfig       `mapstructure:"digest"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Market        MarketConfig       `mapstructure:"market"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Credentials   Credentials        `mapstructure:"-"` // Loaded separately
}

// EngineConfig holds conversation engine configuration.
type EngineConfig struct {
	Timezone      string        `mapstructure:"timezone"`
	QuoteTimeout  time.Duration `mapstructure:"quote_timeout"`
	HistoryWindow int           `mapstructure:"history_window"`
	WebsiteURL    string        `mapstructure:"website_url"`
}

// AlertsConfig holds alert trigger engine configuration.
type AlertsConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
	// Thresholds used by the default-alert generator, in percent.
	DefaultDailyChange float64 `mapstructure:"default_daily_change"`
	DefaultStopProfit  float64 `mapstructure:"default_stop_profit"`
	DefaultStopLoss    float64 `mapstructure:"default_stop_loss"`
}

// DigestConfig holds daily digest configuration.
type DigestConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	At      string `mapstructure:"at"` // local wall-clock time, "15:04"
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// MarketConfig holds market data gateway configuration.
type MarketConfig struct {
	Provider         string        `mapstructure:"provider"` // "kite", "static"
	Exchange         string        `mapstructure:"exchange"`
	Retries          int           `mapstructure:"retries"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// NotificationConfig holds push delivery configuration.
type NotificationConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// TelegramConfig holds Telegram notification configuration.
// The chat ID is the user ID of each notification; the token lives in credentials.toml.
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIBase string `mapstructure:"api_base"`
}

// MetricsConfig holds Prometheus exposition configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// Credentials holds API credentials.
type Credentials struct {
	Kite     KiteCredentials     `mapstructure:"kite"`
	Telegram TelegramCredentials `mapstructure:"telegram"`
}

// KiteCredentials holds Kite Connect API credentials.
type KiteCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// TelegramCredentials holds the bot token used for push delivery.
type TelegramCredentials struct {
	BotToken string `mapstructure:"bot_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/moneybot"
	}
	return filepath.Join(home, ".config", "moneybot")
}

// Default returns the configuration used when a key is absent from config.toml.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(configDir, "moneybot.db")
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.timezone", "Local")
	v.SetDefault("engine.quote_timeout", "5s")
	v.SetDefault("engine.history_window", 50)
	v.SetDefault("engine.website_url", "https://moneybot.example.com")

	v.SetDefault("alerts.interval", "1m")
	v.SetDefault("alerts.concurrency", 5)
	v.SetDefault("alerts.default_daily_change", 5.0)
	v.SetDefault("alerts.default_stop_profit", 20.0)
	v.SetDefault("alerts.default_stop_loss", 10.0)

	v.SetDefault("digest.enabled", true)
	v.SetDefault("digest.at", "21:00")

	v.SetDefault("market.provider", "kite")
	v.SetDefault("market.exchange", "NSE")
	v.SetDefault("market.retries", 2)
	v.SetDefault("market.failure_threshold", 5)
	v.SetDefault("market.cooldown", "30s")

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen", ":9464")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MONEYBOT_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("MONEYBOT_MARKET_PROVIDER"); v != "" {
		cfg.Market.Provider = v
	}

	// Kite credentials
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Credentials.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Kite.AccessToken = v
	}

	// Telegram credentials
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Credentials.Telegram.BotToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", apperrors.ErrConfigInvalid, c.Engine.Timezone)
	}
	if c.Engine.QuoteTimeout <= 0 {
		return fmt.Errorf("%w: engine.quote_timeout must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Engine.HistoryWindow < 1 {
		return fmt.Errorf("%w: engine.history_window must be at least 1", apperrors.ErrConfigInvalid)
	}

	if c.Alerts.Interval < time.Second {
		return fmt.Errorf("%w: alerts.interval must be at least 1s", apperrors.ErrConfigInvalid)
	}
	if c.Alerts.Concurrency < 1 {
		return fmt.Errorf("%w: alerts.concurrency must be at least 1", apperrors.ErrConfigInvalid)
	}
	for name, v := range map[string]float64{
		"default_daily_change": c.Alerts.DefaultDailyChange,
		"default_stop_profit":  c.Alerts.DefaultStopProfit,
		"default_stop_loss":    c.Alerts.DefaultStopLoss,
	} {
		if v <= 0 || v > 100 {
			return fmt.Errorf("%w: alerts.%s must be between 0 and 100", apperrors.ErrConfigInvalid, name)
		}
	}

	if _, _, err := c.DigestTime(); err != nil {
		return err
	}

	switch c.Market.Provider {
	case "kite", "static":
	default:
		return fmt.Errorf("%w: invalid market provider: %s (must be 'kite' or 'static')", apperrors.ErrConfigInvalid, c.Market.Provider)
	}

	return nil
}

// Location returns the timezone used for time-of-day heuristics and the digest.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DigestTime returns the hour and minute of the daily digest.
func (c *Config) DigestTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Digest.At)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: digest.at must be HH:MM, got %q", apperrors.ErrConfigInvalid, c.Digest.At)
	}
	return t.Hour(), t.Minute(), nil
}
