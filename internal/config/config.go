package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultQuoteAPIURL = "https://zenquotes.io/api/random"

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	AdminID          string
	HTTPPort         int
	RateLimitWindow  time.Duration
	RateLimitMax     int
	StoreTimeout     time.Duration
	BroadcastWorkers int
	BroadcastRate    float64
	QuoteAPIURL      string
	DigestTime       string
	LogLevel         string
	LogPretty        bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken: env("TELEGRAM_TOKEN"),
		DatabaseURL:   env("DATABASE_URL"),
		AdminID:       env("ADMIN_ID"),
		QuoteAPIURL:   env("QUOTE_API_URL"),
		DigestTime:    env("DIGEST_TIME"),
		LogLevel:      env("LOG_LEVEL"),
		LogPretty:     env("LOG_PRETTY") == "1",
	}
	if cfg.TelegramToken == "" {
		cfg.TelegramToken = env("BOT_TOKEN")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "telepilot.db"
	}
	if cfg.QuoteAPIURL == "" {
		cfg.QuoteAPIURL = defaultQuoteAPIURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.HTTPPort, err = intVar("PORT", 3000); err != nil {
		return cfg, err
	}
	if cfg.HTTPPort > 65535 {
		return cfg, fmt.Errorf("PORT %d is out of range", cfg.HTTPPort)
	}
	windowMillis, err := intVar("RATE_LIMIT_WINDOW_MS", 3000)
	if err != nil {
		return cfg, err
	}
	cfg.RateLimitWindow = time.Duration(windowMillis) * time.Millisecond
	if cfg.RateLimitMax, err = intVar("RATE_LIMIT_MAX", 3); err != nil {
		return cfg, err
	}
	timeoutMillis, err := intVar("STORE_TIMEOUT_MS", 5000)
	if err != nil {
		return cfg, err
	}
	cfg.StoreTimeout = time.Duration(timeoutMillis) * time.Millisecond
	if cfg.BroadcastWorkers, err = intVar("BROADCAST_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.BroadcastRate, err = floatVar("BROADCAST_RATE", 25); err != nil {
		return cfg, err
	}

	if cfg.AdminID != "" {
		if _, err := strconv.ParseInt(cfg.AdminID, 10, 64); err != nil {
			return cfg, fmt.Errorf("ADMIN_ID must be a numeric Telegram id, got %q", cfg.AdminID)
		}
	}
	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// AdminChatID returns the admin id as a chat id, or false when no admin is configured.
func (c Config) AdminChatID() (int64, bool) {
	id, err := strconv.ParseInt(c.AdminID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// intVar parses a positive integer variable, falling back to def when unset.
func intVar(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func floatVar(key string, def float64) (float64, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, raw)
	}
	return f, nil
}
