package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"24h"`

	// RedisURL is optional; sessions are kept in memory without it.
	RedisURL   string        `env:"REDIS_URL"`
	SessionTTL time.Duration `env:"SESSION_TTL" default:"24h"`

	ProcessorURL     string        `env:"PROCESSOR_URL"`
	ProcessorTimeout time.Duration `env:"PROCESSOR_TIMEOUT" default:"30s"`
	RemoveBgTimeout  time.Duration `env:"REMOVE_BG_TIMEOUT" default:"120s"`

	PreviewDebounce    time.Duration `env:"PREVIEW_DEBOUNCE" default:"150ms"`
	HistoryDepth       int           `env:"HISTORY_DEPTH" default:"50"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" default:"40"`
	MaxImageBytes  string  `env:"MAX_IMAGE_BYTES" default:"25M"`

	SentryDSN string `env:"SENTRY_DSN"`
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"SESSION_SECRET": cfg.SessionSecret,
		"PROCESSOR_URL":  cfg.ProcessorURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}

	u, err := url.Parse(cfg.ProcessorURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PROCESSOR_URL must be an absolute http(s) URL, got %q", cfg.ProcessorURL)
	}

	if cfg.PreviewDebounce <= 0 {
		return errors.New("PREVIEW_DEBOUNCE must be positive")
	}
	if cfg.HistoryDepth < 0 {
		return errors.New("HISTORY_DEPTH must not be negative")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}
