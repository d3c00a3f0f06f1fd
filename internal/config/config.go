// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

type Config struct {
	AppEnv      string   `env:"APP_ENV" default:"development"`
	Port        string   `env:"PORT" default:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" default:"info"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*"`

	YouTubeAPIKey   string `env:"YOUTUBE_API_KEY"`
	YouTubeEndpoint string `env:"YOUTUBE_ENDPOINT"`

	RedditBaseURL   string `env:"REDDIT_BASE_URL"`
	RedditUserAgent string `env:"REDDIT_USER_AGENT" default:"creatorpulse/0.1"`

	InstagramBaseURL string `env:"INSTAGRAM_BASE_URL"`
	InstagramAPIURL  string `env:"INSTAGRAM_API_URL"`
	InstagramAppID   string `env:"INSTAGRAM_APP_ID" default:"936619743392459"`

	FetchTimeout         time.Duration `env:"FETCH_TIMEOUT" default:"20s"`
	MaxConcurrentFetches int           `env:"MAX_CONCURRENT_FETCHES" default:"4"`
	PlatformRPS          float64       `env:"PLATFORM_RPS" default:"1"`
	BreakerFailures      uint32        `env:"BREAKER_FAILURES" default:"5"`

	SentimentThreshold float64 `env:"SENTIMENT_THRESHOLD" default:"0"`
	ScorerURL          string  `env:"SCORER_URL"`

	SessionBackend string        `env:"SESSION_BACKEND" default:"memory"`
	RedisURL       string        `env:"REDIS_URL"`
	SessionTTL     time.Duration `env:"SESSION_TTL" default:"0s"`
	S3Bucket       string        `env:"S3_BUCKET"`
	S3Region       string        `env:"S3_REGION"`
	S3Prefix       string        `env:"S3_PREFIX" default:"sessions/"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" default:"creatorpulse.reports"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND is redis")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when SESSION_BACKEND is s3")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of memory, redis, s3, got %q", c.SessionBackend)
	}

	if c.MaxConcurrentFetches < 1 {
		return errors.New("MAX_CONCURRENT_FETCHES must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("FETCH_TIMEOUT must be positive")
	}
	if c.PlatformRPS <= 0 {
		return errors.New("PLATFORM_RPS must be positive")
	}
	if c.BreakerFailures < 1 {
		return errors.New("BREAKER_FAILURES must be at least 1")
	}
	if c.SentimentThreshold < 0 || c.SentimentThreshold >= 1 {
		return errors.New("SENTIMENT_THRESHOLD must be in [0, 1)")
	}
	if c.SessionTTL < 0 {
		return errors.New("SESSION_TTL must not be negative")
	}

	return nil
}

// Entry is one printable setting.
type Entry struct {
	Key   string
	Value string
}

// Entries lists the effective settings with secrets reduced to set/unset.
func (c *Config) Entries() []Entry {
	return []Entry{
		{"APP_ENV", c.AppEnv},
		{"PORT", c.Port},
		{"LOG_LEVEL", c.LogLevel},
		{"LOG_FORMAT", c.LogFormat},
		{"CORS_ORIGINS", strings.Join(c.CORSOrigins, " ")},
		{"YOUTUBE_API_KEY", secret(c.YouTubeAPIKey)},
		{"YOUTUBE_ENDPOINT", c.YouTubeEndpoint},
		{"REDDIT_BASE_URL", c.RedditBaseURL},
		{"REDDIT_USER_AGENT", c.RedditUserAgent},
		{"INSTAGRAM_BASE_URL", c.InstagramBaseURL},
		{"INSTAGRAM_API_URL", c.InstagramAPIURL},
		{"INSTAGRAM_APP_ID", c.InstagramAppID},
		{"FETCH_TIMEOUT", c.FetchTimeout.String()},
		{"MAX_CONCURRENT_FETCHES", fmt.Sprint(c.MaxConcurrentFetches)},
		{"PLATFORM_RPS", fmt.Sprint(c.PlatformRPS)},
		{"BREAKER_FAILURES", fmt.Sprint(c.BreakerFailures)},
		{"SENTIMENT_THRESHOLD", fmt.Sprint(c.SentimentThreshold)},
		{"SCORER_URL", c.ScorerURL},
		{"SESSION_BACKEND", c.SessionBackend},
		{"REDIS_URL", secret(c.RedisURL)},
		{"SESSION_TTL", c.SessionTTL.String()},
		{"S3_BUCKET", c.S3Bucket},
		{"S3_REGION", c.S3Region},
		{"S3_PREFIX", c.S3Prefix},
		{"NATS_URL", c.NATSURL},
		{"NATS_SUBJECT", c.NATSSubject},
	}
}

func secret(v string) string {
	if v == "" {
		return "(unset)"
	}
	return "(set)"
}
