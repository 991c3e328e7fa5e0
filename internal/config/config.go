package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on images without zoneinfo

	"github.com/joho/godotenv"
)

type Config struct {
	// LINE Messaging API
	LineChannelSecret string
	LineChannelToken  string
	LineChannelID     string

	// Discord Bot (optional)
	DiscordToken string

	// Database: a postgres:// URL, otherwise a SQLite file path
	DatabaseURL string

	// Web Server
	WebBind       string
	PublicBaseURL string

	// Admin API, served only when JWTSecret is set
	JWTSecret string

	// Kafka (optional)
	KafkaBrokers []string
	KafkaTopic   string

	Location            *time.Location
	NameCacheTTL        time.Duration
	NameFailureTTL      time.Duration
	DeleteConfirmWindow time.Duration
	EventTimeout        time.Duration
	LogLevel            string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		LineChannelID:     os.Getenv("LINE_CHANNEL_ID"),
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:       getEnvDefault("DATABASE_URL", "data/ledger.db"),
		WebBind:           getEnvDefault("WEB_BIND", "0.0.0.0:"+getEnvDefault("PORT", "8080")),
		PublicBaseURL:     strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getEnvDefault("KAFKA_TOPIC", "ledger.events"),
		LogLevel:          getEnvDefault("LOG_LEVEL", "info"),
	}

	var err error
	tz := getEnvDefault("TIMEZONE", "Asia/Bangkok")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"NAME_CACHE_TTL", 6 * time.Hour, &cfg.NameCacheTTL},
		{"NAME_FAILURE_TTL", time.Minute, &cfg.NameFailureTTL},
		{"DELETE_CONFIRM_WINDOW", 2 * time.Minute, &cfg.DeleteConfirmWindow},
		{"EVENT_TIMEOUT", 10 * time.Second, &cfg.EventTimeout},
	}
	for _, d := range durations {
		if *d.dest, err = getDurationDefault(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.LineChannelSecret == "" && cfg.DiscordToken == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET or DISCORD_TOKEN is required")
	}
	if cfg.LineChannelSecret != "" && cfg.LineChannelToken == "" && cfg.LineChannelID == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_TOKEN or LINE_CHANNEL_ID is required when LINE is enabled")
	}

	return cfg, nil
}

// LineEnabled reports whether the LINE webhook should be served.
func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != ""
}

// AdminEnabled reports whether the token-protected admin API is served.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != ""
}

// UsesPostgres reports whether DatabaseURL names a Postgres server rather
// than a SQLite file.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
