package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// CronParser accepts five- or six-field specs (seconds optional) and
// descriptors such as "@every 5m".
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds application configuration
type Config struct {
	FeedURL         string
	FeedTimeout     time.Duration
	RefreshSchedule string // empty disables scheduled refresh
	DemoMode        bool   // serve the built-in catalog instead of the feed

	LogLevel  string
	LogPretty bool
	LogFile   string

	Port           int
	FrameInterval  time.Duration
	StreamInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		FeedURL:         getEnv("MARKET_FEED_URL", "https://automation.immergreen.cc/webhook/stock-market"),
		FeedTimeout:     getEnvAsDuration("MARKET_FEED_TIMEOUT", 15*time.Second),
		RefreshSchedule: getEnv("MARKET_REFRESH_SCHEDULE", ""),
		DemoMode:        getEnvAsBool("DEMO_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogPretty:       getEnvAsBool("LOG_PRETTY", false),
		LogFile:         getEnv("LOG_FILE", ""),
		Port:            getEnvAsInt("HTTP_PORT", 8080),
		FrameInterval:   getEnvAsDuration("FRAME_INTERVAL", time.Second/60),
		StreamInterval:  getEnvAsDuration("STREAM_INTERVAL", 100*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.FeedURL == "" && !c.DemoMode {
		return fmt.Errorf("MARKET_FEED_URL is required unless DEMO_MODE is set")
	}
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("MARKET_FEED_TIMEOUT must be positive, got %s", c.FeedTimeout)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.Port)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive, got %s", c.FrameInterval)
	}
	if c.StreamInterval <= 0 {
		return fmt.Errorf("STREAM_INTERVAL must be positive, got %s", c.StreamInterval)
	}
	if c.RefreshSchedule != "" {
		if _, err := CronParser.Parse(c.RefreshSchedule); err != nil {
			return fmt.Errorf("MARKET_REFRESH_SCHEDULE: %w", err)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
