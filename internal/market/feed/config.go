package feed

import "time"

// Config holds configuration for the market feed client.
type Config struct {
	// URL is the market-data endpoint returning a JSON array of instruments.
	URL string
	// Timeout bounds a single fetch.
	Timeout time.Duration
	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		URL:       "https://automation.immergreen.cc/webhook/stock-market",
		Timeout:   15 * time.Second,
		UserAgent: "marketbubbles/1.0",
	}
}
