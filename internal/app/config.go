package app

import (
	"time"

	bubbleservice "github.com/zappabad/marketbubbles/internal/bubble/service"
	"github.com/zappabad/marketbubbles/internal/config"
	"github.com/zappabad/marketbubbles/internal/loop"
	"github.com/zappabad/marketbubbles/internal/market/feed"
	marketservice "github.com/zappabad/marketbubbles/internal/market/service"
)

// Config holds configuration for the application.
type Config struct {
	// Feed is the market-data endpoint configuration.
	Feed feed.Config
	// DemoMode serves the built-in catalog instead of calling the feed.
	DemoMode bool
	// CatalogConfig is the configuration for the catalog service.
	CatalogConfig marketservice.Config
	// LoopConfig is the configuration for the simulation loop.
	LoopConfig loop.Config
	// BubbleConfig is the configuration for the bubble lifecycle.
	BubbleConfig bubbleservice.Config
	// RefreshSchedule is a cron spec for catalog refreshes. Empty disables
	// scheduled refresh; the catalog is still fetched once at start.
	RefreshSchedule string
	// RefreshTimeout bounds each catalog fetch.
	RefreshTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Feed:           feed.DefaultConfig(),
		CatalogConfig:  marketservice.DefaultConfig(),
		LoopConfig:     loop.DefaultConfig(),
		BubbleConfig:   bubbleservice.DefaultConfig(),
		RefreshTimeout: 30 * time.Second,
	}
}

// FromEnv builds a Config from the loaded environment.
func FromEnv(env *config.Config) Config {
	cfg := DefaultConfig()
	cfg.Feed.URL = env.FeedURL
	cfg.Feed.Timeout = env.FeedTimeout
	cfg.DemoMode = env.DemoMode
	cfg.RefreshSchedule = env.RefreshSchedule
	cfg.RefreshTimeout = env.FeedTimeout + 5*time.Second
	cfg.LoopConfig.FrameInterval = env.FrameInterval
	return cfg
}
