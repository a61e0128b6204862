package service

import (
	"time"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/bubble/view"
)

// Config holds configuration for the bubble lifecycle.
type Config struct {
	// Params tunes layout, stepping and interaction.
	Params core.Params
	// Popup is the detail popup footprint.
	Popup view.PopupConfig
	// ResizeDebounce is the quiet period before a resize re-lays out the
	// bubbles.
	ResizeDebounce time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Params:         core.DefaultParams(),
		Popup:          view.DefaultPopupConfig(),
		ResizeDebounce: 250 * time.Millisecond,
	}
}
