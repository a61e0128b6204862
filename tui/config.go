package tui

import "time"

// Config holds configuration for the terminal host.
type Config struct {
	// CellWidth and CellHeight are the world units covered by one terminal
	// cell.
	CellWidth  float64
	CellHeight float64
	// FrameInterval paces the animation.
	FrameInterval time.Duration
	// RefreshTimeout bounds a manual catalog refresh.
	RefreshTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		CellWidth:      8,
		CellHeight:     16,
		FrameInterval:  time.Second / 60,
		RefreshTimeout: 30 * time.Second,
	}
}
