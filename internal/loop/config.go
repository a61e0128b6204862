package loop

import "time"

// Config holds configuration for the event loop.
type Config struct {
	// FrameInterval is the interval between animation frames.
	FrameInterval time.Duration
	// TaskBuffer is the size of the task queue.
	TaskBuffer int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		FrameInterval: time.Second / 60,
		TaskBuffer:    256,
	}
}
