package service

// Config holds configuration for the catalog service.
type Config struct {
	// EventBuffer is the size of the catalog events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		EventBuffer: 16,
		DropEvents:  true,
	}
}
