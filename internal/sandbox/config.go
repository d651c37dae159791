package sandbox

import "time"

// Config holds the limits applied to every run.
type Config struct {
	// Engine is used for scripts that do not name one: "tengo", "js" or "lua" (default: tengo)
	Engine string

	// Timeout bounds a single run (default: 30s). Zero disables it.
	Timeout time.Duration

	// MaxAllocs bounds tengo object allocations per run (default: 5,000,000)
	MaxAllocs int64

	// MaxHostCalls bounds host function calls per run. Zero disables it.
	MaxHostCalls int

	// MaxOutputChars caps captured output; anything beyond is dropped and the
	// result is marked truncated (default: 1 MiB)
	MaxOutputChars int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:         EngineTengo,
		Timeout:        30 * time.Second,
		MaxAllocs:      5_000_000,
		MaxHostCalls:   0,
		MaxOutputChars: 1 << 20,
	}
}
