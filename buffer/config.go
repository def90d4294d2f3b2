package buffer

import "time"

const (
	defaultCapacity      = 1000
	defaultDedupWindowMs = 1000
)

// Config holds buffer initialization parameters.
type Config struct {
	// Capacity bounds the item list; the oldest item is evicted when the
	// list would exceed it.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	// DedupWindowMs is the interval, in milliseconds, during which
	// identical content is suppressed as a duplicate.
	DedupWindowMs int `json:"dedup_window_ms,omitempty" yaml:"dedup_window_ms,omitempty"`
}

// DefaultConfig returns the default buffer configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:      defaultCapacity,
		DedupWindowMs: defaultDedupWindowMs,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Capacity > 0 {
		c.Capacity = source.Capacity
	}
	if source.DedupWindowMs > 0 {
		c.DedupWindowMs = source.DedupWindowMs
	}
}

// Window returns the dedup window as a duration.
func (c Config) Window() time.Duration {
	return time.Duration(c.DedupWindowMs) * time.Millisecond
}
