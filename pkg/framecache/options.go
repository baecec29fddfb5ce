package framecache

import (
	"fmt"
	"math"
)

// Options configures a Cache.
type Options struct {
	// Capacity is the maximum number of resident entries.
	Capacity int `yaml:"capacity"`
	// ConcurrencyLimit is the maximum number of loads running at once.
	ConcurrencyLimit int `yaml:"concurrency"`
	// PrefetchFraction sizes the forward prefetch window as a fraction of Capacity.
	PrefetchFraction float64 `yaml:"prefetch_fraction"`
}

// DefaultOptions returns 50 frames, 16 concurrent loads and a 0.75 prefetch window.
func DefaultOptions() Options {
	return Options{
		Capacity:         50,
		ConcurrencyLimit: 16,
		PrefetchFraction: 0.75,
	}
}

// Validate reports whether the options can build a Cache.
func (o Options) Validate() error {
	if o.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, o.Capacity)
	}
	if o.ConcurrencyLimit <= 0 {
		return fmt.Errorf("%w: concurrency limit must be positive, got %d", ErrInvalidConfig, o.ConcurrencyLimit)
	}
	if math.IsNaN(o.PrefetchFraction) || o.PrefetchFraction <= 0 || o.PrefetchFraction > 1 {
		return fmt.Errorf("%w: prefetch fraction must be in (0, 1], got %v", ErrInvalidConfig, o.PrefetchFraction)
	}
	return nil
}

// Window returns the number of prefetch candidates considered after each request.
func (o Options) Window() int {
	return int(math.Round(o.PrefetchFraction * float64(o.Capacity)))
}
