// Package summarizer builds and writes reports of scrub runs.
package summarizer

import (
	"time"

	"github.com/user/yuvview/pkg/framecache"
)

// Summary contains everything collected during one scrub run.
type Summary struct {
	GeneratedAt time.Time

	Source   SourceInfo
	Settings Settings
	Scrub    ScrubInfo
	Cache    CacheInfo
}

// SourceInfo describes the scrubbed file.
type SourceInfo struct {
	Path     string
	Frames   int
	Width    int
	Height   int
	Format   string // e.g. "yuv420 8bit"
	FileSize int64
}

// Settings contains the cache configuration of the run.
type Settings struct {
	Capacity         int
	ConcurrencyLimit int
	PrefetchFraction float64
	PrefetchWindow   int
}

// ScrubInfo contains the scrub plan and its timing.
type ScrubInfo struct {
	From, To, Step int

	Requested int // Frames requested
	Busy      int // Requests made while the cache was still loading
	Errors    int // Requests that returned an error

	DurationMs   int
	SlowestMs    int
	SlowestFrame int
}

// CacheInfo contains the cache counters at the end of the run.
type CacheInfo struct {
	Hits       uint64
	Coalesced  uint64
	Misses     uint64
	Prefetches uint64
	Evictions  uint64
	Failures   uint64
	Discarded  uint64
	HitRatio   float64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithOptions records the cache options.
func (b *Builder) WithOptions(opts framecache.Options) *Builder {
	b.summary.Settings = Settings{
		Capacity:         opts.Capacity,
		ConcurrencyLimit: opts.ConcurrencyLimit,
		PrefetchFraction: opts.PrefetchFraction,
		PrefetchWindow:   opts.Window(),
	}
	return b
}

// WithScrub sets the scrub plan and timing.
func (b *Builder) WithScrub(scrub ScrubInfo) *Builder {
	b.summary.Scrub = scrub
	return b
}

// WithStats records cache counters.
func (b *Builder) WithStats(stats framecache.Stats) *Builder {
	b.summary.Cache = CacheInfo{
		Hits:       stats.Hits,
		Coalesced:  stats.Coalesced,
		Misses:     stats.Misses,
		Prefetches: stats.Prefetches,
		Evictions:  stats.Evictions,
		Failures:   stats.Failures,
		Discarded:  stats.Discarded,
		HitRatio:   stats.HitRatio(),
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
