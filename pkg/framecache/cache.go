// Package framecache keeps a bounded window of frames resident around the
// position a viewer is scrubbing, loading them in the background.
//
// A Cache coalesces concurrent requests for the same index onto one load,
// never runs more than ConcurrencyLimit loads at once and, after every
// request, prefetches the frames that follow it. When the cache is full an
// entry is evicted by a directional rule: after a backward jump the entry
// furthest ahead goes, otherwise the oldest past frame goes.
package framecache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/user/yuvview/pkg/ports"
)

// Loader produces the frame at index. It may be slow, may fail and must be
// safe to call concurrently for distinct indices.
type Loader[F any] interface {
	Load(ctx context.Context, index int) (F, error)
}

// LoaderFunc is a function adapter for the Loader interface.
type LoaderFunc[F any] func(ctx context.Context, index int) (F, error)

// Load implements Loader.
func (f LoaderFunc[F]) Load(ctx context.Context, index int) (F, error) {
	return f(ctx, index)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits       uint64 // Requests served by a ready entry
	Coalesced  uint64 // Requests that joined a pending entry
	Misses     uint64 // Requests that created an entry
	Prefetches uint64 // Loads dispatched by the prefetch pass
	Evictions  uint64
	Failures   uint64 // Loads that returned an error
	Discarded  uint64 // Loads that settled after their entry was evicted or cleared

	Resident int
	InFlight int
	Queued   int
}

// HitRatio returns the share of requests that did not dispatch a new load.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Coalesced + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits+s.Coalesced) / float64(total)
}

// entry is one slot of the cache. The pointer doubles as the token a
// completing load uses to tell whether it still owns its index.
type entry[F any] struct {
	index    int
	prefetch bool
	settled  bool
	done     chan struct{}
	frame    F
	err      error
}

// Cache is a bounded, prefetching frame cache. It is safe for concurrent use.
type Cache[F any] struct {
	loader Loader[F]
	opts   Options
	window int
	logger ports.Logger

	// ctx is handed to every load and cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	entries  map[int]*entry[F]
	inFlight int
	queue    []*entry[F] // direct requests waiting for a load slot
	bound    int // indices at or above bound are never loaded; 0 means unbounded
	closed   bool
	stats    Stats
}

// New creates a Cache that loads frames with loader.
func New[F any](loader Loader[F], opts Options, logger ports.Logger) (*Cache[F], error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: loader is nil", ErrInvalidConfig)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache[F]{
		loader:  loader,
		opts:    opts,
		window:  opts.Window(),
		logger:  logger.WithComponent("framecache"),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[int]*entry[F], opts.Capacity),
	}, nil
}

// Get returns the frame at index, loading it if needed, and prefetches the
// frames that follow it. Requests for an index that is already pending wait
// on the same load. A failed load is reported to every caller waiting on it
// and stays cached until it is evicted or the cache is cleared.
//
// Cancelling ctx only stops the wait; the load itself keeps running.
func (c *Cache[F]) Get(ctx context.Context, index int) (F, error) {
	var zero F
	if index < 0 {
		return zero, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	if c.bound > 0 && index >= c.bound {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %d beyond %d", ErrInvalidIndex, index, c.bound)
	}

	e, ok := c.entries[index]
	switch {
	case !ok:
		c.stats.Misses++
		c.makeRoom(index+1, index)
		e = c.add(index, false)
		c.schedule(e)
	case e.settled:
		c.stats.Hits++
	default:
		c.stats.Coalesced++
	}
	c.prefetch(index+1, index)
	c.mu.Unlock()

	select {
	case <-e.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	if e.err != nil {
		return zero, e.err
	}
	return e.frame, nil
}

// Loading reports whether any load is running or waiting for a slot.
func (c *Cache[F]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0 || len(c.queue) > 0
}

// Clear drops every entry. Loads already running are not cancelled, but
// their results are discarded when they settle.
func (c *Cache[F]) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[int]*entry[F], c.opts.Capacity)
	c.mu.Unlock()

	c.logger.Debug("Cleared %d cached frames", n)
}

// SetBound limits the cache to indices below n, typically the frame count
// of the source. Prefetching stops at the bound. n <= 0 removes the limit.
func (c *Cache[F]) SetBound(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound = max(n, 0)
}

// Close cancels the context passed to running loads. Get fails with
// ErrClosed afterwards.
func (c *Cache[F]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
}

// Len returns the number of resident entries, pending ones included.
func (c *Cache[F]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Resident returns the resident indices in ascending order.
func (c *Cache[F]) Resident() []int {
	c.mu.Lock()
	indices := make([]int, 0, len(c.entries))
	for idx := range c.entries {
		indices = append(indices, idx)
	}
	c.mu.Unlock()

	sort.Ints(indices)
	return indices
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[F]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Resident = len(c.entries)
	s.InFlight = c.inFlight
	s.Queued = len(c.queue)
	return s
}

// Options returns the options the cache was built with.
func (c *Cache[F]) Options() Options {
	return c.opts
}

// prefetch makes sure up to window indices starting at start are resident or
// loading. It stops as soon as the concurrency limit is reached and never
// queues work; the next Get starts over. Must be called with c.mu held.
func (c *Cache[F]) prefetch(start, protected int) {
	for i := 0; i < c.window; i++ {
		idx := start + i
		if idx < 0 || (c.bound > 0 && idx >= c.bound) {
			return
		}
		if _, ok := c.entries[idx]; ok {
			continue
		}
		if c.inFlight >= c.opts.ConcurrencyLimit {
			return
		}
		if len(c.entries) >= c.opts.Capacity && !c.evictOne(start, protected) {
			return
		}

		c.stats.Prefetches++
		c.dispatch(c.add(idx, true))
	}
}

// makeRoom evicts until one more entry fits. Must be called with c.mu held.
func (c *Cache[F]) makeRoom(anchor, protected int) {
	for len(c.entries) >= c.opts.Capacity {
		if !c.evictOne(anchor, protected) {
			return
		}
	}
}

// evictOne removes one entry other than protected. If the highest resident
// index lies a full capacity or more beyond anchor, the viewer has moved
// backward and that index is evicted; otherwise the lowest index is.
// Must be called with c.mu held.
func (c *Cache[F]) evictOne(anchor, protected int) bool {
	var smallest, largest int
	found := false
	for idx := range c.entries {
		if idx == protected {
			continue
		}
		if !found {
			smallest, largest, found = idx, idx, true
			continue
		}
		smallest = min(smallest, idx)
		largest = max(largest, idx)
	}
	if !found {
		return false
	}

	victim := smallest
	if largest-anchor >= c.opts.Capacity {
		victim = largest
	}
	delete(c.entries, victim)
	c.stats.Evictions++
	return true
}

// add registers a pending entry. Must be called with c.mu held.
func (c *Cache[F]) add(index int, prefetch bool) *entry[F] {
	e := &entry[F]{
		index:    index,
		prefetch: prefetch,
		done:     make(chan struct{}),
	}
	c.entries[index] = e
	return e
}

// schedule starts the load for a direct request, or queues it until a slot
// frees up. Must be called with c.mu held.
func (c *Cache[F]) schedule(e *entry[F]) {
	if c.inFlight < c.opts.ConcurrencyLimit {
		c.dispatch(e)
		return
	}
	c.queue = append(c.queue, e)
}

// dispatch starts the load for e. Must be called with c.mu held.
func (c *Cache[F]) dispatch(e *entry[F]) {
	c.inFlight++
	go c.run(e)
}

// run loads e, settles it and hands the freed slot to the oldest queued request.
func (c *Cache[F]) run(e *entry[F]) {
	frame, err := c.load(e.index)

	c.mu.Lock()
	c.inFlight--
	if err != nil {
		c.stats.Failures++
		e.err = fmt.Errorf("%w: frame %d: %w", ErrLoadFailed, e.index, err)
	} else {
		e.frame = frame
	}
	e.settled = true
	close(e.done)

	current := c.entries[e.index] == e
	if !current {
		c.stats.Discarded++
	}

	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.dispatch(next)
	}
	c.mu.Unlock()

	switch {
	case !current:
		c.logger.Debug("Discarded stale result for frame %d", e.index)
	case err != nil && e.prefetch:
		c.logger.Debug("Prefetch of frame %d failed: %s", e.index, err)
	}
}

// load calls the loader, turning a panic into an error so that a failing
// background prefetch cannot take the process down.
func (c *Cache[F]) load(index int) (frame F, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panic: %v", r)
		}
	}()
	return c.loader.Load(c.ctx, index)
}
