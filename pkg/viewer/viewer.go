// Package viewer drives a frame source through a prefetching frame cache.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/yuvview/pkg/framecache"
	"github.com/user/yuvview/pkg/ports"
)

var (
	// ErrFrameOutOfRange is returned for an index outside the source.
	ErrFrameOutOfRange = errors.New("viewer: frame index out of range")
	// ErrNoSource is returned when a nil source is supplied.
	ErrNoSource = errors.New("viewer: no frame source")
)

// Info describes the current source and cache.
type Info struct {
	Frames int
	Width  int
	Height int
	Cache  framecache.Options
}

// Viewer serves frames of one source through a frame cache. The source can
// be swapped with Reconfigure.
type Viewer struct {
	mu     sync.RWMutex
	source ports.FrameSource

	cache    *framecache.Cache[ports.Frame]
	renderer ports.Renderer
	fs       ports.FileSystem
	logger   ports.Logger
}

// New creates a Viewer. The viewer owns source and closes it on Close.
func New(
	source ports.FrameSource,
	opts framecache.Options,
	renderer ports.Renderer,
	fs ports.FileSystem,
	logger ports.Logger,
) (*Viewer, error) {
	if source == nil {
		return nil, ErrNoSource
	}

	v := &Viewer{
		source:   source,
		renderer: renderer,
		fs:       fs,
		logger:   logger.WithComponent("viewer"),
	}

	cache, err := framecache.New[ports.Frame](framecache.LoaderFunc[ports.Frame](v.load), opts, logger)
	if err != nil {
		return nil, err
	}
	cache.SetBound(source.FrameCount())
	v.cache = cache
	return v, nil
}

// load reads from whichever source is current when the load starts.
func (v *Viewer) load(ctx context.Context, index int) (ports.Frame, error) {
	v.mu.RLock()
	src := v.source
	v.mu.RUnlock()
	return src.Load(ctx, index)
}

// Frame returns frame index.
func (v *Viewer) Frame(ctx context.Context, index int) (ports.Frame, error) {
	if err := v.checkRange(index, index); err != nil {
		return ports.Frame{}, err
	}
	return v.cache.Get(ctx, index)
}

// Loading reports whether the cache has loads in progress.
func (v *Viewer) Loading() bool {
	return v.cache.Loading()
}

// Stats returns the cache counters.
func (v *Viewer) Stats() framecache.Stats {
	return v.cache.Stats()
}

// Info returns the source dimensions and cache settings.
func (v *Viewer) Info() Info {
	v.mu.RLock()
	defer v.mu.RUnlock()

	w, h := v.source.Size()
	return Info{
		Frames: v.source.FrameCount(),
		Width:  w,
		Height: h,
		Cache:  v.cache.Options(),
	}
}

// Reconfigure replaces the source, for example after the frame size or
// format changed, and clears the cache. The old source is closed.
func (v *Viewer) Reconfigure(source ports.FrameSource) error {
	if source == nil {
		return ErrNoSource
	}

	v.mu.Lock()
	old := v.source
	v.source = source
	v.mu.Unlock()

	v.cache.SetBound(source.FrameCount())
	v.cache.Clear()

	w, h := source.Size()
	v.logger.Info("Source reconfigured: %d frames at %dx%d", source.FrameCount(), w, h)

	if old != nil && old != source {
		if err := old.Close(); err != nil {
			return fmt.Errorf("close previous source: %w", err)
		}
	}
	return nil
}

// Close stops the cache and closes the source.
func (v *Viewer) Close() error {
	v.cache.Close()

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.source.Close()
}

// checkRange verifies that from and to are valid frame indices.
func (v *Viewer) checkRange(from, to int) error {
	v.mu.RLock()
	n := v.source.FrameCount()
	v.mu.RUnlock()

	for _, idx := range []int{from, to} {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: %d of %d", ErrFrameOutOfRange, idx, n)
		}
	}
	return nil
}

// span returns the indices from..to inclusive, walking in either direction.
func span(from, to, step int) []int {
	if step <= 0 {
		step = 1
	}
	if to < from {
		step = -step
	}

	var indices []int
	for i := from; (step > 0 && i <= to) || (step < 0 && i >= to); i += step {
		indices = append(indices, i)
	}
	return indices
}
