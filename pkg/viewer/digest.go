package viewer

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/user/yuvview/pkg/framecache"
	"github.com/user/yuvview/pkg/ports"
)

// FrameDigest is the xxhash of one frame's content.
type FrameDigest struct {
	Index int
	Sum   uint64
}

// String formats the digest as "index hash".
func (d FrameDigest) String() string {
	return fmt.Sprintf("%6d %016x", d.Index, d.Sum)
}

// Digest hashes the RGBA pixels of frames from..to in order.
func (v *Viewer) Digest(ctx context.Context, from, to int) ([]FrameDigest, error) {
	if err := v.checkRange(from, to); err != nil {
		return nil, err
	}
	return digestRange(ctx, v.cache, span(from, to, 1), func(f ports.Frame) []byte {
		if f.Image == nil {
			return nil
		}
		return f.Image.Pix
	})
}

// DigestSamples hashes the raw samples from..to of src, reading them
// through a frame cache built with opts.
func DigestSamples(
	ctx context.Context,
	src ports.SampleSource,
	opts framecache.Options,
	logger ports.Logger,
	from, to int,
) ([]FrameDigest, framecache.Stats, error) {
	n := src.SampleCount()
	for _, idx := range []int{from, to} {
		if idx < 0 || idx >= n {
			return nil, framecache.Stats{}, fmt.Errorf("%w: %d of %d", ErrFrameOutOfRange, idx, n)
		}
	}

	cache, err := framecache.New[ports.Sample](framecache.LoaderFunc[ports.Sample](src.Load), opts, logger)
	if err != nil {
		return nil, framecache.Stats{}, err
	}
	defer cache.Close()
	cache.SetBound(n)

	digests, err := digestRange(ctx, cache, span(from, to, 1), func(s ports.Sample) []byte {
		return s.Data
	})
	return digests, cache.Stats(), err
}

func digestRange[F any](ctx context.Context, cache *framecache.Cache[F], indices []int, content func(F) []byte) ([]FrameDigest, error) {
	digests := make([]FrameDigest, 0, len(indices))
	for _, idx := range indices {
		item, err := cache.Get(ctx, idx)
		if err != nil {
			return digests, err
		}
		digests = append(digests, FrameDigest{Index: idx, Sum: xxhash.Sum64(content(item))})
	}
	return digests, nil
}
