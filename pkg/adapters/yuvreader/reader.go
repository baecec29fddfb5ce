// Package yuvreader serves frames of a raw planar YUV file by index.
package yuvreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/user/yuvview/pkg/ports"
	"github.com/user/yuvview/pkg/yuv"
)

// ErrFrameOutOfRange is returned for an index past the last whole frame.
var ErrFrameOutOfRange = errors.New("yuvreader: frame index out of range")

// readerAtCloser is satisfied by *os.File.
type readerAtCloser interface {
	io.ReaderAt
	io.Closer
}

// Source implements ports.FrameSource over a raw YUV file.
// Frames are read with ReadAt, so concurrent loads do not share a file offset.
type Source struct {
	r      io.ReaderAt
	closer io.Closer
	cfg    yuv.FrameConfig
	frames int
}

// Open opens path and interprets it with cfg.
func Open(path string, cfg yuv.FrameConfig) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	s, err := newSource(f, info.Size(), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// New creates a Source over size bytes of r. Close is a no-op unless r is
// also an io.Closer.
func New(r io.ReaderAt, size int64, cfg yuv.FrameConfig) (*Source, error) {
	if rc, ok := r.(readerAtCloser); ok {
		return newSource(rc, size, cfg)
	}
	return newSource(nopCloser{r}, size, cfg)
}

func newSource(r readerAtCloser, size int64, cfg yuv.FrameConfig) (*Source, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		r:      r,
		closer: r,
		cfg:    cfg,
		frames: int(size / cfg.FrameSize()),
	}, nil
}

// FrameCount returns the number of whole frames. Trailing bytes are ignored.
func (s *Source) FrameCount() int {
	return s.frames
}

// Size returns the frame dimensions.
func (s *Source) Size() (width, height int) {
	return s.cfg.Width, s.cfg.Height
}

// Config returns the layout used to read frames.
func (s *Source) Config() yuv.FrameConfig {
	return s.cfg
}

// ReadRaw returns the undecoded bytes of frame index.
func (s *Source) ReadRaw(index int) ([]byte, error) {
	if index < 0 || index >= s.frames {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameOutOfRange, index, s.frames)
	}

	size := s.cfg.FrameSize()
	buf := make([]byte, size)
	if _, err := s.r.ReadAt(buf, int64(index)*size); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read frame %d: %w", index, err)
	}
	return buf, nil
}

// Load reads and converts frame index.
func (s *Source) Load(ctx context.Context, index int) (ports.Frame, error) {
	if err := ctx.Err(); err != nil {
		return ports.Frame{}, err
	}

	buf, err := s.ReadRaw(index)
	if err != nil {
		return ports.Frame{}, err
	}
	img, err := yuv.ToRGBA(buf, s.cfg)
	if err != nil {
		return ports.Frame{}, fmt.Errorf("convert frame %d: %w", index, err)
	}
	return ports.Frame{Index: index, Image: img}, nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.closer.Close()
}

type nopCloser struct {
	io.ReaderAt
}

func (nopCloser) Close() error { return nil }

var _ ports.FrameSource = (*Source)(nil)
