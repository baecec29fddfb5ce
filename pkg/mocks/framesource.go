package mocks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/yuvview/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource. Frame i is a
// solid image whose red channel is i%256.
type FrameSource struct {
	Frames        int
	Width, Height int

	LoadFunc  func(ctx context.Context, index int) (ports.Frame, error)
	CloseFunc func() error

	mu     sync.Mutex
	loads  map[int]int
	closed bool
}

// NewFrameSource creates a source of n frames of w x h pixels.
func NewFrameSource(n, w, h int) *FrameSource {
	return &FrameSource{
		Frames: n,
		Width:  w,
		Height: h,
		loads:  make(map[int]int),
	}
}

func (m *FrameSource) FrameCount() int {
	return m.Frames
}

func (m *FrameSource) Size() (int, int) {
	return m.Width, m.Height
}

func (m *FrameSource) Load(ctx context.Context, index int) (ports.Frame, error) {
	m.mu.Lock()
	m.loads[index]++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, index)
	}
	if err := ctx.Err(); err != nil {
		return ports.Frame{}, err
	}
	if index < 0 || index >= m.Frames {
		return ports.Frame{}, fmt.Errorf("mock frame %d out of range", index)
	}
	return SolidFrame(index, m.Width, m.Height), nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Loads returns how many times index was loaded.
func (m *FrameSource) Loads(index int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[index]
}

// Closed reports whether Close was called.
func (m *FrameSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SolidFrame returns frame index filled with a color derived from index.
func SolidFrame(index, w, h int) ports.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: uint8(index % 256), G: 64, B: 128, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return ports.Frame{Index: index, Image: img}
}

var _ ports.FrameSource = (*FrameSource)(nil)
