package mocks

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/yuvview/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer. By default Render
// returns the frame image unchanged and EncodeImage returns "frame-<index>"
// for images produced by Render.
type Renderer struct {
	RenderFunc      func(frame ports.Frame, opts ports.RenderOptions) image.Image
	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)

	mu       sync.Mutex
	rendered []int
}

func (m *Renderer) Render(frame ports.Frame, opts ports.RenderOptions) image.Image {
	m.mu.Lock()
	m.rendered = append(m.rendered, frame.Index)
	m.mu.Unlock()

	if m.RenderFunc != nil {
		return m.RenderFunc(frame, opts)
	}
	return frame.Image
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	b := img.Bounds()
	return []byte(fmt.Sprintf("%s %dx%d", format.Extension(), b.Dx(), b.Dy())), nil
}

// Rendered returns the frame indices passed to Render, in call order.
func (m *Renderer) Rendered() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.rendered...)
}

var _ ports.Renderer = (*Renderer)(nil)
