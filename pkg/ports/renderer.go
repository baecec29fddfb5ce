package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts turning frames into output images.
type Renderer interface {
	// Render composes a frame into an image according to opts.
	Render(frame Frame, opts RenderOptions) image.Image

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// RenderOptions controls frame rendering.
type RenderOptions struct {
	Scale float64 // Output scale factor (1.0 = original size)
	Label bool    // Draw the frame index in the top-left corner

	// LabelColor is the label text color. Nil means white.
	LabelColor color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// Extension returns the file extension for the format, without the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	default:
		return "png"
	}
}
