// Package ggrenderer renders frames for export using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"github.com/user/yuvview/pkg/ports"
)

var labelBackground = color.RGBA{R: 0, G: 0, B: 0, A: 160}

const (
	labelPadding = 4.0
	labelMargin  = 6.0
)

// Renderer implements ports.Renderer.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render returns a scaled copy of the frame, optionally labelled with its
// index. The frame image itself is never modified.
func (r *Renderer) Render(frame ports.Frame, opts ports.RenderOptions) image.Image {
	if frame.Image == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	dst := r.scale(frame.Image, opts.Scale)
	if opts.Label {
		fg := opts.LabelColor
		if fg == nil {
			fg = color.White
		}
		drawLabel(dst, fmt.Sprintf("#%d", frame.Index), fg)
	}
	return dst
}

func (r *Renderer) scale(src *image.RGBA, factor float64) *image.RGBA {
	bounds := src.Bounds()
	if factor <= 0 || factor == 1 {
		dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Copy(dst, image.Point{}, src, bounds, draw.Src, nil)
		return dst
	}

	width := max(1, int(math.Round(float64(bounds.Dx())*factor)))
	height := max(1, int(math.Round(float64(bounds.Dy())*factor)))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

// drawLabel draws text on a translucent box in the top-left corner.
func drawLabel(img *image.RGBA, text string, fg color.Color) {
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(basicfont.Face7x13)
	tw, th := dc.MeasureString(text)

	dc.SetColor(labelBackground)
	dc.DrawRoundedRectangle(labelMargin, labelMargin, tw+2*labelPadding, th+2*labelPadding, 3)
	dc.Fill()

	dc.SetColor(fg)
	dc.DrawStringAnchored(text, labelMargin+labelPadding, labelMargin+labelPadding+th/2, 0, 0.5)
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

var _ ports.Renderer = (*Renderer)(nil)
