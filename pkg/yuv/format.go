// Package yuv describes raw planar YUV frame layouts and converts them to RGBA.
package yuv

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Format is a chroma subsampling scheme.
type Format string

const (
	Format400 Format = "400"
	Format420 Format = "420"
	Format422 Format = "422"
	Format444 Format = "444"
)

// Formats lists the supported formats.
var Formats = []Format{Format400, Format420, Format422, Format444}

var (
	// ErrInvalidFrameConfig is returned when a frame configuration cannot describe a frame.
	ErrInvalidFrameConfig = errors.New("yuv: invalid frame config")
	// ErrShortBuffer is returned when a buffer is smaller than one frame.
	ErrShortBuffer = errors.New("yuv: buffer shorter than frame")
)

// ParseFormat parses a format name. "yuv420", "YUV420" and "420" are all accepted.
func ParseFormat(s string) (Format, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "yuv")
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidFrameConfig, s)
}

// FrameConfig describes the layout of one frame in a raw YUV file.
type FrameConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format Format `yaml:"format"`
	Bits   int    `yaml:"bits"`
}

// DefaultFrameConfig returns 1280x720 8-bit 4:4:4.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Width:  1280,
		Height: 720,
		Format: Format444,
		Bits:   8,
	}
}

// Validate checks that the configuration describes a readable frame.
func (c FrameConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidFrameConfig, c.Width, c.Height)
	}
	if c.Bits < 8 || c.Bits > 16 {
		return fmt.Errorf("%w: bit depth must be between 8 and 16, got %d", ErrInvalidFrameConfig, c.Bits)
	}
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown format %q", ErrInvalidFrameConfig, c.Format)
}

// Normalize returns a copy with the format name canonicalized, so that
// "YUV420" and "420" compare equal.
func (c FrameConfig) Normalize() FrameConfig {
	if f, err := ParseFormat(string(c.Format)); err == nil {
		c.Format = f
	}
	return c
}

// BytesPerSample returns 1 for 8-bit content and 2 otherwise.
func (c FrameConfig) BytesPerSample() int {
	if c.Bits > 8 {
		return 2
	}
	return 1
}

// ChromaSize returns the dimensions of one chroma plane.
// Both are zero for 4:0:0.
func (c FrameConfig) ChromaSize() (width, height int) {
	switch c.Format {
	case Format400:
		return 0, 0
	case Format420:
		return (c.Width + 1) / 2, (c.Height + 1) / 2
	case Format422:
		return (c.Width + 1) / 2, c.Height
	default:
		return c.Width, c.Height
	}
}

// FrameSize returns the size of one frame in bytes.
func (c FrameConfig) FrameSize() int64 {
	cw, ch := c.ChromaSize()
	samples := int64(c.Width)*int64(c.Height) + 2*int64(cw)*int64(ch)
	return samples * int64(c.BytesPerSample())
}

// String returns a short description such as "1280x720 yuv444 8bit".
func (c FrameConfig) String() string {
	return fmt.Sprintf("%dx%d yuv%s %dbit", c.Width, c.Height, c.Format, c.Bits)
}

// ParseResolution parses "WIDTHxHEIGHT".
func ParseResolution(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: resolution %q is not WIDTHxHEIGHT", ErrInvalidFrameConfig, s)
	}
	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: resolution width %q: %v", ErrInvalidFrameConfig, w, err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: resolution height %q: %v", ErrInvalidFrameConfig, h, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: resolution %q must be positive", ErrInvalidFrameConfig, s)
	}
	return width, height, nil
}

// ToRGBA converts one planar frame to RGBA using BT.601 limited-range coefficients.
func ToRGBA(buf []byte, c FrameConfig) (*image.RGBA, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if int64(len(buf)) < c.FrameSize() {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(buf), c.FrameSize())
	}

	bps := c.BytesPerSample()
	shift := uint(c.Bits - 8)
	cw, ch := c.ChromaSize()

	lumaLen := c.Width * c.Height * bps
	chromaLen := cw * ch * bps
	yPlane := buf[:lumaLen]
	uPlane := buf[lumaLen : lumaLen+chromaLen]
	vPlane := buf[lumaLen+chromaLen : lumaLen+2*chromaLen]

	// Horizontal and vertical chroma subsampling factors.
	sx, sy := 1, 1
	switch c.Format {
	case Format420:
		sx, sy = 2, 2
	case Format422:
		sx = 2
	}

	sample := func(plane []byte, i int) int {
		if bps == 1 {
			return int(plane[i])
		}
		v := int(plane[2*i]) | int(plane[2*i+1])<<8
		return v >> shift
	}

	rgba := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			yVal := sample(yPlane, y*c.Width+x)
			uVal, vVal := 128, 128
			if cw > 0 {
				ci := (y/sy)*cw + x/sx
				uVal = sample(uPlane, ci)
				vVal = sample(vPlane, ci)
			}

			cc := yVal - 16
			d := uVal - 128
			e := vVal - 128

			idx := y*rgba.Stride + x*4
			rgba.Pix[idx] = uint8(clamp((298*cc + 409*e + 128) >> 8))
			rgba.Pix[idx+1] = uint8(clamp((298*cc - 100*d - 208*e + 128) >> 8))
			rgba.Pix[idx+2] = uint8(clamp((298*cc + 516*d + 128) >> 8))
			rgba.Pix[idx+3] = 255
		}
	}

	return rgba, nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
