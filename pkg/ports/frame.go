// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"
)

// Frame is a decoded video frame.
type Frame struct {
	Index int
	Image *image.RGBA
}

// FrameSource provides random access to the decoded frames of a sequence.
// Load must be safe to call concurrently for distinct indices.
type FrameSource interface {
	// FrameCount returns the number of frames in the sequence.
	FrameCount() int

	// Size returns the frame dimensions in pixels.
	Size() (width, height int)

	// Load decodes the frame at index.
	Load(ctx context.Context, index int) (Frame, error)

	// Close releases source resources.
	Close() error
}

// Sample is a raw, undecoded media sample.
type Sample struct {
	Index       int
	TimestampMs int
	DurationMs  int
	Keyframe    bool
	Data        []byte
}

// SampleSource provides random access to the raw samples of a video track.
type SampleSource interface {
	// SampleCount returns the number of samples in the track.
	SampleCount() int

	// Load returns the sample at index.
	Load(ctx context.Context, index int) (Sample, error)

	// Close releases source resources.
	Close() error
}
