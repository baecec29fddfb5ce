// Package mp4samples serves the encoded video samples of a fragmented MP4
// file by index without decoding them.
package mp4samples

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/yuvview/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the file carries no video track.
	ErrNoVideoTrack = errors.New("mp4samples: no video track found")
	// ErrNotFragmented is returned for progressive MP4 files.
	ErrNotFragmented = errors.New("mp4samples: progressive MP4 not supported")
	// ErrSampleOutOfRange is returned for an index past the last sample.
	ErrSampleOutOfRange = errors.New("mp4samples: sample index out of range")
)

// Source implements ports.SampleSource. The file is indexed once on open;
// Load only slices the in-memory sample list.
type Source struct {
	samples []ports.Sample
}

// Open reads and indexes the MP4 file at path.
func Open(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return Parse(data)
}

// Parse indexes the video samples of an in-memory MP4 file.
func Parse(data []byte) (*Source, error) {
	f, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !f.IsFragmented() {
		return nil, ErrNotFragmented
	}

	trackID, timescale, trex, err := videoTrack(f)
	if err != nil {
		return nil, err
	}

	var samples []ports.Sample
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}

				var decodeTime uint64
				if traf.Tfdt != nil {
					decodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}

				full, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}
				for _, s := range full {
					samples = append(samples, ports.Sample{
						Index:       len(samples),
						TimestampMs: int(decodeTime * 1000 / uint64(timescale)),
						DurationMs:  int(uint64(s.Dur) * 1000 / uint64(timescale)),
						Keyframe:    s.Flags == mp4.SyncSampleFlags,
						Data:        s.Data,
					})
					decodeTime += uint64(s.Dur)
				}
			}
		}
	}

	return &Source{samples: samples}, nil
}

func videoTrack(f *mp4.File) (trackID, timescale uint32, trex *mp4.TrexBox, err error) {
	if f.Init == nil || f.Init.Moov == nil {
		return 0, 0, nil, ErrNoVideoTrack
	}

	timescale = 1000
	for _, trak := range f.Init.Moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			trackID = trak.Tkhd.TrackID
			if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
				timescale = trak.Mdia.Mdhd.Timescale
			}
			break
		}
	}
	if trackID == 0 {
		return 0, 0, nil, ErrNoVideoTrack
	}

	if mvex := f.Init.Moov.Mvex; mvex != nil {
		for _, t := range mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}
	return trackID, timescale, trex, nil
}

// SampleCount returns the number of video samples.
func (s *Source) SampleCount() int {
	return len(s.samples)
}

// Load returns sample index.
func (s *Source) Load(ctx context.Context, index int) (ports.Sample, error) {
	if err := ctx.Err(); err != nil {
		return ports.Sample{}, err
	}
	if index < 0 || index >= len(s.samples) {
		return ports.Sample{}, fmt.Errorf("%w: %d of %d", ErrSampleOutOfRange, index, len(s.samples))
	}
	return s.samples[index], nil
}

// Close is a no-op; the file is fully read by Open.
func (s *Source) Close() error {
	return nil
}

var _ ports.SampleSource = (*Source)(nil)
