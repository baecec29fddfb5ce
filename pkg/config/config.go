// Package config loads yuvview settings from YAML.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/yuvview/pkg/framecache"
	"github.com/user/yuvview/pkg/ports"
	"github.com/user/yuvview/pkg/yuv"
)

// ErrInvalid is returned by Validate and the parse helpers.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full yuvview configuration.
type Config struct {
	Frame  yuv.FrameConfig    `yaml:"frame"`
	Cache  framecache.Options `yaml:"cache"`
	Export ExportConfig       `yaml:"export"`

	LogLevel string `yaml:"log_level"`

	// Resolutions are the "WIDTHxHEIGHT" presets offered by --resolution.
	Resolutions []string `yaml:"resolutions"`
}

// ExportConfig controls frame export.
type ExportConfig struct {
	Scale      float64 `yaml:"scale"`
	Label      bool    `yaml:"label"`
	LabelColor string  `yaml:"label_color"`
	Format     string  `yaml:"format"` // png or jpeg
	Quality    int     `yaml:"quality"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Frame: yuv.DefaultFrameConfig(),
		Cache: framecache.DefaultOptions(),
		Export: ExportConfig{
			Scale:      1.0,
			LabelColor: "#ffffff",
			Format:     "png",
			Quality:    90,
		},
		LogLevel: "info",
		Resolutions: []string{
			"352x288",
			"640x480",
			"1280x720",
			"1920x1080",
			"3840x2160",
		},
	}
}

// LoadFromFile reads a YAML file through fs and overlays it on Defaults.
func LoadFromFile(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Frame = cfg.Frame.Normalize()

	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Frame.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("%w: export scale must be positive, got %v", ErrInvalid, c.Export.Scale)
	}
	if _, err := ParseImageFormat(c.Export.Format); err != nil {
		return err
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("%w: export quality must be between 1 and 100, got %d", ErrInvalid, c.Export.Quality)
	}
	if _, err := ParseColor(c.Export.LabelColor); err != nil {
		return err
	}
	if _, err := c.Presets(); err != nil {
		return err
	}
	return nil
}

// Resolution is a named frame size preset.
type Resolution struct {
	Name          string
	Width, Height int
}

// Presets parses the configured resolution list.
func (c Config) Presets() ([]Resolution, error) {
	presets := make([]Resolution, 0, len(c.Resolutions))
	for _, s := range c.Resolutions {
		w, h, err := yuv.ParseResolution(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		presets = append(presets, Resolution{Name: s, Width: w, Height: h})
	}
	return presets, nil
}

// CacheOptions returns the frame cache options.
func (c Config) CacheOptions() framecache.Options {
	return c.Cache
}

// RenderOptions returns the export render options. An unparsable label
// color falls back to white.
func (c Config) RenderOptions() ports.RenderOptions {
	fg, err := ParseColor(c.Export.LabelColor)
	if err != nil {
		fg = color.White
	}
	return ports.RenderOptions{
		Scale:      c.Export.Scale,
		Label:      c.Export.Label,
		LabelColor: fg,
	}
}

// ParseImageFormat maps "png", "jpeg" and "jpg" to an ImageFormat.
func ParseImageFormat(s string) (ports.ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return ports.FormatPNG, nil
	case "jpeg", "jpg":
		return ports.FormatJPEG, nil
	default:
		return 0, fmt.Errorf("%w: unknown image format %q", ErrInvalid, s)
	}
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(hex string) (color.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return nil, fmt.Errorf("%w: color %q is not #rrggbb", ErrInvalid, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: color %q: %v", ErrInvalid, hex, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
