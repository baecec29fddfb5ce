// Package main provides the CLI entry point for yuvview.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/yuvview/pkg/adapters/logger"
	"github.com/user/yuvview/pkg/adapters/osfilesystem"
	"github.com/user/yuvview/pkg/config"
	"github.com/user/yuvview/pkg/ports"
	"github.com/user/yuvview/pkg/yuv"
)

var version = "dev"

const (
	categoryFrame   = "Frame Layout"
	categoryCache   = "Cache"
	categoryLogging = "Logging"
	categoryOutput  = "Output"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "yuvview",
		Usage:           l10n.T("Inspect, export and scrub raw YUV sequences"),
		Description:     l10n.T("yuvview reads raw planar YUV files through a prefetching frame cache."),
		Version:         version,
		HideHelpCommand: true,
		Flags:           globalFlags(),
		Commands: []*cli.Command{
			infoCommand(),
			exportCommand(),
			digestCommand(),
			scrubCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("yuvview version %s", version))
					return nil
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			Usage:     l10n.T("YAML configuration file"),
			TakesFile: true,
		},

		// Frame layout
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Frame width in pixels"), Category: l10n.T(categoryFrame)},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Frame height in pixels"), Category: l10n.T(categoryFrame)},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: l10n.T("Chroma format (400, 420, 422, 444)"), Category: l10n.T(categoryFrame)},
		&cli.IntFlag{Name: "bits", Usage: l10n.T("Bits per sample (8-16)"), Category: l10n.T(categoryFrame)},
		&cli.StringFlag{Name: "resolution", Aliases: []string{"r"}, Usage: l10n.T("Resolution preset (e.g. 1920x1080)"), Category: l10n.T(categoryFrame)},

		// Cache
		&cli.IntFlag{Name: "capacity", Usage: l10n.T("Maximum number of cached frames"), Category: l10n.T(categoryCache)},
		&cli.IntFlag{Name: "concurrency", Usage: l10n.T("Maximum number of concurrent frame loads"), Category: l10n.T(categoryCache)},
		&cli.Float64Flag{Name: "prefetch", Usage: l10n.T("Prefetch window as a fraction of capacity"), Category: l10n.T(categoryCache)},

		// Logging
		&cli.StringFlag{Name: "log-level", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(categoryLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(categoryLogging)},
	}
}

// env carries what every command needs.
type env struct {
	cfg config.Config
	log ports.Logger
	fs  *osfilesystem.FileSystem
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(c *cli.Context) (*env, error) {
	fs := osfilesystem.New()

	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(fs, path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyOverrides(c, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	return &env{cfg: cfg, log: log, fs: fs}, nil
}

// applyOverrides copies explicitly set flags onto cfg. A resolution preset
// is applied before --width and --height so that those win.
func applyOverrides(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("resolution") {
		res, err := findPreset(*cfg, c.String("resolution"))
		if err != nil {
			return err
		}
		cfg.Frame.Width, cfg.Frame.Height = res.Width, res.Height
	}
	if c.IsSet("width") {
		cfg.Frame.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Frame.Height = c.Int("height")
	}
	if c.IsSet("format") {
		f, err := yuv.ParseFormat(c.String("format"))
		if err != nil {
			return err
		}
		cfg.Frame.Format = f
	}
	if c.IsSet("bits") {
		cfg.Frame.Bits = c.Int("bits")
	}

	if c.IsSet("capacity") {
		cfg.Cache.Capacity = c.Int("capacity")
	}
	if c.IsSet("concurrency") {
		cfg.Cache.ConcurrencyLimit = c.Int("concurrency")
	}
	if c.IsSet("prefetch") {
		cfg.Cache.PrefetchFraction = c.Float64("prefetch")
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return nil
}

func findPreset(cfg config.Config, name string) (config.Resolution, error) {
	presets, err := cfg.Presets()
	if err != nil {
		return config.Resolution{}, err
	}
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
		names = append(names, p.Name)
	}
	return config.Resolution{}, fmt.Errorf("%w: unknown resolution %q (available: %s)",
		config.ErrInvalid, name, strings.Join(names, ", "))
}

// runContext returns a context cancelled on SIGINT or SIGTERM.
func runContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// fileArg returns the single FILE argument of a command.
func fileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New(l10n.T("FILE argument is required"))
	}
	return c.Args().First(), nil
}

// frameRange resolves --from and --to against a count of n frames.
// A negative --to means the last frame.
func frameRange(c *cli.Context, n int) (from, to int) {
	from, to = c.Int("from"), c.Int("to")
	if to < 0 {
		to = n - 1
	}
	return from, to
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "from", Usage: l10n.T("First frame index"), Value: 0},
		&cli.IntFlag{Name: "to", Usage: l10n.T("Last frame index (-1 = last frame)"), Value: -1},
	}
}

func isMP4(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v", ".m4s":
		return true
	}
	return false
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

func ms(d time.Duration) int {
	return int(d.Milliseconds())
}
