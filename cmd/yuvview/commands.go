package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/yuvview/pkg/adapters/ggrenderer"
	"github.com/user/yuvview/pkg/adapters/mp4samples"
	"github.com/user/yuvview/pkg/adapters/yuvreader"
	"github.com/user/yuvview/pkg/config"
	"github.com/user/yuvview/pkg/summarizer"
	"github.com/user/yuvview/pkg/viewer"
)

// openViewer opens a raw YUV file and wraps it in a Viewer.
func (e *env) openViewer(path string) (*viewer.Viewer, error) {
	src, err := yuvreader.Open(path, e.cfg.Frame)
	if err != nil {
		return nil, err
	}
	if src.FrameCount() == 0 {
		src.Close()
		return nil, errors.New(l10n.F("%s holds no complete %s frame", path, e.cfg.Frame))
	}

	v, err := viewer.New(src, e.cfg.CacheOptions(), ggrenderer.New(), e.fs, e.log)
	if err != nil {
		src.Close()
		return nil, err
	}
	return v, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     l10n.T("Show frame count and layout of a file"),
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			e, err := setup(c)
			if err != nil {
				return err
			}

			if isMP4(path) {
				src, err := mp4samples.Open(path)
				if err != nil {
					return err
				}
				defer src.Close()
				fmt.Println(l10n.F("File:    %s", path))
				fmt.Println(l10n.F("Samples: %d", src.SampleCount()))
				return nil
			}

			v, err := e.openViewer(path)
			if err != nil {
				return err
			}
			defer v.Close()

			info := v.Info()
			fmt.Println(l10n.F("File:    %s", path))
			fmt.Println(l10n.F("Layout:  %s (%d bytes per frame)", e.cfg.Frame, e.cfg.Frame.FrameSize()))
			fmt.Println(l10n.F("Frames:  %d", info.Frames))
			fmt.Println(l10n.F("Cache:   %d frames, %d concurrent loads, prefetch %d",
				info.Cache.Capacity, info.Cache.ConcurrencyLimit, info.Cache.Window()))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	flags := append(rangeFlags(),
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: l10n.T("Output directory (required)"), Required: true, Category: l10n.T(categoryOutput)},
		&cli.Float64Flag{Name: "scale", Usage: l10n.T("Output scale factor (1.0 = original size)"), Category: l10n.T(categoryOutput)},
		&cli.BoolFlag{Name: "label", Usage: l10n.T("Draw the frame index on each image"), Category: l10n.T(categoryOutput)},
		&cli.StringFlag{Name: "image-format", Usage: l10n.T("Image format (png, jpeg)"), Category: l10n.T(categoryOutput)},
		&cli.IntFlag{Name: "quality", Usage: l10n.T("JPEG quality (1-100)"), Category: l10n.T(categoryOutput)},
		&cli.IntFlag{Name: "workers", Usage: l10n.T("Number of export workers"), Value: defaultWorkers(), Category: l10n.T(categoryOutput)},
	)

	return &cli.Command{
		Name:      "export",
		Usage:     l10n.T("Write frames as PNG or JPEG images"),
		ArgsUsage: "FILE",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			e, err := setup(c)
			if err != nil {
				return err
			}

			if c.IsSet("scale") {
				e.cfg.Export.Scale = c.Float64("scale")
			}
			if c.IsSet("label") {
				e.cfg.Export.Label = c.Bool("label")
			}
			if c.IsSet("image-format") {
				e.cfg.Export.Format = c.String("image-format")
			}
			if c.IsSet("quality") {
				e.cfg.Export.Quality = c.Int("quality")
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			format, err := config.ParseImageFormat(e.cfg.Export.Format)
			if err != nil {
				return err
			}

			v, err := e.openViewer(path)
			if err != nil {
				return err
			}
			defer v.Close()

			ctx, cancel := runContext(e.log)
			defer cancel()

			from, to := frameRange(c, v.Info().Frames)
			result, err := v.Export(ctx, viewer.ExportRequest{
				From:    from,
				To:      to,
				Dir:     c.String("out"),
				Format:  format,
				Quality: e.cfg.Export.Quality,
				Render:  e.cfg.RenderOptions(),
				Workers: c.Int("workers"),
			})
			if err != nil {
				return err
			}

			e.log.Info("Output saved to %s (%d files)", c.String("out"), len(result.Files))
			return nil
		},
	}
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     l10n.T("Print a content hash per frame"),
		ArgsUsage: "FILE",
		Flags:     rangeFlags(),
		Action: func(c *cli.Context) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			e, err := setup(c)
			if err != nil {
				return err
			}

			ctx, cancel := runContext(e.log)
			defer cancel()

			var digests []viewer.FrameDigest
			if isMP4(path) {
				src, err := mp4samples.Open(path)
				if err != nil {
					return err
				}
				defer src.Close()

				from, to := frameRange(c, src.SampleCount())
				ds, stats, err := viewer.DigestSamples(ctx, src, e.cfg.CacheOptions(), e.log, from, to)
				if err != nil {
					return err
				}
				e.log.Debug("Cache hit ratio %.2f", stats.HitRatio())
				digests = ds
			} else {
				v, err := e.openViewer(path)
				if err != nil {
					return err
				}
				defer v.Close()

				from, to := frameRange(c, v.Info().Frames)
				ds, err := v.Digest(ctx, from, to)
				if err != nil {
					return err
				}
				e.log.Debug("Cache hit ratio %.2f", v.Stats().HitRatio())
				digests = ds
			}

			for _, d := range digests {
				fmt.Println(d)
			}
			return nil
		},
	}
}

func scrubCommand() *cli.Command {
	flags := append(rangeFlags(),
		&cli.IntFlag{Name: "step", Usage: l10n.T("Frames advanced per request"), Value: 1},
		&cli.DurationFlag{Name: "dwell", Usage: l10n.T("Pause after each frame (e.g. 40ms)")},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output scrub summary to file (Markdown format)"), TakesFile: true, Category: l10n.T(categoryOutput)},
	)

	return &cli.Command{
		Name:      "scrub",
		Usage:     l10n.T("Walk through frames the way a slider would and report cache behaviour"),
		ArgsUsage: "FILE",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			path, err := fileArg(c)
			if err != nil {
				return err
			}
			e, err := setup(c)
			if err != nil {
				return err
			}

			v, err := e.openViewer(path)
			if err != nil {
				return err
			}
			defer v.Close()

			ctx, cancel := runContext(e.log)
			defer cancel()

			info := v.Info()
			from, to := frameRange(c, info.Frames)
			plan := viewer.ScrubPlan{
				From:  from,
				To:    to,
				Step:  c.Int("step"),
				Dwell: c.Duration("dwell"),
			}

			report, err := v.Scrub(ctx, plan)
			if err != nil {
				return err
			}

			stats := report.Stats
			fmt.Println(l10n.F("Requested: %d (%d while loading, %d failed)", report.Requested, report.Busy, report.Errors))
			fmt.Println(l10n.F("Slowest:   frame %d, %d ms", report.SlowestFrame, ms(report.Slowest)))
			fmt.Println(l10n.F("Cache:     %d hits, %d coalesced, %d misses, %d prefetches, %d evictions",
				stats.Hits, stats.Coalesced, stats.Misses, stats.Prefetches, stats.Evictions))

			if out := c.String("summary"); out != "" {
				if err := writeSummary(e, out, path, info, plan, report); err != nil {
					e.log.Warn("Failed to write summary: %s", err)
				} else {
					e.log.Info("Summary saved to %s", out)
				}
			}
			return nil
		},
	}
}

func writeSummary(e *env, out, path string, info viewer.Info, plan viewer.ScrubPlan, report viewer.ScrubReport) error {
	var size int64
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
	}

	step := max(plan.Step, 1)
	summary := summarizer.NewBuilder().
		WithSource(summarizer.SourceInfo{
			Path:     path,
			Frames:   info.Frames,
			Width:    info.Width,
			Height:   info.Height,
			Format:   fmt.Sprintf("yuv%s %dbit", e.cfg.Frame.Format, e.cfg.Frame.Bits),
			FileSize: size,
		}).
		WithOptions(info.Cache).
		WithScrub(summarizer.ScrubInfo{
			From:         plan.From,
			To:           plan.To,
			Step:         step,
			Requested:    report.Requested,
			Busy:         report.Busy,
			Errors:       report.Errors,
			DurationMs:   ms(report.Duration),
			SlowestMs:    ms(report.Slowest),
			SlowestFrame: report.SlowestFrame,
		}).
		WithStats(report.Stats).
		Build()

	formatter := summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(e.fs, formatter).Write(out, summary)
}
