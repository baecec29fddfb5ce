package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate headings and labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Scrub Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	row := table(&b, t("Item"), t("Value"))
	row(t("File"), s.Source.Path)
	row(t("Frames"), fmt.Sprintf("%d", s.Source.Frames))
	row(t("Frame Size"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
	if s.Source.Format != "" {
		row(t("Format"), s.Source.Format)
	}
	if s.Source.FileSize > 0 {
		row(t("File Size"), formatBytes(s.Source.FileSize))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Cache Settings"))
	row = table(&b, t("Item"), t("Value"))
	row(t("Capacity"), fmt.Sprintf("%d", s.Settings.Capacity))
	row(t("Concurrency Limit"), fmt.Sprintf("%d", s.Settings.ConcurrencyLimit))
	row(t("Prefetch Window"), fmt.Sprintf("%d (%.2f)", s.Settings.PrefetchWindow, s.Settings.PrefetchFraction))
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Scrub"))
	row = table(&b, t("Item"), t("Value"))
	row(t("Range"), fmt.Sprintf("%d → %d (%s %d)", s.Scrub.From, s.Scrub.To, t("step"), s.Scrub.Step))
	row(t("Frames Requested"), fmt.Sprintf("%d", s.Scrub.Requested))
	row(t("Requested While Loading"), fmt.Sprintf("%d", s.Scrub.Busy))
	if s.Scrub.Errors > 0 {
		row(t("Errors"), fmt.Sprintf("%d", s.Scrub.Errors))
	}
	row(t("Duration"), fmt.Sprintf("%d ms", s.Scrub.DurationMs))
	if s.Scrub.Requested > 0 {
		row(t("Slowest Frame"), fmt.Sprintf("#%d (%d ms)", s.Scrub.SlowestFrame, s.Scrub.SlowestMs))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Cache Statistics"))
	row = table(&b, t("Counter"), t("Value"))
	row(t("Hits"), fmt.Sprintf("%d", s.Cache.Hits))
	row(t("Coalesced"), fmt.Sprintf("%d", s.Cache.Coalesced))
	row(t("Misses"), fmt.Sprintf("%d", s.Cache.Misses))
	row(t("Prefetches"), fmt.Sprintf("%d", s.Cache.Prefetches))
	row(t("Evictions"), fmt.Sprintf("%d", s.Cache.Evictions))
	row(t("Failures"), fmt.Sprintf("%d", s.Cache.Failures))
	row(t("Discarded"), fmt.Sprintf("%d", s.Cache.Discarded))
	row(t("Hit Ratio"), fmt.Sprintf("%.1f%%", s.Cache.HitRatio*100))
	b.WriteString("\n")

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" · yuvview %s", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

// table writes a two-column header and returns a row writer.
func table(b *strings.Builder, left, right string) func(string, string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", left, right)
	return func(k, v string) {
		fmt.Fprintf(b, "| %s | %s |\n", k, v)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
