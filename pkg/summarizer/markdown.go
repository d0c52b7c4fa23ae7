package summarizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used for headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
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

	fmt.Fprintf(&b, "# %s\n\n", t("Build Summary"))

	b.WriteString(f.table(
		[2]string{t("Attempt"), s.Attempt.ID},
		[2]string{t("Strategy"), s.Attempt.Strategy},
		[2]string{t("Started"), formatTime(s.Attempt.StartedAt)},
		[2]string{t("Finished"), formatTime(s.Attempt.FinishedAt)},
	))

	fmt.Fprintf(&b, "\n## %s\n\n", t("Settings"))
	quality := "-"
	if s.Settings.Quality > 0 {
		quality = fmt.Sprintf("%d", s.Settings.Quality)
	}
	b.WriteString(f.table(
		[2]string{t("Codec"), s.Settings.Codec},
		[2]string{t("Dimensions"), fmt.Sprintf("%dx%d", s.Settings.Width, s.Settings.Height)},
		[2]string{t("Tracks"), fmt.Sprintf("%d", s.Settings.TrackCount)},
		[2]string{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Settings.FPS)},
		[2]string{t("Bitrate"), formatBitrate(s.Settings.Bitrate)},
		[2]string{t("Quality"), quality},
	))

	fmt.Fprintf(&b, "\n## %s\n\n", t("Result"))
	if s.Result.Succeeded {
		b.WriteString(f.table(
			[2]string{t("Status"), t("Succeeded")},
			[2]string{t("File"), s.Result.File},
			[2]string{t("Frames"), fmt.Sprintf("%d", s.Result.Frames)},
			[2]string{t("Duration"), fmt.Sprintf("%d ms", s.Result.DurationMs)},
			[2]string{t("File Size"), formatBytes(s.Result.Bytes)},
			[2]string{t("Elapsed"), fmt.Sprintf("%d ms", s.Result.ElapsedMs)},
		))
	} else {
		frame := "-"
		if s.Result.Frame != nil {
			frame = fmt.Sprintf("%d", *s.Result.Frame)
		}
		b.WriteString(f.table(
			[2]string{t("Status"), t("Failed")},
			[2]string{t("Phase"), s.Result.Phase},
			[2]string{t("Frame"), frame},
			[2]string{t("Error"), s.Result.Error},
		))
	}

	if s.Container != nil {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Container"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", t("Track"), t("Format"), t("Dimensions"), t("Samples"), t("Duration"))
		b.WriteString("|---|---|---|---|---|\n")
		for _, tr := range s.Container.Tracks {
			dims := fmt.Sprintf("%dx%d", tr.Width, tr.Height)
			if tr.CodedWidth > 0 && (tr.CodedWidth != tr.Width || tr.CodedHeight != tr.Height) {
				dims += fmt.Sprintf(" (%s %dx%d)", t("coded"), tr.CodedWidth, tr.CodedHeight)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %d | %d ms |\n", tr.ID, tr.Format, dims, tr.Samples, tr.DurationMs)
		}
	}

	b.WriteString("\n---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), formatTime(s.GeneratedAt))
	if f.version != "" {
		footer += fmt.Sprintf(" by framemux %s", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) table(rows ...[2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		v := r[1]
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], v)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatBitrate(bps int) string {
	switch {
	case bps <= 0:
		return "-"
	case bps >= 1000000:
		return fmt.Sprintf("%.2f Mbps", float64(bps)/1000000)
	case bps >= 1000:
		return fmt.Sprintf("%.0f kbps", float64(bps)/1000)
	default:
		return fmt.Sprintf("%d bps", bps)
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMG"[exp])
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
