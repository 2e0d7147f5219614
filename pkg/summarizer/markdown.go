package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Encode Summary\n\n")
	fmt.Fprintf(&sb, "Generated at %s", s.GeneratedAt.UTC().Format(time.RFC3339))
	if s.Elapsed > 0 {
		fmt.Fprintf(&sb, " in %s", s.Elapsed.Round(time.Millisecond))
	}
	sb.WriteString("\n\n")

	sb.WriteString("## Output\n\n")
	table(&sb, [][2]string{
		{"Destination", orNA(s.Output.Destination)},
		{"Size", fmt.Sprintf("%dx%d", s.Output.Width, s.Output.Height)},
		{"Duration", fmt.Sprintf("%.2f s", float64(s.Output.DurationMs)/1000)},
		{"File Size", formatBytes(s.Output.FileSize)},
	})

	sb.WriteString("## Frames\n\n")
	table(&sb, [][2]string{
		{"Input Files", countOrNA(s.Input.Files)},
		{"Admitted", fmt.Sprint(s.Frames.Admitted)},
		{"Rejected", fmt.Sprint(s.Frames.Rejected)},
		{"Skipped (late)", fmt.Sprint(s.Frames.SkippedLate)},
		{"Skipped (timestamp)", fmt.Sprint(s.Frames.SkippedTimestamp)},
		{"Merged", fmt.Sprint(s.Frames.Merged)},
		{"Unchanged", fmt.Sprint(s.Frames.Unchanged)},
		{"Written", fmt.Sprint(s.Frames.Written)},
	})

	sb.WriteString("## Settings\n\n")
	rows := [][2]string{
		{"Quality", fmt.Sprint(s.Settings.Quality)},
		{"Motion Quality", fmt.Sprint(s.Settings.MotionQuality)},
		{"Lossy Quality", fmt.Sprint(s.Settings.LossyQuality)},
		{"Fast", yesNo(s.Settings.Fast)},
		{"Extra Effort", yesNo(s.Settings.ExtraEffort)},
		{"Repeat", orNA(s.Settings.Repeat)},
		{"Max Size", maxSize(s.Settings.MaxWidth, s.Settings.MaxHeight)},
	}
	if s.Input.FPS > 0 {
		rows = append(rows, [2]string{"Input FPS", fmt.Sprintf("%g", s.Input.FPS)})
	}
	table(&sb, rows)

	return sb.String()
}

func table(sb *strings.Builder, rows [][2]string) {
	sb.WriteString("| Item | Value |\n")
	sb.WriteString("|------|-------|\n")
	for _, r := range rows {
		fmt.Fprintf(sb, "| %s | %s |\n", r[0], r[1])
	}
	sb.WriteString("\n")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func maxSize(w, h uint32) string {
	if w == 0 && h == 0 {
		return "source"
	}
	dim := func(v uint32) string {
		if v == 0 {
			return "any"
		}
		return fmt.Sprint(v)
	}
	return dim(w) + "x" + dim(h)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func countOrNA(n int) string {
	if n == 0 {
		return "N/A"
	}
	return fmt.Sprint(n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

var _ Formatter = (*MarkdownFormatter)(nil)
