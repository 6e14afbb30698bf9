package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// PrettyFormatter renders a styled table grouped by category.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")
	w.WriteString(f.table(r))
	w.WriteString(f.footer(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
		w.WriteString("\n")
		for _, warning := range r.Warnings {
			w.WriteString(WarningStyle.Render("  " + warning))
			w.WriteString("\n")
		}
	}
	return nil
}

func (f *PrettyFormatter) header(r *Result) string {
	lines := []string{
		LabelStyle.Render("Source:") + " " + ValueStyle.Render(r.Source),
	}

	scanned := fmt.Sprintf("%d files in %d dirs, %s",
		r.Stats.FilesSeen, r.Stats.DirsScanned, FormatDuration(r.Stats.Duration))
	info := LabelStyle.Render("Scanned:") + " " + ValueStyle.Render(scanned)
	if r.Stats.DirsExcluded > 0 {
		info += "  " + MutedStyle.Render(fmt.Sprintf("%d excluded", r.Stats.DirsExcluded))
	}
	if r.FromCache {
		info += "  " + SuccessStyle.Render("cached")
	}
	lines = append(lines, info)

	if r.Interrupted {
		lines = append(lines, WarningStyle.Bold(true).Render("Scan interrupted"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) table(r *Result) string {
	if len(r.Files) == 0 {
		return MutedStyle.Render("  No files matched the rule") + "\n"
	}

	catWidth, sizeWidth := len("CATEGORY"), 8
	for _, file := range r.Files {
		catWidth = max(catWidth, lipgloss.Width(file.Category))
		sizeWidth = max(sizeWidth, len(file.SizeHuman))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("CATEGORY", catWidth)),
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render("PATH"))

	for _, file := range r.Files {
		fmt.Fprintf(&sb, "  %s  %s  %s\n",
			CategoryStyle.Render(padRight(file.Category, catWidth)),
			SizeStyle.Render(padLeft(file.SizeHuman, sizeWidth)),
			PathStyle.Render(file.Path))
	}
	return sb.String()
}

func (f *PrettyFormatter) footer(r *Result) string {
	var lines []string
	for _, c := range r.Categories {
		lines = append(lines, fmt.Sprintf("%s %s",
			CategoryStyle.Render(c.Name+":"),
			ValueStyle.Render(fmt.Sprintf("%d files, %s", c.Files, types.FormatSize(c.Size)))))
	}

	total := LabelStyle.Render("Files:") + " " + ValueStyle.Render(fmt.Sprintf("%d", r.TotalFiles())) +
		"  " + LabelStyle.Render("Total:") + " " + SizeStyle.Render(types.FormatSize(r.TotalSize())) +
		"  " + MutedStyle.Render("Use -o plain for unformatted output")
	lines = append(lines, total)

	return FooterBox.Render(strings.Join(lines, "\n")) + "\n"
}

func padLeft(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// FormatDuration formats d for people: 850ms, 4.2s, 3m 12s, 1h 5m.
func FormatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
