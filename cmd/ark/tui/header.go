package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// renderAppHeader renders the title line with the run's direction and a
// right-aligned key hint.
func renderAppHeader(source, dest, hint string, width int) string {
	title := titleStyle.Render("  ARK")
	route := mutedTextStyle.Render(fmt.Sprintf("  %s → %s",
		truncatePath(source, width/3), truncatePath(dest, width/3)))
	left := title + route

	right := mutedTextStyle.Render(hint)
	spacing := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}

// renderScanMetrics renders the one-line summary of a finished scan.
// It returns an empty string if there is nothing to report.
func renderScanMetrics(res *types.ScanResult) string {
	if res == nil {
		return ""
	}

	var parts []string
	if res.DirsScanned > 0 || res.FilesSeen > 0 {
		parts = append(parts, fmt.Sprintf("Scanned: %s dirs, %s files",
			humanize.Comma(res.DirsScanned),
			humanize.Comma(res.FilesSeen)))
	}
	parts = append(parts, fmt.Sprintf("Matched: %s (%s)",
		humanize.Comma(int64(len(res.Files))), types.FormatSize(res.TotalSize)))
	if res.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("Time: %v", res.Elapsed.Round(time.Millisecond)))
	}
	if res.FromCache {
		parts = append(parts, "cached")
	}

	return mutedTextStyle.Render("  " + strings.Join(parts, "  |  "))
}
