package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// ScanModel renders the scanning phase.
type ScanModel struct {
	progress    types.ScanProgress
	spinner     spinner.Model
	currentPath string
	startTime   time.Time
	rootPath    string
	done        bool
	err         error
}

// NewScanModel creates a new scanning model.
func NewScanModel(rootPath string) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return ScanModel{
		spinner:   s,
		startTime: time.Now(),
		rootPath:  rootPath,
	}
}

// View renders the scanning body for the given content width.
func (m ScanModel) View(width int) string {
	var b strings.Builder

	switch {
	case m.done && m.err != nil:
		b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case m.done:
		b.WriteString(successTextStyle.Render("  Scan complete"))
	default:
		path := m.currentPath
		if path == "" {
			path = m.rootPath
		}
		b.WriteString(fmt.Sprintf("  %s Scanning: %s",
			m.spinner.View(),
			truncatePath(path, max(10, width-20))))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderProgressBar(width))
	b.WriteString("\n\n")
	b.WriteString(m.renderStats(width))
	b.WriteString("\n")

	return b.String()
}

// renderProgressBar renders an indeterminate bar; the file total is not
// known until the walk ends.
func (m ScanModel) renderProgressBar(width int) string {
	barWidth := width - 4
	if barWidth < 10 {
		barWidth = 10
	}

	elapsed := time.Since(m.startTime)
	position := int(elapsed.Seconds()*2) % (barWidth * 2)
	if position > barWidth {
		position = barWidth*2 - position
	}

	var bar strings.Builder
	bar.WriteString("  ")

	pulseWidth := barWidth / 5
	if pulseWidth < 3 {
		pulseWidth = 3
	}

	for i := range barWidth {
		dist := i - position
		if dist < 0 {
			dist = -dist
		}
		if dist < pulseWidth {
			bar.WriteString(progressFillStyle.Render("█"))
		} else {
			bar.WriteString(progressEmptyStyle.Render("░"))
		}
	}

	return bar.String()
}

// renderStats renders the statistics boxes.
func (m ScanModel) renderStats(totalWidth int) string {
	boxWidth := (totalWidth - 12) / 5
	if boxWidth < 10 {
		boxWidth = 10
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		"  ", renderStatBox("Dirs", humanize.Comma(m.progress.DirsScanned), boxWidth),
		" ", renderStatBox("Files", humanize.Comma(m.progress.FilesSeen), boxWidth),
		" ", renderStatBox("Matched", humanize.Comma(m.progress.Matched), boxWidth),
		" ", renderStatBox("Size", types.FormatSize(m.progress.BytesMatched), boxWidth),
		" ", renderStatBox("Time", formatDuration(time.Since(m.startTime)), boxWidth))
}

// renderStatBox renders a single stat box.
func renderStatBox(label, value string, width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		center(statsLabelStyle.Render(label), width-4),
		center(statsValueStyle.Render(value), width-4))

	return statsBoxStyle.Width(width).Render(content)
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}

// SetProgress updates the progress.
func (m *ScanModel) SetProgress(p types.ScanProgress) {
	m.progress = p
	if p.CurrentPath != "" {
		m.currentPath = p.CurrentPath
	}
}

// SetDone marks the scan as complete.
func (m *ScanModel) SetDone(err error) {
	m.done = true
	m.err = err
}

// IsDone returns true if the scan is complete.
func (m ScanModel) IsDone() bool {
	return m.done
}

// Error returns any error from the scan.
func (m ScanModel) Error() error {
	return m.err
}
