package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// CopyModel renders the copying phase.
type CopyModel struct {
	bar       progress.Model
	progress  types.CopyProgress
	total     int
	totalSize int64
	startTime time.Time
}

// NewCopyModel creates the copying view for total files of totalSize bytes.
func NewCopyModel(total int, totalSize int64) CopyModel {
	return CopyModel{
		bar:       progress.New(progress.WithDefaultGradient()),
		progress:  types.CopyProgress{Total: total},
		total:     total,
		totalSize: totalSize,
		startTime: time.Now(),
	}
}

// SetProgress records a copier progress event. Events never move backwards.
func (m *CopyModel) SetProgress(p types.CopyProgress) {
	if p.Current < m.progress.Current {
		return
	}
	m.progress = p
}

// Percent returns the completed share of the run.
func (m CopyModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return m.progress.Percent()
}

// View renders the copying body for the given content width.
func (m CopyModel) View(width int, spin string) string {
	var b strings.Builder

	current := m.progress.Filename
	if current == "" {
		current = "preparing destination"
	}
	b.WriteString(fmt.Sprintf("  %s Copying: %s", spin, fileNameStyle.Render(truncatePath(current, max(10, width-20)))))
	b.WriteString("\n\n")

	m.bar.Width = max(10, width-12)
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString("\n\n")

	errs := humanize.Comma(int64(m.progress.Errors))
	if m.progress.Errors > 0 {
		errs = errorTextStyle.Render(errs)
	}
	b.WriteString(fmt.Sprintf("  %s / %s files   copied %s   errors %s   total %s   %s",
		humanize.Comma(int64(m.progress.Current)),
		humanize.Comma(int64(m.total)),
		humanize.Comma(int64(m.progress.Copied)),
		errs,
		types.FormatSize(m.totalSize),
		formatDuration(time.Since(m.startTime))))
	b.WriteString("\n")

	return b.String()
}
