package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/ark/pkg/ark/logging"
)

// logViewerRows is the height of the log pane including its title.
const logViewerRows = 8

// filterEntriesByLevel returns entries at or above the specified level.
func filterEntriesByLevel(entries []logging.Entry, minLevel logging.Level) []logging.Entry {
	result := make([]logging.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Level >= minLevel {
			result = append(result, e)
		}
	}
	return result
}

// clampLogScroll ensures the scroll offset stays within valid bounds.
func clampLogScroll(offset, totalEntries, visibleRows int) int {
	if totalEntries <= visibleRows {
		return 0
	}
	maxOffset := totalEntries - visibleRows
	if offset < 0 {
		return 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

// getVisibleLogEntries filters by level, then applies offset and limit.
func getVisibleLogEntries(entries []logging.Entry, minLevel logging.Level, offset, limit int) []logging.Entry {
	filtered := filterEntriesByLevel(entries, minLevel)

	if offset >= len(filtered) {
		return nil
	}

	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[offset:end]
}

// logLevelStyle returns the style for a log level.
func logLevelStyle(level logging.Level) lipgloss.Style {
	switch level {
	case logging.LevelDebug:
		return logDebugStyle
	case logging.LevelWarn:
		return logWarnStyle
	case logging.LevelError:
		return logErrorStyle
	default:
		return logInfoStyle
	}
}

// logLevelChar returns a single character for the log level.
func logLevelChar(level logging.Level) string {
	switch level {
	case logging.LevelDebug:
		return "D"
	case logging.LevelInfo:
		return "I"
	case logging.LevelWarn:
		return "W"
	case logging.LevelError:
		return "E"
	default:
		return "?"
	}
}

// renderLogViewer renders the log pane within width and height.
func renderLogViewer(entries []logging.Entry, filterLevel logging.Level, scrollOffset, width, height int) string {
	if height < 3 {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf(" Logs [%s+] ", filterLevel.String())
	b.WriteString(titleStyle.Render(title) + mutedTextStyle.Render("[3] warn  [4] error  [l] close"))
	b.WriteString("\n")
	b.WriteString(renderDivider(width))
	b.WriteString("\n")

	visibleRows := max(1, height-2)
	filtered := filterEntriesByLevel(entries, filterLevel)
	scrollOffset = clampLogScroll(scrollOffset, len(filtered), visibleRows)
	visible := getVisibleLogEntries(entries, filterLevel, scrollOffset, visibleRows)

	if len(filtered) == 0 {
		b.WriteString(mutedTextStyle.Render(" no warnings"))
		b.WriteString("\n")
		visibleRows--
	}
	for _, entry := range visible {
		b.WriteString(renderLogEntry(entry, width))
		b.WriteString("\n")
	}
	for i := len(visible); i < visibleRows; i++ {
		b.WriteString("\n")
	}

	return b.String()
}

// renderLogEntry renders "HH:MM:SS [L] component: message".
func renderLogEntry(entry logging.Entry, width int) string {
	comp := entry.Component
	if len(comp) > 10 {
		comp = comp[:10]
	}

	prefixWidth := 8 + 1 + 3 + 1 + len(comp) + 2
	msgWidth := max(10, width-prefixWidth)

	msg := entry.Message
	if len(msg) > msgWidth {
		msg = msg[:msgWidth-3] + "..."
	}

	return fmt.Sprintf("%s %s %s: %s",
		logTimeStyle.Render(entry.Time.Format("15:04:05")),
		logLevelStyle(entry.Level).Render("["+logLevelChar(entry.Level)+"]"),
		logComponentStyle.Render(comp),
		msg)
}

// LogViewerState holds the state of the log pane. Entries come from the
// logging package's quiet-mode buffer, which keeps warnings and errors.
type LogViewerState struct {
	Open         bool
	FilterLevel  logging.Level
	ScrollOffset int
	entries      []logging.Entry
}

// NewLogViewerState creates a closed log pane showing warnings and up.
func NewLogViewerState() *LogViewerState {
	return &LogViewerState{FilterLevel: logging.LevelWarn}
}

// Toggle opens or closes the pane.
func (s *LogViewerState) Toggle() {
	s.Open = !s.Open
}

// SetFilterLevel sets the filter level and resets scrolling.
func (s *LogViewerState) SetFilterLevel(level logging.Level) {
	s.FilterLevel = level
	s.ScrollOffset = 0
}

// SetEntries replaces the entries, keeping the view pinned to the newest
// lines unless the user has scrolled up.
func (s *LogViewerState) SetEntries(entries []logging.Entry) {
	visible := logViewerRows - 2
	atBottom := s.ScrollOffset >= len(filterEntriesByLevel(s.entries, s.FilterLevel))-visible
	s.entries = entries
	if atBottom {
		s.ScrollOffset = max(0, s.FilteredEntryCount()-visible)
	}
}

// ScrollUp scrolls up by one line.
func (s *LogViewerState) ScrollUp() {
	if s.ScrollOffset > 0 {
		s.ScrollOffset--
	}
}

// ScrollDown scrolls down by one line.
func (s *LogViewerState) ScrollDown(visibleRows int) {
	maxOffset := max(0, s.FilteredEntryCount()-visibleRows)
	if s.ScrollOffset < maxOffset {
		s.ScrollOffset++
	}
}

// FilteredEntryCount returns the number of entries at or above the filter level.
func (s *LogViewerState) FilteredEntryCount() int {
	return len(filterEntriesByLevel(s.entries, s.FilterLevel))
}

// WarningCount returns the number of warnings and errors held.
func (s *LogViewerState) WarningCount() int {
	return len(filterEntriesByLevel(s.entries, logging.LevelWarn))
}

// View renders the pane at the given width.
func (s *LogViewerState) View(width int) string {
	return renderLogViewer(s.entries, s.FilterLevel, s.ScrollOffset, width, logViewerRows)
}
