package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/ark/pkg/ark/logging"
)

// formatTestMessage creates a consistent test message format.
func formatTestMessage(i int) string {
	return fmt.Sprintf("message %d", i)
}

func testEntries(n int, level func(i int) logging.Level) []logging.Entry {
	entries := make([]logging.Entry, 0, n)
	for i := range n {
		entries = append(entries, logging.Entry{
			Time:      time.Now(),
			Level:     level(i),
			Component: "copier",
			Message:   formatTestMessage(i),
		})
	}
	return entries
}

func warnLevel(int) logging.Level { return logging.LevelWarn }

func TestFilterEntriesByLevel(t *testing.T) {
	entries := []logging.Entry{
		{Level: logging.LevelDebug, Message: "debug 1"},
		{Level: logging.LevelInfo, Message: "info 1"},
		{Level: logging.LevelWarn, Message: "warn 1"},
		{Level: logging.LevelError, Message: "error 1"},
		{Level: logging.LevelDebug, Message: "debug 2"},
		{Level: logging.LevelInfo, Message: "info 2"},
	}

	tests := []struct {
		name           string
		filterLevel    logging.Level
		expectedCount  int
		expectedLevels []logging.Level
	}{
		{
			name:          "filter debug shows all",
			filterLevel:   logging.LevelDebug,
			expectedCount: 6,
			expectedLevels: []logging.Level{
				logging.LevelDebug, logging.LevelInfo, logging.LevelWarn,
				logging.LevelError, logging.LevelDebug, logging.LevelInfo,
			},
		},
		{
			name:           "filter info hides debug",
			filterLevel:    logging.LevelInfo,
			expectedCount:  4,
			expectedLevels: []logging.Level{logging.LevelInfo, logging.LevelWarn, logging.LevelError, logging.LevelInfo},
		},
		{
			name:           "filter warn shows warn and error",
			filterLevel:    logging.LevelWarn,
			expectedCount:  2,
			expectedLevels: []logging.Level{logging.LevelWarn, logging.LevelError},
		},
		{
			name:           "filter error shows only error",
			filterLevel:    logging.LevelError,
			expectedCount:  1,
			expectedLevels: []logging.Level{logging.LevelError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := filterEntriesByLevel(entries, tt.filterLevel)

			if len(filtered) != tt.expectedCount {
				t.Errorf("expected %d entries, got %d", tt.expectedCount, len(filtered))
			}

			for i, e := range filtered {
				if i < len(tt.expectedLevels) && e.Level != tt.expectedLevels[i] {
					t.Errorf("entry %d: expected level %v, got %v", i, tt.expectedLevels[i], e.Level)
				}
			}
		})
	}
}

func TestLogScrollBounds(t *testing.T) {
	tests := []struct {
		name           string
		totalEntries   int
		visibleRows    int
		initialOffset  int
		scrollDelta    int
		expectedOffset int
	}{
		{
			name:           "scroll down within bounds",
			totalEntries:   30,
			visibleRows:    10,
			initialOffset:  0,
			scrollDelta:    5,
			expectedOffset: 5,
		},
		{
			name:           "scroll down clamped at max",
			totalEntries:   30,
			visibleRows:    10,
			initialOffset:  15,
			scrollDelta:    10,
			expectedOffset: 20, // max is totalEntries - visibleRows
		},
		{
			name:           "scroll up within bounds",
			totalEntries:   30,
			visibleRows:    10,
			initialOffset:  10,
			scrollDelta:    -5,
			expectedOffset: 5,
		},
		{
			name:           "scroll up clamped at zero",
			totalEntries:   30,
			visibleRows:    10,
			initialOffset:  3,
			scrollDelta:    -10,
			expectedOffset: 0,
		},
		{
			name:           "no scroll when entries fit in view",
			totalEntries:   5,
			visibleRows:    10,
			initialOffset:  0,
			scrollDelta:    5,
			expectedOffset: 0, // can't scroll when all entries visible
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newOffset := clampLogScroll(tt.initialOffset+tt.scrollDelta, tt.totalEntries, tt.visibleRows)
			if newOffset != tt.expectedOffset {
				t.Errorf("expected offset %d, got %d", tt.expectedOffset, newOffset)
			}
		})
	}
}

func TestLogLevelColors(t *testing.T) {
	// Verify each level returns a valid style (we can't easily test ANSI codes without a terminal)
	levels := []logging.Level{
		logging.LevelDebug,
		logging.LevelInfo,
		logging.LevelWarn,
		logging.LevelError,
	}

	for _, level := range levels {
		style := logLevelStyle(level)
		// Verify the style can render without panic
		rendered := style.Render("test")
		// Rendered should contain the original text
		if len(rendered) < 4 { // "test" is 4 chars
			t.Errorf("level %v render is too short: %q", level, rendered)
		}
	}

	// Verify each level returns a different style by checking their configurations are non-empty
	// The actual colors are tested visually, but we verify the function returns valid styles
	debugStyle := logLevelStyle(logging.LevelDebug)
	infoStyle := logLevelStyle(logging.LevelInfo)
	warnStyle := logLevelStyle(logging.LevelWarn)
	errorStyle := logLevelStyle(logging.LevelError)

	// Basic sanity check - they should all be able to render
	_ = debugStyle.Render("x")
	_ = infoStyle.Render("x")
	_ = warnStyle.Render("x")
	_ = errorStyle.Render("x")
}

func TestLogViewerVisibleEntries(t *testing.T) {
	entries := testEntries(50, func(int) logging.Level { return logging.LevelInfo })

	visible := getVisibleLogEntries(entries, logging.LevelDebug, 10, 20)

	if len(visible) != 20 {
		t.Errorf("expected 20 visible entries, got %d", len(visible))
	}
	if visible[0].Message != "message 10" {
		t.Errorf("expected first visible to be 'message 10', got %q", visible[0].Message)
	}
}

func TestLogViewerVisibleEntriesWithFilter(t *testing.T) {
	entries := testEntries(20, func(i int) logging.Level {
		if i%2 == 0 {
			return logging.LevelDebug
		}
		return logging.LevelInfo
	})

	visible := getVisibleLogEntries(entries, logging.LevelInfo, 0, 5)

	if len(visible) != 5 {
		t.Errorf("expected 5 visible entries, got %d", len(visible))
	}
	for i, e := range visible {
		if e.Level != logging.LevelInfo {
			t.Errorf("entry %d: expected info level, got %v", i, e.Level)
		}
	}
}

func TestLogViewerVisibleEntriesOffsetPastEnd(t *testing.T) {
	entries := testEntries(3, warnLevel)
	if got := getVisibleLogEntries(entries, logging.LevelDebug, 5, 10); got != nil {
		t.Errorf("expected nil, got %d entries", len(got))
	}
}

func TestLogLevelChar(t *testing.T) {
	tests := map[logging.Level]string{
		logging.LevelDebug: "D",
		logging.LevelInfo:  "I",
		logging.LevelWarn:  "W",
		logging.LevelError: "E",
		logging.Level(9):   "?",
	}
	for level, want := range tests {
		if got := logLevelChar(level); got != want {
			t.Errorf("logLevelChar(%d) = %q, want %q", level, got, want)
		}
	}
}

func TestRenderLogEntry(t *testing.T) {
	entry := logging.Entry{
		Time:      time.Date(2026, 1, 20, 15, 4, 5, 0, time.UTC),
		Level:     logging.LevelWarn,
		Component: "copier",
		Message:   "failed to copy /src/a.jpg",
	}

	line := renderLogEntry(entry, 80)
	for _, want := range []string{"15:04:05", "[W]", "copier", "failed to copy /src/a.jpg"} {
		if !strings.Contains(line, want) {
			t.Errorf("renderLogEntry() = %q, missing %q", line, want)
		}
	}

	entry.Message = strings.Repeat("x", 200)
	if line := renderLogEntry(entry, 40); !strings.Contains(line, "...") {
		t.Errorf("long message should be truncated, got %q", line)
	}
}

func TestRenderLogViewer(t *testing.T) {
	if got := renderLogViewer(nil, logging.LevelWarn, 0, 80, 2); got != "" {
		t.Errorf("expected empty render for tiny height, got %q", got)
	}

	empty := renderLogViewer(nil, logging.LevelWarn, 0, 80, 8)
	if !strings.Contains(empty, "no warnings") {
		t.Errorf("expected placeholder for no entries, got %q", empty)
	}

	view := renderLogViewer(testEntries(3, warnLevel), logging.LevelWarn, 0, 80, 8)
	if !strings.Contains(view, "Logs [warn+]") {
		t.Errorf("expected filter level in title, got %q", view)
	}
	if !strings.Contains(view, "message 2") {
		t.Errorf("expected entries in view, got %q", view)
	}
}

func TestLogViewerState(t *testing.T) {
	s := NewLogViewerState()
	if s.Open {
		t.Error("log pane should start closed")
	}
	if s.FilterLevel != logging.LevelWarn {
		t.Errorf("FilterLevel = %v, want warn", s.FilterLevel)
	}

	s.Toggle()
	if !s.Open {
		t.Error("Toggle() should open the pane")
	}

	s.SetEntries(testEntries(20, warnLevel))
	if s.WarningCount() != 20 {
		t.Errorf("WarningCount() = %d, want 20", s.WarningCount())
	}

	visible := logViewerRows - 2
	if s.ScrollOffset != 20-visible {
		t.Errorf("new entries should pin to the bottom, offset = %d", s.ScrollOffset)
	}

	s.ScrollDown(visible)
	if s.ScrollOffset != 20-visible {
		t.Errorf("ScrollDown past the end moved offset to %d", s.ScrollOffset)
	}

	s.ScrollUp()
	s.ScrollUp()
	if s.ScrollOffset != 20-visible-2 {
		t.Errorf("ScrollUp() offset = %d, want %d", s.ScrollOffset, 20-visible-2)
	}

	// Scrolled up, so more entries do not move the view.
	s.SetEntries(testEntries(25, warnLevel))
	if s.ScrollOffset != 20-visible-2 {
		t.Errorf("scrolled view moved to %d", s.ScrollOffset)
	}

	s.SetFilterLevel(logging.LevelError)
	if s.ScrollOffset != 0 || s.FilteredEntryCount() != 0 {
		t.Errorf("error filter: offset %d, count %d", s.ScrollOffset, s.FilteredEntryCount())
	}

	if !strings.Contains(s.View(80), "Logs [error+]") {
		t.Error("View() should show the filter level")
	}
}
