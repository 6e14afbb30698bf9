package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

func TestNewScanModel(t *testing.T) {
	m := NewScanModel("/test/path")

	if m.rootPath != "/test/path" {
		t.Errorf("expected root path '/test/path', got %s", m.rootPath)
	}
	if m.done {
		t.Error("expected done to be false initially")
	}
	if m.err != nil {
		t.Error("expected err to be nil initially")
	}
}

func TestScanModelSetProgress(t *testing.T) {
	m := NewScanModel("/test/path")

	progress := types.ScanProgress{
		DirsScanned:  100,
		FilesSeen:    1000,
		Matched:      50,
		BytesMatched: 500 * types.MiB,
		CurrentPath:  "/test/path/current",
	}

	m.SetProgress(progress)

	if m.progress.DirsScanned != 100 {
		t.Errorf("expected DirsScanned 100, got %d", m.progress.DirsScanned)
	}
	if m.progress.FilesSeen != 1000 {
		t.Errorf("expected FilesSeen 1000, got %d", m.progress.FilesSeen)
	}
	if m.progress.Matched != 50 {
		t.Errorf("expected Matched 50, got %d", m.progress.Matched)
	}
	if m.currentPath != "/test/path/current" {
		t.Errorf("expected currentPath '/test/path/current', got %s", m.currentPath)
	}
}

func TestScanModelSetDone(t *testing.T) {
	m := NewScanModel("/test/path")

	// Test done without error
	m.SetDone(nil)
	if !m.done {
		t.Error("expected done to be true")
	}
	if m.err != nil {
		t.Error("expected err to be nil")
	}
}

func TestScanModelSetDoneWithError(t *testing.T) {
	m := NewScanModel("/test/path")

	err := &testError{"test error"}
	m.SetDone(err)
	if !m.done {
		t.Error("expected done to be true")
	}
	if m.err == nil {
		t.Error("expected err to be set")
	}
	if m.err.Error() != "test error" {
		t.Errorf("expected error message 'test error', got %s", m.err.Error())
	}
}

func TestScanModelIsDone(t *testing.T) {
	m := NewScanModel("/test/path")

	if m.IsDone() {
		t.Error("expected IsDone to be false initially")
	}

	m.SetDone(nil)

	if !m.IsDone() {
		t.Error("expected IsDone to be true after SetDone")
	}
}

func TestScanModelError(t *testing.T) {
	m := NewScanModel("/test/path")

	if m.Error() != nil {
		t.Error("expected Error to be nil initially")
	}

	err := &testError{"test error"}
	m.SetDone(err)

	if m.Error() == nil {
		t.Error("expected Error to be set after SetDone")
	}
}

func TestScanModelView(t *testing.T) {
	m := NewScanModel("/test/path")
	m.SetProgress(types.ScanProgress{Matched: 1234})

	view := m.View(80)
	if !strings.Contains(view, "Scanning") {
		t.Errorf("expected scanning status line, got %q", view)
	}
	if !strings.Contains(view, "1,234") {
		t.Errorf("expected matched count in view, got %q", view)
	}

	m.SetDone(nil)
	if !strings.Contains(m.View(80), "Scan complete") {
		t.Error("expected completion line after SetDone")
	}

	m.SetDone(&testError{"walk failed"})
	if !strings.Contains(m.View(80), "walk failed") {
		t.Error("expected error in view")
	}
}

func TestScanModelKeepsLastPath(t *testing.T) {
	m := NewScanModel("/test/path")
	m.SetProgress(types.ScanProgress{CurrentPath: "/test/path/a"})
	m.SetProgress(types.ScanProgress{DirsScanned: 2})

	if m.currentPath != "/test/path/a" {
		t.Errorf("empty CurrentPath should keep the last path, got %q", m.currentPath)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{30, "0:30"},
		{60, "1:00"},
		{90, "1:30"},
		{120, "2:00"},
		{3600, "60:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			d := time.Duration(tt.seconds) * time.Second
			result := formatDuration(d)
			if result != tt.expected {
				t.Errorf("formatDuration(%d seconds) = %s, want %s", tt.seconds, result, tt.expected)
			}
		})
	}
}

// Helper type for testing errors
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
