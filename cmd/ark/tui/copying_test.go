package tui

import (
	"strings"
	"testing"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

func TestCopyModelPercent(t *testing.T) {
	m := NewCopyModel(4, 4*types.MiB)
	if m.Percent() != 0 {
		t.Errorf("Percent() = %v before progress", m.Percent())
	}

	m.SetProgress(types.CopyProgress{Current: 1, Total: 4, Filename: "a.jpg", Copied: 1})
	if m.Percent() != 0.25 {
		t.Errorf("Percent() = %v, want 0.25", m.Percent())
	}

	empty := NewCopyModel(0, 0)
	if empty.Percent() != 0 {
		t.Errorf("Percent() with no files = %v, want 0", empty.Percent())
	}
}

func TestCopyModelIgnoresStaleProgress(t *testing.T) {
	m := NewCopyModel(10, 0)
	m.SetProgress(types.CopyProgress{Current: 5, Total: 10, Filename: "e.jpg"})
	m.SetProgress(types.CopyProgress{Current: 3, Total: 10, Filename: "c.jpg"})

	if m.progress.Current != 5 || m.progress.Filename != "e.jpg" {
		t.Errorf("progress moved backwards to %+v", m.progress)
	}
}

func TestCopyModelView(t *testing.T) {
	m := NewCopyModel(1200, 3*types.GiB)

	if view := m.View(80, "*"); !strings.Contains(view, "preparing destination") {
		t.Errorf("expected placeholder before first file, got %q", view)
	}

	m.SetProgress(types.CopyProgress{Current: 2, Total: 1200, Filename: "IMG_0001.jpg", Copied: 1, Errors: 1})
	view := m.View(80, "*")
	for _, want := range []string{"IMG_0001.jpg", "2 / 1,200 files", "copied 1", "3.0 GiB"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q, got %q", want, view)
		}
	}
}
