package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/ark/pkg/ark/logging"
)

// countLogs counts files named like prefix*.log in dir, ignoring lock files.
func countLogs(t *testing.T, dir, prefix string) int {
	t.Helper()
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	n := 0
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), ".log") {
			n++
		}
	}
	return n
}

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writer, err := logging.NewRotatingWriter(filepath.Join(tempDir, "size.log"), logging.RotationConfig{
		MaxSize:    512,
		MaxBackups: 10,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		if _, err := writer.Write([]byte(strings.Repeat("x", 50) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := countLogs(t, tempDir, "size"); n < 2 {
		t.Errorf("expected at least 2 log files after rotation, got %d", n)
	}
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	maxBackups := 2
	writer, err := logging.NewRotatingWriter(filepath.Join(tempDir, "limit.log"), logging.RotationConfig{
		MaxSize:    256,
		MaxBackups: maxBackups,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		if _, err := writer.Write([]byte(strings.Repeat("y", 30) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := countLogs(t, tempDir, "limit"); n > maxBackups+1 {
		t.Errorf("expected at most %d log files, got %d", maxBackups+1, n)
	}
}

func TestRotationFileNaming(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writer, err := logging.NewRotatingWriter(filepath.Join(tempDir, "naming.log"), logging.RotationConfig{
		MaxSize:    128,
		MaxBackups: 5,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	for i := 0; i < 30; i++ {
		if _, err := writer.Write([]byte(strings.Repeat("z", 20) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, _ := os.ReadDir(tempDir)
	hasMain, hasRotated := false, false
	for _, f := range files {
		name := f.Name()
		switch {
		case name == "naming.log":
			hasMain = true
		case strings.HasPrefix(name, "naming.") && strings.HasSuffix(name, ".log"):
			hasRotated = true
		}
	}
	if !hasMain {
		t.Error("expected main log file naming.log to exist")
	}
	if !hasRotated {
		t.Error("expected rotated log files to exist")
	}
}

func TestRotationWriter(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "writer.log")
	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{MaxSize: 1024})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	data := []byte("copied a.jpg\n")
	n, err := writer.Write(data)
	if err != nil || n != len(data) {
		t.Errorf("Write() = %d, %v", n, err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("file content = %q, want %q", content, data)
	}

	if _, err := writer.Write(data); err == nil {
		t.Error("Write() after Close() should fail")
	}
	if err := writer.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRotationCleanupOldFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	old := time.Now().Add(-48 * time.Hour)
	oldFiles := []string{
		filepath.Join(tempDir, "cleanup.2024-01-18-120000.000.log"),
		filepath.Join(tempDir, "cleanup.2024-01-19-120000.000.log"),
	}
	for _, f := range oldFiles {
		if err := os.WriteFile(f, []byte("old content"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(f, old, old); err != nil {
			t.Fatal(err)
		}
	}

	writer, err := logging.NewRotatingWriter(filepath.Join(tempDir, "cleanup.log"), logging.RotationConfig{
		MaxAge:     1,
		MaxBackups: 5,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	for _, f := range oldFiles {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("expected old file %s to be cleaned up", filepath.Base(f))
		}
	}
}

func TestRotationDirCreation(t *testing.T) {
	t.Parallel()

	nested := filepath.Join(t.TempDir(), "nested", "deep", "ark.log")
	writer, err := logging.NewRotatingWriter(nested, logging.RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter() should create parent dirs, error = %v", err)
	}
	if _, err := writer.Write([]byte("test\n")); err != nil {
		t.Errorf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := os.Stat(nested); err != nil {
		t.Errorf("expected log file in nested directory: %v", err)
	}
}

func TestRotationConcurrentWrites(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{MaxSize: 10 * 1024 * 1024})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	const goroutines = 10
	const writes = 100

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range writes {
				if _, err := writer.Write([]byte(strings.Repeat("x", 50) + "\n")); err != nil {
					t.Errorf("Write() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != goroutines*writes {
		t.Errorf("expected %d lines, got %d", goroutines*writes, len(lines))
	}
}
