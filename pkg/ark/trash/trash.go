// Package trash removes the files a copy run placed in a destination. Files
// go to the system trash where one is available and are deleted otherwise.
package trash

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// commandTimeout is the maximum time to wait for one trash command.
const commandTimeout = 30 * time.Second

// Remover disposes of a single path.
type Remover func(ctx context.Context, path string) error

// MoveToTrash moves path to the system trash: Finder via osascript on
// macOS, gio or trash-put on Linux. It deletes path permanently when no
// trash is available.
func MoveToTrash(ctx context.Context, path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return trashMacOS(ctx, absPath)
	case "linux":
		return trashLinux(ctx, absPath)
	default:
		return Delete(ctx, absPath)
	}
}

// Delete removes path permanently.
func Delete(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

func trashMacOS(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	// Finder keeps "Put Back" working for files trashed this way.
	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err != nil {
		return Delete(ctx, path)
	}
	return nil
}

func trashLinux(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	candidates := [][]string{
		{"gio", "trash"},
		{"trash-put"},
	}
	for _, argv := range candidates {
		bin, err := exec.LookPath(argv[0])
		if err != nil {
			continue
		}
		args := append(append([]string{}, argv[1:]...), path)
		if err := exec.CommandContext(ctx, bin, args...).Run(); err == nil {
			return nil
		}
	}
	return Delete(ctx, path)
}
