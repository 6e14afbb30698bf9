// Package preflight checks that a destination volume can hold a copy run
// before any file is written.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// ErrInsufficientSpace indicates the destination volume is too small for the run.
var ErrInsufficientSpace = errors.New("insufficient free space")

// ErrUnsupported indicates free space cannot be measured on this platform.
var ErrUnsupported = errors.New("free space detection not supported")

// Headroom is kept free on top of the bytes a run needs, for manifests,
// sidecars and filesystem overhead.
const Headroom = 16 * types.MiB

// Space describes a volume.
type Space struct {
	Total int64
	Free  int64
}

// statfs is replaced in tests.
var statfs = volumeSpace

// FreeSpace reports the space of the volume holding path. path need not
// exist yet; its nearest existing parent is measured.
func FreeSpace(path string) (Space, error) {
	dir, err := existingParent(path)
	if err != nil {
		return Space{}, err
	}
	return statfs(dir)
}

// Check returns ErrInsufficientSpace when the volume holding dest has less
// than need plus Headroom bytes available.
func Check(dest string, need int64) error {
	space, err := FreeSpace(dest)
	if err != nil {
		return err
	}
	if space.Free < need+Headroom {
		return fmt.Errorf("%w: need %s, %s available at %s",
			ErrInsufficientSpace, types.FormatSize(need), types.FormatSize(space.Free), dest)
	}
	return nil
}

// Need sums the sizes of files.
func Need(files []types.FileRecord) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}

func existingParent(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(abs); err == nil {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		abs = parent
	}
}
