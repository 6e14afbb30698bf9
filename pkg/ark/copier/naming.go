package copier

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// maxCollisions bounds the suffix search in one folder.
const maxCollisions = 100000

// CandidateName returns the n-th name tried for base: base itself for n == 0,
// then stem_n.ext. A leading dot never starts the extension.
func CandidateName(base string, n int) string {
	if n == 0 {
		return base
	}
	stem, ext := types.SplitName(base)
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}

// createUnique creates the first candidate name for base in dir that does
// not exist yet. O_EXCL makes the existence check and the create one step.
// With sidecar set, a candidate whose origin note name is taken is skipped
// too.
func createUnique(dir, base string, sidecar bool) (*os.File, string, error) {
	for n := 0; n < maxCollisions; n++ {
		path := filepath.Join(dir, CandidateName(base, n))
		if sidecar {
			if _, err := os.Lstat(path + SidecarSuffix); err == nil {
				continue
			}
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", base, dir)
}
