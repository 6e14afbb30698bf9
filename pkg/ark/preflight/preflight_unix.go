//go:build linux || darwin

package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// volumeSpace uses statfs(2). Free counts only blocks available to
// unprivileged users.
func volumeSpace(dir string) (Space, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return Space{}, fmt.Errorf("statfs %s: %w", dir, err)
	}
	bsize := uint64(stat.Bsize)
	return Space{
		Total: int64(uint64(stat.Blocks) * bsize),
		Free:  int64(uint64(stat.Bavail) * bsize),
	}, nil
}
