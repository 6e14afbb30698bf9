package trash

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/manifest"
)

// sidecarSuffix matches the origin notes written next to copied files.
const sidecarSuffix = ".origin.txt"

// UndoOptions controls how a run is undone.
type UndoOptions struct {
	// DryRun reports what would be removed without touching the disk.
	DryRun bool

	// Remove disposes of each path. Nil uses MoveToTrash.
	Remove Remover
}

// UndoResult summarizes an undo.
type UndoResult struct {
	// Removed lists destination files that were removed (or would be, on a dry run).
	Removed []string

	// Missing lists destination files that no longer exist.
	Missing []string

	// Failed maps destination files to the error that kept them in place.
	Failed map[string]error

	// ManifestRemoved is true when the manifest itself was removed.
	ManifestRemoved bool
}

// Undo removes every file the manifest records as copied, together with its
// sidecar, then prunes category folders the run left empty. Paths outside
// the manifest's destination are never touched. The destination manifest is
// removed last, only when nothing failed and only when it records this run.
func Undo(ctx context.Context, rec *manifest.Record, opts UndoOptions) (*UndoResult, error) {
	log := logging.Get("trash")
	remove := opts.Remove
	if remove == nil {
		remove = MoveToTrash
	}

	dest, err := filepath.Abs(rec.Destination)
	if err != nil {
		return nil, err
	}

	res := &UndoResult{Failed: make(map[string]error)}
	dirs := make(map[string]struct{})

	for _, entry := range rec.Copied() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		path := entry.Destination
		if !within(dest, path) {
			res.Failed[path] = errors.New("outside destination")
			continue
		}
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			res.Missing = append(res.Missing, path)
			continue
		}

		if opts.DryRun {
			res.Removed = append(res.Removed, path)
			continue
		}
		if err := remove(ctx, path); err != nil {
			log.Warn("undo failed", "path", path, "error", err)
			res.Failed[path] = err
			continue
		}
		res.Removed = append(res.Removed, path)
		dirs[filepath.Dir(path)] = struct{}{}

		if sidecar := path + sidecarSuffix; exists(sidecar) {
			if err := remove(ctx, sidecar); err != nil {
				log.Debug("sidecar not removed", "path", sidecar, "error", err)
			}
		}
	}

	if opts.DryRun {
		return res, nil
	}

	pruneEmpty(dest, dirs)

	if len(res.Failed) == 0 {
		mf := filepath.Join(dest, manifest.FileName)
		if current, err := manifest.Read(mf); err != nil {
			log.Debug("manifest not removed", "path", mf, "error", err)
		} else if current.ID != rec.ID {
			log.Info("manifest belongs to a later run, keeping it", "path", mf, "id", current.ID)
		} else if err := remove(ctx, mf); err != nil {
			log.Warn("manifest not removed", "path", mf, "error", err)
		} else {
			res.ManifestRemoved = true
		}
	}

	log.Info("undo finished", "dest", dest, "removed", len(res.Removed), "missing", len(res.Missing), "failed", len(res.Failed))
	return res, nil
}

// pruneEmpty removes the given directories, and their parents up to but not
// including dest, while they are empty. Deepest paths go first.
func pruneEmpty(dest string, dirs map[string]struct{}) {
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })

	for _, dir := range list {
		for dir != dest && within(dest, dir) {
			if os.Remove(dir) != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
