package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// Copier runs copy jobs into one destination.
type Copier struct {
	opts Options
	dest string
	log  *logging.Logger
}

// New creates a Copier for opts.Destination.
func New(opts Options) (*Copier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	dest, err := filepath.Abs(opts.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolving destination: %w", err)
	}
	return &Copier{
		opts: opts,
		dest: dest,
		log:  logging.Get("copier"),
	}, nil
}

// Copy is a convenience wrapper for a single unlocked run.
func Copy(ctx context.Context, files []types.FileRecord, dest string, opts types.CopyOptions, onProgress func(types.CopyProgress)) (*types.CopyResult, error) {
	c, err := New(Options{Destination: dest, Copy: opts, OnProgress: onProgress})
	if err != nil {
		return nil, err
	}
	return c.Copy(ctx, files)
}

// Copy copies files into their category folders in input order.
//
// Cancellation is checked before each record; records not yet started are
// neither copied nor recorded. Per-file failures are recorded and the run
// continues. The manifest is written whether the run completed or was
// cancelled. A setup failure returns ErrSetup before any file is attempted.
func (c *Copier) Copy(ctx context.Context, files []types.FileRecord) (*types.CopyResult, error) {
	start := time.Now()

	if err := os.MkdirAll(c.dest, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrSetup, c.dest, err)
	}

	if c.opts.Lock {
		unlock, err := c.lock()
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	categories := types.CategoriesOf(files)
	if err := c.prepare(categories, files); err != nil {
		return nil, err
	}

	rec := manifest.NewRecord(c.dest, len(files), c.opts.Copy, categories)
	c.log.Info("copy started", "dest", c.dest, "files", len(files), "categories", len(categories))

	var (
		cancelled bool
		fatal     error
		emitted   int
		processed int
	)
	for _, f := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		target, err := c.copyFile(f)
		if err != nil {
			rec.AddFailed(f, err)
			c.log.Warn("copy failed", "path", f.Path, "error", err)
			if c.destinationGone() {
				fatal = fmt.Errorf("%w: %s", ErrDestinationLost, c.dest)
			}
		} else {
			rec.AddCopied(f, target)
			if c.opts.Copy.EmbedOriginalPath {
				c.writeSidecar(f, target)
			}
		}
		processed++

		if fatal != nil {
			break
		}
		if processed%c.opts.BatchSize == 0 || processed == len(files) {
			c.progress(processed, len(files), f.Name, rec)
			emitted = processed
			runtime.Gosched()
		}
	}
	if processed > emitted {
		c.progress(processed, len(files), files[processed-1].Name, rec)
	}

	rec.Cancelled = cancelled
	result := &types.CopyResult{
		Success:     !cancelled,
		Copied:      rec.CopiedFiles,
		Errors:      rec.Errors,
		Cancelled:   cancelled,
		Total:       len(files),
		BytesCopied: rec.BytesCopied(),
	}

	path, err := manifest.Write(c.dest, rec)
	if err != nil {
		err = fmt.Errorf("writing manifest: %w", err)
		c.log.Error("manifest not written", "dest", c.dest, "error", err)
		fatal = errors.Join(fatal, err)
	} else {
		result.ManifestPath = path
	}

	if c.opts.History != nil {
		if err := c.opts.History.Archive(rec); err != nil {
			c.log.Warn("archiving manifest failed", "error", err)
		}
	}

	result.Elapsed = time.Since(start)
	c.log.Info("copy finished",
		"dest", c.dest,
		"copied", result.Copied,
		"errors", result.Errors,
		"cancelled", result.Cancelled,
		"elapsed", result.Elapsed,
	)
	return result, fatal
}

// lock takes the destination lock and returns its release function.
func (c *Copier) lock() (func(), error) {
	path := filepath.Join(c.dest, LockFileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring lock: %v", ErrSetup, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDestinationBusy, c.dest)
	}

	// The lock file stays behind: removing it would let two later runs
	// lock different inodes at the same path.
	return func() { _ = fl.Unlock() }, nil
}

// prepare creates every category folder, and the EXT folders below them
// when subfoldering by extension.
func (c *Copier) prepare(categories []string, files []types.FileRecord) error {
	for _, cat := range categories {
		if err := validCategory(cat); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(c.dest, cat), 0o755); err != nil {
			return fmt.Errorf("%w: creating category %q: %v", ErrSetup, cat, err)
		}
	}

	if !c.opts.Copy.SubfolderByExt {
		return nil
	}

	seen := make(map[string]struct{})
	for _, f := range files {
		dir := c.targetDir(f)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrSetup, dir, err)
		}
	}
	return nil
}

func validCategory(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid category name %q", ErrSetup, name)
	}
	return nil
}

func (c *Copier) targetDir(f types.FileRecord) string {
	dir := filepath.Join(c.dest, f.Category)
	if c.opts.Copy.SubfolderByExt && f.Ext != "" {
		dir = filepath.Join(dir, strings.ToUpper(f.Ext))
	}
	return dir
}

// copyFile copies f's bytes to a fresh name in its target folder.
// A partially written destination is removed on failure.
func (c *Copier) copyFile(f types.FileRecord) (string, error) {
	src, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, target, err := createUnique(c.targetDir(f), f.Name, c.opts.Copy.EmbedOriginalPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

func (c *Copier) writeSidecar(f types.FileRecord, target string) {
	note := fmt.Sprintf("Original location: %s\nOriginal path: %s\n", filepath.Dir(f.Path), f.Path)
	path := target + SidecarSuffix

	// O_EXCL keeps a harvested file that happens to carry the sidecar name.
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		c.log.Debug("sidecar not written", "path", path, "error", err)
		return
	}
	_, err = out.WriteString(note)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		c.log.Debug("sidecar not written", "path", path, "error", err)
	}
}

func (c *Copier) destinationGone() bool {
	_, err := os.Stat(c.dest)
	return errors.Is(err, fs.ErrNotExist)
}

func (c *Copier) progress(current, total int, name string, rec *manifest.Record) {
	if c.opts.OnProgress == nil {
		return
	}
	c.opts.OnProgress(types.CopyProgress{
		Current:  current,
		Total:    total,
		Filename: name,
		Copied:   rec.CopiedFiles,
		Errors:   rec.Errors,
	})
}
