package cache

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// File is a regular file recovered from the cache.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ValidationResult contains the results of cache validation.
type ValidationResult struct {
	// Files are the cached files, valid only when Stale is false.
	Files []File

	// Dirs is the number of cached directories that were checked.
	Dirs int64

	// Stale is true when the tree is missing or any directory changed.
	Stale bool

	// Reason describes why the tree is stale, for logs.
	Reason string
}

// Validator validates cached trees against the filesystem.
type Validator struct {
	store *Store
}

// NewValidator creates a new cache validator.
func NewValidator(store *Store) *Validator {
	return &Validator{store: store}
}

// Validate walks the cached tree of scope rooted at root. Every cached
// directory is re-statted and its mtime compared; adding, removing or
// renaming an entry changes its parent's mtime, so any difference marks the
// whole tree stale. Files are trusted without a stat.
func (v *Validator) Validate(scope, root string) (*ValidationResult, error) {
	result := &ValidationResult{}
	if err := v.walk(scope, root, "", result); err != nil {
		if errors.Is(err, errStale) {
			result.Files = nil
			result.Stale = true
			return result, nil
		}
		return nil, err
	}
	return result, nil
}

var errStale = errors.New("stale")

func (v *Validator) walk(scope, root, relPath string, result *ValidationResult) error {
	cached, err := v.store.Get(scope, relPath)
	if errors.Is(err, ErrNotFound) {
		result.Reason = "missing entry: " + displayRel(relPath)
		return errStale
	}
	if err != nil {
		return err
	}

	fullPath := root
	if relPath != "" {
		fullPath = filepath.Join(root, relPath)
	}

	if !cached.IsDir {
		result.Files = append(result.Files, File{
			Path:    fullPath,
			Size:    cached.Size,
			ModTime: time.Unix(0, cached.Mtime),
		})
		return nil
	}

	info, err := os.Stat(fullPath)
	if err != nil || !info.IsDir() {
		result.Reason = "directory gone: " + displayRel(relPath)
		return errStale
	}
	if info.ModTime().UnixNano() != cached.Mtime {
		result.Reason = "directory changed: " + displayRel(relPath)
		return errStale
	}
	result.Dirs++

	for _, child := range cached.Children {
		childRel := child
		if relPath != "" {
			childRel = filepath.Join(relPath, child)
		}
		if err := v.walk(scope, root, childRel, result); err != nil {
			return err
		}
	}
	return nil
}

func displayRel(relPath string) string {
	if relPath == "" {
		return "."
	}
	return relPath
}
