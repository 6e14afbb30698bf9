package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// Errors returned when building a rule.
var (
	// ErrNoExtensions indicates the rule would match nothing.
	ErrNoExtensions = errors.New("no file extensions selected")

	// ErrUnknownCategory indicates a category key not present in the catalog.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidPattern indicates an exclusion glob that does not compile.
	ErrInvalidPattern = errors.New("invalid exclusion pattern")
)

// globMeta are the characters that turn an exclusion entry into a glob.
const globMeta = "*?[{"

// Rule decides which files a scan harvests and where they are routed.
// A Rule is immutable once built and safe for concurrent use.
type Rule struct {
	extensions map[string]struct{}
	minSize    map[string]int64
	category   map[string]string

	excludeNames map[string]struct{}
	excludeGlobs []glob.Glob
	excludes     []string
}

// Match reports whether a regular file with the given base name and size is
// harvested, returning its extension and category.
func (r *Rule) Match(name string, size int64) (ext, category string, ok bool) {
	ext = types.ExtOf(name)
	if !r.Wants(ext) {
		return ext, "", false
	}
	if size < r.MinSize(ext) {
		return ext, "", false
	}
	return ext, r.Category(ext), true
}

// Wants reports whether ext is in the rule's extension set.
// It lets the scanner skip the stat call for files that can never match.
func (r *Rule) Wants(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := r.extensions[ext]
	return ok
}

// MinSize returns the size threshold for ext, 0 when none is configured.
func (r *Rule) MinSize(ext string) int64 {
	return r.minSize[ext]
}

// Category returns the category for ext, or types.DefaultCategory.
func (r *Rule) Category(ext string) string {
	if c, ok := r.category[ext]; ok && c != "" {
		return c
	}
	return types.DefaultCategory
}

// ExcludesDir reports whether a directory with this base name is skipped.
func (r *Rule) ExcludesDir(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := r.excludeNames[lower]; ok {
		return true
	}
	for _, g := range r.excludeGlobs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// ExcludesPath reports whether any directory component of rel, a path
// relative to the scan root, is excluded. The final component is treated as
// a file name and is not checked.
func (r *Rule) ExcludesPath(rel string) bool {
	dir := filepath.Dir(filepath.Clean(rel))
	if dir == "." || dir == string(filepath.Separator) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == "" || part == "." {
			continue
		}
		if r.ExcludesDir(part) {
			return true
		}
	}
	return false
}

// Extensions returns the rule's extensions in sorted order.
func (r *Rule) Extensions() []string {
	exts := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Excludes returns the exclusion entries as configured.
func (r *Rule) Excludes() []string {
	return append([]string(nil), r.excludes...)
}

// Fingerprint identifies the exclusion set. Two rules with the same
// fingerprint prune exactly the same directories.
func (r *Rule) Fingerprint() string {
	seen := make(map[string]struct{}, len(r.excludes))
	keys := make([]string, 0, len(r.excludes))
	for _, e := range r.excludes {
		lower := strings.ToLower(e)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		keys = append(keys, lower)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x1f")
}

// Summary describes the rule for logs.
func (r *Rule) Summary() string {
	return fmt.Sprintf("%d extensions, %d exclusions", len(r.extensions), len(r.excludes))
}

// addExtension maps ext to category with the given threshold.
// Later calls for the same extension win.
func (r *Rule) addExtension(ext, category string, minSize int64) {
	if minSize < 0 {
		minSize = 0
	}
	r.extensions[ext] = struct{}{}
	r.minSize[ext] = minSize
	r.category[ext] = category
}

// addExclude records one exclusion entry, compiling it when it is a glob.
func (r *Rule) addExclude(entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil
	}
	lower := strings.ToLower(entry)
	if strings.ContainsAny(lower, globMeta) {
		g, err := glob.Compile(lower)
		if err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidPattern, entry, err)
		}
		r.excludeGlobs = append(r.excludeGlobs, g)
	} else {
		r.excludeNames[lower] = struct{}{}
	}
	r.excludes = append(r.excludes, entry)
	return nil
}
