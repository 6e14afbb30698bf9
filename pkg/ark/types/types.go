// Package types provides core data types for the ark file harvester.
// It includes the records produced by a scan, the options and results of a
// copy run, and utility functions for parsing and formatting file sizes.
package types

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// DefaultCategory is assigned to files whose extension has no configured category.
const DefaultCategory = "Custom"

// FileRecord describes one file matched by a scan.
// Records are produced by the scanner and consumed read-only by the copier.
type FileRecord struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Name is the base name of the file.
	Name string `json:"name"`

	// Ext is the lowercase extension without the leading dot.
	Ext string `json:"ext"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Category is the destination category folder for the file.
	Category string `json:"category"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time,omitempty"`
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// ScanResult contains the aggregated results of a scan operation.
type ScanResult struct {
	// Root is the resolved absolute path that was scanned.
	Root string `json:"root"`

	// Files contains all matched files, sorted by path.
	Files []FileRecord `json:"files"`

	// DirsScanned is the number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned"`

	// DirsExcluded is the number of directories skipped by exclusion rules.
	DirsExcluded int64 `json:"dirs_excluded"`

	// FilesSeen is the number of regular files examined.
	FilesSeen int64 `json:"files_seen"`

	// TotalSize is the sum of matched file sizes in bytes.
	TotalSize int64 `json:"total_size"`

	// Elapsed is the time taken to complete the scan.
	Elapsed time.Duration `json:"elapsed"`

	// FromCache is true when the result was served from the scan cache.
	FromCache bool `json:"from_cache,omitempty"`
}

// Categories returns the distinct categories of the matched files
// in first-appearance order.
func (r *ScanResult) Categories() []string {
	return CategoriesOf(r.Files)
}

// ScanProgress reports real-time scan progress.
type ScanProgress struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesSeen    int64  `json:"files_seen"`
	Matched      int64  `json:"matched"`
	BytesMatched int64  `json:"bytes_matched"`
	CurrentPath  string `json:"current_path"`

	// WalkComplete indicates that directory traversal is finished.
	WalkComplete bool `json:"walk_complete,omitempty"`
}

// CopyOptions controls how a copy run lays out its destination.
type CopyOptions struct {
	// SubfolderByExt places files under category/EXT instead of category.
	SubfolderByExt bool `json:"subfolderByExt" yaml:"subfolder_by_ext"`

	// EmbedOriginalPath writes a ".origin.txt" sidecar next to each copied file.
	EmbedOriginalPath bool `json:"embedOriginalPath" yaml:"embed_original_path"`
}

// CopyProgress is emitted by the copier while a run is in flight.
type CopyProgress struct {
	// Current is the number of records processed so far.
	Current int `json:"current"`

	// Total is the number of records presented to the run.
	Total int `json:"total"`

	// Filename is the base name of the last processed record.
	Filename string `json:"filename"`

	Copied int `json:"copied"`
	Errors int `json:"errors"`
}

// Percent returns the completion ratio in the range [0, 1].
func (p CopyProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total)
}

// CopyResult is the terminal outcome of a copy run.
type CopyResult struct {
	// Success is true when the run was not cancelled. Per-file errors do not
	// clear it; check Errors for those.
	Success bool `json:"success"`

	Copied    int  `json:"copied"`
	Errors    int  `json:"errors"`
	Cancelled bool `json:"cancelled"`

	// Total is the number of records presented to the run.
	Total int `json:"total"`

	// BytesCopied is the sum of sizes of successfully copied files.
	BytesCopied int64 `json:"bytes_copied"`

	// ManifestPath is where the run's manifest was written.
	ManifestPath string `json:"manifest_path,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Clean reports whether the run completed without cancellation or errors.
func (r *CopyResult) Clean() bool {
	return r.Success && r.Errors == 0
}

// SplitName splits a base name into stem and extension (including the dot).
// The extension starts at the last dot unless that dot is the first
// character, so ".bashrc" has no extension, ".profile.bak" has ".bak" and
// "..jpg" has ".jpg". A name made only of dots has no extension.
func SplitName(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || strings.Trim(name, ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}

// ExtOf returns the lowercase extension of name without its leading dot.
func ExtOf(name string) string {
	_, ext := SplitName(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// CategoriesOf returns the distinct categories of files in first-appearance order.
func CategoriesOf(files []FileRecord) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, f := range files {
		if _, ok := seen[f.Category]; ok {
			continue
		}
		seen[f.Category] = struct{}{}
		categories = append(categories, f.Category)
	}
	return categories
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts plain bytes ("1024") and K, M, G, T suffixes with an optional
// "B" or "iB" ("50K", "50KB", "50KiB"). All units are binary.
// Decimal values are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	n := value * float64(multiplier)
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// FormatSize converts a size in bytes to a human-readable string
// using binary (IEC) units, e.g. FormatSize(1536) returns "1.5 KiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
