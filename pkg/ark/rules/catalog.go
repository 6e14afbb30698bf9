// Package rules builds the scan rule used by ark: which extensions are
// harvested, the minimum size per extension, the category folder each
// extension is routed to, and which directory names are never descended into.
// It ships a built-in category catalog and exclusion presets that the
// configuration layer and CLI flags select from.
package rules

import (
	"strings"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// Category is a named group of extensions that share a destination folder
// and a default minimum size.
type Category struct {
	// Key is the stable lowercase identifier used in config and flags.
	Key string

	// Name is the destination folder name.
	Name string

	// Extensions are lowercase extensions without the leading dot.
	Extensions []string

	// DefaultMinSize is the size threshold applied unless overridden.
	DefaultMinSize int64

	// Enabled reports whether the category is harvested by default.
	Enabled bool
}

// Catalog is the built-in category list, in display order.
var Catalog = []Category{
	{
		Key:  "images",
		Name: "Images",
		Extensions: []string{
			"jpg", "jpeg", "png", "gif", "tiff", "tif", "webp", "heic", "heif",
			"raw", "cr2", "cr3", "nef", "arw", "dng", "orf",
		},
		DefaultMinSize: 50 * types.KiB,
		Enabled:        true,
	},
	{
		Key:            "vector",
		Name:           "Vector",
		Extensions:     []string{"ai", "eps", "svg", "pdf"},
		DefaultMinSize: 1 * types.KiB,
		Enabled:        true,
	},
	{
		Key:  "design",
		Name: "Design",
		Extensions: []string{
			"psd", "psb", "indd", "indt", "xd", "fig", "sketch", "afdesign", "afphoto",
		},
		DefaultMinSize: 10 * types.KiB,
		Enabled:        true,
	},
	{
		Key:  "3d",
		Name: "3D",
		Extensions: []string{
			"blend", "c4d", "ma", "mb", "3ds", "skp", "obj", "fbx", "dae", "stl", "gltf", "glb",
		},
		DefaultMinSize: 100 * types.KiB,
		Enabled:        true,
	},
	{
		Key:            "video",
		Name:           "Video",
		Extensions:     []string{"mp4", "mov", "avi", "mkv", "wmv", "prproj", "aep", "drp"},
		DefaultMinSize: 1 * types.MiB,
	},
	{
		Key:            "audio",
		Name:           "Audio",
		Extensions:     []string{"mp3", "wav", "aiff", "flac", "ogg", "m4a", "aac"},
		DefaultMinSize: 50 * types.KiB,
	},
	{
		Key:  "documents",
		Name: "Documents",
		Extensions: []string{
			"doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "md", "rtf",
		},
		DefaultMinSize: 1 * types.KiB,
	},
}

// Exclusion presets. Names match directory base names case-insensitively.
var (
	// ExcludeTempCache lists scratch and cache directory names.
	ExcludeTempCache = []string{"Temp", "tmp", "Cache", "Caches", ".cache"}

	// ExcludeSystem lists operating system, trash and tooling directory names.
	ExcludeSystem = []string{
		"Windows", "Program Files", "Program Files (x86)", "AppData",
		"$RECYCLE.BIN", "System Volume Information",
		"node_modules", ".git", ".Trash", "Library",
	}
)

// Lookup finds a catalog category by key or folder name, ignoring case.
func Lookup(name string) (Category, bool) {
	for _, c := range Catalog {
		if strings.EqualFold(c.Key, name) || strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

// DefaultCategoryKeys returns the keys of categories enabled by default.
func DefaultCategoryKeys() []string {
	var keys []string
	for _, c := range Catalog {
		if c.Enabled {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// CategoryKeys returns all catalog keys in display order.
func CategoryKeys() []string {
	keys := make([]string, len(Catalog))
	for i, c := range Catalog {
		keys[i] = c.Key
	}
	return keys
}
