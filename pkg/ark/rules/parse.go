package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// ErrInvalidMinSize indicates a malformed "category=size" entry.
var ErrInvalidMinSize = errors.New("invalid minimum size entry")

// ParseList splits a comma or whitespace separated list, dropping empty items.
// Used for flag values like "jpg, png .webp".
func ParseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseExtensions normalizes a list of extensions, dropping duplicates.
// Leading dots and case are ignored, so ".JPG" and "jpg" are the same.
func ParseExtensions(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		for _, part := range ParseList(item) {
			ext := normalizeExt(part)
			if ext == "" {
				continue
			}
			if _, ok := seen[ext]; ok {
				continue
			}
			seen[ext] = struct{}{}
			out = append(out, ext)
		}
	}
	return out
}

// ParseMinSizes parses entries of the form "category=size", e.g. "images=100K".
// Category names are validated against the catalog.
func ParseMinSizes(entries []string) (map[string]int64, error) {
	sizes := make(map[string]int64, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMinSize, entry)
		}
		cat, found := Lookup(key)
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
		}
		size, err := types.ParseSize(value)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidMinSize, entry, err)
		}
		sizes[cat.Key] = size
	}
	return sizes, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(ext), "."))
}
