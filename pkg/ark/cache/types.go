// Package cache persists directory trees seen by previous scans so a repeat
// scan of an unchanged source can skip the walk. Entries are stored in Badger,
// keyed by scope (source root plus exclusion fingerprint) and relative path.
package cache

import (
	"bytes"
	"encoding/gob"
	"strings"
)

// CacheVersion is incremented when the cache format changes.
const CacheVersion = 2

// KeySeparator separates scope from relative path in cache keys.
const KeySeparator = '\x00'

// scopeSeparator separates root from exclusion fingerprint in a scope.
const scopeSeparator = '\x1e'

// CachedEntry is a cached filesystem entry.
type CachedEntry struct {
	IsDir    bool
	Size     int64    // bytes, 0 for directories
	Mtime    int64    // UnixNano
	Children []string // child names for directories, nil for files
}

// Encode serializes the entry using gob.
func (e *CachedEntry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes gob data into the entry.
func (e *CachedEntry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Scope names one cached tree. Scans of the same root with different
// exclusion sets see different trees and must not share entries.
func Scope(root, fingerprint string) string {
	return root + string(scopeSeparator) + fingerprint
}

// RootPrefix returns the prefix shared by every scope of root.
func RootPrefix(root string) string {
	return root + string(scopeSeparator)
}

// ScopeRoot extracts the root from a scope.
func ScopeRoot(scope string) string {
	root, _, _ := strings.Cut(scope, string(scopeSeparator))
	return root
}

// MakeKey creates a cache key. Format: <scope>\x00<relative_path>
func MakeKey(scope, relPath string) []byte {
	return []byte(scope + string(KeySeparator) + relPath)
}

// ParseKey extracts scope and relative path from a cache key.
func ParseKey(key []byte) (scope, relPath string) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix for all keys of a scope.
func MakeKeyPrefix(scope string) []byte {
	return []byte(scope + string(KeySeparator))
}
