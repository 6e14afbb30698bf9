package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache provides high-level caching operations for ark scans.
type Cache struct {
	store     *Store
	validator *Validator
	path      string
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	store, err := OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return &Cache{
		store:     store,
		validator: NewValidator(store),
		path:      path,
	}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Path returns the on-disk location of the cache.
func (c *Cache) Path() string {
	return c.path
}

// Lookup validates the cached tree for scope and returns its files.
// ok is false when the tree must be walked again.
func (c *Cache) Lookup(scope, root string) (*ValidationResult, bool, error) {
	result, err := c.validator.Validate(scope, root)
	if err != nil {
		return nil, false, err
	}
	return result, !result.Stale, nil
}

// Replace discards the cached tree of scope and stores entries in its place.
func (c *Cache) Replace(scope string, entries map[string]*CachedEntry) error {
	if _, err := c.store.DeletePrefix(MakeKeyPrefix(scope)); err != nil {
		return fmt.Errorf("clear scope: %w", err)
	}
	return c.store.PutBatch(scope, entries)
}

// Clear removes every cached tree of root and returns how many entries
// were removed.
func (c *Cache) Clear(root string) (int, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}
	return c.store.DeletePrefix([]byte(RootPrefix(abs)))
}

// ClearAll removes all cached entries.
func (c *Cache) ClearAll() (int, error) {
	return c.store.DeletePrefix(nil)
}
