package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTestTree builds:
//
//	root/
//	  a.jpg (1KB)
//	  photos/
//	    b.png (2KB)
func createTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "a.jpg"), make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}
	photos := filepath.Join(root, "photos")
	if err := os.Mkdir(photos, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photos, "b.png"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

// entriesFromFS builds cache entries the way a scan records them.
func entriesFromFS(t *testing.T, root string) map[string]*CachedEntry {
	t.Helper()

	entries := make(map[string]*CachedEntry)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			relPath = ""
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := &CachedEntry{IsDir: d.IsDir(), Mtime: info.ModTime().UnixNano()}
		if d.IsDir() {
			children, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			for _, c := range children {
				entry.Children = append(entry.Children, c.Name())
			}
		} else {
			entry.Size = info.Size()
		}
		entries[relPath] = entry
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	return entries
}

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheLookupEmpty(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)

	result, ok, err := c.Lookup(Scope(root, ""), root)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok || !result.Stale {
		t.Error("empty cache should be stale")
	}
	if len(result.Files) != 0 {
		t.Error("stale result should carry no files")
	}
}

func TestCacheReplaceAndLookup(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)
	scope := Scope(root, "")

	if err := c.Replace(scope, entriesFromFS(t, root)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	result, ok, err := c.Lookup(scope, root)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid cache, reason: %s", result.Reason)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 cached files, got %d", len(result.Files))
	}
	if result.Dirs != 2 {
		t.Errorf("expected 2 checked dirs, got %d", result.Dirs)
	}

	var total int64
	for _, f := range result.Files {
		total += f.Size
		if !filepath.IsAbs(f.Path) {
			t.Errorf("cached path %q is not absolute", f.Path)
		}
	}
	if total != 3072 {
		t.Errorf("total cached size = %d, want 3072", total)
	}

	// Another scope of the same root is independent.
	if _, ok, _ := c.Lookup(Scope(root, "tmp"), root); ok {
		t.Error("different scope should miss")
	}
}

func TestCacheDetectsNestedChange(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)
	scope := Scope(root, "")

	if err := c.Replace(scope, entriesFromFS(t, root)); err != nil {
		t.Fatal(err)
	}

	// Adding a file changes photos/ mtime but not root's.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "photos", "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, ok, err := c.Lookup(scope, root)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if ok {
		t.Error("change in nested directory should invalidate the tree")
	}
	if result.Reason == "" {
		t.Error("stale result should have a reason")
	}
}

func TestCacheDetectsDeletedDir(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)
	scope := Scope(root, "")

	if err := c.Replace(scope, entriesFromFS(t, root)); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, "photos")); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := c.Lookup(scope, root); ok {
		t.Error("deleted directory should invalidate the tree")
	}
}

func TestCacheReplaceDropsOldEntries(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)
	scope := Scope(root, "")

	if err := c.Replace(scope, entriesFromFS(t, root)); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, "photos")); err != nil {
		t.Fatal(err)
	}
	if err := c.Replace(scope, entriesFromFS(t, root)); err != nil {
		t.Fatal(err)
	}

	if _, err := c.store.Get(scope, filepath.Join("photos", "b.png")); err == nil {
		t.Error("Replace should remove entries no longer in the tree")
	}
	result, ok, err := c.Lookup(scope, root)
	if err != nil || !ok {
		t.Fatalf("Lookup after Replace = %v, %v", ok, err)
	}
	if len(result.Files) != 1 {
		t.Errorf("expected 1 file, got %d", len(result.Files))
	}
}

func TestCacheClear(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)

	for _, fp := range []string{"", "tmp"} {
		if err := c.Replace(Scope(root, fp), entriesFromFS(t, root)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(root)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n != 8 {
		t.Errorf("Clear removed %d entries, want 8", n)
	}
	if _, ok, _ := c.Lookup(Scope(root, ""), root); ok {
		t.Error("cache should miss after Clear")
	}
}

func TestCacheClearAll(t *testing.T) {
	root := createTestTree(t)
	c := openTestCache(t)

	if err := c.Replace(Scope(root, ""), entriesFromFS(t, root)); err != nil {
		t.Fatal(err)
	}
	n, err := c.ClearAll()
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if n != 4 {
		t.Errorf("ClearAll removed %d entries, want 4", n)
	}
}
