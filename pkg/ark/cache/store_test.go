package cache

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreGetPut(t *testing.T) {
	store := openTestStore(t)

	entry := &CachedEntry{
		IsDir:    true,
		Mtime:    time.Now().UnixNano(),
		Children: []string{"a", "b", "c"},
	}
	if err := store.Put("scope", "", entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("scope", "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.IsDir || len(got.Children) != 3 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get("scope", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)

	entry := &CachedEntry{Size: 100, Mtime: time.Now().UnixNano()}
	if err := store.Put("scope", "file.jpg", entry); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("scope", "file.jpg"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get("scope", "file.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	store := openTestStore(t)

	keep := Scope("/src2", "")
	drop := Scope("/src", "")
	batch := map[string]*CachedEntry{
		"":      {IsDir: true},
		"a.jpg": {Size: 1},
		"b.jpg": {Size: 2},
	}
	if err := store.PutBatch(drop, batch); err != nil {
		t.Fatal(err)
	}
	if err := store.PutBatch(keep, batch); err != nil {
		t.Fatal(err)
	}

	n, err := store.DeletePrefix([]byte(RootPrefix("/src")))
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if n != 3 {
		t.Errorf("DeletePrefix removed %d, want 3", n)
	}
	if _, err := store.Get(drop, "a.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("entry of deleted root still present: %v", err)
	}
	if _, err := store.Get(keep, "a.jpg"); err != nil {
		t.Errorf("entry of other root removed: %v", err)
	}
}
