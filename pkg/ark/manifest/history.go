package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound indicates that no archived record matches an ID.
var ErrNotFound = errors.New("record not found")

// ErrAmbiguousID indicates that an ID prefix matches more than one record.
var ErrAmbiguousID = errors.New("ambiguous record id")

// History archives run records in a directory, one JSON file per run.
type History struct {
	dir string
	mu  sync.Mutex
}

// NewHistory creates a History rooted at dir.
// The directory is not created until EnsureDir or Archive is called.
func NewHistory(dir string) (*History, error) {
	if dir == "" {
		return nil, errors.New("history directory cannot be empty")
	}
	return &History{dir: dir}, nil
}

// Dir returns the archive directory.
func (h *History) Dir() string {
	return h.dir
}

// EnsureDir creates the archive directory if it does not exist.
func (h *History) EnsureDir() error {
	return os.MkdirAll(h.dir, 0o755)
}

// Archive stores a copy of rec.
func (h *History) Archive(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record must have an id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := writeJSON(filepath.Join(h.dir, h.filename(rec)), rec); err != nil {
		return fmt.Errorf("failed to archive record: %w", err)
	}
	return nil
}

// filename sorts archive files chronologically in directory listings.
func (h *History) filename(rec *Record) string {
	return fmt.Sprintf("%s-%s.json", rec.Created.UTC().Format("20060102T150405"), rec.ID)
}

// List returns archived records newest first.
// If limit is 0 or negative, all records are returned.
func (h *History) List(limit int) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.readAll()
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Created.After(records[j].Created)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Get returns the record whose ID equals or starts with id.
func (h *History) Get(id string) (*Record, error) {
	if id == "" {
		return nil, errors.New("record id cannot be empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.readAll()
	if err != nil {
		return nil, err
	}

	var match *Record
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
		if strings.HasPrefix(records[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return match, nil
}

// Cleanup removes archive files older than retentionDays and returns how
// many were removed. A non-positive retention keeps everything.
func (h *History) Cleanup(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read history directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(h.dir, e.Name())); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// readAll parses every archive file, skipping ones that cannot be read.
func (h *History) readAll() ([]Record, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	records := []Record{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(h.dir, e.Name()))
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
