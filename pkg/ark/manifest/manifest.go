package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoManifest indicates that a destination has no manifest.
var ErrNoManifest = errors.New("no manifest found")

// Write stores rec as dir/_manifest.json and returns the path written.
// The file is replaced atomically so readers never observe a partial manifest.
func Write(dir string, rec *Record) (string, error) {
	if rec == nil {
		return "", errors.New("manifest record cannot be nil")
	}
	path := filepath.Join(dir, FileName)
	if err := writeJSON(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads a manifest. path may be the manifest file itself or the
// destination directory containing it.
func Read(path string) (*Record, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &rec, nil
}

// writeJSON marshals v and writes it to path using a temp file and rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
