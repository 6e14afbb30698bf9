// Package manifest records the outcome of a copy run. Each run writes a
// _manifest.json into its destination; a History keeps archived copies of
// those records so past runs can be listed, inspected and undone.
package manifest

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// FileName is the manifest written at the root of every destination.
const FileName = "_manifest.json"

// Record is the audit trail of one copy run.
type Record struct {
	ID          string            `json:"id"`
	Created     time.Time         `json:"created"`
	Destination string            `json:"destination"`
	TotalFiles  int               `json:"totalFiles"`
	CopiedFiles int               `json:"copiedFiles"`
	Errors      int               `json:"errors"`
	Cancelled   bool              `json:"cancelled"`
	Options     types.CopyOptions `json:"options"`
	Categories  []string          `json:"categories"`
	Files       []FileEntry       `json:"files"`
}

// NewRecord starts a record for a run into dest.
func NewRecord(dest string, total int, opts types.CopyOptions, categories []string) *Record {
	if categories == nil {
		categories = []string{}
	}
	return &Record{
		ID:          uuid.NewString(),
		Created:     time.Now().UTC(),
		Destination: dest,
		TotalFiles:  total,
		Options:     opts,
		Categories:  categories,
		Files:       []FileEntry{},
	}
}

// AddCopied appends a success entry for f copied to dest.
func (r *Record) AddCopied(f types.FileRecord, dest string) {
	r.CopiedFiles++
	r.Files = append(r.Files, FileEntry{
		Original:       f.Path,
		Destination:    dest,
		Size:           f.Size,
		Category:       f.Category,
		OriginalFolder: filepath.Dir(f.Path),
	})
}

// AddFailed appends a failure entry for f.
func (r *Record) AddFailed(f types.FileRecord, err error) {
	r.Errors++
	r.Files = append(r.Files, FileEntry{Original: f.Path, Error: err.Error()})
}

// Copied returns the success entries in processing order.
func (r *Record) Copied() []FileEntry {
	var out []FileEntry
	for _, e := range r.Files {
		if e.OK() {
			out = append(out, e)
		}
	}
	return out
}

// BytesCopied sums the sizes of the success entries.
func (r *Record) BytesCopied() int64 {
	var n int64
	for _, e := range r.Files {
		if e.OK() {
			n += e.Size
		}
	}
	return n
}

// FileEntry is one processed file. A success entry carries the destination
// and metadata; a failure entry carries only the original path and error.
type FileEntry struct {
	Original       string
	Destination    string
	Size           int64
	Category       string
	OriginalFolder string
	Error          string
}

// OK reports whether the entry records a successful copy.
func (e FileEntry) OK() bool {
	return e.Error == ""
}

type successEntry struct {
	Original       string `json:"original"`
	Destination    string `json:"destination"`
	Size           int64  `json:"size"`
	Category       string `json:"category"`
	OriginalFolder string `json:"originalFolder"`
}

type failureEntry struct {
	Original string `json:"original"`
	Error    string `json:"error"`
}

// MarshalJSON writes either the success or the failure shape.
func (e FileEntry) MarshalJSON() ([]byte, error) {
	if !e.OK() {
		return json.Marshal(failureEntry{Original: e.Original, Error: e.Error})
	}
	return json.Marshal(successEntry{
		Original:       e.Original,
		Destination:    e.Destination,
		Size:           e.Size,
		Category:       e.Category,
		OriginalFolder: e.OriginalFolder,
	})
}

// UnmarshalJSON accepts either shape.
func (e *FileEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		successEntry
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = FileEntry{
		Original:       raw.Original,
		Destination:    raw.Destination,
		Size:           raw.Size,
		Category:       raw.Category,
		OriginalFolder: raw.OriginalFolder,
		Error:          raw.Error,
	}
	return nil
}
