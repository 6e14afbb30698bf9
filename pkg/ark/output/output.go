// Package output provides formatters for displaying ark scan results
// in various output formats (pretty, plain, json, yaml, csv, etc.).
//
// Formatters register themselves by name and are selected at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromScan(res)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// FileInfo is one matched file prepared for display.
type FileInfo struct {
	Path      string    `json:"path" yaml:"path"`
	Name      string    `json:"name" yaml:"name"`
	Dir       string    `json:"dir" yaml:"dir"`
	Ext       string    `json:"ext" yaml:"ext"`
	Category  string    `json:"category" yaml:"category"`
	Size      int64     `json:"size" yaml:"size"`
	SizeHuman string    `json:"size_human" yaml:"size_human"`
	ModTime   time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
}

// CategorySummary totals the files routed to one category.
type CategorySummary struct {
	Name  string `json:"name" yaml:"name"`
	Files int    `json:"files" yaml:"files"`
	Size  int64  `json:"size" yaml:"size"`
}

// ScanStats contains statistics about a scan operation.
type ScanStats struct {
	DirsScanned  int64         `json:"dirs_scanned" yaml:"dirs_scanned"`
	DirsExcluded int64         `json:"dirs_excluded" yaml:"dirs_excluded"`
	FilesSeen    int64         `json:"files_seen" yaml:"files_seen"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Files are the matched files in scan order.
	Files []FileInfo

	// Categories summarize Files in first-appearance order.
	Categories []CategorySummary

	Stats ScanStats

	// Source is the root path that was scanned.
	Source string

	// FromCache is true when the scan was served from the scan cache.
	FromCache bool

	// Warnings contains any warning messages generated during the scan.
	Warnings []string

	// Interrupted indicates the scan was cancelled before it finished.
	Interrupted bool
}

// FromScan converts a scan result for display.
func FromScan(res *types.ScanResult) *Result {
	r := &Result{
		Files:     make([]FileInfo, 0, len(res.Files)),
		Source:    res.Root,
		FromCache: res.FromCache,
		Stats: ScanStats{
			DirsScanned:  res.DirsScanned,
			DirsExcluded: res.DirsExcluded,
			FilesSeen:    res.FilesSeen,
			Duration:     res.Elapsed,
		},
	}

	index := make(map[string]int)
	for _, f := range res.Files {
		r.Files = append(r.Files, FileInfo{
			Path:      f.Path,
			Name:      f.Name,
			Dir:       filepath.Dir(f.Path),
			Ext:       f.Ext,
			Category:  f.Category,
			Size:      f.Size,
			SizeHuman: f.HumanSize(),
			ModTime:   f.ModTime,
		})

		i, ok := index[f.Category]
		if !ok {
			i = len(r.Categories)
			index[f.Category] = i
			r.Categories = append(r.Categories, CategorySummary{Name: f.Category})
		}
		r.Categories[i].Files++
		r.Categories[i].Size += f.Size
	}
	return r
}

// TotalFiles returns the number of files in the result.
func (r *Result) TotalFiles() int {
	return len(r.Files)
}

// TotalSize returns the sum of all file sizes in the result.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		logging.Get("output").Debug("unknown formatter requested", "name", name)
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
