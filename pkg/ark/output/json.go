package output

import (
	"bytes"
	"encoding/json"
)

// document is the structure shared by the JSON and YAML formatters.
type document struct {
	Files      []FileInfo        `json:"files" yaml:"files"`
	Categories []CategorySummary `json:"categories" yaml:"categories"`
	Stats      documentStats     `json:"stats" yaml:"stats"`
	Meta       documentMeta      `json:"meta" yaml:"meta"`
}

type documentStats struct {
	DirsScanned  int64  `json:"dirs_scanned" yaml:"dirs_scanned"`
	DirsExcluded int64  `json:"dirs_excluded" yaml:"dirs_excluded"`
	FilesSeen    int64  `json:"files_seen" yaml:"files_seen"`
	Duration     string `json:"duration" yaml:"duration"`
}

type documentMeta struct {
	Source      string   `json:"source" yaml:"source"`
	FromCache   bool     `json:"from_cache" yaml:"from_cache"`
	TotalFiles  int      `json:"total_files" yaml:"total_files"`
	TotalSize   int64    `json:"total_size" yaml:"total_size"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Interrupted bool     `json:"interrupted" yaml:"interrupted"`
}

func buildDocument(r *Result) document {
	files := r.Files
	if files == nil {
		files = []FileInfo{}
	}
	categories := r.Categories
	if categories == nil {
		categories = []CategorySummary{}
	}

	duration := ""
	if r.Stats.Duration > 0 {
		duration = r.Stats.Duration.String()
	}

	return document{
		Files:      files,
		Categories: categories,
		Stats: documentStats{
			DirsScanned:  r.Stats.DirsScanned,
			DirsExcluded: r.Stats.DirsExcluded,
			FilesSeen:    r.Stats.FilesSeen,
			Duration:     duration,
		},
		Meta: documentMeta{
			Source:      r.Source,
			FromCache:   r.FromCache,
			TotalFiles:  r.TotalFiles(),
			TotalSize:   r.TotalSize(),
			Warnings:    r.Warnings,
			Interrupted: r.Interrupted,
		},
	}
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

// JSONLFormatter writes one compact JSON object per file, for jq and friends.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	for _, file := range r.Files {
		if err := encoder.Encode(file); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("jsonl", func() Formatter { return &JSONLFormatter{} })
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*JSONLFormatter)(nil)
)
