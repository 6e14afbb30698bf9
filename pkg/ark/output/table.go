package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var tableHeader = []string{"CATEGORY", "EXT", "SIZE", "PATH"}

func tableRow(f FileInfo) []string {
	return []string{f.Category, f.Ext, strconv.FormatInt(f.Size, 10), f.Path}
}

// TSVFormatter formats output as tab-separated values with byte sizes.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(strings.Join(tableHeader, "\t"))
	w.WriteByte('\n')
	for _, file := range r.Files {
		w.WriteString(strings.Join(tableRow(file), "\t"))
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter formats output as RFC 4180 CSV with byte sizes.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(tableHeader); err != nil {
		return err
	}
	for _, file := range r.Files {
		if err := writer.Write(tableRow(file)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MarkdownFormatter formats output as a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("| CATEGORY | SIZE | PATH |\n")
	w.WriteString("|----------|------|------|\n")
	for _, file := range r.Files {
		fmt.Fprintf(w, "| %s | %s | %s |\n",
			escapeMarkdownPipe(file.Category),
			escapeMarkdownPipe(file.SizeHuman),
			escapeMarkdownPipe(file.Path))
	}
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
