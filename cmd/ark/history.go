package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/config"
	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past runs",
	Long: `View the runs archived in the history directory.

Every run writes _manifest.json into its destination; when history is
enabled a copy is also kept here so runs can be found after the
destination has moved.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a run",
	Long:  `Display a run by its ID. A unique prefix of the ID is enough.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old history entries",
	Long:  `Remove archived runs older than the retention period.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	showFiles    int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyShowCmd.Flags().IntVar(&showFiles, "files", 50, "maximum number of files to list (0=all)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns the history archive for the loaded configuration.
func getHistory() (*manifest.History, error) {
	dir := currentConfig().History.Path
	if dir == "" {
		var err error
		if dir, err = config.HistoryDir(); err != nil {
			return nil, fmt.Errorf("failed to get history directory: %w", err)
		}
	}
	return manifest.NewHistory(dir)
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, _ []string) error {
	h, err := getHistory()
	if err != nil {
		return err
	}

	records, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No history entries found.")
		_, _ = fmt.Fprintln(w, "Run 'ark run <source> <destination>' to harvest files.")
		return nil
	}

	_, _ = fmt.Fprintf(w, "\n%-10s  %-16s  %-9s  %-10s  %s\n", "ID", "DATE", "STATUS", "COPIED", "DESTINATION")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "%-10s  %-16s  %-9s  %-10s  %s\n",
			truncateString(rec.ID, 8),
			rec.Created.Local().Format("2006-01-02 15:04"),
			runStatus(&rec),
			fmt.Sprintf("%d/%d", rec.CopiedFiles, rec.TotalFiles),
			rec.Destination,
		)
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 80))
	_, _ = fmt.Fprintf(w, "\nShowing %d entries. Use --limit to see more.\n", len(records))
	_, _ = fmt.Fprintln(w, "Use 'ark history show <id>' for details on a specific run.")
	return nil
}

// runHistoryShow displays one run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return err
	}
	rec, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	writeRecord(cmd.OutOrStdout(), rec, showFiles)
	return nil
}

// writeRecord prints a run and up to limit of its file entries.
func writeRecord(w io.Writer, rec *manifest.Record, limit int) {
	_, _ = fmt.Fprintln(w, "\nRun Details")
	_, _ = fmt.Fprintln(w, strings.Repeat("=", 60))
	_, _ = fmt.Fprintf(w, "ID:          %s\n", rec.ID)
	_, _ = fmt.Fprintf(w, "Created:     %s\n", rec.Created.Local().Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(w, "Destination: %s\n", rec.Destination)
	_, _ = fmt.Fprintf(w, "Status:      %s\n", runStatus(rec))
	_, _ = fmt.Fprintf(w, "Copied:      %d of %d (%s)\n", rec.CopiedFiles, rec.TotalFiles, types.FormatSize(rec.BytesCopied()))
	_, _ = fmt.Fprintf(w, "Errors:      %d\n", rec.Errors)
	_, _ = fmt.Fprintf(w, "Categories:  %s\n", strings.Join(rec.Categories, ", "))
	_, _ = fmt.Fprintf(w, "Options:     subfolder-by-ext=%t embed-origin=%t\n",
		rec.Options.SubfolderByExt, rec.Options.EmbedOriginalPath)

	if len(rec.Files) == 0 {
		return
	}

	n := len(rec.Files)
	if limit > 0 && n > limit {
		n = limit
	}

	_, _ = fmt.Fprintln(w, "\nFiles:")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, e := range rec.Files[:n] {
		if e.OK() {
			_, _ = fmt.Fprintf(w, "%-10s  %s -> %s\n", types.FormatSize(e.Size), e.Original, e.Destination)
		} else {
			_, _ = fmt.Fprintf(w, "%-10s  %s: %s\n", "FAILED", e.Original, e.Error)
		}
	}
	if len(rec.Files) > n {
		_, _ = fmt.Fprintf(w, "\n... and %d more files\n", len(rec.Files)-n)
	}
}

func runStatus(rec *manifest.Record) string {
	switch {
	case rec.Cancelled:
		return "cancelled"
	case rec.Errors > 0:
		return "errors"
	default:
		return "ok"
	}
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, _ []string) error {
	h, err := getHistory()
	if err != nil {
		return err
	}

	retentionDays := currentConfig().History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	removed, err := h.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries older than %d days.\n", removed, retentionDays)
	return nil
}

// truncateString cuts s to at most maxLen bytes. Run IDs are ASCII.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
