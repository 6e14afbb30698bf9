package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/trash"
)

var undoCmd = &cobra.Command{
	Use:   "undo [destination|manifest]",
	Short: "Remove the files a run copied",
	Long: `Read the manifest of a run and move every file it copied, with its
.origin.txt note, to the system trash. Category folders left empty are
removed, and so is the manifest once everything is gone. Files that were
not part of the run are never touched.

The run is named by its destination directory, a manifest file, or
--id with an entry from 'ark history'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

var (
	undoDryRun    bool
	undoPermanent bool
	undoYes       bool
	undoID        string
)

func init() {
	undoCmd.Flags().BoolVarP(&undoDryRun, "dry-run", "d", false, "show what would be removed")
	undoCmd.Flags().BoolVar(&undoPermanent, "permanent", false, "delete instead of moving to the trash")
	undoCmd.Flags().BoolVarP(&undoYes, "yes", "y", false, "do not ask before deleting permanently")
	undoCmd.Flags().StringVar(&undoID, "id", "", "undo the archived run with this ID (prefix)")
	rootCmd.AddCommand(undoCmd)
}

func runUndo(cmd *cobra.Command, args []string) error {
	rec, err := loadUndoRecord(args)
	if err != nil {
		return err
	}

	copied := len(rec.Copied())
	w := cmd.OutOrStdout()
	if copied == 0 {
		_, _ = fmt.Fprintf(w, "Run %s copied no files.\n", truncateString(rec.ID, 8))
	}

	opts := trash.UndoOptions{DryRun: undoDryRun}
	if undoPermanent {
		opts.Remove = trash.Delete
		if !undoDryRun && !undoYes && copied > 0 {
			ok, err := confirm(cmd.InOrStdin(), w,
				fmt.Sprintf("Permanently delete %d files from %s?", copied, rec.Destination))
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(w, "Aborted.")
				return nil
			}
		}
	}

	res, err := trash.Undo(commandContext(cmd), rec, opts)
	if err != nil {
		return fmt.Errorf("undo failed: %w", err)
	}
	writeUndoResult(w, res, undoDryRun)

	if len(res.Failed) > 0 {
		return fmt.Errorf("%d files could not be removed", len(res.Failed))
	}
	return nil
}

// loadUndoRecord finds the record named by --id or the argument.
func loadUndoRecord(args []string) (*manifest.Record, error) {
	if undoID != "" {
		if len(args) > 0 {
			return nil, errors.New("give either a destination or --id, not both")
		}
		h, err := getHistory()
		if err != nil {
			return nil, err
		}
		return h.Get(undoID)
	}

	if len(args) == 0 {
		return nil, errors.New("a destination, manifest or --id is required")
	}
	path, err := resolvePath(args[0])
	if err != nil {
		return nil, err
	}
	return manifest.Read(path)
}

func writeUndoResult(w io.Writer, res *trash.UndoResult, dryRun bool) {
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
		for _, p := range res.Removed {
			_, _ = fmt.Fprintf(w, "  %s\n", p)
		}
	}
	_, _ = fmt.Fprintf(w, "%s %d files.\n", verb, len(res.Removed))

	if len(res.Missing) > 0 {
		_, _ = fmt.Fprintf(w, "%d files were already gone.\n", len(res.Missing))
	}

	failed := make([]string, 0, len(res.Failed))
	for p := range res.Failed {
		failed = append(failed, p)
	}
	sort.Strings(failed)
	for _, p := range failed {
		_, _ = fmt.Fprintf(w, "  failed: %s: %v\n", p, res.Failed[p])
	}

	if res.ManifestRemoved {
		_, _ = fmt.Fprintln(w, "Manifest removed.")
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
