package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ark/cmd/ark/tui"
	"github.com/jamesainslie/ark/pkg/ark/config"
	"github.com/jamesainslie/ark/pkg/ark/copier"
	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/manifest"
	"github.com/jamesainslie/ark/pkg/ark/output"
	"github.com/jamesainslie/ark/pkg/ark/preflight"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// errRunCancelled is returned when a run stops on an interrupt.
var errRunCancelled = errors.New("run cancelled")

var runCmd = &cobra.Command{
	Use:   "run <source> <destination>",
	Short: "Scan a source and copy matches into category folders",
	Long: `Scan <source> with the current rule and copy every match into
<destination>/<Category>/, renaming on collision (photo.jpg, photo_1.jpg, ...).
A _manifest.json describing the run is written to <destination>, even when
the run is interrupted.

By default a progress UI is shown. Press q, esc or ctrl+c to stop after the
file being copied; use --no-interactive for line-based progress.`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.Bool("subfolder-by-ext", false, "place files under <Category>/<EXT>/")
	flags.Bool("embed-origin", false, "write a .origin.txt note next to each copy")
	flags.Bool("force", false, "skip the free space check")
	flags.BoolP("no-interactive", "n", false, "disable the progress UI")
	flags.Bool("no-lock", false, "do not lock the destination during the run")
	flags.Int("batch-size", 0, "files between progress updates (0=config)")

	for key, name := range map[string]string{
		"subfolder_by_ext": "subfolder-by-ext",
		"embed_origin":     "embed-origin",
		"force":            "force",
		"no_interactive":   "no-interactive",
		"no_lock":          "no-lock",
		"batch_size":       "batch-size",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(runCmd)
}

// runJob carries everything one run needs between its phases.
type runJob struct {
	cfg    *config.Config
	source string
	dest   string
	log    *logging.Logger
}

func newRunJob(cfg *config.Config, args []string) (*runJob, error) {
	source, err := resolveSource(args[0])
	if err != nil {
		return nil, err
	}
	dest, err := resolvePath(args[1])
	if err != nil {
		return nil, err
	}
	if dest == source {
		return nil, fmt.Errorf("destination must differ from source: %s", dest)
	}
	return &runJob{
		cfg:    cfg,
		source: source,
		dest:   dest,
		log:    logging.Get("cli").With("source", source, "dest", dest),
	}, nil
}

// runRun is the run command handler.
func runRun(cmd *cobra.Command, args []string) error {
	job, err := newRunJob(currentConfig(), args)
	if err != nil {
		return err
	}
	if insideDir(job.source, job.dest) {
		printStatus("Warning: %s is inside the source; later scans will see copied files", job.dest)
	}

	if viper.GetBool("no_interactive") || getQuiet() {
		return job.runPlain(commandContext(cmd), cmd.OutOrStdout())
	}
	return job.runInteractive(cmd.OutOrStdout())
}

// runPlain scans and copies with line-based progress on stderr.
func (j *runJob) runPlain(parent context.Context, w io.Writer) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printStatus("Scanning %s...", j.source)
	scanned, err := performScan(ctx, j.source, nil)
	if errors.Is(err, context.Canceled) {
		return errRunCancelled
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(scanned.Files) == 0 {
		printInfo("No matching files in %s", j.source)
		return nil
	}
	printStatus("Found %d files (%s) in %d directories",
		len(scanned.Files), types.FormatSize(scanned.TotalSize), scanned.DirsScanned)

	if err := j.checkSpace(scanned.Files); err != nil {
		return err
	}

	res, err := j.copy(ctx, scanned.Files, func(p types.CopyProgress) {
		printStatus("  [%d/%d] %s", p.Current, p.Total, p.Filename)
	})
	if res != nil && !getQuiet() {
		_, _ = fmt.Fprintln(w, renderSummary(res))
	}
	if err != nil {
		return err
	}
	return outcomeError(res)
}

// runInteractive hands both phases to the progress UI and prints the
// summary once the UI has released the terminal.
func (j *runJob) runInteractive(w io.Writer) error {
	if err := initTUILogging(); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}

	outcome, err := tui.Run(tui.Options{
		Source:      j.source,
		Destination: j.dest,
		Scan: func(ctx context.Context, onProgress func(types.ScanProgress)) (*types.ScanResult, error) {
			return performScan(ctx, j.source, onProgress)
		},
		Check: j.checkSpace,
		Copy:  j.copy,
	})
	if err != nil {
		return fmt.Errorf("progress UI failed: %w", err)
	}

	if outcome.Copy != nil {
		_, _ = fmt.Fprintln(w, renderSummary(outcome.Copy))
	}
	if outcome.Err != nil {
		if errors.Is(outcome.Err, context.Canceled) {
			return errRunCancelled
		}
		return outcome.Err
	}
	if outcome.Copy == nil {
		printInfo("No matching files in %s", j.source)
		return nil
	}
	return outcomeError(outcome.Copy)
}

// checkSpace refuses a run that cannot fit, unless --force is given.
func (j *runJob) checkSpace(files []types.FileRecord) error {
	if viper.GetBool("force") {
		return nil
	}
	err := preflight.Check(j.dest, preflight.Need(files))
	if errors.Is(err, preflight.ErrUnsupported) {
		j.log.Debug("free space check skipped", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w (use --force to copy anyway)", err)
	}
	return nil
}

func (j *runJob) copy(ctx context.Context, files []types.FileRecord, onProgress func(types.CopyProgress)) (*types.CopyResult, error) {
	opts, err := copierOptions(j.cfg, j.dest, onProgress)
	if err != nil {
		return nil, err
	}
	c, err := copier.New(opts)
	if err != nil {
		return nil, err
	}
	j.log.Info("run starting", "files", len(files))
	return c.Copy(ctx, files)
}

// copierOptions merges the copy section of the configuration with flags.
func copierOptions(cfg *config.Config, dest string, onProgress func(types.CopyProgress)) (copier.Options, error) {
	copyOpts := cfg.CopyOptions()
	if viper.GetBool("subfolder_by_ext") {
		copyOpts.SubfolderByExt = true
	}
	if viper.GetBool("embed_origin") {
		copyOpts.EmbedOriginalPath = true
	}

	batch := cfg.Copy.BatchSize
	if n := viper.GetInt("batch_size"); n > 0 {
		batch = n
	}

	opts := copier.Options{
		Destination: dest,
		Copy:        copyOpts,
		OnProgress:  onProgress,
		BatchSize:   batch,
		Lock:        cfg.Copy.Lock && !viper.GetBool("no_lock"),
	}

	if cfg.History.Enabled && cfg.History.Path != "" {
		history, err := manifest.NewHistory(cfg.History.Path)
		if err != nil {
			return copier.Options{}, fmt.Errorf("failed to open history: %w", err)
		}
		opts.History = history
	}
	return opts, nil
}

// outcomeError turns an unclean result into the command's exit error.
func outcomeError(res *types.CopyResult) error {
	switch {
	case res.Clean():
		return nil
	case res.Cancelled:
		return errRunCancelled
	default:
		return fmt.Errorf("%d of %d files failed to copy (see %s)", res.Errors, res.Total, res.ManifestPath)
	}
}

// renderSummary draws the end-of-run box.
func renderSummary(res *types.CopyResult) string {
	title := output.SuccessStyle.Bold(true).Render("Run complete")
	box := output.ResultBox
	switch {
	case res.Cancelled:
		title = output.ErrorStyle.Bold(true).Render("Run cancelled")
		box = box.BorderForeground(output.ColorDanger)
	case res.Errors > 0:
		title = output.WarningStyle.Bold(true).Render("Run finished with errors")
		box = box.BorderForeground(output.ColorWarning)
	}

	label := func(s string) string { return output.LabelStyle.Render(fmt.Sprintf("%-10s", s)) }
	lines := []string{
		title,
		"",
		label("Copied:") + output.ValueStyle.Render(fmt.Sprintf("%d of %d", res.Copied, res.Total)),
		label("Size:") + output.SizeStyle.Render(types.FormatSize(res.BytesCopied)),
		label("Errors:") + errorCount(res.Errors),
		label("Elapsed:") + output.ValueStyle.Render(output.FormatDuration(res.Elapsed)),
	}
	if res.ManifestPath != "" {
		lines = append(lines, label("Manifest:")+output.PathStyle.Render(res.ManifestPath))
	}
	return box.Render(strings.Join(lines, "\n"))
}

func errorCount(n int) string {
	if n == 0 {
		return output.MutedStyle.Render("0")
	}
	return output.ErrorStyle.Render(fmt.Sprintf("%d", n))
}

// insideDir reports whether path is strictly below dir.
func insideDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
