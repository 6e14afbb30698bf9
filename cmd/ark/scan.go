package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ark/pkg/ark/output"
	"github.com/jamesainslie/ark/pkg/ark/scanner"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [source]",
	Short: "List the files a run would harvest",
	Long: `Scan a source tree with the current rule and print the matching files
grouped by category. Nothing is copied.

Output formats: pretty (default), plain, json, jsonl, yaml, tsv, csv,
markdown, paths, template, null.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("output", "o", "pretty", "output format")
	scanCmd.Flags().String("template", "", "Go template for -o template")
	_ = viper.BindPFlag("output", scanCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("template", scanCmd.Flags().Lookup("template"))

	rootCmd.AddCommand(scanCmd)
}

// runScan is the scan command handler.
func runScan(cmd *cobra.Command, args []string) error {
	source := "."
	if len(args) > 0 {
		source = args[0]
	}
	root, err := resolveSource(source)
	if err != nil {
		return err
	}

	formatter, err := scanFormatter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printStatus("Scanning %s...", root)

	res, err := performScan(ctx, root, nil)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return fmt.Errorf("scan failed: %w", err)
	}
	if interrupted {
		printStatus("Interrupted, showing partial results")
	}

	result := output.FromScan(res)
	result.Interrupted = interrupted

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// scanFormatter resolves -o and --template.
func scanFormatter() (output.Formatter, error) {
	name := viper.GetString("output")
	if name == "" {
		name = "pretty"
	}

	if name == "template" {
		tmpl := viper.GetString("template")
		if tmpl == "" {
			return nil, errors.New("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmpl), nil
	}

	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", name, output.Available())
	}
	return formatter, nil
}

// performScan runs one scan of root with the current rule. On cancellation
// the partial result is returned together with the context error.
func performScan(ctx context.Context, root string, onProgress func(types.ScanProgress)) (*types.ScanResult, error) {
	cfg := currentConfig()
	opts, closeCache, err := scanOptions(cfg, root, onProgress)
	if err != nil {
		return nil, err
	}
	defer closeCache()

	return scanner.New(opts).Scan(ctx)
}
