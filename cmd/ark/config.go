package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage ark configuration settings.

Configuration is loaded from:
  1. --config <file> (if given)
  2. $XDG_CONFIG_HOME/ark/config.yaml (if set)
  3. ~/.config/ark/config.yaml

Environment variables can override config file settings using the ARK_ prefix:
  ARK_WORKERS=8
  ARK_COPY_LOCK=false
  ARK_HISTORY_ENABLED=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, file and environment.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil {
		_, _ = fmt.Fprintf(w, "Config file: %s\n\n", path)
	} else {
		_, _ = fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
	}

	writeConfig(w, currentConfig())

	_, _ = fmt.Fprintln(w, "\nEnvironment Overrides:")
	_, _ = fmt.Fprintln(w, "----------------------")
	var overrides []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "ARK_") {
			overrides = append(overrides, kv)
		}
	}
	sort.Strings(overrides)
	if len(overrides) == 0 {
		_, _ = fmt.Fprintln(w, "(none)")
	}
	for _, kv := range overrides {
		_, _ = fmt.Fprintln(w, kv)
	}
	return nil
}

// writeConfig prints the settings that shape a run.
func writeConfig(w io.Writer, cfg *config.Config) {
	minSizes := make([]string, 0, len(cfg.MinSizes))
	for k, v := range cfg.MinSizes {
		minSizes = append(minSizes, k+"="+v)
	}
	sort.Strings(minSizes)

	_, _ = fmt.Fprintln(w, "Current Configuration:")
	_, _ = fmt.Fprintln(w, "----------------------")
	_, _ = fmt.Fprintf(w, "categories:            %v\n", cfg.Categories)
	_, _ = fmt.Fprintf(w, "min_sizes:             %v\n", minSizes)
	_, _ = fmt.Fprintf(w, "custom_extensions:     %v\n", cfg.CustomExtensions)
	_, _ = fmt.Fprintf(w, "disabled_extensions:   %v\n", cfg.DisabledExtensions)
	_, _ = fmt.Fprintf(w, "exclude.temp_cache:    %t\n", cfg.Exclude.TempCache)
	_, _ = fmt.Fprintf(w, "exclude.system:        %t\n", cfg.Exclude.System)
	_, _ = fmt.Fprintf(w, "exclude.custom:        %v\n", cfg.Exclude.Custom)
	_, _ = fmt.Fprintf(w, "copy.subfolder_by_ext: %t\n", cfg.Copy.SubfolderByExt)
	_, _ = fmt.Fprintf(w, "copy.embed_origin:     %t\n", cfg.Copy.EmbedOriginalPath)
	_, _ = fmt.Fprintf(w, "copy.batch_size:       %d\n", cfg.Copy.BatchSize)
	_, _ = fmt.Fprintf(w, "copy.lock:             %t\n", cfg.Copy.Lock)
	_, _ = fmt.Fprintf(w, "history.enabled:       %t\n", cfg.History.Enabled)
	_, _ = fmt.Fprintf(w, "history.path:          %s\n", cfg.History.Path)
	_, _ = fmt.Fprintf(w, "history.retention:     %d days\n", cfg.History.RetentionDays)
	_, _ = fmt.Fprintf(w, "cache.enabled:         %t\n", cfg.Cache.Enabled)
	_, _ = fmt.Fprintf(w, "cache.path:            %s\n", cfg.CachePath())
	_, _ = fmt.Fprintf(w, "workers:               %d\n", cfg.Workers)
	_, _ = fmt.Fprintf(w, "logging.level:         %s\n", cfg.Logging.Level)
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	w := cmd.OutOrStdout()
	if _, err := os.Stat(configPath); err == nil {
		_, _ = fmt.Fprintf(w, "Config file already exists: %s\n", configPath)
		_, _ = fmt.Fprintln(w, "Use 'ark config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Created default config file: %s\n", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
