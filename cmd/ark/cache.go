package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/ark/pkg/ark/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the scan cache",
	Long: `Commands for managing the scan cache.

With --cache (or cache.enabled in the config) ark remembers the directory
tree of each source, so a repeat scan of an unchanged tree skips the walk.
Cache data is stored in the XDG cache directory (typically ~/.cache/ark/scan).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [source]",
	Short: "Clear cached trees",
	Long:  `Remove the cached trees of one source, or everything when no source is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, its size on disk and when it was last modified.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), currentConfig().CachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cachePath := currentConfig().CachePath()
	w := cmd.OutOrStdout()

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		_, _ = fmt.Fprintln(w, "Cache is already empty.")
		return nil
	}

	c, err := cache.Open(cachePath)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = c.Close() }()

	var removed int
	if len(args) == 1 {
		root, rerr := resolvePath(args[0])
		if rerr != nil {
			return rerr
		}
		removed, err = c.Clear(root)
	} else {
		removed, err = c.ClearAll()
	}
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Cache cleared (%d entries).\n", removed)
	return nil
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cachePath := currentConfig().CachePath()
	w := cmd.OutOrStdout()

	info, err := os.Stat(cachePath)
	if os.IsNotExist(err) {
		_, _ = fmt.Fprintln(w, "Cache: empty (no cache directory)")
		_, _ = fmt.Fprintf(w, "Cache location: %s\n", cachePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat cache: %w", err)
	}

	var size int64
	var fileCount int
	err = filepath.WalkDir(cachePath, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, ierr := d.Info(); ierr == nil {
			size += fi.Size()
			fileCount++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to calculate cache size: %w", err)
	}

	_, _ = fmt.Fprintf(w, "Cache location: %s\n", cachePath)
	_, _ = fmt.Fprintf(w, "Cache size: %.2f MB\n", float64(size)/1024/1024)
	_, _ = fmt.Fprintf(w, "Cache files: %d\n", fileCount)
	_, _ = fmt.Fprintf(w, "Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	return nil
}
