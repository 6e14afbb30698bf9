package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ark/pkg/ark/cache"
	"github.com/jamesainslie/ark/pkg/ark/config"
	"github.com/jamesainslie/ark/pkg/ark/rules"
	"github.com/jamesainslie/ark/pkg/ark/scanner"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// addRuleFlags registers the flags that shape the scan rule. They are
// persistent so "scan" and "run" share them.
func addRuleFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringSliceP("category", "c", nil, "categories to harvest, replacing the configured list (see 'ark categories')")
	flags.StringSliceP("min-size", "s", nil, "per-category minimum size, e.g. images=100K (repeatable)")
	flags.StringSlice("ext", nil, "extra extensions copied into the Custom category")
	flags.StringSlice("disable-ext", nil, "extensions to leave out")
	flags.StringSliceP("exclude", "e", nil, "extra directory names or globs to skip (repeatable)")
	flags.Bool("no-exclude-temp", false, "descend into temp and cache directories")
	flags.Bool("no-exclude-system", false, "descend into system and tooling directories")
	flags.Bool("cache", false, "reuse the scan cache for unchanged trees")
	flags.IntP("workers", "w", 0, "concurrent directory reads (0=auto)")

	for key, name := range map[string]string{
		"category":          "category",
		"min_size":          "min-size",
		"ext":               "ext",
		"disable_ext":       "disable-ext",
		"exclude":           "exclude",
		"no_exclude_temp":   "no-exclude-temp",
		"no_exclude_system": "no-exclude-system",
		"cache":             "cache",
		"workers":           "workers",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}

	_ = cmd.RegisterFlagCompletionFunc("category", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return rules.CategoryKeys(), cobra.ShellCompDirectiveNoFileComp
	})
}

// buildRule creates the scan rule from the configuration and the flags.
func buildRule(cfg *config.Config) (*rules.Rule, error) {
	effective := *cfg

	if cats := flattenList(viper.GetStringSlice("category")); len(cats) > 0 {
		effective.Categories = cats
	}
	if viper.GetBool("no_exclude_temp") {
		effective.Exclude.TempCache = false
	}
	if viper.GetBool("no_exclude_system") {
		effective.Exclude.System = false
	}

	var extra []rules.Option

	sizes, err := rules.ParseMinSizes(viper.GetStringSlice("min_size"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(sizes))
	for k := range sizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		extra = append(extra, rules.WithMinSize(k, sizes[k]))
	}

	if exts := rules.ParseExtensions(viper.GetStringSlice("ext")); len(exts) > 0 {
		extra = append(extra, rules.WithCustomExtensions(exts...))
	}
	if exts := rules.ParseExtensions(viper.GetStringSlice("disable_ext")); len(exts) > 0 {
		extra = append(extra, rules.WithDisabledExtensions(exts...))
	}
	if names := viper.GetStringSlice("exclude"); len(names) > 0 {
		extra = append(extra, rules.WithExclude(names...))
	}

	rule, err := effective.Rule(extra...)
	if err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	return rule, nil
}

// workerCount returns the --workers override or the configured value.
func workerCount(cfg *config.Config) int {
	if n := viper.GetInt("workers"); n > 0 {
		return n
	}
	return cfg.Workers
}

// openScanCache opens the scan cache when enabled by flag or config.
// The returned close function is never nil.
func openScanCache(cfg *config.Config) (*cache.Cache, func(), error) {
	if !viper.GetBool("cache") && !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	c, err := cache.Open(cfg.CachePath())
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open scan cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

// scanOptions assembles scanner options for root. Call the returned close
// function once the scan is done.
func scanOptions(cfg *config.Config, root string, onProgress func(types.ScanProgress)) (scanner.Options, func(), error) {
	rule, err := buildRule(cfg)
	if err != nil {
		return scanner.Options{}, nil, err
	}
	c, closeCache, err := openScanCache(cfg)
	if err != nil {
		return scanner.Options{}, nil, err
	}
	printVerbose("Rule: %s", rule.Summary())

	return scanner.Options{
		Root:       root,
		Rule:       rule,
		Workers:    workerCount(cfg),
		OnProgress: onProgress,
		Cache:      c,
	}, closeCache, nil
}

// resolveSource expands and checks a directory given on the command line.
func resolveSource(path string) (string, error) {
	absPath, err := resolvePath(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}
	return absPath, nil
}

// resolvePath expands ~ and makes path absolute.
func resolvePath(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return absPath, nil
}

// flattenList splits every flag value on commas and whitespace.
func flattenList(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, rules.ParseList(v)...)
	}
	return out
}
