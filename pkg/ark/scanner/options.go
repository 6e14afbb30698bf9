// Package scanner walks a source tree and collects the files a rule
// harvests. Directory reads run in parallel through fastwalk; results are
// merged under a mutex and sorted by path, so callers see a deterministic,
// synchronous scan.
package scanner

import (
	"runtime"

	"github.com/jamesainslie/ark/pkg/ark/cache"
	"github.com/jamesainslie/ark/pkg/ark/rules"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// Options configures the scanner behavior.
type Options struct {
	// Root is the directory to scan. Empty means the current directory.
	Root string

	// Rule selects and categorizes files. Nil uses rules.Default().
	Rule *rules.Rule

	// Workers bounds concurrent directory reads. Zero picks a default.
	Workers int

	// OnProgress is called with throttled progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.ScanProgress)

	// Cache is an optional tree cache for repeat scans of the same root.
	Cache *cache.Cache
}

// Validate fills in defaults.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Rule == nil {
		o.Rule = rules.Default()
	}
	if o.Workers < 1 {
		o.Workers = max(4, runtime.NumCPU())
	}
	return nil
}
