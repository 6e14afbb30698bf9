package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/ark/pkg/ark/cache"
	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/rules"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// progressInterval is the minimum time between throttled progress events.
const progressInterval = 10 * time.Millisecond

// Scanner walks one source tree. A Scanner is single-use.
type Scanner struct {
	opts Options
	log  *logging.Logger

	root string

	dirsScanned  atomic.Int64
	dirsExcluded atomic.Int64
	filesSeen    atomic.Int64
	matched      atomic.Int64
	bytesMatched atomic.Int64

	currentPath  atomic.Value
	lastProgress atomic.Int64
	walkComplete atomic.Bool

	resultsMu sync.Mutex
	results   []types.FileRecord

	// Tree collected for the cache, keyed by path relative to root.
	treeMu   sync.Mutex
	entries  map[string]*cache.CachedEntry
	children map[string][]string
}

// New creates a Scanner. Options are validated and defaults applied.
func New(opts Options) *Scanner {
	_ = opts.Validate()

	s := &Scanner{
		opts:    opts,
		log:     logging.Get("scanner"),
		results: make([]types.FileRecord, 0),
	}
	s.currentPath.Store("")
	return s
}

// Scan runs the scan, blocking until the walk finishes or ctx is done.
// Unreadable directories and files are skipped, and a missing root yields
// an empty result. On cancellation the partial result is returned together
// with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	start := time.Now()

	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		root = s.opts.Root
	}
	s.root = root

	rootInfo, err := os.Stat(root)
	if err != nil || !rootInfo.IsDir() {
		s.log.Debug("root not scannable", "root", root, "error", err)
		return s.result(start, false), nil
	}

	s.currentPath.Store(root)
	s.reportProgressForce()

	scope := cache.Scope(root, s.opts.Rule.Fingerprint())
	if s.opts.Cache != nil {
		if res := s.fromCache(scope, start); res != nil {
			return res, nil
		}
		s.entries = make(map[string]*cache.CachedEntry)
		s.children = make(map[string][]string)
		s.entries[""] = &cache.CachedEntry{IsDir: true, Mtime: rootInfo.ModTime().UnixNano()}
	}
	s.dirsScanned.Add(1)

	walkErr := s.walk(ctx)

	s.walkComplete.Store(true)
	s.reportProgressForce()

	if ctxErr := ctx.Err(); ctxErr != nil {
		s.log.Debug("scan cancelled", "root", root, "matched", s.matched.Load())
		return s.result(start, false), ctxErr
	}
	if walkErr != nil {
		s.log.Debug("walk ended with error", "root", root, "error", walkErr)
	}

	if s.opts.Cache != nil && walkErr == nil {
		s.flushCache(scope)
	}

	res := s.result(start, false)
	s.log.Info("scan complete",
		"root", root,
		"dirs", res.DirsScanned,
		"excluded", res.DirsExcluded,
		"matched", len(res.Files),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// Scan is a convenience wrapper that returns only the matched files.
// It never fails; on cancellation it returns what was found so far.
func Scan(ctx context.Context, root string, rule *rules.Rule) []types.FileRecord {
	res, _ := New(Options{Root: root, Rule: rule}).Scan(ctx)
	return res.Files
}

func (s *Scanner) walk(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	err := fastwalk.Walk(&conf, s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.log.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d == nil || path == s.root {
			return nil
		}

		if d.IsDir() {
			return s.visitDir(path, d)
		}
		if d.Type().IsRegular() {
			s.visitFile(path, d)
		}
		return nil
	})

	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func (s *Scanner) visitDir(path string, d fs.DirEntry) error {
	if s.opts.Rule.ExcludesDir(d.Name()) {
		s.dirsExcluded.Add(1)
		return fastwalk.SkipDir
	}

	s.dirsScanned.Add(1)
	s.currentPath.Store(path)
	s.reportProgress()

	if s.entries != nil {
		info, err := d.Info()
		if err != nil {
			s.log.Debug("stat directory failed", "path", path, "error", err)
			return fastwalk.SkipDir
		}
		s.remember(path, &cache.CachedEntry{IsDir: true, Mtime: info.ModTime().UnixNano()})
	}
	return nil
}

func (s *Scanner) visitFile(path string, d fs.DirEntry) {
	s.filesSeen.Add(1)

	name := d.Name()
	if s.entries == nil && !s.opts.Rule.Wants(types.ExtOf(name)) {
		return
	}

	info, err := d.Info()
	if err != nil {
		s.log.Debug("stat file failed", "path", path, "error", err)
		return
	}

	if s.entries != nil {
		s.remember(path, &cache.CachedEntry{Size: info.Size(), Mtime: info.ModTime().UnixNano()})
	}

	s.consider(path, name, info.Size(), info.ModTime())
}

// consider applies the rule to one file and records it on a match.
func (s *Scanner) consider(path, name string, size int64, modTime time.Time) {
	ext, category, ok := s.opts.Rule.Match(name, size)
	if !ok {
		return
	}

	s.matched.Add(1)
	s.bytesMatched.Add(size)

	s.resultsMu.Lock()
	s.results = append(s.results, types.FileRecord{
		Path:     path,
		Name:     name,
		Ext:      ext,
		Size:     size,
		Category: category,
		ModTime:  modTime,
	})
	s.resultsMu.Unlock()
}

// fromCache serves the scan from a valid cached tree, or returns nil.
func (s *Scanner) fromCache(scope string, start time.Time) *types.ScanResult {
	res, ok, err := s.opts.Cache.Lookup(scope, s.root)
	if err != nil {
		s.log.Warn("cache lookup failed", "root", s.root, "error", err)
		return nil
	}
	if !ok {
		s.log.Debug("cache miss", "root", s.root, "reason", res.Reason)
		return nil
	}

	for _, f := range res.Files {
		if s.opts.Rule.ExcludesPath(s.rel(f.Path)) {
			continue
		}
		s.filesSeen.Add(1)
		s.consider(f.Path, filepath.Base(f.Path), f.Size, f.ModTime)
	}
	s.dirsScanned.Store(res.Dirs)
	s.walkComplete.Store(true)
	s.currentPath.Store("(from cache)")
	s.reportProgressForce()

	out := s.result(start, true)
	s.log.Info("scan served from cache", "root", s.root, "matched", len(out.Files))
	return out
}

// remember records an entry for the cache and links it to its parent.
func (s *Scanner) remember(path string, entry *cache.CachedEntry) {
	rel := s.rel(path)
	parent := s.rel(filepath.Dir(path))

	s.treeMu.Lock()
	s.entries[rel] = entry
	s.children[parent] = append(s.children[parent], filepath.Base(path))
	s.treeMu.Unlock()
}

func (s *Scanner) rel(path string) string {
	if path == s.root {
		return ""
	}
	return strings.TrimPrefix(path, s.root+string(filepath.Separator))
}

func (s *Scanner) flushCache(scope string) {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	for rel, kids := range s.children {
		if entry, ok := s.entries[rel]; ok && entry.IsDir {
			sort.Strings(kids)
			entry.Children = kids
		}
	}

	if err := s.opts.Cache.Replace(scope, s.entries); err != nil {
		s.log.Warn("cache update failed", "root", s.root, "error", err)
		return
	}
	s.log.Debug("cache updated", "root", s.root, "entries", len(s.entries))
}

// result builds the ScanResult with files sorted by path.
func (s *Scanner) result(start time.Time, fromCache bool) *types.ScanResult {
	s.resultsMu.Lock()
	files := make([]types.FileRecord, len(s.results))
	copy(files, s.results)
	s.resultsMu.Unlock()

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return &types.ScanResult{
		Root:         s.root,
		Files:        files,
		DirsScanned:  s.dirsScanned.Load(),
		DirsExcluded: s.dirsExcluded.Load(),
		FilesSeen:    s.filesSeen.Load(),
		TotalSize:    s.bytesMatched.Load(),
		Elapsed:      time.Since(start),
		FromCache:    fromCache,
	}
}

// reportProgress sends a progress event at most once per progressInterval.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}

	now := time.Now().UnixNano()
	last := s.lastProgress.Load()
	if now-last < int64(progressInterval) {
		return
	}
	if !s.lastProgress.CompareAndSwap(last, now) {
		return
	}
	s.sendProgress()
}

// reportProgressForce bypasses the throttle for start and end events.
func (s *Scanner) reportProgressForce() {
	if s.opts.OnProgress == nil {
		return
	}
	s.lastProgress.Store(time.Now().UnixNano())
	s.sendProgress()
}

func (s *Scanner) sendProgress() {
	currentPath, _ := s.currentPath.Load().(string)

	s.opts.OnProgress(types.ScanProgress{
		DirsScanned:  s.dirsScanned.Load(),
		FilesSeen:    s.filesSeen.Load(),
		Matched:      s.matched.Load(),
		BytesMatched: s.bytesMatched.Load(),
		CurrentPath:  currentPath,
		WalkComplete: s.walkComplete.Load(),
	})
}
