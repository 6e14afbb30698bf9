package rules

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/ark/pkg/ark/types"
)

// builder accumulates options before a Rule is built.
type builder struct {
	categories   []string
	minSizes     map[string]int64
	disabled     map[string]struct{}
	custom       []string
	explicit     []explicitExt
	excludeTemp  bool
	excludeSys   bool
	excludeNames []string
}

type explicitExt struct {
	ext      string
	category string
	minSize  int64
}

// Option is a functional option for building a Rule.
type Option func(*builder)

// WithCategories selects catalog categories by key or name.
func WithCategories(keys ...string) Option {
	return func(b *builder) {
		b.categories = append(b.categories, keys...)
	}
}

// WithDefaultCategories selects the categories enabled by default in the catalog.
func WithDefaultCategories() Option {
	return WithCategories(DefaultCategoryKeys()...)
}

// WithMinSize overrides the threshold of a selected category.
// Negative sizes are clamped to 0.
func WithMinSize(category string, size int64) Option {
	return func(b *builder) {
		if size < 0 {
			size = 0
		}
		b.minSizes[strings.ToLower(category)] = size
	}
}

// WithDisabledExtensions removes individual extensions from selected categories.
func WithDisabledExtensions(exts ...string) Option {
	return func(b *builder) {
		for _, ext := range exts {
			if ext = normalizeExt(ext); ext != "" {
				b.disabled[ext] = struct{}{}
			}
		}
	}
}

// WithCustomExtensions adds extensions routed to the Custom category
// with no size threshold. They take precedence over catalog categories.
func WithCustomExtensions(exts ...string) Option {
	return func(b *builder) {
		b.custom = append(b.custom, exts...)
	}
}

// WithExtension maps a single extension to a category and threshold.
// It is applied last and wins over catalog and custom entries.
func WithExtension(ext, category string, minSize int64) Option {
	return func(b *builder) {
		b.explicit = append(b.explicit, explicitExt{ext: ext, category: category, minSize: minSize})
	}
}

// WithExcludePresets toggles the built-in exclusion lists.
func WithExcludePresets(tempCache, system bool) Option {
	return func(b *builder) {
		b.excludeTemp = tempCache
		b.excludeSys = system
	}
}

// WithExclude adds directory names or glob patterns to skip.
func WithExclude(names ...string) Option {
	return func(b *builder) {
		b.excludeNames = append(b.excludeNames, names...)
	}
}

// New builds a Rule from the given options.
// Nothing is selected by default; at least one extension must result.
func New(opts ...Option) (*Rule, error) {
	b := &builder{
		minSizes: make(map[string]int64),
		disabled: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	r := &Rule{
		extensions:   make(map[string]struct{}),
		minSize:      make(map[string]int64),
		category:     make(map[string]string),
		excludeNames: make(map[string]struct{}),
	}

	for _, key := range b.categories {
		cat, ok := Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
		}
		minSize := cat.DefaultMinSize
		if override, ok := b.minSizes[cat.Key]; ok {
			minSize = override
		} else if override, ok := b.minSizes[strings.ToLower(cat.Name)]; ok {
			minSize = override
		}
		for _, ext := range cat.Extensions {
			if _, off := b.disabled[ext]; off {
				continue
			}
			r.addExtension(ext, cat.Name, minSize)
		}
	}

	for _, ext := range b.custom {
		if ext = normalizeExt(ext); ext != "" {
			r.addExtension(ext, types.DefaultCategory, 0)
		}
	}

	for _, e := range b.explicit {
		if ext := normalizeExt(e.ext); ext != "" {
			r.addExtension(ext, e.category, e.minSize)
		}
	}

	if len(r.extensions) == 0 {
		return nil, ErrNoExtensions
	}

	var excludes []string
	if b.excludeTemp {
		excludes = append(excludes, ExcludeTempCache...)
	}
	if b.excludeSys {
		excludes = append(excludes, ExcludeSystem...)
	}
	excludes = append(excludes, b.excludeNames...)
	for _, entry := range excludes {
		if err := r.addExclude(entry); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Default returns the rule for the default catalog selection with both
// exclusion presets enabled.
func Default() *Rule {
	r, err := New(WithDefaultCategories(), WithExcludePresets(true, true))
	if err != nil {
		// The built-in catalog always yields extensions.
		panic(err)
	}
	return r
}
