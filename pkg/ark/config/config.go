package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/rules"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ExcludeConfig selects the directory names a scan never descends into.
type ExcludeConfig struct {
	TempCache bool     `mapstructure:"temp_cache"`
	System    bool     `mapstructure:"system"`
	Custom    []string `mapstructure:"custom"`
}

// CopyConfig controls the destination layout of a run.
type CopyConfig struct {
	SubfolderByExt    bool `mapstructure:"subfolder_by_ext"`
	EmbedOriginalPath bool `mapstructure:"embed_original_path"`
	BatchSize         int  `mapstructure:"batch_size"`
	Lock              bool `mapstructure:"lock"`
}

// HistoryConfig controls where archived manifests are kept.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// CacheConfig controls the scan cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config represents the application configuration.
type Config struct {
	// Categories are catalog keys to harvest.
	Categories []string `mapstructure:"categories"`

	// MinSizes maps a category key to a size such as "100K".
	MinSizes map[string]string `mapstructure:"min_sizes"`

	CustomExtensions   []string `mapstructure:"custom_extensions"`
	DisabledExtensions []string `mapstructure:"disabled_extensions"`

	Exclude ExcludeConfig `mapstructure:"exclude"`
	Copy    CopyConfig    `mapstructure:"copy"`
	History HistoryConfig `mapstructure:"history"`
	Cache   CacheConfig   `mapstructure:"cache"`

	// Workers bounds concurrent directory reads. Zero picks a default.
	Workers int `mapstructure:"workers"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/ark/config.yaml
//   - $HOME/.config/ark/config.yaml
//
// Environment variables are prefixed with ARK_ (e.g., ARK_COPY_LOCK).
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// default locations; a named file that does not exist is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "ark"))
		}
		v.AddConfigPath(filepath.Join(homeDir, ".config", "ark"))
	}

	v.SetEnvPrefix("ARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, homeDir)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.History.Path, &cfg.Cache.Path, &cfg.Logging.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault("categories", rules.DefaultCategoryKeys())
	v.SetDefault("min_sizes", map[string]string{})
	v.SetDefault("custom_extensions", []string{})
	v.SetDefault("disabled_extensions", []string{})

	v.SetDefault("exclude.temp_cache", true)
	v.SetDefault("exclude.system", true)
	v.SetDefault("exclude.custom", []string{})

	v.SetDefault("copy.subfolder_by_ext", false)
	v.SetDefault("copy.embed_original_path", false)
	v.SetDefault("copy.batch_size", DefaultBatchSize)
	v.SetDefault("copy.lock", true)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(homeDir, ".config", "ark", ".history"))
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "") // Empty means use DefaultCachePath

	v.SetDefault("workers", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"copier":  "info",
		"cache":   "warn",
		"tui":     "info",
	})
}

// RuleOptions translates the harvest settings into rule options.
func (c *Config) RuleOptions() ([]rules.Option, error) {
	opts := []rules.Option{
		rules.WithCategories(c.Categories...),
		rules.WithDisabledExtensions(c.DisabledExtensions...),
		rules.WithCustomExtensions(rules.ParseExtensions(c.CustomExtensions)...),
		rules.WithExcludePresets(c.Exclude.TempCache, c.Exclude.System),
		rules.WithExclude(c.Exclude.Custom...),
	}

	keys := make([]string, 0, len(c.MinSizes))
	for k := range c.MinSizes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cat, ok := rules.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("min_sizes: %w: %q", rules.ErrUnknownCategory, key)
		}
		size, err := types.ParseSize(c.MinSizes[key])
		if err != nil {
			return nil, fmt.Errorf("min_sizes.%s: %w", key, err)
		}
		opts = append(opts, rules.WithMinSize(cat.Key, size))
	}
	return opts, nil
}

// Rule builds the scan rule, applying extra options after the configured ones.
func (c *Config) Rule(extra ...rules.Option) (*rules.Rule, error) {
	opts, err := c.RuleOptions()
	if err != nil {
		return nil, err
	}
	return rules.New(append(opts, extra...)...)
}

// CopyOptions returns the layout options for a copy run.
func (c *Config) CopyOptions() types.CopyOptions {
	return types.CopyOptions{
		SubfolderByExt:    c.Copy.SubfolderByExt,
		EmbedOriginalPath: c.Copy.EmbedOriginalPath,
	}
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := types.ParseSize(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logging.rotation.max_size: %w", err)
		}
		rotation.MaxSize = size
	}
	rotation.MaxAge = c.Logging.Rotation.MaxAge
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Rotation:   rotation,
		Components: c.Logging.Components,
	}, nil
}

// CachePath returns the configured cache path or the default.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return DefaultCachePath()
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "ark"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "ark"), nil
}

// ConfigPath returns the path of the config file written by WriteDefault.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryDir returns the default directory for archived manifests.
func HistoryDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ".history"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	historyDir, err := HistoryDir()
	if err != nil {
		return "", err
	}

	defaultConfig := fmt.Sprintf(`# ark configuration

# Catalog categories to harvest (see "ark categories")
categories:
  - images
  - vector
  - design
  - 3d

# Per-category minimum file size, overriding the catalog default
min_sizes: {}
#  images: 100K
#  video: 10M

# Extra extensions copied into the Custom category with no size threshold
custom_extensions: []

# Catalog extensions to leave out
disabled_extensions: []

# Directories never descended into, matched by name (case-insensitive).
# Entries may be glob patterns such as "backup-*".
exclude:
  temp_cache: true   # Temp, tmp, Cache, Caches, .cache
  system: true       # node_modules, .git, Library, AppData, ...
  custom: []

# Destination layout
copy:
  subfolder_by_ext: false      # Images/JPG/a.jpg instead of Images/a.jpg
  embed_original_path: false   # write <file>.origin.txt next to each copy
  batch_size: %d               # files between progress updates
  lock: true                   # refuse concurrent runs into one destination

# Archived manifests of past runs
history:
  enabled: true
  path: %s
  retention_days: %d

# Scan cache for repeated scans of the same source
cache:
  enabled: false
  # Empty means use default: $XDG_CACHE_HOME/ark/scan
  path: ""

# Concurrent directory reads (0 picks a default)
workers: 0

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/ark/ark.log)
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    scanner: info
    copier: info
    cache: warn
    tui: info
`, DefaultBatchSize, historyDir, DefaultRetentionDays, DefaultLogMaxSize)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// CacheDir returns $XDG_CACHE_HOME/ark/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "ark")
}

// DefaultCachePath returns the default scan cache location.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "scan")
}
