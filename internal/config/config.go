package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config file names looked up in the scanned root, in priority order
const (
	FileName    = ".nextaudit.yaml"
	AltFileName = ".nextaudit.yml"
)

// Defaults
const (
	DefaultLargeFileKB   = 200
	DefaultHistoryDBPath = ".nextaudit/history.db"
	DefaultLogLevel      = "info"

	// hardCeilingFactor multiplies the soft threshold to get the size above
	// which a file is not evaluated at all.
	hardCeilingFactor = 10

	// MaxLargeFileKB is the largest threshold whose hard ceiling fits in an int64
	MaxLargeFileKB uint64 = math.MaxInt64 / (hardCeilingFactor * 1024)
)

// DefaultIgnore returns the directory and file names skipped when no ignore list is configured.
func DefaultIgnore() []string {
	return []string{".git", "target", "node_modules", "dist", "build"}
}

// ProjectConfig carries informational project metadata
type ProjectConfig struct {
	Router string `yaml:"router"`
	Target string `yaml:"target"`
}

// HistoryConfig controls the optional scan history store
type HistoryConfig struct {
	// Enabled records every completed scan in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path, relative to the scanned root unless absolute
	DBPath string `yaml:"db_path"`
}

// Config represents nextaudit configuration options
type Config struct {
	// Project is informational only
	Project ProjectConfig

	// Ignore lists base names of entries excluded from traversal
	Ignore []string

	// LargeFileKB is the soft threshold of the large-file heuristic
	LargeFileKB uint

	// Workers is the evaluation pool size (0 = GOMAXPROCS)
	Workers int

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string

	// History contains scan history configuration
	History HistoryConfig

	// Warnings lists configuration fields that were malformed and replaced by defaults
	Warnings []string

	// Path is the file the configuration was loaded from, empty for defaults
	Path string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Ignore:      DefaultIgnore(),
		LargeFileKB: DefaultLargeFileKB,
		Workers:     0,
		LogLevel:    DefaultLogLevel,
		History: HistoryConfig{
			Enabled: false,
			DBPath:  DefaultHistoryDBPath,
		},
	}
}

// fileConfig mirrors the file layout; every field is kept as a raw node so
// a malformed field can fall back to its default without affecting the others.
type fileConfig struct {
	Project    yaml.Node `yaml:"project"`
	Ignore     yaml.Node `yaml:"ignore"`
	Thresholds yaml.Node `yaml:"thresholds"`
	Scan       yaml.Node `yaml:"scan"`
	History    yaml.Node `yaml:"history"`
	LogLevel   yaml.Node `yaml:"log_level"`
}

type thresholdsConfig struct {
	LargeFileKB yaml.Node `yaml:"large_file_kb"`
}

type scanConfig struct {
	Workers yaml.Node `yaml:"workers"`
}

type historyConfig struct {
	Enabled yaml.Node `yaml:"enabled"`
	DBPath  yaml.Node `yaml:"db_path"`
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults. Malformed content never fails: the
// affected fields keep their defaults and a warning is recorded instead.
// Only an unreadable existing file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Path = path
	cfg.apply(data)
	return cfg, nil
}

// LoadConfigFromDir loads .nextaudit.yaml (or .nextaudit.yml) from the specified directory.
// If neither exists, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range []string{FileName, AltFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	return DefaultConfig(), nil
}

// Parse builds a Config from raw YAML bytes, falling back to defaults field by field.
func Parse(data []byte) *Config {
	cfg := DefaultConfig()
	cfg.apply(data)
	return cfg
}

func (c *Config) apply(data []byte) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		c.warn("config file is not valid YAML, using defaults: %v", err)
		return
	}

	if present(raw.Project) {
		var project ProjectConfig
		if err := raw.Project.Decode(&project); err != nil {
			c.warn("project: %v", err)
		} else {
			c.Project = project
		}
	}

	if present(raw.Ignore) {
		var ignore []string
		if err := raw.Ignore.Decode(&ignore); err != nil {
			c.warn("ignore must be a list of names, using defaults: %v", err)
		} else {
			c.Ignore = ignore
		}
	}

	if present(raw.Thresholds) {
		var thresholds thresholdsConfig
		if err := raw.Thresholds.Decode(&thresholds); err != nil {
			c.warn("thresholds must be a mapping, using defaults: %v", err)
		} else if present(thresholds.LargeFileKB) {
			var kb int64
			if err := thresholds.LargeFileKB.Decode(&kb); err != nil {
				c.warn("thresholds.large_file_kb must be an integer, using %d", DefaultLargeFileKB)
			} else if kb <= 0 {
				c.warn("thresholds.large_file_kb must be > 0, got %d, using %d", kb, DefaultLargeFileKB)
			} else if uint64(kb) > MaxLargeFileKB {
				c.warn("thresholds.large_file_kb must be <= %d, got %d, using %d", MaxLargeFileKB, kb, DefaultLargeFileKB)
			} else {
				c.LargeFileKB = uint(kb)
			}
		}
	}

	if present(raw.Scan) {
		var scan scanConfig
		if err := raw.Scan.Decode(&scan); err != nil {
			c.warn("scan must be a mapping, using defaults: %v", err)
		} else if present(scan.Workers) {
			var workers int
			if err := scan.Workers.Decode(&workers); err != nil || workers < 0 {
				c.warn("scan.workers must be an integer >= 0, using 0")
			} else {
				c.Workers = workers
			}
		}
	}

	if present(raw.History) {
		var history historyConfig
		if err := raw.History.Decode(&history); err != nil {
			c.warn("history must be a mapping, using defaults: %v", err)
		} else {
			if present(history.Enabled) {
				var enabled bool
				if err := history.Enabled.Decode(&enabled); err != nil {
					c.warn("history.enabled must be a boolean, using false")
				} else {
					c.History.Enabled = enabled
				}
			}
			if present(history.DBPath) {
				var dbPath string
				if err := history.DBPath.Decode(&dbPath); err != nil || dbPath == "" {
					c.warn("history.db_path must be a non-empty string, using %s", DefaultHistoryDBPath)
				} else {
					c.History.DBPath = dbPath
				}
			}
		}
	}

	if present(raw.LogLevel) {
		var level string
		if err := raw.LogLevel.Decode(&level); err != nil || !validLogLevel(level) {
			c.warn("log_level must be one of trace, debug, info, warn, error, using %s", DefaultLogLevel)
		} else {
			c.LogLevel = strings.ToLower(level)
		}
	}
}

func (c *Config) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// present reports whether a field appeared in the document with a non-null value
func present(n yaml.Node) bool {
	if n.Kind == 0 {
		return false
	}
	return !(n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(ignore *[]string, largeFileKB *uint, workers *int, logLevel *string, record *bool) {
	if ignore != nil {
		c.Ignore = append([]string(nil), (*ignore)...)
	}
	if largeFileKB != nil {
		c.LargeFileKB = *largeFileKB
	}
	if workers != nil {
		c.Workers = *workers
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if record != nil && *record {
		c.History.Enabled = true
	}
}

// Validate validates the configuration values.
// File values are already sanitized by LoadConfig, so this mainly guards flag overrides.
func (c *Config) Validate() error {
	if c.LargeFileKB == 0 {
		return fmt.Errorf("large_file_kb must be > 0")
	}
	if uint64(c.LargeFileKB) > MaxLargeFileKB {
		return fmt.Errorf("large_file_kb must be <= %d, got %d", MaxLargeFileKB, c.LargeFileKB)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}
	return nil
}

// HistoryDBPath resolves the history database path against the scanned root.
func (c *Config) HistoryDBPath(root string) string {
	if filepath.IsAbs(c.History.DBPath) {
		return c.History.DBPath
	}
	return filepath.Join(root, c.History.DBPath)
}

// ScanConfig returns the immutable view of this configuration used by the scan engine.
func (c *Config) ScanConfig() ScanConfig {
	ignore := make(map[string]struct{}, len(c.Ignore))
	for _, name := range c.Ignore {
		ignore[name] = struct{}{}
	}
	largeFileKB := uint64(c.LargeFileKB)
	if largeFileKB > MaxLargeFileKB {
		largeFileKB = MaxLargeFileKB
	}
	return ScanConfig{
		ignore:      ignore,
		largeFileKB: largeFileKB,
		workers:     c.Workers,
	}
}

// ScanConfig is the resolved, read-only configuration of one scan.
// It is safe to share across goroutines.
type ScanConfig struct {
	ignore      map[string]struct{}
	largeFileKB uint64
	workers     int
}

// NewScanConfig builds a ScanConfig directly. A zero largeFileKB selects the
// default; values above MaxLargeFileKB are clamped.
func NewScanConfig(ignore []string, largeFileKB uint, workers int) ScanConfig {
	if largeFileKB == 0 {
		largeFileKB = DefaultLargeFileKB
	}
	cfg := &Config{Ignore: ignore, LargeFileKB: largeFileKB, Workers: workers}
	return cfg.ScanConfig()
}

// DefaultScanConfig returns the ScanConfig of DefaultConfig.
func DefaultScanConfig() ScanConfig {
	return DefaultConfig().ScanConfig()
}

// Ignored reports whether name is in the ignore set (exact match).
func (s ScanConfig) Ignored(name string) bool {
	_, ok := s.ignore[name]
	return ok
}

// IgnoreSet returns the ignore set; callers must not modify it.
func (s ScanConfig) IgnoreSet() map[string]struct{} {
	return s.ignore
}

// LargeFileKB returns the configured soft threshold in KB.
func (s ScanConfig) LargeFileKB() uint {
	return uint(s.largeFileKB)
}

// SoftThresholdKB is the size, in KB, above which the large-file heuristic fires.
func (s ScanConfig) SoftThresholdKB() float64 {
	return float64(s.largeFileKB)
}

// HardCeilingBytes is the size above which a file is skipped before any rule runs.
func (s ScanConfig) HardCeilingBytes() int64 {
	return int64(s.largeFileKB) * hardCeilingFactor * 1024
}

// Workers returns the configured pool size (0 = GOMAXPROCS).
func (s ScanConfig) Workers() int {
	return s.workers
}
