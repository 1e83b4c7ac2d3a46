// Package config loads the store's YAML configuration, grounded on the
// teacher's internal/config/config.go: same LoadConfig/setDefaults/Validate
// shape, narrowed to the knobs this store actually has.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SkipListConfig configures the C3 optimized (non-transactional) variant.
type SkipListConfig struct {
	MaxLevel     int  `yaml:"max_level"`
	SegmentCount int  `yaml:"segment_count"`
	PoolCapacity int  `yaml:"pool_capacity"`
	Silent       bool `yaml:"silent"`
}

// MVCCConfig configures the C6 transactional variant.
type MVCCConfig struct {
	MaxLevel int  `yaml:"max_level"`
	Silent   bool `yaml:"silent"`
}

// GCConfig controls the optional background version-reclamation worker.
// Disabled by default, per SPEC_FULL.md §9 — GC only runs when an
// operator opts in.
type GCConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// PersistenceConfig names the dump-file paths for both variants.
type PersistenceConfig struct {
	OptimizedDumpPath string `yaml:"optimized_dump_path"`
	MVCCDumpPath      string `yaml:"mvcc_dump_path"`
}

// MetricsConfig controls the optional Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls the zap logger built from this configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete configuration for a kvstore instance.
type Config struct {
	SkipList    SkipListConfig    `yaml:"skiplist"`
	MVCC        MVCCConfig        `yaml:"mvcc"`
	GC          GCConfig          `yaml:"gc"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DefaultConfig returns a Config with every field set to its default,
// equivalent to calling LoadConfig against an empty file.
func DefaultConfig() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// LoadConfig reads and parses a YAML file at filePath, fills in defaults
// for unspecified fields, and validates the result.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.SkipList.MaxLevel == 0 {
		cfg.SkipList.MaxLevel = 32
	}
	if cfg.SkipList.SegmentCount == 0 {
		cfg.SkipList.SegmentCount = 16
	}
	if cfg.SkipList.PoolCapacity == 0 {
		cfg.SkipList.PoolCapacity = 128
	}

	if cfg.MVCC.MaxLevel == 0 {
		cfg.MVCC.MaxLevel = 32
	}

	if cfg.GC.Interval == 0 {
		cfg.GC.Interval = 30 * time.Second
	}

	if cfg.Persistence.OptimizedDumpPath == "" {
		cfg.Persistence.OptimizedDumpPath = "store/dumpFile_optimized"
	}
	if cfg.Persistence.MVCCDumpPath == "" {
		cfg.Persistence.MVCCDumpPath = "store/dumpFile_mvcc"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9121"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate rejects configurations that would misbehave rather than fail
// fast: unreasonable skip-list heights, a non-positive GC interval while GC
// is enabled, or an unrecognized logging level/format.
func (c *Config) Validate() error {
	if c.SkipList.MaxLevel < 1 || c.SkipList.MaxLevel > 64 {
		return fmt.Errorf("skiplist.max_level must be between 1 and 64")
	}
	if c.MVCC.MaxLevel < 1 || c.MVCC.MaxLevel > 64 {
		return fmt.Errorf("mvcc.max_level must be between 1 and 64")
	}
	if c.SkipList.SegmentCount < 1 {
		return fmt.Errorf("skiplist.segment_count must be at least 1")
	}
	if c.GC.Enabled && c.GC.Interval <= 0 {
		return fmt.Errorf("gc.interval must be positive when gc.enabled is true")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be one of json, console")
	}
	return nil
}
