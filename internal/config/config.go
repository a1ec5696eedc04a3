// Package config defines runtime configuration for annals. Values are
// layered: CLI flags, then ANNALS_* environment variables, then the config
// file (~/.annals/config.yaml), then the defaults below.
package config

import (
	"time"

	"github.com/okhose/annals/internal/model"
)

// Config is the complete runtime configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Parser      ParserConfig      `yaml:"parser" mapstructure:"parser"`
	Tolerance   ToleranceConfig   `yaml:"tolerance" mapstructure:"tolerance"`
	Timeline    TimelineConfig    `yaml:"timeline" mapstructure:"timeline"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Path is the SQLite database file (ignored by the memory backend).
	Path string `yaml:"path" mapstructure:"path"`
}

// ParserConfig tunes the date parser.
type ParserConfig struct {
	// CenturyBias reads ambiguous forms like "1900s" as the century with
	// early emphasis instead of the literal 1900-1909 decade.
	CenturyBias bool `yaml:"century_bias" mapstructure:"century_bias"`
}

// ToleranceConfig decides when two claims describe the same fact (dedup)
// versus different facts (conflict). Dates within tolerance merge; dates
// beyond it from independent sources conflict.
type ToleranceConfig struct {
	// ExactYears is the allowed year difference for exact/year/circa
	// precision dates. 0 means the years must match.
	ExactYears int `yaml:"exact_years" mapstructure:"exact_years"`
	// CoarseSameDecade merges coarse-precision dates (decade, early/mid/
	// late, century) that fall in the same decade bucket.
	CoarseSameDecade bool `yaml:"coarse_same_decade" mapstructure:"coarse_same_decade"`
	// PerCategoryYears overrides ExactYears for specific categories.
	PerCategoryYears map[model.Category]int `yaml:"per_category_years,omitempty" mapstructure:"per_category_years"`
}

// YearsFor returns the year tolerance for a category.
func (t ToleranceConfig) YearsFor(c model.Category) int {
	if n, ok := t.PerCategoryYears[c]; ok {
		return n
	}
	return t.ExactYears
}

// TimelineConfig tunes timeline assembly.
type TimelineConfig struct {
	// DefaultMaxEntries is the display budget when the caller asks for a
	// bounded view without an explicit limit.
	DefaultMaxEntries int `yaml:"default_max_entries" mapstructure:"default_max_entries"`
}

// CacheConfig tunes the assembled-timeline cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"` // Disk layer; empty = memory only
}

// ConcurrencyConfig tunes batch ingestion.
type ConcurrencyConfig struct {
	// Workers is the worker-pool size for batch candidate ingestion.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// SourceRatePerSecond throttles ingestion per source reference so
	// redelivery bursts from one upstream cannot starve the rest.
	SourceRatePerSecond float64 `yaml:"source_rate_per_second" mapstructure:"source_rate_per_second"`
	// SourceBurst is the limiter burst size per source.
	SourceBurst int `yaml:"source_burst" mapstructure:"source_burst"`
}

// OutputConfig tunes CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	JSON    bool `yaml:"json" mapstructure:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "annals.db",
		},
		Parser: ParserConfig{
			CenturyBias: true,
		},
		Tolerance: ToleranceConfig{
			ExactYears:       0,
			CoarseSameDecade: true,
		},
		Timeline: TimelineConfig{
			DefaultMaxEntries: 50,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers:             4,
			SourceRatePerSecond: 10,
			SourceBurst:         5,
		},
	}
}
