package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds every tunable of a build
type Config struct {
	Ingest       IngestConfig       `mapstructure:"ingest" yaml:"ingest"`
	Extract      ExtractConfig      `mapstructure:"extract" yaml:"extract"`
	Identity     IdentityConfig     `mapstructure:"identity" yaml:"identity"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

// IngestConfig controls page discovery and line ordering
type IngestConfig struct {
	SortColumns     bool `mapstructure:"sort_columns" yaml:"sort_columns"`         // Regroup lines into right-to-left columns
	ColumnTolerance int  `mapstructure:"column_tolerance" yaml:"column_tolerance"` // Pixels between line centres of one column
}

// ExtractConfig controls field extraction
type ExtractConfig struct {
	Crosswalk       string `mapstructure:"crosswalk" yaml:"crosswalk"`
	CanonicalColumn string `mapstructure:"canonical_column" yaml:"canonical_column"`
	CircleMarkers   bool   `mapstructure:"circle_markers" yaml:"circle_markers"`
	HeaderMaxRunes  int    `mapstructure:"header_max_runes" yaml:"header_max_runes"`
}

// IdentityConfig pins the staff_id matching parameters
type IdentityConfig struct {
	Threshold     float64 `mapstructure:"threshold" yaml:"threshold"`
	MinFuzzyRunes int     `mapstructure:"min_fuzzy_runes" yaml:"min_fuzzy_runes"`
}

// CacheConfig controls the parsed-page cache
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// ConcurrencyConfig sizes the page worker pool
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// RateLimitingConfig throttles page reads per (year, gov_level) partition
type RateLimitingConfig struct {
	ReadsPerSecond float64 `mapstructure:"reads_per_second" yaml:"reads_per_second"` // 0 disables
	BurstSize      int     `mapstructure:"burst_size" yaml:"burst_size"`
	// Partitions overrides single partitions, keyed like "TokyoShi/1930"
	Partitions map[string]PartitionRate `mapstructure:"partitions" yaml:"partitions,omitempty"`
}

// PartitionRate is the read rate of one partition
type PartitionRate struct {
	ReadsPerSecond float64 `mapstructure:"reads_per_second" yaml:"reads_per_second"`
	BurstSize      int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// OutputConfig controls the master CSV
type OutputConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	BOM     bool   `mapstructure:"bom" yaml:"bom"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// DefaultOutputFile is the master table file name
const DefaultOutputFile = "Tokyo_Personnel_Master_All_Years_v2.csv"

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := ".roster-cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".roster", "cache")
	}

	return &Config{
		Ingest: IngestConfig{
			SortColumns:     false,
			ColumnTolerance: 30,
		},
		Extract: ExtractConfig{
			Crosswalk:       "PositionCrosswalk.csv",
			CanonicalColumn: "Merged",
			CircleMarkers:   false,
			HeaderMaxRunes:  10,
		},
		Identity: IdentityConfig{
			Threshold:     0.85,
			MinFuzzyRunes: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			ReadsPerSecond: 0,
			BurstSize:      5,
		},
		Output: OutputConfig{
			Path: DefaultOutputFile,
			BOM:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
