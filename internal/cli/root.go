package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tokyo-gender/rosterkit/internal/identity"
	"github.com/tokyo-gender/rosterkit/internal/logging"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Version is set at build time with -ldflags
var Version = "v0.2.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster - Tokyo personnel directory extraction",
	Long: `Roster turns OCR line output of the prewar Tokyo personnel
directories (Tokyo City, Tokyo Prefecture, Tokyo Metropolis) into a
single master table: one row per OCR line, with office, position,
grade, salary, court rank, a name plausibility flag, two gender
classifications and a staff_id that follows a person across years
within one office.

No line is ever dropped. Rows that do not look like names are kept
with is_name=false and filtering is left to the consumer.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Roster.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("roster %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.roster/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".roster"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ROSTER_*, with nested keys
	// spelled ROSTER_IDENTITY_THRESHOLD
	viper.SetEnvPrefix("ROSTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so env variables and bound flags are
// seen by Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("ingest.sort_columns", d.Ingest.SortColumns)
	v.SetDefault("ingest.column_tolerance", d.Ingest.ColumnTolerance)
	v.SetDefault("extract.crosswalk", d.Extract.Crosswalk)
	v.SetDefault("extract.canonical_column", d.Extract.CanonicalColumn)
	v.SetDefault("extract.circle_markers", d.Extract.CircleMarkers)
	v.SetDefault("extract.header_max_runes", d.Extract.HeaderMaxRunes)
	v.SetDefault("identity.threshold", d.Identity.Threshold)
	v.SetDefault("identity.min_fuzzy_runes", d.Identity.MinFuzzyRunes)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)
	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
	v.SetDefault("rate_limiting.reads_per_second", d.RateLimiting.ReadsPerSecond)
	v.SetDefault("rate_limiting.burst_size", d.RateLimiting.BurstSize)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.bom", d.Output.BOM)
	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// loadConfig resolves flags, env, config file and defaults into a Config
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *model.Config) error {
	if cfg.Identity.Threshold <= 0 || cfg.Identity.Threshold > 1 {
		return fmt.Errorf("identity.threshold must be in (0, 1], got %v", cfg.Identity.Threshold)
	}
	if cfg.Identity.MinFuzzyRunes < identity.MinFuzzyRunes {
		return fmt.Errorf("identity.min_fuzzy_runes must be at least %d, got %d",
			identity.MinFuzzyRunes, cfg.Identity.MinFuzzyRunes)
	}
	if cfg.Concurrency.Workers < 1 {
		return fmt.Errorf("concurrency.workers must be positive, got %d", cfg.Concurrency.Workers)
	}
	if cfg.RateLimiting.ReadsPerSecond < 0 {
		return fmt.Errorf("rate_limiting.reads_per_second must not be negative")
	}
	for partition, pr := range cfg.RateLimiting.Partitions {
		if pr.ReadsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.partitions.%s.reads_per_second must be positive", partition)
		}
	}
	return nil
}

// newLogger builds the zap logger for a command; verbose forces debug
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if cfg.Output.Verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.JSON)
}
