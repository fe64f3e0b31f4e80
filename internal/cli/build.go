package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tokyo-gender/rosterkit/internal/cache"
	"github.com/tokyo-gender/rosterkit/internal/extract"
	"github.com/tokyo-gender/rosterkit/internal/model"
	"github.com/tokyo-gender/rosterkit/internal/output"
	"github.com/tokyo-gender/rosterkit/internal/pipeline"
	"github.com/tokyo-gender/rosterkit/internal/report"
	"github.com/tokyo-gender/rosterkit/internal/worker"
)

var (
	buildTimeout time.Duration
	noCache      bool
	pageList     string
	reportPath   string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <input-root>",
	Short: "Build the master table from an OCR output tree",
	Long: `Build reads every page under <input-root>/<GovLevel>/<Year>/ and writes
the master table:
- Parse OCR page files (NDL XML, ALTO, hOCR, JSON) in parallel
- Extract office, position, grade, salary and rank per line
- Flag plausible names and classify gender with both rule sets
- Number offices per (year, gov_level) and resolve staff_id per office
- Write one CSV row per OCR line

Malformed pages are skipped and reported; the build only fails when no
input is found.

Example:
  roster build ./ocr
  roster build ./ocr --crosswalk PositionCrosswalk.csv --output master.csv
  roster build ./ocr --workers 8 --timeout 30m --report data_report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	flags := buildCmd.Flags()
	flags.String("crosswalk", "", "position crosswalk CSV")
	flags.StringP("output", "o", "", "output CSV path")
	flags.Int("workers", 0, "number of concurrent page workers")
	flags.Bool("sort-columns", false, "regroup lines into right-to-left columns before extraction")
	flags.Bool("circle", false, "office headers are printed with circle markers")
	flags.Float64("threshold", 0, "staff_id fuzzy match threshold")
	flags.Bool("bom", true, "write a UTF-8 byte order mark")

	_ = viper.BindPFlag("extract.crosswalk", flags.Lookup("crosswalk"))
	_ = viper.BindPFlag("output.path", flags.Lookup("output"))
	_ = viper.BindPFlag("concurrency.workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("ingest.sort_columns", flags.Lookup("sort-columns"))
	_ = viper.BindPFlag("extract.circle_markers", flags.Lookup("circle"))
	_ = viper.BindPFlag("identity.threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("output.bom", flags.Lookup("bom"))

	flags.DurationVar(&buildTimeout, "timeout", 0, "abort the build after this long (0 = no limit)")
	flags.BoolVar(&noCache, "no-cache", false, "disable the parsed-page cache")
	flags.StringVar(&pageList, "pages", "", "file listing the page files to build (one per line)")
	flags.StringVar(&reportPath, "report", "", "also write a markdown data report")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	if buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, buildTimeout)
		defer cancel()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Roster Build\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input root:   %s\n", root)
	fmt.Fprintf(os.Stderr, "  Crosswalk:    %s\n", cfg.Extract.Crosswalk)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "  Cache:        %v\n", cfg.Cache.Enabled)
	if buildTimeout > 0 {
		fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", buildTimeout)
	}
	fmt.Fprintf(os.Stderr, "\n")

	cw := loadCrosswalk(cfg, logger)

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
		pageCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	var only []string
	if pageList != "" {
		only, err = worker.ReadPageList(pageList, root)
		if err != nil {
			return fmt.Errorf("read page list: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Loaded %d page paths\n", len(only))
	}

	fmt.Fprintf(os.Stderr, "⚙️  Processing pages with %d workers...\n", cfg.Concurrency.Workers)
	p := pipeline.NewPipeline(cfg, cw, pageCache, logger)
	result, err := p.Build(ctx, root, only)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stderr, "✗ %s: %s\n", s.Path, s.Reason)
	}

	if err := output.WriteFile(cfg.Output.Path, result.Rows, cfg.Output.BOM); err != nil {
		return fmt.Errorf("write master table: %w", err)
	}

	if reportPath != "" {
		md := report.Render(report.Input{NewPath: cfg.Output.Path, New: result.Rows, Drafted: result.Drafted})
		if err := os.WriteFile(reportPath, []byte(md), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Build Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:        %s\n", result.RunID)
	fmt.Fprintf(os.Stderr, "  Pages:      %d read, %d skipped\n", result.Pages, len(result.Skipped))
	fmt.Fprintf(os.Stderr, "  Rows:       %d (%d names)\n", len(result.Rows), result.Names)
	fmt.Fprintf(os.Stderr, "  Offices:    %d\n", result.Offices)
	fmt.Fprintf(os.Stderr, "  Staff IDs:  %d\n", result.StaffIDs)
	fmt.Fprintf(os.Stderr, "  Drafted:    %d\n", len(result.Drafted))
	fmt.Fprintf(os.Stderr, "  Duration:   %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", cfg.Output.Path)
	if reportPath != "" {
		fmt.Fprintf(os.Stderr, "  Report:     %s\n", reportPath)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// loadCrosswalk reads the position table. A missing table is not fatal:
// every position is recorded as Unknown.
func loadCrosswalk(cfg *model.Config, logger *zap.Logger) *extract.Crosswalk {
	cw, err := extract.LoadCrosswalk(cfg.Extract.Crosswalk, cfg.Extract.CanonicalColumn)
	if err != nil {
		logger.Warn("crosswalk unavailable, positions will be Unknown",
			zap.String("path", cfg.Extract.Crosswalk),
			zap.Bool("missing", errors.Is(err, os.ErrNotExist)),
			zap.Error(err))
		return extract.NewCrosswalk(nil)
	}
	logger.Debug("loaded crosswalk", zap.Int("titles", cw.Len()))
	return cw
}
