package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tokyo-gender/rosterkit/internal/assemble"
	"github.com/tokyo-gender/rosterkit/internal/cache"
	"github.com/tokyo-gender/rosterkit/internal/extract"
	"github.com/tokyo-gender/rosterkit/internal/gender"
	"github.com/tokyo-gender/rosterkit/internal/identity"
	"github.com/tokyo-gender/rosterkit/internal/ingest"
	"github.com/tokyo-gender/rosterkit/internal/model"
	"github.com/tokyo-gender/rosterkit/internal/names"
	"github.com/tokyo-gender/rosterkit/internal/office"
	"github.com/tokyo-gender/rosterkit/internal/worker"
)

// Pipeline orchestrates a complete build of the master table
type Pipeline struct {
	ingestor  *ingest.Ingestor
	extractor *extract.Extractor
	resolver  *identity.Resolver
	config    *model.Config
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. The page cache c and the crosswalk cw
// may be nil; logger may be nil to discard logs.
func NewPipeline(cfg *model.Config, cw *extract.Crosswalk, c cache.Cache, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		ingestor:  ingest.NewIngestor(c, cfg.Ingest),
		extractor: extract.NewExtractor(cw, cfg.Extract),
		resolver: identity.NewResolver(identity.Options{
			Threshold:     cfg.Identity.Threshold,
			MinFuzzyRunes: cfg.Identity.MinFuzzyRunes,
		}),
		config: cfg,
		logger: logger,
	}
}

// SkippedPage is a page excluded from the build
type SkippedPage struct {
	Path   string
	Reason string
}

// BuildResult contains the assembled rows and run statistics
type BuildResult struct {
	RunID    string
	Rows     []model.MasterRow
	Pages    int // Pages read successfully
	Skipped  []SkippedPage
	Lines    int
	Names    int // Rows with is_name=true
	Offices  int // Distinct (year, gov_level, office) triples
	StaffIDs int
	Drafted  []model.MasterRow // Named staff flagged with a conscription marker
	Duration time.Duration
}

// ProcessPage reads and extracts one page
func (p *Pipeline) ProcessPage(ctx context.Context, pf ingest.PageFile) ([]model.ExtractedRecord, error) {
	page, err := p.ingestor.ReadPage(ctx, pf)
	if err != nil {
		return nil, err
	}
	return p.extractor.ExtractPage(page), nil
}

// Build runs every stage over the tree at root. only, when non-empty,
// restricts the build to those page paths. Malformed pages are skipped and
// logged; the build fails only when there is no input at all or ctx ends.
func (p *Pipeline) Build(ctx context.Context, root string, only []string) (*BuildResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	// 1. Discover page files
	discovery, err := ingest.Discover(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	for _, skipErr := range discovery.Skipped {
		log.Warn("skipped directory", zap.Error(skipErr))
	}
	pages := discovery.Pages
	if len(only) > 0 {
		pages = filterPages(pages, only)
		if len(pages) == 0 {
			return nil, fmt.Errorf("page list matched no files under %s: %w", root, ingest.ErrNoInput)
		}
	}
	log.Info("discovered pages", zap.Int("pages", len(pages)), zap.String("root", root))

	// 2. Ingest and extract pages concurrently
	batch := worker.NewBatchProcessor(p, p.config.Concurrency.Workers, p.config.RateLimiting)
	results := batch.ProcessPages(ctx, pages)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	// 3. Barrier: every page is in before any ID is assigned
	result := &BuildResult{RunID: runID}
	var extracted []model.ExtractedRecord
	for _, res := range results {
		if res.Error != nil {
			reason := res.Error.Error()
			var mErr *ingest.MalformedInputError
			if errors.As(res.Error, &mErr) {
				reason = mErr.Reason
			}
			log.Warn("skipped page", zap.String("path", res.Page.Path), zap.String("reason", reason), zap.Error(res.Error))
			result.Skipped = append(result.Skipped, SkippedPage{Path: res.Page.Path, Reason: reason})
			continue
		}
		result.Pages++
		extracted = append(extracted, res.Records...)
	}

	rows, stats, err := p.Resolve(ctx, extracted)
	if err != nil {
		return nil, err
	}
	result.Rows = rows
	result.Lines = stats.Lines
	result.Names = stats.Names
	result.Offices = stats.Offices
	result.StaffIDs = stats.StaffIDs
	result.Drafted = stats.Drafted
	result.Duration = time.Since(start)

	log.Info("build complete",
		zap.Int("pages", result.Pages),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("rows", len(rows)),
		zap.Int("names", result.Names),
		zap.Int("staff_ids", result.StaffIDs),
		zap.Int("drafted", len(result.Drafted)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// Stats summarises a Resolve run
type Stats struct {
	Lines    int
	Names    int
	Offices  int
	StaffIDs int
	Drafted  []model.MasterRow // Never nil
}

// Resolve runs the stages after extraction: name evaluation, gender,
// office indexing, identity resolution and assembly. It returns exactly
// one row per extracted record.
func (p *Pipeline) Resolve(ctx context.Context, extracted []model.ExtractedRecord) ([]model.MasterRow, Stats, error) {
	// 4. Names and gender
	records := make([]model.ResolvedRecord, len(extracted))
	stats := Stats{Lines: len(extracted)}
	for i := range extracted {
		rec := &records[i]
		rec.ExtractedRecord = extracted[i]
		rec.NameEvaluation = names.Evaluate(extracted[i].NameCandidate)
		rec.GenderLegacy, rec.GenderModern = gender.Apply(rec.NameEvaluation)
		if rec.IsName {
			stats.Names++
		}
	}

	// 5. Office index per (year, gov_level)
	offices, err := office.Build(ctx, extracted)
	if err != nil {
		return nil, stats, fmt.Errorf("index offices: %w", err)
	}
	for _, key := range offices.Partitions() {
		stats.Offices += len(offices.Offices(key))
	}

	// 6. staff_id per (gov_level, office)
	staff, err := p.resolver.Resolve(ctx, records)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve identities: %w", err)
	}
	stats.StaffIDs = staff.Clusters()

	// 7. Assemble
	assemble.Attach(records, offices, staff)
	stats.Drafted = assemble.Drafted(records)
	return assemble.Rows(records), stats, nil
}

func filterPages(pages []ingest.PageFile, only []string) []ingest.PageFile {
	want := make(map[string]bool, len(only))
	for _, path := range only {
		want[filepath.Clean(path)] = true
	}
	var out []ingest.PageFile
	for _, pf := range pages {
		if want[filepath.Clean(pf.Path)] {
			out = append(out, pf)
		}
	}
	return out
}
