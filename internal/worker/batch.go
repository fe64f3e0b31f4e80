package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tokyo-gender/rosterkit/internal/ingest"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

// PageProcessor reads and extracts one page file
type PageProcessor interface {
	ProcessPage(ctx context.Context, page ingest.PageFile) ([]model.ExtractedRecord, error)
}

// PageJob represents one page extraction
type PageJob struct {
	Index     int
	Page      ingest.PageFile
	Processor PageProcessor
	Limiter   *Limiter
}

// Execute executes the page job
func (j *PageJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Page.Partition().String()); err != nil {
			return &PageResult{Index: j.Index, Page: j.Page, Error: err}
		}
	}

	records, err := j.Processor.ProcessPage(ctx, j.Page)
	if err != nil {
		return &PageResult{
			Index: j.Index,
			Page:  j.Page,
			Error: err,
		}
	}
	return &PageResult{
		Index:   j.Index,
		Page:    j.Page,
		Records: records,
	}
}

// PageResult represents the result of a page job
type PageResult struct {
	Index   int
	Page    ingest.PageFile
	Records []model.ExtractedRecord
	Error   error
}

// GetError returns the error from the page result
func (r *PageResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many pages concurrently
type BatchProcessor struct {
	processor   PageProcessor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor throttled by limits
func NewBatchProcessor(processor PageProcessor, concurrency int, limits model.RateLimitingConfig) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
		limiter:     NewLimiterFromConfig(limits),
	}
}

// ProcessPages runs every page and returns results in input order. Pages
// not started before ctx is done have no result.
func (b *BatchProcessor) ProcessPages(ctx context.Context, pages []ingest.PageFile) []*PageResult {
	if len(pages) == 0 {
		return []*PageResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, page := range pages {
			job := &PageJob{
				Index:     i,
				Page:      page,
				Processor: b.processor,
				Limiter:   b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	pageResults := make([]*PageResult, 0, len(pages))
	for result := range pool.Results() {
		pageResults = append(pageResults, result.(*PageResult))
	}
	pool.Shutdown()

	sort.Slice(pageResults, func(i, j int) bool {
		return pageResults[i].Index < pageResults[j].Index
	})

	return pageResults
}

// ReadPageList reads page paths from a file (one per line). Relative
// paths resolve against root.
func ReadPageList(filePath, root string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(root, line)
		}
		line = filepath.Clean(line)

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
