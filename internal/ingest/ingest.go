package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tokyo-gender/rosterkit/internal/cache"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Ingestor turns page files into ordered RawLine records
type Ingestor struct {
	cache       cache.Cache // nil disables caching
	sortColumns bool
	tolerance   int
}

// NewIngestor creates an ingestor; c may be nil
func NewIngestor(c cache.Cache, cfg model.IngestConfig) *Ingestor {
	tolerance := cfg.ColumnTolerance
	if tolerance <= 0 {
		tolerance = 30
	}
	return &Ingestor{
		cache:       c,
		sortColumns: cfg.SortColumns,
		tolerance:   tolerance,
	}
}

// ReadPage parses one page file. A *MalformedInputError means the page
// must be skipped; any other error is an I/O failure on the same terms.
func (in *Ingestor) ReadPage(ctx context.Context, pf PageFile) (*model.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(pf.Path)
	if err != nil {
		return nil, malformed(pf.Path, "unreadable", err)
	}

	lines, err := in.parse(pf, data)
	if err != nil {
		return nil, err
	}

	if in.sortColumns {
		lines = sortByCrop(lines, in.tolerance)
	}

	page := &model.Page{
		Source:   pf.Path,
		Number:   pf.Number,
		Year:     pf.Year,
		GovLevel: pf.GovLevel,
		Lines:    make([]model.RawLine, len(lines)),
	}
	for i, l := range lines {
		page.Lines[i] = model.RawLine{
			Image:    l.Image,
			X:        l.X,
			Y:        l.Y,
			Width:    l.Width,
			Height:   l.Height,
			Text:     l.Text,
			Page:     pf.Number,
			Year:     pf.Year,
			GovLevel: pf.GovLevel,
			Seq:      i,
			Source:   pf.Path,
		}
	}
	return page, nil
}

// parse returns the crop lines of a file, through the cache when enabled
func (in *Ingestor) parse(pf PageFile, data []byte) ([]cropLine, error) {
	var key string
	if in.cache != nil {
		key = cache.PageKey(data, string(pf.Format))
		if cached, ok := in.cache.Get(key); ok {
			var lines []cropLine
			if err := json.Unmarshal(cached, &lines); err == nil {
				return lines, nil
			}
			_ = in.cache.Delete(key)
		}
	}

	var lines []cropLine
	var err error
	switch pf.Format {
	case FormatXML:
		lines, err = parseXML(pf.Path, data)
	case FormatHOCR:
		lines, err = parseHOCR(pf.Path, data)
	case FormatJSON:
		lines, err = parseJSON(pf.Path, data)
	default:
		err = malformed(pf.Path, fmt.Sprintf("unsupported format %q", pf.Format), nil)
	}
	if err != nil {
		return nil, err
	}

	if in.cache != nil {
		if encoded, mErr := json.Marshal(lines); mErr == nil {
			_ = in.cache.Set(key, encoded, 0)
		}
	}
	return lines, nil
}
