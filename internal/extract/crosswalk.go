package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tokyo-gender/rosterkit/internal/jptext"
)

// TitleColumns are the crosswalk columns that hold raw Japanese titles
var TitleColumns = []string{"Japanese", "DuringWar", "TokyoFu", "Merged", "BeforeWar", "AfterWar"}

// Crosswalk maps raw position titles to canonical titles. Read-only after
// load, so one instance is shared by every page worker.
type Crosswalk struct {
	canonical map[string]string
	titles    []string // longest first, then lexical
}

// NewCrosswalk builds a crosswalk from raw→canonical pairs
func NewCrosswalk(pairs map[string]string) *Crosswalk {
	cw := &Crosswalk{canonical: make(map[string]string, len(pairs))}
	for raw, canon := range pairs {
		raw = jptext.Normalize(raw)
		if raw == "" {
			continue
		}
		canon = strings.TrimSpace(canon)
		if canon == "" {
			canon = raw
		}
		cw.canonical[raw] = canon
	}
	for raw := range cw.canonical {
		cw.titles = append(cw.titles, raw)
	}
	sort.Slice(cw.titles, func(i, j int) bool {
		li, lj := jptext.Len(cw.titles[i]), jptext.Len(cw.titles[j])
		if li != lj {
			return li > lj
		}
		return cw.titles[i] < cw.titles[j]
	})
	return cw
}

// LoadCrosswalk reads PositionCrosswalk.csv. Titles come from every
// TitleColumns column present; the canonical title is the value of
// canonicalColumn in the same row, or the raw title when that is empty.
// When a raw title appears in several rows the first row wins.
func LoadCrosswalk(path, canonicalColumn string) (*Crosswalk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open crosswalk: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCrosswalk(f, canonicalColumn)
}

// ReadCrosswalk parses crosswalk CSV content
func ReadCrosswalk(r io.Reader, canonicalColumn string) (*Crosswalk, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewCrosswalk(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read crosswalk header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	var titleIdx []int
	for _, col := range TitleColumns {
		if i, ok := index[col]; ok {
			titleIdx = append(titleIdx, i)
		}
	}
	// Files without any known column use their first column
	if len(titleIdx) == 0 && len(header) > 0 {
		titleIdx = []int{0}
	}
	canonIdx, hasCanon := index[canonicalColumn]

	pairs := make(map[string]string)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read crosswalk row: %w", err)
		}

		canon := ""
		if hasCanon && canonIdx < len(record) {
			canon = strings.TrimSpace(record[canonIdx])
		}
		for _, i := range titleIdx {
			if i >= len(record) {
				continue
			}
			raw := strings.TrimSpace(record[i])
			if raw == "" {
				continue
			}
			if _, seen := pairs[raw]; !seen {
				pairs[raw] = canon
			}
		}
	}

	return NewCrosswalk(pairs), nil
}

// Len returns the number of raw titles
func (c *Crosswalk) Len() int {
	return len(c.titles)
}

// Match finds the title at the start of text: an exact match first, else
// the longest title that prefixes text. It returns the canonical title
// and the matched raw prefix length in bytes.
func (c *Crosswalk) Match(text string) (canonical string, n int, ok bool) {
	if text == "" {
		return "", 0, false
	}
	if canon, exact := c.canonical[text]; exact {
		return canon, len(text), true
	}
	for _, title := range c.titles {
		if strings.HasPrefix(text, title) {
			return c.canonical[title], len(title), true
		}
	}
	return "", 0, false
}
