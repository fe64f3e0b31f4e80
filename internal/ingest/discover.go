package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Format is the OCR output flavour of a page file
type Format string

const (
	FormatXML  Format = "xml"  // NDL OCR XML or ALTO
	FormatHOCR Format = "hocr" // hOCR (HTML)
	FormatJSON Format = "json" // Line array with bounding boxes
)

// unknownPageNumber sorts pages without a number after numbered ones
const unknownPageNumber = 999999

var (
	pagePathRe  = regexp.MustCompile(`Page(\d+)`)
	firstDigits = regexp.MustCompile(`(\d+)`)
)

// PageFile is one discovered page awaiting parsing
type PageFile struct {
	Path     string
	Format   Format
	Number   int
	Year     int
	GovLevel model.GovLevel
}

// Partition returns the (year, gov_level) partition of the page
func (p PageFile) Partition() model.PartitionKey {
	return model.PartitionKey{Year: p.Year, GovLevel: p.GovLevel}
}

// Discovery is the result of walking an input tree
type Discovery struct {
	Pages   []PageFile
	Skipped []error // Directories that did not fit <gov_level>/<year>
}

// Discover walks root/<GovLevel>/<Year>/** and returns page files in a
// stable order: gov level, year, page number, path.
func Discover(root string) (*Discovery, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", root)
	}

	levels, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input root: %w", err)
	}

	result := &Discovery{}
	for _, levelEntry := range levels {
		if !levelEntry.IsDir() || strings.HasPrefix(levelEntry.Name(), ".") {
			continue
		}
		levelDir := filepath.Join(root, levelEntry.Name())
		level, err := model.ParseGovLevel(levelEntry.Name())
		if err != nil {
			result.Skipped = append(result.Skipped, malformed(levelDir, "not a government level directory", err))
			continue
		}

		years, err := os.ReadDir(levelDir)
		if err != nil {
			result.Skipped = append(result.Skipped, malformed(levelDir, "unreadable directory", err))
			continue
		}
		for _, yearEntry := range years {
			if !yearEntry.IsDir() || strings.HasPrefix(yearEntry.Name(), ".") {
				continue
			}
			yearDir := filepath.Join(levelDir, yearEntry.Name())
			year, err := strconv.Atoi(yearEntry.Name())
			if err != nil {
				result.Skipped = append(result.Skipped, malformed(yearDir, "not a year directory", err))
				continue
			}

			pages, err := walkYear(yearDir, year, level)
			if err != nil {
				result.Skipped = append(result.Skipped, malformed(yearDir, "walk failed", err))
				continue
			}
			result.Pages = append(result.Pages, pages...)
		}
	}

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("%s: %w", root, ErrNoInput)
	}

	sort.SliceStable(result.Pages, func(i, j int) bool {
		a, b := result.Pages[i], result.Pages[j]
		if a.GovLevel != b.GovLevel {
			return levelOrder(a.GovLevel) < levelOrder(b.GovLevel)
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.Path < b.Path
	})

	return result, nil
}

func walkYear(dir string, year int, level model.GovLevel) ([]PageFile, error) {
	var pages []PageFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		format, ok := FormatOf(path)
		if !ok {
			return nil
		}
		// METS manifests describe the volume, not a page
		if strings.Contains(strings.ToLower(d.Name()), "mets") {
			return nil
		}
		pages = append(pages, PageFile{
			Path:     path,
			Format:   format,
			Number:   PageNumber(path),
			Year:     year,
			GovLevel: level,
		})
		return nil
	})
	return pages, err
}

// FormatOf picks the parser for a file by extension
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, true
	case ".hocr", ".html", ".htm":
		return FormatHOCR, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// PageNumber reads "PageNNN" from anywhere in the path, else the first
// digit run of the file name.
func PageNumber(path string) int {
	if m := pagePathRe.FindStringSubmatch(filepath.ToSlash(path)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := firstDigits.FindStringSubmatch(filepath.Base(path)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return unknownPageNumber
}

func levelOrder(l model.GovLevel) int {
	for i, known := range model.GovLevels {
		if known == l {
			return i
		}
	}
	return len(model.GovLevels)
}
