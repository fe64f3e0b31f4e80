package model

import (
	"fmt"
	"strings"
)

// GovLevel identifies which Tokyo government published a directory
type GovLevel string

const (
	GovTokyoShi GovLevel = "TokyoShi" // Tokyo City
	GovTokyoFu  GovLevel = "TokyoFu"  // Tokyo Prefecture
	GovTokyoTo  GovLevel = "TokyoTo"  // Tokyo Metropolis (from 1943)
)

// GovLevels lists every known level in output order
var GovLevels = []GovLevel{GovTokyoShi, GovTokyoFu, GovTokyoTo}

// ParseGovLevel matches a directory name against the known levels (case-insensitive)
func ParseGovLevel(s string) (GovLevel, error) {
	for _, lvl := range GovLevels {
		if strings.EqualFold(strings.TrimSpace(s), string(lvl)) {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("unknown government level %q", s)
}

// RawLine is one OCR-detected text line, immutable once ingested
type RawLine struct {
	Image    string   `json:"image"`            // Crop image file name
	X        int      `json:"x"`                // Columns read right to left
	Y        int      `json:"y"`                // Top to bottom within a column
	Width    int      `json:"width,omitempty"`  // 0 when the OCR output has no extent
	Height   int      `json:"height,omitempty"` // 0 when the OCR output has no extent
	Text     string   `json:"text"`             // Raw recognized string
	Page     int      `json:"page"`             // Source page number
	Year     int      `json:"year"`
	GovLevel GovLevel `json:"gov_level"`
	Seq      int      `json:"seq"`    // Index of the line within its page
	Source   string   `json:"source"` // Page file the line came from
}

// Page is the ordered set of lines read from one page file
type Page struct {
	Source   string    `json:"source"`
	Number   int       `json:"number"`
	Year     int       `json:"year"`
	GovLevel GovLevel  `json:"gov_level"`
	Lines    []RawLine `json:"lines"`
}

// PartitionKey identifies a (year, gov_level) partition
type PartitionKey struct {
	Year     int
	GovLevel GovLevel
}

func (k PartitionKey) String() string {
	return fmt.Sprintf("%s/%d", k.GovLevel, k.Year)
}
