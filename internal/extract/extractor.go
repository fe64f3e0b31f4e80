package extract

import (
	"strings"

	"github.com/tokyo-gender/rosterkit/internal/jptext"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

var (
	// circleMarkers open office headers in directories printed with them
	circleMarkers = []string{"◎", "〇", "○", "O", "o", "0", "〓"}
	// officeSuffixes end the names of bureaus, sections and facilities
	officeSuffixes = []string{"課", "係", "所", "房", "合", "院", "室", "場", "局", "屋", "寮", "館", "ム", "班", "部", "衛", "宿", "校", "康"}
)

// PageState is the running state of one page: the office header in force.
// A fresh state is created per page, so pages never share it.
type PageState struct {
	Office string
}

// NewPageState returns the state at the top of a page
func NewPageState() *PageState {
	return &PageState{Office: model.UnknownOffice}
}

// Extractor splits OCR lines into roster fields
type Extractor struct {
	crosswalk      *Crosswalk
	circleMarkers  bool
	headerMaxRunes int
}

// NewExtractor creates an extractor; a nil crosswalk matches no positions
func NewExtractor(cw *Crosswalk, cfg model.ExtractConfig) *Extractor {
	if cw == nil {
		cw = NewCrosswalk(nil)
	}
	maxRunes := cfg.HeaderMaxRunes
	if maxRunes <= 0 {
		maxRunes = 10
	}
	return &Extractor{
		crosswalk:      cw,
		circleMarkers:  cfg.CircleMarkers,
		headerMaxRunes: maxRunes,
	}
}

// ExtractPage processes the lines of one page in order with a fresh PageState.
// A line holding only a conscription marker moves its flag to the nearest
// person above it on the same page.
func (e *Extractor) ExtractPage(page *model.Page) []model.ExtractedRecord {
	state := NewPageState()
	records := make([]model.ExtractedRecord, len(page.Lines))
	person := -1
	for i, line := range page.Lines {
		rec := e.ExtractLine(state, line, i < len(page.Lines)-1)
		switch {
		case rec.Drafted && markerOnly(rec.NameCandidate):
			rec.Drafted = false
			if person >= 0 {
				records[person].Drafted = true
			}
		case !rec.IsHeader && rec.NameCandidate != "":
			person = i
		}
		records[i] = rec
	}
	return records
}

// ExtractLine extracts one line. followed reports whether more lines come
// after it on the page; a header must be followed by roster rows.
func (e *Extractor) ExtractLine(state *PageState, line model.RawLine, followed bool) model.ExtractedRecord {
	text := jptext.Normalize(line.Text)
	f := splitFields(text, e.crosswalk)

	rec := model.ExtractedRecord{
		RawLine:       line,
		Grade:         f.Grade,
		Salary:        f.Salary,
		Rank:          f.Rank,
		Position:      model.UnknownPosition,
		NameCandidate: f.Residual,
		Drafted:       isDrafted(text),
	}
	if f.Position != "" {
		rec.Position = f.Position
	}

	if followed && !f.hasMetadata() {
		if office, ok := e.officeHeader(text); ok {
			state.Office = office
			rec.IsHeader = true
			rec.NameCandidate = ""
		}
	}

	rec.Office = state.Office
	return rec
}

// officeHeader decides whether a metadata-free line names an office and
// returns the office name without its circle marker.
func (e *Extractor) officeHeader(text string) (string, bool) {
	marker := ""
	for _, m := range circleMarkers {
		if strings.HasPrefix(text, m) {
			marker = m
			break
		}
	}
	name := strings.TrimPrefix(text, marker)

	n := jptext.Len(name)
	if n < 2 || n > e.headerMaxRunes {
		return "", false
	}
	if jptext.Share(name, jptext.IsJapanese) < 1 {
		return "", false
	}

	if e.circleMarkers {
		if marker == "" || !containsAny(name, officeSuffixes) {
			return "", false
		}
		return name, true
	}

	for _, s := range officeSuffixes {
		if strings.HasSuffix(name, s) {
			return name, true
		}
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
