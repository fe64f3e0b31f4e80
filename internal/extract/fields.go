package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tokyo-gender/rosterkit/internal/jptext"
)

var (
	// salaryRe: a monthly or annual salary marker followed by a run of kanji
	// numerals and an optional currency unit, anywhere in the line
	salaryRe = regexp.MustCompile(`(月俸|年俸|月)([` + jptext.Numerals + `]+)(圓|円)?`)
	// rankRe: court rank such as 正八位, 従七位
	rankRe = regexp.MustCompile(`[正従從][一二三四五六七八九十]位`)
	// gradeRe: civil-service grade prefix such as 七上, 五等, 三級
	gradeRe = regexp.MustCompile(`^[一二三四五六七八九十]+[上中下等級]`)
)

// draftRe marks a staff member called up for military service
var draftRe = regexp.MustCompile(`[應応][召徴]中?|[召徴]中|入[營営]中?|[營営]中`)

// fields is the result of the pattern rules for one line
type fields struct {
	Salary   string
	Rank     string
	Grade    string
	Position string // Canonical title, "" when unmatched
	Residual string
}

func (f fields) hasMetadata() bool {
	return f.Salary != "" || f.Rank != "" || f.Grade != "" || f.Position != ""
}

// splitFields applies salary, rank, grade and position rules in that order,
// removing each matched token before the next rule runs.
func splitFields(text string, cw *Crosswalk) fields {
	var f fields
	rest := text

	if loc := findSalary(rest); loc != nil {
		f.Salary = rest[loc[4]:loc[5]]
		rest = rest[:loc[0]] + rest[loc[1]:]
	}

	if loc := rankRe.FindStringIndex(rest); loc != nil {
		f.Rank = rest[loc[0]:loc[1]]
		rest = rest[:loc[0]] + rest[loc[1]:]
	}

	if loc := gradeRe.FindStringIndex(rest); loc != nil {
		f.Grade = rest[loc[0]:loc[1]]
		rest = rest[loc[1]:]
	}

	if cw != nil {
		if canon, n, ok := cw.Match(rest); ok {
			f.Position = canon
			rest = rest[n:]
		}
	}

	f.Residual = rest
	return f
}

// findSalary returns the submatch indexes of the first salary in text.
// A bare 月 glued to a preceding Han character may be the tail of a surname
// such as 望月, so it only counts when the numerals are closed by a unit or
// the end of the line, or run to at least two digits.
func findSalary(text string) []int {
	for _, loc := range salaryRe.FindAllStringSubmatchIndex(text, -1) {
		marker := text[loc[2]:loc[3]]
		if marker != "月" || loc[0] == 0 {
			return loc
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
		if !unicode.Is(unicode.Han, prev) {
			return loc
		}
		if loc[6] >= 0 || loc[1] == len(text) || utf8.RuneCountInString(text[loc[4]:loc[5]]) >= 2 {
			return loc
		}
	}
	return nil
}

func isDrafted(text string) bool {
	return draftRe.MatchString(text)
}

// markerOnly reports whether nothing but conscription markers and
// punctuation is left in a name candidate
func markerOnly(candidate string) bool {
	rest := draftRe.ReplaceAllString(candidate, "")
	return strings.TrimFunc(rest, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) == ""
}
