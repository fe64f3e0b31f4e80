// Package names cleans name candidates and decides whether they are
// plausible personal names. Rows that fail keep is_name=false; nothing
// is ever dropped here.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tokyo-gender/rosterkit/internal/jptext"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Name length bounds in runes, inclusive
const (
	MinRunes = 2
	MaxRunes = 8
)

// Reason explains a plausibility verdict
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonEmpty        Reason = "empty"
	ReasonSingleChar   Reason = "single character"
	ReasonTooLong      Reason = "too long"
	ReasonNotJapanese  Reason = "not CJK-dominated"
	ReasonLatin        Reason = "Latin-dominated"
	ReasonParticle     Reason = "particle fragment"
	ReasonLibraryStamp Reason = "library stamp"
	ReasonAddress      Reason = "phone or address"
	ReasonNoise        Reason = "OCR noise"
)

var (
	// metadataRe covers appointment classes, status and conscription
	// markers that survive field extraction.
	metadataRe = regexp.MustCompile(`勅任|奏任|判任|[一二三四五六七八九十]+等|技手|嘱託|兼務|休職|待命|出向|[應応][召徴]中?|[召徴]中|入[營営]中?|[營営]中`)

	addressRe = regexp.MustCompile(`電話|TEL|Tel|tel|番地|丁目|[0-9` + jptext.Numerals + `]+番|町[0-9一二三四五六七八九十]|[0-9]{2,}|[` + jptext.Numerals + `]{3,}`)

	noiseRe = regexp.MustCompile(`[0-9]|\.\.|…|‥|・・|※|■|□|●|○|▲|△|\?|�`)

	libraryStamps = []string{
		"図書", "圖書", "蔵書", "藏書", "文庫", "登録", "登錄", "番号", "番號",
		"寄贈", "請求", "国立", "國立", "帝国", "帝國", "禁帯出", "複写", "複寫", "受入", "整理",
	}

	particles = []string{
		"より", "から", "まで", "など", "及び", "および",
		"の", "に", "は", "を", "が", "と", "へ", "で", "や", "も",
		"ノ", "ニ", "ハ", "ヲ", "ガ", "ト", "ヘ", "デ", "ヤ", "モ",
	}
)

// dittoMark repeats the entry above it in the directory
const dittoMark = "〃"

// Clean strips residual metadata tokens, punctuation, symbols and
// whitespace from a name candidate.
func Clean(candidate string) string {
	s := jptext.Normalize(candidate)
	s = metadataRe.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}

// Evaluate cleans a candidate and computes is_name
func Evaluate(candidate string) model.NameEvaluation {
	eval, _ := Explain(candidate)
	return eval
}

// Explain is Evaluate plus the first failing check
func Explain(candidate string) (model.NameEvaluation, Reason) {
	raw := strings.ReplaceAll(jptext.Normalize(candidate), dittoMark, "")
	name := Clean(candidate)
	eval := model.NameEvaluation{Name: name}

	n := jptext.Len(name)
	switch {
	case n == 0:
		return eval, ReasonEmpty
	case n < MinRunes:
		return eval, ReasonSingleChar
	case n > MaxRunes:
		return eval, ReasonTooLong
	}

	if jptext.Share(name, jptext.IsLatin) > 0.5 {
		return eval, ReasonLatin
	}
	if jptext.Share(name, jptext.IsJapanese) <= 0.5 {
		return eval, ReasonNotJapanese
	}
	if onlyParticles(name) {
		return eval, ReasonParticle
	}
	for _, stamp := range libraryStamps {
		if strings.Contains(name, stamp) {
			return eval, ReasonLibraryStamp
		}
	}
	if addressRe.MatchString(raw) {
		return eval, ReasonAddress
	}
	if noiseRe.MatchString(raw) || repeats(name, 3) {
		return eval, ReasonNoise
	}

	eval.IsName = true
	return eval, ReasonOK
}

// repeats reports a run of at least k identical runes
func repeats(s string, k int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= k {
			return true
		}
	}
	return false
}

// onlyParticles reports whether s splits entirely into grammatical particles
func onlyParticles(s string) bool {
	// reach[i]: s[:i] splits into particles
	reach := make([]bool, len(s)+1)
	reach[0] = true
	for i := 0; i < len(s); i++ {
		if !reach[i] {
			continue
		}
		for _, p := range particles {
			if strings.HasPrefix(s[i:], p) {
				reach[i+len(p)] = true
			}
		}
	}
	return reach[len(s)]
}
