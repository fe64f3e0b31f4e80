// Package jptext holds the small set of Japanese text helpers shared by
// extraction, name filtering and gender classification.
package jptext

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Numerals are the kanji digits used for salaries, grades and ranks
const Numerals = "一二三四五六七八九十百千〇"

// Normalize applies NFKC and removes every whitespace rune. NFKC folds
// full-width Latin and digits and half-width katakana into their
// canonical forms, and turns the ideographic space into a plain space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsJapanese reports whether r is Han, hiragana, katakana or one of the
// iteration and prolonged-sound marks that appear inside names.
func IsJapanese(r rune) bool {
	switch r {
	case '々', '〆', 'ー', '〇', 'ヶ', 'ヵ':
		return true
	}
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}

// IsLatin reports whether r is a Latin letter
func IsLatin(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}

// Len counts runes
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Share returns the fraction of runes in s matching pred
func Share(s string, pred func(rune) bool) float64 {
	total, hits := 0, 0
	for _, r := range s {
		total++
		if pred(r) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
