// Package gender maps plausible names to a gender with fixed, versioned
// rule sets. Each Method is an independent pure function; the outputs of
// different methods are stored side by side and never merged.
package gender

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tokyo-gender/rosterkit/internal/jptext"
	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Method names a rule set
type Method string

const (
	Legacy Method = "legacy"
	Modern Method = "modern"
)

// Methods lists every rule set in output column order
var Methods = []Method{Legacy, Modern}

// RuleSet is the data behind one method
type RuleSet struct {
	Suffixes []string // Female when the name ends with any of these
	Prefix   *regexp.Regexp
	Katakana []string // Female given names written in katakana
	Surnames []string // Whole names that end like a female name but are surnames
}

var femalePrefix = regexp.MustCompile(`^小?佐?美`)

var legacySuffixes = []string{"子", "枝", "江", "代", "紀", "美", "恵", "貴", "婦"}

var legacySurnames = []string{"金子", "増子", "尼子", "砂子", "白子", "呼子", "舞子", "神子"}

var rules = map[Method]RuleSet{
	Legacy: {
		Suffixes: legacySuffixes,
		Prefix:   femalePrefix,
		Surnames: legacySurnames,
	},
	Modern: {
		Suffixes: append(append([]string{}, legacySuffixes...), "乃", "花", "世", "奈", "穂", "織", "里", "香"),
		Prefix:   femalePrefix,
		Katakana: []string{
			"ヨシ", "キヨ", "ハナ", "ハル", "フミ", "トミ", "チヨ", "シズ", "ウメ", "マツ", "キク", "ツル",
			"タケ", "スミ", "ミツ", "ナツ", "カネ", "イネ", "ユキ", "ハツ", "ツネ", "ミヨ", "キミ", "スエ", "ミエ",
		},
		Surnames: append(append([]string{}, legacySurnames...), "平子", "星子", "鳴子", "猪子", "舟子", "我孫子"),
	},
}

// ParseMethod validates a method name
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rules[m]; !ok {
		return "", fmt.Errorf("unknown gender method %q (supported: legacy, modern)", s)
	}
	return m, nil
}

// Classify applies a method to a plausible name. Callers only pass names
// with is_name=true. The result is Female or Male for any non-empty name;
// Unknown is returned for an empty name or an unknown method.
func Classify(name string, m Method) model.Gender {
	rs, ok := rules[m]
	if !ok || name == "" {
		return model.GenderUnknown
	}
	return rs.Classify(name)
}

// Classify evaluates suffix and pattern rules first, then the surname
// blocklist, which vetoes them; anything left is Male.
func (rs RuleSet) Classify(name string) model.Gender {
	female := rs.matchesFemale(name)
	if female && rs.isBlockedSurname(name) {
		female = false
	}
	if female {
		return model.GenderFemale
	}
	return model.GenderMale
}

func (rs RuleSet) matchesFemale(name string) bool {
	for _, s := range rs.Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	if rs.Prefix != nil && rs.Prefix.MatchString(name) {
		return true
	}
	return rs.matchesKatakana(name)
}

// matchesKatakana requires whole-name equality for names of two runes or
// fewer; longer names match on substring.
func (rs RuleSet) matchesKatakana(name string) bool {
	short := jptext.Len(name) <= 2
	for _, k := range rs.Katakana {
		if short {
			if name == k {
				return true
			}
		} else if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func (rs RuleSet) isBlockedSurname(name string) bool {
	for _, s := range rs.Surnames {
		if name == s {
			return true
		}
	}
	return false
}

// Apply sets both gender fields from a name evaluation; non-names stay unset
func Apply(eval model.NameEvaluation) (legacy, modern model.Gender) {
	if !eval.IsName {
		return model.GenderUnset, model.GenderUnset
	}
	return Classify(eval.Name, Legacy), Classify(eval.Name, Modern)
}
