// Package report renders a markdown summary of a master table, optionally
// compared against an earlier table.
package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

const sampleSize = 10

// Input names the tables being reported on
type Input struct {
	NewPath string
	New     []model.MasterRow
	OldPath string            // Empty when there is no comparison
	Old     []model.MasterRow // Ignored when OldPath is empty
	// Drafted holds the staff flagged with a conscription marker during a
	// build. The CSV carries no flag, so nil omits the section.
	Drafted []model.MasterRow
}

// Render builds the full markdown report
func Render(in Input) string {
	r := &renderer{p: message.NewPrinter(language.English)}

	r.line("# Tokyo Personnel Data Report\n")
	if in.OldPath != "" {
		r.line("Old file: `%s`  ", in.OldPath)
	}
	r.line("New file: `%s`\n", in.NewPath)

	r.rowCounts(in)
	r.nameFiltering(in.New)
	r.gender(in.New)
	r.staff(in.New)
	r.offices(in.New)
	r.samples(in.New)
	if in.Drafted != nil {
		r.drafted(in.Drafted)
	}

	return r.b.String()
}

type renderer struct {
	b strings.Builder
	p *message.Printer
}

func (r *renderer) line(format string, args ...any) {
	r.b.WriteString(r.p.Sprintf(format, args...))
	r.b.WriteByte('\n')
}

func (r *renderer) section(title string) {
	r.line("\n## %s", title)
}

func (r *renderer) rowCounts(in Input) {
	r.section("1. Row Counts")
	newYears := countBy(in.New, func(row *model.MasterRow) int { return row.Year })

	if in.OldPath == "" {
		r.line("| Metric | Rows |")
		r.line("|--------|------|")
		r.line("| Total rows | %d |", len(in.New))
		r.line("| Unique years | %d |", len(newYears))
		r.line("")
		r.line("**Per-year row counts:**\n")
		r.line("| Year | Rows |")
		r.line("|------|------|")
		for _, y := range sortedKeys(newYears) {
			r.line("| %v | %d |", year(y), newYears[y])
		}
		return
	}

	oldYears := countBy(in.Old, func(row *model.MasterRow) int { return row.Year })
	r.line("| Metric | Old | New |")
	r.line("|--------|-----|-----|")
	r.line("| Total rows | %d | %d |", len(in.Old), len(in.New))
	r.line("| Unique years | %d | %d |", len(oldYears), len(newYears))
	r.line("")
	r.line("**Per-year row counts:**\n")
	r.line("| Year | Old | New | Diff |")
	r.line("|------|-----|-----|------|")

	all := make(map[int]int, len(oldYears)+len(newYears))
	for y := range oldYears {
		all[y] = 0
	}
	for y := range newYears {
		all[y] = 0
	}
	for _, y := range sortedKeys(all) {
		diff := newYears[y] - oldYears[y]
		sign := ""
		if diff > 0 {
			sign = "+"
		}
		r.line("| %v | %d | %d | %s%d |", year(y), oldYears[y], newYears[y], sign, diff)
	}
}

func (r *renderer) nameFiltering(rows []model.MasterRow) {
	r.section("2. Non-Name Filtering")
	names := 0
	var samples []*model.MasterRow
	for i := range rows {
		if rows[i].IsName {
			names++
		} else if len(samples) < sampleSize {
			samples = append(samples, &rows[i])
		}
	}
	nonNames := len(rows) - names

	r.line("| is_name | Count | %% |")
	r.line("|---------|-------|---|")
	r.line("| True | %d | %.1f%% |", names, pct(names, len(rows)))
	r.line("| False | %d | %.1f%% |", nonNames, pct(nonNames, len(rows)))

	if len(samples) == 0 {
		return
	}
	r.line("")
	r.line("**Sample non-name rows (first %d):**\n", sampleSize)
	r.line("| name | office | position | year |")
	r.line("|------|--------|----------|------|")
	for _, row := range samples {
		r.line("| %s | %s | %s | %v |", cell(row.Name), cell(row.Office), cell(row.Position), year(row.Year))
	}
}

func (r *renderer) gender(rows []model.MasterRow) {
	r.section("3. Gender Classification")

	columns := []struct {
		name string
		get  func(*model.MasterRow) model.Gender
	}{
		{"gender_legacy", func(row *model.MasterRow) model.Gender { return row.GenderLegacy }},
		{"gender_modern", func(row *model.MasterRow) model.Gender { return row.GenderModern }},
	}
	for _, col := range columns {
		counts := make(map[model.Gender]int)
		for i := range rows {
			counts[col.get(&rows[i])]++
		}
		r.line("\n**%s:**\n", col.name)
		r.line("| Gender | Count | %% |")
		r.line("|--------|-------|---|")
		for _, g := range []model.Gender{model.GenderFemale, model.GenderMale, model.GenderUnset} {
			label := string(g)
			if g == model.GenderUnset {
				label = "(empty/non-name)"
			}
			r.line("| %s | %d | %.1f%% |", label, counts[g], pct(counts[g], len(rows)))
		}
	}

	both, disagree := 0, 0
	for i := range rows {
		l, m := rows[i].GenderLegacy, rows[i].GenderModern
		if !classified(l) || !classified(m) {
			continue
		}
		both++
		if l != m {
			disagree++
		}
	}
	if both > 0 {
		r.line("\nDisagreement rate (legacy vs modern): %d / %d (%.2f%%)", disagree, both, pct(disagree, both))
	}

	female := make(map[int]int)
	male := make(map[int]int)
	years := make(map[int]int)
	for i := range rows {
		years[rows[i].Year] = 0
		switch rows[i].GenderModern {
		case model.GenderFemale:
			female[rows[i].Year]++
		case model.GenderMale:
			male[rows[i].Year]++
		}
	}
	r.line("\n**Female counts by year (modern method):**\n")
	r.line("| Year | Female | Male | %% Female |")
	r.line("|------|--------|------|----------|")
	for _, y := range sortedKeys(years) {
		f, m := female[y], male[y]
		r.line("| %v | %d | %d | %.1f%% |", year(y), f, m, pct(f, f+m))
	}
}

func (r *renderer) staff(rows []model.MasterRow) {
	r.section("4. Staff ID Statistics")

	withID := 0
	yearsByID := make(map[int]map[int]struct{})
	for i := range rows {
		id := rows[i].StaffID
		if id == 0 {
			continue
		}
		withID++
		if yearsByID[id] == nil {
			yearsByID[id] = make(map[int]struct{})
		}
		yearsByID[id][rows[i].Year] = struct{}{}
	}

	r.line("- Rows with staff_id: %d / %d", withID, len(rows))
	r.line("- Unique staff IDs: %d", len(yearsByID))
	if len(yearsByID) == 0 {
		return
	}

	depth := make(map[int]int)
	total, max := 0, 0
	for _, ys := range yearsByID {
		n := len(ys)
		depth[n]++
		total += n
		if n > max {
			max = n
		}
	}
	r.line("- Mean years per person: %.2f", float64(total)/float64(len(yearsByID)))
	r.line("- Max years per person: %d", max)
	r.line("")
	r.line("**Panel depth distribution:**\n")
	r.line("| Years Observed | Staff Count |")
	r.line("|----------------|-------------|")
	for _, n := range sortedKeys(depth) {
		r.line("| %d | %d |", n, depth[n])
	}
}

func (r *renderer) offices(rows []model.MasterRow) {
	r.section("5. Office Coverage")

	assigned, withID := 0, 0
	unique := make(map[string]struct{})
	perYear := make(map[int]map[string]struct{})
	for i := range rows {
		row := &rows[i]
		if row.Office != model.UnknownOffice {
			assigned++
		}
		if row.OfficeID != 0 {
			withID++
		}
		unique[row.Office] = struct{}{}
		if perYear[row.Year] == nil {
			perYear[row.Year] = make(map[string]struct{})
		}
		perYear[row.Year][row.Office] = struct{}{}
	}

	r.line("- Rows with assigned office: %d / %d (%.1f%%)", assigned, len(rows), pct(assigned, len(rows)))
	r.line("- Unique offices: %d", len(unique))
	r.line("- Rows with office_id: %d", withID)

	r.line("\n**Unique offices per year:**\n")
	r.line("| Year | Unique Offices |")
	r.line("|------|----------------|")
	years := make(map[int]int, len(perYear))
	for y, offices := range perYear {
		years[y] = len(offices)
	}
	for _, y := range sortedKeys(years) {
		r.line("| %v | %d |", year(y), years[y])
	}
}

func (r *renderer) samples(rows []model.MasterRow) {
	r.section(fmt.Sprintf("6. Sample Data (First %d Clean Rows)", sampleSize))

	var clean []*model.MasterRow
	for i := range rows {
		if rows[i].IsName {
			clean = append(clean, &rows[i])
			if len(clean) == sampleSize {
				break
			}
		}
	}
	if len(clean) == 0 {
		r.line("*No clean rows found.*")
		return
	}

	r.line("| year | gov_level | office | position | name | is_name | gender_legacy | gender_modern | staff_id | office_id |")
	r.line("|------|-----------|--------|----------|------|---------|---------------|---------------|----------|-----------|")
	for _, row := range clean {
		r.line("| %v | %s | %s | %s | %s | %t | %s | %s | %v | %v |",
			year(row.Year), row.GovLevel, cell(row.Office), cell(row.Position), cell(row.Name),
			row.IsName, row.GenderLegacy, row.GenderModern, id(row.StaffID), id(row.OfficeID))
	}
}

func (r *renderer) drafted(rows []model.MasterRow) {
	r.section("7. Drafted Staff")
	r.line("- Drafted individuals: %d", len(rows))
	if len(rows) == 0 {
		return
	}

	perYear := countBy(rows, func(row *model.MasterRow) int { return row.Year })
	r.line("")
	r.line("| Year | Drafted |")
	r.line("|------|---------|")
	for _, y := range sortedKeys(perYear) {
		r.line("| %v | %d |", year(y), perYear[y])
	}

	r.line("")
	r.line("| year | office | position | name | staff_id |")
	r.line("|------|--------|----------|------|----------|")
	for i := range rows {
		if i == sampleSize {
			break
		}
		row := &rows[i]
		r.line("| %v | %s | %s | %s | %v |", year(row.Year), cell(row.Office), cell(row.Position), cell(row.Name), id(row.StaffID))
	}
}

func classified(g model.Gender) bool {
	return g == model.GenderFemale || g == model.GenderMale
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// cell escapes the markdown table delimiter
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// year and id print without digit grouping
type year int

func (y year) String() string { return fmt.Sprint(int(y)) }

type id int

func (v id) String() string {
	if v == 0 {
		return ""
	}
	return fmt.Sprint(int(v))
}

func countBy(rows []model.MasterRow, key func(*model.MasterRow) int) map[int]int {
	out := make(map[int]int)
	for i := range rows {
		out[key(&rows[i])]++
	}
	return out
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
