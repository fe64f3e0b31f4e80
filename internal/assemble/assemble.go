// Package assemble joins resolved records into master table rows.
package assemble

import (
	"sort"

	"github.com/tokyo-gender/rosterkit/internal/identity"
	"github.com/tokyo-gender/rosterkit/internal/model"
	"github.com/tokyo-gender/rosterkit/internal/office"
)

// Attach fills OfficeID and StaffID on every record from the two indexes.
// Records with IsName=false keep StaffID 0.
func Attach(records []model.ResolvedRecord, offices *office.Index, staff *identity.Assignment) {
	for i := range records {
		rec := &records[i]
		key := model.PartitionKey{Year: rec.Year, GovLevel: rec.GovLevel}
		rec.OfficeID = offices.Lookup(key, rec.Office)
		if rec.IsName {
			rec.StaffID = staff.StaffID(identity.Scope{GovLevel: rec.GovLevel, Office: rec.Office}, rec.Name)
		} else {
			rec.StaffID = 0
		}
	}
}

// Rows flattens records into one MasterRow each, ordered by year,
// gov_level, page, source file and line sequence.
func Rows(records []model.ResolvedRecord) []model.MasterRow {
	rows := make([]model.MasterRow, len(records))
	order := make([]int, len(records))
	for i := range records {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lineLess(&records[order[a]].RawLine, &records[order[b]].RawLine)
	})

	for i, idx := range order {
		rows[i] = Row(&records[idx])
	}
	return rows
}

// Drafted returns the rows of named staff flagged with a conscription
// marker, in row order. The result is never nil.
func Drafted(records []model.ResolvedRecord) []model.MasterRow {
	return Rows(flagged(records))
}

func flagged(records []model.ResolvedRecord) []model.ResolvedRecord {
	var out []model.ResolvedRecord
	for i := range records {
		if records[i].IsName && records[i].Drafted {
			out = append(out, records[i])
		}
	}
	return out
}

// Row converts a single record. Gender and staff_id stay unset unless the
// name is plausible.
func Row(rec *model.ResolvedRecord) model.MasterRow {
	row := model.MasterRow{
		Year:     rec.Year,
		GovLevel: rec.GovLevel,
		Office:   rec.Office,
		OfficeID: rec.OfficeID,
		Position: rec.Position,
		Grade:    rec.Grade,
		Name:     rec.Name,
		IsName:   rec.IsName,
		Salary:   rec.Salary,
		Rank:     rec.Rank,
		Page:     rec.Page,
		Image:    rec.Image,
		X:        rec.X,
		Y:        rec.Y,
	}
	if rec.IsName {
		row.GenderLegacy = rec.GenderLegacy
		row.GenderModern = rec.GenderModern
		row.StaffID = rec.StaffID
	}
	return row
}

func lineLess(a, b *model.RawLine) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.GovLevel != b.GovLevel {
		return govOrder(a.GovLevel) < govOrder(b.GovLevel)
	}
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Seq < b.Seq
}

func govOrder(g model.GovLevel) int {
	for i, lvl := range model.GovLevels {
		if lvl == g {
			return i
		}
	}
	return len(model.GovLevels)
}
