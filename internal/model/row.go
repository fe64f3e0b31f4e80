package model

// MasterColumns is the fixed column order of the master CSV
var MasterColumns = []string{
	"year", "gov_level", "office", "office_id", "position", "grade", "name",
	"is_name", "gender_legacy", "gender_modern", "staff_id", "salary", "rank",
	"page", "image", "x", "y",
}

// MasterRow is one flattened output row; one per input RawLine
type MasterRow struct {
	Year         int
	GovLevel     GovLevel
	Office       string
	OfficeID     int
	Position     string
	Grade        string
	Name         string
	IsName       bool
	GenderLegacy Gender
	GenderModern Gender
	StaffID      int
	Salary       string
	Rank         string
	Page         int
	Image        string
	X            int
	Y            int
}
