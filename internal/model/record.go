package model

// UnknownOffice is the office applied to lines seen before any header on a page
const UnknownOffice = "Unknown Office"

// UnknownPosition marks a line whose position title matched nothing in the crosswalk
const UnknownPosition = "Unknown"

// ExtractedRecord is a RawLine plus the fields pulled out of its text
type ExtractedRecord struct {
	RawLine

	Office        string `json:"office"`
	Position      string `json:"position"`
	Grade         string `json:"grade,omitempty"`
	Salary        string `json:"salary,omitempty"` // Kanji numerals, as printed
	Rank          string `json:"rank,omitempty"`
	NameCandidate string `json:"name_candidate"`
	IsHeader      bool   `json:"is_header"` // Line set the running office
	Drafted       bool   `json:"drafted"`   // Line carries a conscription marker
}

// NameEvaluation is the cleaned name and its plausibility verdict
type NameEvaluation struct {
	Name   string `json:"name"`
	IsName bool   `json:"is_name"`
}

// Gender is the output of a gender rule set; the zero value means unset
type Gender string

const (
	GenderUnset   Gender = ""
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderUnknown Gender = "unknown"
)

// ResolvedRecord carries everything the assembler joins into a MasterRow
type ResolvedRecord struct {
	ExtractedRecord
	NameEvaluation

	GenderLegacy Gender
	GenderModern Gender
	OfficeID     int // 0 when unassigned
	StaffID      int // 0 when unset (is_name=false)
}
