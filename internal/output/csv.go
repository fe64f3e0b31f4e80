// Package output reads and writes the master CSV.
package output

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Write encodes rows with a header. Booleans are true/false; zero IDs and
// unset genders are empty cells.
func Write(w io.Writer, rows []model.MasterRow, withBOM bool) error {
	if withBOM {
		if _, err := w.Write(bom); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(model.MasterColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(record(&rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path through a temp file and rename, so a
// failed run never leaves a truncated master table.
func WriteFile(path string, rows []model.MasterRow, withBOM bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".roster-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, rows, withBOM); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func record(r *model.MasterRow) []string {
	return []string{
		strconv.Itoa(r.Year),
		string(r.GovLevel),
		r.Office,
		optionalInt(r.OfficeID),
		r.Position,
		r.Grade,
		r.Name,
		strconv.FormatBool(r.IsName),
		string(r.GenderLegacy),
		string(r.GenderModern),
		optionalInt(r.StaffID),
		r.Salary,
		r.Rank,
		strconv.Itoa(r.Page),
		r.Image,
		strconv.Itoa(r.X),
		strconv.Itoa(r.Y),
	}
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// Read decodes a master CSV. Columns are located by header name so older
// files with extra or reordered columns still load; a leading BOM is
// ignored.
func Read(r io.Reader) ([]model.MasterRow, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty master table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, required := range []string{"year", "gov_level", "name", "is_name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var rows []model.MasterRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		row, err := parseRow(get)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile opens and decodes a master CSV
func ReadFile(path string) ([]model.MasterRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open master table: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func parseRow(get func(string) string) (model.MasterRow, error) {
	var row model.MasterRow
	var err error

	if row.Year, err = atoi(get("year")); err != nil {
		return row, fmt.Errorf("year: %w", err)
	}
	row.GovLevel = model.GovLevel(get("gov_level"))
	row.Office = get("office")
	if row.OfficeID, err = atoi(get("office_id")); err != nil {
		return row, fmt.Errorf("office_id: %w", err)
	}
	row.Position = get("position")
	row.Grade = get("grade")
	row.Name = get("name")
	row.IsName = parseBool(get("is_name"))
	row.GenderLegacy = model.Gender(get("gender_legacy"))
	row.GenderModern = model.Gender(get("gender_modern"))
	if row.StaffID, err = atoi(get("staff_id")); err != nil {
		return row, fmt.Errorf("staff_id: %w", err)
	}
	row.Salary = get("salary")
	row.Rank = get("rank")
	if row.Page, err = atoi(get("page")); err != nil {
		return row, fmt.Errorf("page: %w", err)
	}
	row.Image = get("image")
	if row.X, err = atoi(get("x")); err != nil {
		return row, fmt.Errorf("x: %w", err)
	}
	if row.Y, err = atoi(get("y")); err != nil {
		return row, fmt.Errorf("y: %w", err)
	}
	return row, nil
}

// atoi accepts empty cells and the float spelling pandas writes for
// integer columns with gaps ("12.0").
func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseBool(s string) bool {
	switch s {
	case "true", "True", "TRUE", "1":
		return true
	}
	return false
}
