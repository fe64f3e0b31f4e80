package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

func sampleRows() []model.MasterRow {
	return []model.MasterRow{
		{
			Year: 1930, GovLevel: model.GovTokyoShi, Office: "総務局", OfficeID: 2,
			Position: "書記", Grade: "三等", Name: "花子", IsName: true,
			GenderLegacy: model.GenderFemale, GenderModern: model.GenderFemale,
			StaffID: 4, Salary: "四十五", Page: 12, Image: "p12_001.jpg", X: 840, Y: 120,
		},
		{
			Year: 1930, GovLevel: model.GovTokyoShi, Office: "総務局", OfficeID: 2,
			Position: model.UnknownPosition, Name: "図書館蔵", IsName: false,
			Page: 12, Image: "p12_002.jpg", X: 800, Y: 120,
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows(), false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(model.MasterColumns, ","), lines[0])
	assert.Equal(t, "1930,TokyoShi,総務局,2,書記,三等,花子,true,female,female,4,四十五,,12,p12_001.jpg,840,120", lines[1])
	assert.Equal(t, "1930,TokyoShi,総務局,2,Unknown,,図書館蔵,false,,,,,,12,p12_002.jpg,800,120", lines[2])
}

func TestWrite_BOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), bom))
}

func TestReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "master.csv")
	rows := sampleRows()
	require.NoError(t, WriteFile(path, rows, true))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteFile_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteFile(a, sampleRows(), true))
	require.NoError(t, WriteFile(b, sampleRows(), true))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not remain")
}

func TestRead_LegacyColumns(t *testing.T) {
	// Older tables: reordered columns, capitalised booleans, float ids
	in := "name,year,gov_level,is_name,staff_id,extra\n山田太郎,1925,TokyoFu,True,12.0,x\n"
	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "山田太郎", rows[0].Name)
	assert.Equal(t, 1925, rows[0].Year)
	assert.True(t, rows[0].IsName)
	assert.Equal(t, 12, rows[0].StaffID)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Read(strings.NewReader("year,name\n1930,a\n"))
	assert.ErrorContains(t, err, "gov_level")

	_, err = Read(strings.NewReader("year,gov_level,name,is_name\nabc,TokyoShi,a,true\n"))
	assert.ErrorContains(t, err, "line 2")
}
