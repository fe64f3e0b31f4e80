package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyo-gender/rosterkit/internal/extract"
	"github.com/tokyo-gender/rosterkit/internal/ingest"
	"github.com/tokyo-gender/rosterkit/internal/model"
	"github.com/tokyo-gender/rosterkit/internal/output"
)

func ndl(image string, lines ...string) string {
	s := `<?xml version="1.0" encoding="utf-8"?><OCRDATASET><PAGE IMAGENAME="` + image + `">`
	x := 900
	for _, l := range lines {
		s += `<LINE STRING="` + l + `" X="` + strconv.Itoa(x) + `" Y="10" WIDTH="40" HEIGHT="300"/>`
		x -= 50
	}
	return s + `</PAGE></OCRDATASET>`
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"TokyoShi/1930/Page001.xml": ndl("Page001.jpg", "総務局", "技師山田よし子", "書記山田よし", "主事花子"),
		"TokyoShi/1930/Page002.xml": ndl("Page002.jpg", "教育局", "技師山田よし子"),
		"TokyoShi/1930/Page003.xml": `<OCRDATASET><PAGE IMAGENAME="Page003.jpg"><LINE STRING="山田"/></PAGE></OCRDATASET>`,
		"TokyoShi/1931/Page001.xml": ndl("Page001.jpg", "総務局", "技師山田よし子"),
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func testPipeline() *Pipeline {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 2
	cw := extract.NewCrosswalk(map[string]string{"技師": "技師", "書記": "書記", "主事": "主事"})
	return NewPipeline(cfg, cw, nil, nil)
}

func TestBuild(t *testing.T) {
	root := writeTree(t)
	result, err := testPipeline().Build(context.Background(), root, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Pages)
	require.Len(t, result.Skipped, 1)
	assert.Contains(t, result.Skipped[0].Path, "Page003.xml")

	// One row per line of every readable page
	require.Len(t, result.Rows, 8)
	assert.Equal(t, 8, result.Lines)

	byName := make(map[string][]model.MasterRow)
	for _, row := range result.Rows {
		byName[row.Name] = append(byName[row.Name], row)
	}

	header := result.Rows[0]
	assert.Equal(t, "総務局", header.Office)
	assert.False(t, header.IsName)
	assert.Zero(t, header.StaffID)
	assert.Equal(t, model.GenderUnset, header.GenderLegacy)

	hanako := byName["花子"]
	require.Len(t, hanako, 1)
	assert.True(t, hanako[0].IsName)
	assert.Equal(t, model.GenderFemale, hanako[0].GenderLegacy)
	assert.Equal(t, model.GenderFemale, hanako[0].GenderModern)
	assert.Equal(t, "主事", hanako[0].Position)

	yoshiko := byName["山田よし子"]
	require.Len(t, yoshiko, 3)
	yoshi := byName["山田よし"]
	require.Len(t, yoshi, 1)

	var soumu1930, kyoiku1930, soumu1931 model.MasterRow
	for _, row := range yoshiko {
		switch {
		case row.Office == "総務局" && row.Year == 1930:
			soumu1930 = row
		case row.Office == "教育局":
			kyoiku1930 = row
		case row.Office == "総務局" && row.Year == 1931:
			soumu1931 = row
		}
	}
	// Fuzzy merge within the office, tracked across years
	assert.Equal(t, soumu1930.StaffID, yoshi[0].StaffID)
	assert.Equal(t, soumu1930.StaffID, soumu1931.StaffID)
	// Never across offices
	assert.NotEqual(t, soumu1930.StaffID, kyoiku1930.StaffID)
	assert.Equal(t, 3, result.StaffIDs)

	// office_id is per (year, gov_level): 教育局 < 総務局
	assert.Equal(t, 1, kyoiku1930.OfficeID)
	assert.Equal(t, 2, soumu1930.OfficeID)
	assert.Equal(t, 1, soumu1931.OfficeID)

	for _, row := range result.Rows {
		if row.IsName {
			assert.Contains(t, []model.Gender{model.GenderFemale, model.GenderMale}, row.GenderLegacy)
			assert.Contains(t, []model.Gender{model.GenderFemale, model.GenderMale}, row.GenderModern)
			assert.NotZero(t, row.StaffID)
		} else {
			assert.Equal(t, model.GenderUnset, row.GenderModern)
			assert.Zero(t, row.StaffID)
		}
	}
}

func TestBuild_ByteIdenticalReruns(t *testing.T) {
	root := writeTree(t)

	var outputs [][]byte
	var rows [][]model.MasterRow
	for i := 0; i < 2; i++ {
		result, err := testPipeline().Build(context.Background(), root, nil)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, output.Write(&buf, result.Rows, true))
		outputs = append(outputs, buf.Bytes())
		rows = append(rows, result.Rows)
	}
	if diff := cmp.Diff(rows[0], rows[1]); diff != "" {
		t.Errorf("rerun rows differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, outputs[0], outputs[1])
}

func TestBuild_PageList(t *testing.T) {
	root := writeTree(t)
	only := []string{filepath.Join(root, "TokyoShi", "1931", "Page001.xml")}

	result, err := testPipeline().Build(context.Background(), root, only)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, result.Rows, 2)

	_, err = testPipeline().Build(context.Background(), root, []string{"/nowhere.xml"})
	assert.True(t, errors.Is(err, ingest.ErrNoInput))
}

func TestBuild_NoInput(t *testing.T) {
	_, err := testPipeline().Build(context.Background(), t.TempDir(), nil)
	assert.True(t, errors.Is(err, ingest.ErrNoInput))
}

func TestBuild_Canceled(t *testing.T) {
	root := writeTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline().Build(ctx, root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_RowPerRecord(t *testing.T) {
	extracted := []model.ExtractedRecord{
		{RawLine: model.RawLine{Year: 1930, GovLevel: model.GovTokyoFu, Seq: 0}, Office: "A局", NameCandidate: "田中花子"},
		{RawLine: model.RawLine{Year: 1930, GovLevel: model.GovTokyoFu, Seq: 1}, Office: "B局", NameCandidate: "田中花子"},
		{RawLine: model.RawLine{Year: 1930, GovLevel: model.GovTokyoFu, Seq: 2}, Office: "B局", NameCandidate: "の"},
		{RawLine: model.RawLine{Year: 1930, GovLevel: model.GovTokyoFu, Seq: 3}, Office: "B局", NameCandidate: "鈴木一郎", Drafted: true},
	}
	rows, stats, err := testPipeline().Resolve(context.Background(), extracted)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, 3, stats.Names)
	require.Len(t, stats.Drafted, 1)
	assert.Equal(t, "鈴木一郎", stats.Drafted[0].Name)
	assert.Equal(t, rows[3].StaffID, stats.Drafted[0].StaffID)
	assert.Equal(t, 2, stats.Offices)
	assert.NotEqual(t, rows[0].StaffID, rows[1].StaffID)
	assert.False(t, rows[2].IsName)
}

func TestProcessPage(t *testing.T) {
	root := writeTree(t)
	pf := ingest.PageFile{
		Path:     filepath.Join(root, "TokyoShi", "1930", "Page002.xml"),
		Format:   ingest.FormatXML,
		Number:   2,
		Year:     1930,
		GovLevel: model.GovTokyoShi,
	}
	records, err := testPipeline().ProcessPage(context.Background(), pf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsHeader)
	assert.Equal(t, "教育局", records[1].Office)
	assert.Equal(t, "山田よし子", records[1].NameCandidate)
}
