package office

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

func rec(year int, gov model.GovLevel, office string) model.ExtractedRecord {
	return model.ExtractedRecord{
		RawLine: model.RawLine{Year: year, GovLevel: gov},
		Office:  office,
	}
}

func TestAssign_Deterministic(t *testing.T) {
	a := Assign([]string{"総務局", "教育局", "総務局", "土木局"})
	b := Assign([]string{"土木局", "教育局", "総務局"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 3)

	// Byte-wise order of the UTF-8 strings
	assert.Equal(t, 1, a["土木局"])
	assert.Equal(t, 2, a["教育局"])
	assert.Equal(t, 3, a["総務局"])
}

func TestAssign_Empty(t *testing.T) {
	assert.Empty(t, Assign(nil))
}

func TestBuild_PartitionsAreIndependent(t *testing.T) {
	records := []model.ExtractedRecord{
		rec(1930, model.GovTokyoShi, "総務局"),
		rec(1930, model.GovTokyoShi, "教育局"),
		rec(1930, model.GovTokyoFu, "総務局"),
		rec(1931, model.GovTokyoShi, model.UnknownOffice),
		rec(1931, model.GovTokyoShi, "総務局"),
	}

	ix, err := Build(context.Background(), records)
	require.NoError(t, err)

	shi30 := model.PartitionKey{Year: 1930, GovLevel: model.GovTokyoShi}
	fu30 := model.PartitionKey{Year: 1930, GovLevel: model.GovTokyoFu}
	shi31 := model.PartitionKey{Year: 1931, GovLevel: model.GovTokyoShi}

	assert.Equal(t, 1, ix.Lookup(shi30, "教育局"))
	assert.Equal(t, 2, ix.Lookup(shi30, "総務局"))
	assert.Equal(t, 1, ix.Lookup(fu30, "総務局"))
	assert.Equal(t, 1, ix.Lookup(shi31, model.UnknownOffice))
	assert.Equal(t, 2, ix.Lookup(shi31, "総務局"))
	assert.Equal(t, 0, ix.Lookup(fu30, "教育局"))

	assert.Equal(t, []model.PartitionKey{shi30, shi31, fu30}, ix.Partitions())
	assert.Equal(t, []string{"教育局", "総務局"}, ix.Offices(shi30))
}

func TestBuild_Rerun(t *testing.T) {
	records := []model.ExtractedRecord{
		rec(1935, model.GovTokyoTo, "c"),
		rec(1935, model.GovTokyoTo, "a"),
		rec(1935, model.GovTokyoTo, "b"),
	}
	first, err := Build(context.Background(), records)
	require.NoError(t, err)
	second, err := Build(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, []model.ExtractedRecord{rec(1930, model.GovTokyoShi, "a")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookup_NilIndex(t *testing.T) {
	var ix *Index
	assert.Equal(t, 0, ix.Lookup(model.PartitionKey{}, "a"))
}
