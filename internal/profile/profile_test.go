package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasight/datasight-cli/internal/dataset"
)

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name:    "orders.csv",
		Columns: []string{"order_date", "revenue", "region", "returned"},
		Cells: [][]string{
			{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"},
			{"100.5", "90", "", "80.25", "120", "95"},
			{"west", "east", "west", "south", "west", "east"},
			{"true", "false", "false", "true", "false", "false"},
		},
	}
}

func TestNewInfersColumnKinds(t *testing.T) {
	p, err := New(testDataset(), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, p.Columns, 4)
	assert.Equal(t, KindDatetime, p.Columns[0].Kind)
	assert.Equal(t, KindNumeric, p.Columns[1].Kind)
	assert.Equal(t, KindCategorical, p.Columns[2].Kind)
	assert.Equal(t, KindBoolean, p.Columns[3].Kind)

	rev := p.Columns[1]
	assert.Equal(t, 1, rev.NullCount)
	assert.InDelta(t, 80.25, rev.Min, 1e-9)
	assert.InDelta(t, 120, rev.Max, 1e-9)
	assert.InDelta(t, (100.5+90+80.25+120+95)/5, rev.Mean, 1e-9)
	assert.Greater(t, rev.Std, 0.0)

	region := p.Columns[2]
	assert.Equal(t, 3, region.Distinct)
	require.NotEmpty(t, region.TopValues)
	assert.Equal(t, "west", region.TopValues[0].Value)
	assert.Equal(t, 3, region.TopValues[0].Count)

	assert.Equal(t, "2024-01-01", p.Columns[0].Earliest)
	assert.Equal(t, "2024-01-06", p.Columns[0].Latest)
}

func TestNewSamplesFirstRowsDeterministically(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 2

	p1, err := New(testDataset(), opt)
	require.NoError(t, err)
	p2, err := New(testDataset(), opt)
	require.NoError(t, err)

	require.Len(t, p1.SampleRows, 2)
	assert.Equal(t, []string{"2024-01-01", "100.5", "west", "true"}, p1.SampleRows[0])
	assert.Equal(t, p1.Render(), p2.Render())
}

func TestNewRejectsEmptyShapes(t *testing.T) {
	var pe *ProfilingError

	_, err := New(&dataset.Dataset{Name: "x"}, DefaultOptions())
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "no columns")

	_, err = New(&dataset.Dataset{Name: "x", Columns: []string{"a"}, Cells: [][]string{{}}}, DefaultOptions())
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "no rows")
}

func TestNewHonorsCharacterBudget(t *testing.T) {
	d := testDataset()
	opt := DefaultOptions()
	opt.MaxChars = 450

	p, err := New(d, opt)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(p.Render()), opt.MaxChars)
	// Sample rows go first; columns are never dropped.
	assert.Len(t, p.Columns, 4)
	assert.NotEmpty(t, p.Reductions)
}

func TestBudgetDropsSamplesBeforeTopValues(t *testing.T) {
	d := testDataset()
	opt := DefaultOptions()
	opt.SampleRows = 5
	opt.MaxChars = 600

	p, err := New(d, opt)
	require.NoError(t, err)
	assert.Less(t, len(p.SampleRows), 5)
	for _, r := range p.Reductions {
		assert.NotContains(t, r, "column")
	}
}

func TestBudgetFloorIsReported(t *testing.T) {
	d := testDataset()
	opt := DefaultOptions()
	opt.MaxChars = 100 // unattainable for four columns

	p, err := New(d, opt)
	require.NoError(t, err)
	assert.Len(t, p.Columns, 4)
	assert.Empty(t, p.SampleRows)
	require.NotEmpty(t, p.Reductions)
	assert.Contains(t, p.Reductions[len(p.Reductions)-1], "even at minimum detail")
}

func TestRenderSections(t *testing.T) {
	p, err := New(testDataset(), DefaultOptions())
	require.NoError(t, err)

	md := p.Render()
	assert.True(t, strings.HasPrefix(md, "[DATASET SUMMARY]\n"))
	assert.Contains(t, md, "Source: orders.csv")
	assert.Contains(t, md, "Rows: 6")
	assert.Contains(t, md, "[SCHEMA]")
	assert.Contains(t, md, "- revenue: numeric")
	assert.Contains(t, md, "[SAMPLE ROWS]")
}

func TestHasColumn(t *testing.T) {
	p, err := New(testDataset(), DefaultOptions())
	require.NoError(t, err)

	assert.True(t, p.HasColumn("revenue"))
	assert.False(t, p.HasColumn("profit"))
	assert.Equal(t, []string{"order_date", "revenue", "region", "returned"}, p.ColumnNames())
}
