package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasight/datasight-cli/internal/insight"
	"github.com/datasight/datasight-cli/internal/profile"
)

func dryRunProfile() *profile.DatasetProfile {
	return &profile.DatasetProfile{
		Source:      "sales.csv",
		RowCount:    120,
		ColumnCount: 3,
		Columns: []profile.ColumnProfile{
			{Name: "month", Kind: profile.KindDatetime, Earliest: "2024-01-01", Latest: "2024-12-01"},
			{Name: "revenue", Kind: profile.KindNumeric, Min: 10, Max: 900, Mean: 340},
			{Name: "region", Kind: profile.KindCategorical, Distinct: 4},
		},
	}
}

func TestDryRunOutputPassesValidation(t *testing.T) {
	p := dryRunProfile()
	rt := NewDryRunRuntime(p)

	resp, err := rt.Generate(context.Background(), GenerateRequest{Model: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "dry-run", resp.ID)

	res, err := insight.Validate(resp.Text(), p)
	require.NoError(t, err)
	assert.Contains(t, res.ExecutiveSummary, "no model was contacted")
	assert.NotEmpty(t, res.KeyInsights)
	assert.NotEmpty(t, res.Limitations)
}

func TestDryRunIsDeterministic(t *testing.T) {
	rt := NewDryRunRuntime(dryRunProfile())
	a, err := rt.Generate(context.Background(), GenerateRequest{})
	require.NoError(t, err)
	b, err := rt.Generate(context.Background(), GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, a.Text(), b.Text())
}

func TestDryRunChartSelection(t *testing.T) {
	t.Run("axis plus numeric", func(t *testing.T) {
		rt := NewDryRunRuntime(dryRunProfile())
		ch, ok := rt.chart()
		require.True(t, ok)
		assert.Equal(t, "line", ch.ChartType)
		assert.Equal(t, []string{"month", "revenue"}, ch.Columns)
	})

	t.Run("numeric only", func(t *testing.T) {
		rt := NewDryRunRuntime(&profile.DatasetProfile{
			Columns: []profile.ColumnProfile{{Name: "amount", Kind: profile.KindNumeric}},
		})
		ch, ok := rt.chart()
		require.True(t, ok)
		assert.Equal(t, "histogram", ch.ChartType)
		assert.Equal(t, []string{"amount"}, ch.Columns)
	})

	t.Run("boolean only", func(t *testing.T) {
		rt := NewDryRunRuntime(&profile.DatasetProfile{
			Columns: []profile.ColumnProfile{{Name: "active", Kind: profile.KindBoolean}},
		})
		ch, ok := rt.chart()
		require.True(t, ok)
		assert.Equal(t, "bar", ch.ChartType)
	})

	t.Run("no columns", func(t *testing.T) {
		rt := NewDryRunRuntime(&profile.DatasetProfile{})
		_, ok := rt.chart()
		assert.False(t, ok)
	})
}

func TestDryRunInsightsCappedAtThree(t *testing.T) {
	p := &profile.DatasetProfile{RowCount: 1, ColumnCount: 6}
	for i := 0; i < 6; i++ {
		p.Columns = append(p.Columns, profile.ColumnProfile{Name: "c", Kind: profile.KindCategorical})
	}
	res := NewDryRunRuntime(p).synthesize()
	assert.Len(t, res.KeyInsights, 3)
}
