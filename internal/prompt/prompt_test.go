package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datasight/datasight-cli/internal/profile"
)

func testProfile() *profile.DatasetProfile {
	return &profile.DatasetProfile{
		Source:      "orders.csv",
		RowCount:    10,
		ColumnCount: 2,
		Columns: []profile.ColumnProfile{
			{Name: "order_date", Kind: profile.KindDatetime},
			{Name: "revenue", Kind: profile.KindNumeric, Min: 1, Max: 9, Mean: 5, Std: 2},
		},
	}
}

func TestBuildContainsContractAndInputs(t *testing.T) {
	got := Build(testProfile(), "Why did revenue drop in March?")

	for _, want := range []string{
		`"executive_summary"`,
		`"key_insights"`,
		`"suggested_charts"`,
		`"analysis_notes"`,
		`"limitations"`,
		"[DATASET SUMMARY]",
		"[QUESTION]\nWhy did revenue drop in March?",
		"revenue",
	} {
		assert.Contains(t, got, want)
	}
	assert.Contains(t, got, "Do not return executable code")
}

func TestBuildIsDeterministic(t *testing.T) {
	a := Build(testProfile(), "q")
	b := Build(testProfile(), "q")
	assert.Equal(t, a, b)
}

func TestBuildQuestionPassedVerbatim(t *testing.T) {
	q := `Find "outliers" — even odd ones; 100% of them.`
	got := Build(testProfile(), q)
	assert.True(t, strings.Contains(got, q))
}

func TestCorrection(t *testing.T) {
	got := Correction("missing or mistyped fields: limitations")
	assert.Contains(t, got, "[CORRECTION]")
	assert.Contains(t, got, "missing or mistyped fields: limitations")
}
