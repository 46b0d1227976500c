package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "sales.csv", "date,revenue,region\n2024-01-01,100,west\n2024-01-02,90,east\n")

	d, err := LoadCSV(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", d.Name)
	assert.Equal(t, []string{"date", "revenue", "region"}, d.Columns)
	assert.Equal(t, 2, d.Rows())
	assert.Equal(t, []string{"2024-01-02", "90", "east"}, d.Row(1))
}

func TestLoadCSVPadsShortRecords(t *testing.T) {
	path := writeFile(t, "short.csv", "a,b,c\n1,2\n")

	d, err := LoadCSV(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", ""}, d.Row(0))
}

func TestLoadCSVSniffsTSV(t *testing.T) {
	path := writeFile(t, "metrics.tsv", "a\tb\n1\t2\n")

	d, err := LoadCSV(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, d.Columns)
	assert.Equal(t, 1, d.Rows())
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := LoadCSV(path, LoadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header row required")
}

func TestLoadCSVMaxRows(t *testing.T) {
	path := writeFile(t, "big.csv", "a\n1\n2\n3\n4\n")

	d, err := LoadCSV(path, LoadOptions{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	assert.Error(t, err)
}
