package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasight/datasight-cli/internal/insight"
)

func testResult() *insight.Result {
	return &insight.Result{
		ExecutiveSummary: "summary",
		KeyInsights:      []string{"one"},
		AnalysisNotes:    "notes",
		Limitations:      []string{"small sample"},
	}
}

func TestSaveWritesRunFileAndAlias(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "out")) // directory is created on demand

	paths, err := s.Save(testResult(), "abc-123")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "out", "insights_abc-123.json"),
		filepath.Join(dir, "out", "insights.json"),
	}, paths)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		var got insight.Result
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "summary", got.ExecutiveSummary)
	}
}

func TestSaveSecondRunKeepsFirstRunFile(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Save(testResult(), "run-1")
	require.NoError(t, err)

	second := testResult()
	second.ExecutiveSummary = "second"
	_, err = s.Save(second, "run-2")
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(s.Dir(), "insights_run-1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(first), "summary")

	alias, err := os.ReadFile(filepath.Join(s.Dir(), "insights.json"))
	require.NoError(t, err)
	assert.Contains(t, string(alias), "second", "alias tracks the latest run")
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Save(testResult(), "r")
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAppendLogPreservesOrder(t *testing.T) {
	s := New(t.TempDir())
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendLog(RunLogEntry{RunID: fmt.Sprintf("run-%d", i), Success: i%2 == 0}))
	}

	entries, err := s.ReadLog()
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("run-%d", i), e.RunID)
	}
}

func TestAppendLogConcurrentEntriesAllParse(t *testing.T) {
	s := New(t.TempDir())
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AppendLog(RunLogEntry{RunID: fmt.Sprintf("run-%d", i)}))
		}(i)
	}
	wg.Wait()

	entries, err := s.ReadLog()
	require.NoError(t, err)
	assert.Len(t, entries, n)
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.RunID] = true
	}
	assert.Len(t, seen, n, "every append survives intact")
}

func TestReadLogMissingFile(t *testing.T) {
	entries, err := New(t.TempDir()).ReadLog()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestAppendLogFailureRecordsError(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.AppendLog(RunLogEntry{RunID: "r", Success: false, Error: "InferenceError: boom"}))

	entries, err := s.ReadLog()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "InferenceError: boom", entries[0].Error)
}
