package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datasight/datasight-cli/internal/insight"
	"github.com/datasight/datasight-cli/internal/utils"
)

// RunLogEntry is one append-only record per invocation, success or failure.
type RunLogEntry struct {
	Timestamp        string  `json:"timestamp"`
	RunID            string  `json:"run_id"`
	Input            string  `json:"input"`
	Question         string  `json:"question"`
	Model            string  `json:"model"`
	RowCount         int     `json:"row_count"`
	ColumnCount      int     `json:"column_count"`
	EstimatedTokens  int     `json:"estimated_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Success          bool    `json:"success"`
	Error            string  `json:"error,omitempty"`
}

// Store is the single write path for accepted results and the run log.
// Output paths are explicit configuration, never process-wide state, so
// concurrent and test invocations can target isolated directories.
type Store struct {
	dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// LogPath returns the run log location.
func (s *Store) LogPath() string { return filepath.Join(s.dir, "run_log.json") }

// Save writes the accepted result atomically: a per-run file keyed by runID
// so concurrent invocations never clobber each other, plus the stable
// insights.json alias. Either the complete result is visible at each path or
// nothing is. Returns the paths written.
func (s *Store) Save(res *insight.Result, runID string) ([]string, error) {
	if err := utils.EnsureDir(s.dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	data, err := utils.PrettyJSON(res)
	if err != nil {
		return nil, err
	}
	runPath := filepath.Join(s.dir, fmt.Sprintf("insights_%s.json", runID))
	aliasPath := filepath.Join(s.dir, "insights.json")
	if err := utils.SafeWriteFile(runPath, data); err != nil {
		return nil, fmt.Errorf("write result: %w", err)
	}
	if err := utils.SafeWriteFile(aliasPath, data); err != nil {
		return []string{runPath}, fmt.Errorf("write result alias: %w", err)
	}
	return []string{runPath, aliasPath}, nil
}

// AppendLog appends exactly one entry to the run log as a single O_APPEND
// write of one JSON line. The log is never rewritten in place, and
// single-write appends do not interleave across concurrent invocations.
func (s *Store) AppendLog(entry RunLogEntry) error {
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

// ReadLog parses the run log back into entries, in append order.
func (s *Store) ReadLog() ([]RunLogEntry, error) {
	data, err := os.ReadFile(s.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run log: %w", err)
	}
	var out []RunLogEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e RunLogEntry
		if err := dec.Decode(&e); err != nil {
			return out, fmt.Errorf("decode run log entry %d: %w", len(out)+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}
