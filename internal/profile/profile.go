package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/datasight/datasight-cli/internal/dataset"
)

// Column kinds inferred by majority vote over non-null values.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindBoolean     = "boolean"
	KindCategorical = "categorical"
)

// Options controls profiling behavior and the compactness budget.
type Options struct {
	// SampleRows determines how many leading rows to include in the profile.
	SampleRows int
	// TopValues limits the categorical frequency table per column.
	TopValues int
	// MaxChars bounds the rendered profile size. When exceeded, sample rows
	// are dropped first, then the frequency tables are narrowed.
	MaxChars int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows: 5,
		TopValues:  8,
		MaxChars:   6000,
	}
}

// ValueCount is one categorical frequency entry.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile captures inferred type and statistics for one column.
type ColumnProfile struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	NullCount int    `json:"null_count"`
	Distinct  int    `json:"distinct"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Datetime bounds
	Earliest string `json:"earliest,omitempty"`
	Latest   string `json:"latest,omitempty"`
	// Categorical/boolean top values
	TopValues []ValueCount `json:"top_values,omitempty"`
}

// DatasetProfile is the only representation of a dataset that leaves the
// process boundary. It is bounded by Options.MaxChars when rendered.
type DatasetProfile struct {
	Source      string          `json:"source"`
	RowCount    int             `json:"row_count"`
	ColumnCount int             `json:"column_count"`
	Columns     []ColumnProfile `json:"columns"`
	// SampleRows holds the first N rows, aligned with Columns.
	SampleRows [][]string `json:"sample_rows,omitempty"`
	// Reductions records budget-driven trims applied during profiling.
	Reductions []string `json:"reductions,omitempty"`
}

// ProfilingError indicates an input shape the profiler cannot work with.
type ProfilingError struct {
	Reason string
}

func (e *ProfilingError) Error() string { return "profiling: " + e.Reason }

// HasColumn reports whether the profile contains a column with the given name.
func (p *DatasetProfile) HasColumn(name string) bool {
	for _, c := range p.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the ordered column names.
func (p *DatasetProfile) ColumnNames() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

// New profiles a dataset. Sampling is first-N and the whole computation is
// deterministic for a given dataset and options. Fails with *ProfilingError
// when the dataset has no columns or no rows.
func New(d *dataset.Dataset, opt Options) (*DatasetProfile, error) {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	if len(d.Columns) == 0 {
		return nil, &ProfilingError{Reason: "dataset has no columns"}
	}
	rows := d.Rows()
	if rows == 0 {
		return nil, &ProfilingError{Reason: "dataset has no rows"}
	}

	p := &DatasetProfile{
		Source:      d.Name,
		RowCount:    rows,
		ColumnCount: len(d.Columns),
		Columns:     make([]ColumnProfile, 0, len(d.Columns)),
	}
	n := opt.SampleRows
	if n > rows {
		n = rows
	}
	for i := 0; i < n; i++ {
		p.SampleRows = append(p.SampleRows, d.Row(i))
	}

	for j, name := range d.Columns {
		p.Columns = append(p.Columns, profileColumn(name, d.Cells[j], opt.TopValues))
	}

	if opt.MaxChars > 0 {
		fitBudget(p, opt)
	}
	return p, nil
}

// profileColumn runs the majority-vote type inference and computes the stats
// appropriate to the winning kind.
func profileColumn(name string, cells []string, topK int) ColumnProfile {
	c := ColumnProfile{Name: name}

	var numCnt, dtCnt, boolCnt int
	var welN int
	var mean, m2 float64
	minV, maxV := math.Inf(1), math.Inf(-1)
	var earliest, latest time.Time
	distinct := make(map[string]int)

	for _, v := range cells {
		if v == "" {
			c.NullCount++
			continue
		}
		if len(distinct) <= 10000 { // guard memory
			distinct[v]++
		}
		if x, ok := parseNumeric(v); ok {
			numCnt++
			welN++
			if x < minV {
				minV = x
			}
			if x > maxV {
				maxV = x
			}
			delta := x - mean
			mean += delta / float64(welN)
			m2 += delta * (x - mean)
			continue
		}
		if parseBool(v) {
			boolCnt++
			continue
		}
		if t, ok := parseTimeMaybe(v); ok {
			dtCnt++
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
			if latest.IsZero() || t.After(latest) {
				latest = t
			}
			continue
		}
	}
	catCnt := len(cells) - c.NullCount - numCnt - dtCnt - boolCnt
	c.Distinct = len(distinct)

	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= catCnt && numCnt >= boolCnt:
		c.Kind = KindNumeric
		c.Min = minV
		c.Max = maxV
		c.Mean = mean
		if welN > 1 {
			c.Std = math.Sqrt(m2 / float64(welN-1))
		}
	case boolCnt > 0 && boolCnt >= dtCnt && boolCnt >= catCnt:
		c.Kind = KindBoolean
		c.TopValues = topValues(distinct, topK)
	case dtCnt > 0 && dtCnt >= catCnt:
		c.Kind = KindDatetime
		if !earliest.IsZero() {
			c.Earliest = earliest.Format("2006-01-02")
			c.Latest = latest.Format("2006-01-02")
		}
	default:
		c.Kind = KindCategorical
		c.TopValues = topValues(distinct, topK)
	}
	return c
}

func topValues(freq map[string]int, k int) []ValueCount {
	tops := make([]ValueCount, 0, len(freq))
	for v, n := range freq {
		tops = append(tops, ValueCount{Value: v, Count: n})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > k {
		tops = tops[:k]
	}
	return tops
}

// fitBudget trims the profile until its rendered form fits opt.MaxChars.
// Sample rows go first, one at a time from the end; then the categorical
// frequency tables are narrowed down to a single entry. Columns are never
// dropped. Every trim is recorded in Reductions.
func fitBudget(p *DatasetProfile, opt Options) {
	droppedRows := 0
	topK := opt.TopValues
	// Reductions are part of the rendered output, so they are recomputed on
	// every trim to keep the budget check honest.
	update := func() {
		p.Reductions = p.Reductions[:0]
		if droppedRows > 0 {
			p.Reductions = append(p.Reductions,
				fmt.Sprintf("dropped %d sample row(s) to fit %d-char budget", droppedRows, opt.MaxChars))
		}
		if topK < opt.TopValues {
			p.Reductions = append(p.Reductions,
				fmt.Sprintf("narrowed top values from %d to %d to fit %d-char budget", opt.TopValues, topK, opt.MaxChars))
		}
	}
	for len(p.Render()) > opt.MaxChars {
		if len(p.SampleRows) > 0 {
			p.SampleRows = p.SampleRows[:len(p.SampleRows)-1]
			droppedRows++
			update()
			continue
		}
		if topK > 1 {
			topK--
			for i := range p.Columns {
				if len(p.Columns[i].TopValues) > topK {
					p.Columns[i].TopValues = p.Columns[i].TopValues[:topK]
				}
			}
			update()
			continue
		}
		break
	}
	// Columns are never dropped, so a wide dataset can bottom out above the
	// budget. Say so rather than trimming silently.
	if len(p.Render()) > opt.MaxChars {
		p.Reductions = append(p.Reductions,
			fmt.Sprintf("profile exceeds the %d-char budget even at minimum detail; columns are never dropped", opt.MaxChars))
	}
}

// Render produces the compact text summary embedded in prompts.
func (p *DatasetProfile) Render() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Source != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", p.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.RowCount))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", p.ColumnCount))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (nulls %d, distinct %d)", safeName(c.Name), c.Kind, c.NullCount, c.Distinct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case KindDatetime:
			if c.Earliest != "" {
				b.WriteString(fmt.Sprintf(" — from %s to %s", c.Earliest, c.Latest))
			}
		case KindCategorical, KindBoolean:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(p.SampleRows) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		for i, c := range p.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		for _, row := range p.SampleRows {
			b.WriteString("| ")
			for i := range p.Columns {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if len(p.Reductions) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, r := range p.Reductions {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}

func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
