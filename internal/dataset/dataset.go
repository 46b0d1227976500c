package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dataset is an already-materialized tabular input: a header row plus the
// cell values of every column, all columns having equal length. Cells are
// kept as raw strings; type inference happens in the profiler.
type Dataset struct {
	Name    string
	Columns []string
	// Cells is column-major: Cells[i] holds the values of Columns[i].
	Cells [][]string
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Cells) == 0 {
		return 0
	}
	return len(d.Cells[0])
}

// Row materializes row i as a slice aligned with Columns.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Cells))
	for j := range d.Cells {
		out[j] = d.Cells[j][i]
	}
	return out
}

// LoadOptions controls CSV loading.
type LoadOptions struct {
	// Delimiter for the file. If 0, sniffed from the extension
	// (.tsv means tab, anything else comma).
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// LoadCSV reads a delimited text file with a required header row into a Dataset.
// Short records are padded to the header width; long records are truncated.
func LoadCSV(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("input %s is empty (header row required)", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	d := &Dataset{
		Name:    filepath.Base(path),
		Columns: make([]string, ncol),
		Cells:   make([][]string, ncol),
	}
	for i, h := range header {
		d.Columns[i] = strings.TrimSpace(h)
	}

	rows := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		if opt.MaxRows > 0 && rows >= opt.MaxRows {
			continue
		}
		rows++
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			d.Cells[j] = append(d.Cells[j], v)
		}
	}
	return d, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
