package redact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/datasight/datasight-cli/internal/profile"
)

// Policy identifies sensitive columns and decides how much statistical shape
// may survive redaction. Which statistics are "safe" to leave visible is a
// judgment call, so it is configurable rather than hard-coded.
type Policy struct {
	// NamePatterns are case-insensitive substrings matched against column
	// names (e.g. "email", "ssn", "phone").
	NamePatterns []string
	// ExcludeColumns lists columns whose values AND statistics are removed
	// entirely, not just masked.
	ExcludeColumns []string
	// KeepNumericBounds keeps min/max/mean/std visible for sensitive numeric
	// columns. Counts are always preserved.
	KeepNumericBounds bool
}

// DefaultPolicy matches the usual personally-identifying column names and
// keeps numeric bounds visible.
func DefaultPolicy() Policy {
	return Policy{
		NamePatterns:      []string{"email", "e-mail", "ssn", "social_security", "phone", "passport", "address", "birth", "dob"},
		KeepNumericBounds: true,
	}
}

const maskedCell = "***"

var (
	emailShaped = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	ssnShaped   = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	phoneShaped = regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`)
	tokenShaped = regexp.MustCompile(`^col\d+_v\d+$`)
)

// Apply returns a copy of the profile with sensitive columns' sample values
// masked and categorical labels replaced by opaque tokens. Type and counts
// are preserved. Applying it twice changes nothing further, and a profile
// with no sensitive-looking column passes through untouched.
func Apply(p *profile.DatasetProfile, pol Policy) *profile.DatasetProfile {
	out := clone(p)
	for j := range out.Columns {
		c := &out.Columns[j]
		switch {
		case excluded(c.Name, pol):
			stripStats(c)
			maskSamples(out, j)
		case sensitive(out, j, pol):
			maskColumn(out, j, pol)
		}
	}
	return out
}

func excluded(name string, pol Policy) bool {
	for _, ex := range pol.ExcludeColumns {
		if strings.EqualFold(strings.TrimSpace(ex), name) {
			return true
		}
	}
	return false
}

// sensitive matches on the column name first, then falls back to the shape of
// the sample values and frequency labels.
func sensitive(p *profile.DatasetProfile, j int, pol Policy) bool {
	name := strings.ToLower(p.Columns[j].Name)
	for _, pat := range pol.NamePatterns {
		if pat != "" && strings.Contains(name, strings.ToLower(pat)) {
			return true
		}
	}
	for _, vc := range p.Columns[j].TopValues {
		if valueShapedSensitive(vc.Value) {
			return true
		}
	}
	for _, row := range p.SampleRows {
		if j < len(row) && valueShapedSensitive(row[j]) {
			return true
		}
	}
	return false
}

func valueShapedSensitive(v string) bool {
	if v == "" {
		return false
	}
	if emailShaped.MatchString(v) || ssnShaped.MatchString(v) {
		return true
	}
	// Phone-shaped: enough digits plus separators, and not a plain number
	// (dates and negative decimals would otherwise false-positive).
	if phoneShaped.MatchString(v) && strings.ContainsAny(v, "+() ") {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			digits := 0
			for _, r := range v {
				if r >= '0' && r <= '9' {
					digits++
				}
			}
			return digits >= 10
		}
	}
	return false
}

func maskColumn(p *profile.DatasetProfile, j int, pol Policy) {
	c := &p.Columns[j]
	// Opaque tokens keyed by frequency rank keep the distribution shape
	// without revealing labels. Already-opaque tokens stay as they are.
	for i := range c.TopValues {
		if !tokenShaped.MatchString(c.TopValues[i].Value) {
			c.TopValues[i].Value = fmt.Sprintf("col%d_v%d", j, i+1)
		}
	}
	if c.Kind == profile.KindNumeric && !pol.KeepNumericBounds {
		c.Min, c.Max, c.Mean, c.Std = 0, 0, 0, 0
	}
	maskSamples(p, j)
}

func maskSamples(p *profile.DatasetProfile, j int) {
	for _, row := range p.SampleRows {
		if j < len(row) && row[j] != "" {
			row[j] = maskedCell
		}
	}
}

func stripStats(c *profile.ColumnProfile) {
	c.Min, c.Max, c.Mean, c.Std = 0, 0, 0, 0
	c.Earliest, c.Latest = "", ""
	c.TopValues = nil
}

func clone(p *profile.DatasetProfile) *profile.DatasetProfile {
	out := *p
	out.Columns = make([]profile.ColumnProfile, len(p.Columns))
	copy(out.Columns, p.Columns)
	for i := range out.Columns {
		if n := len(p.Columns[i].TopValues); n > 0 {
			out.Columns[i].TopValues = make([]profile.ValueCount, n)
			copy(out.Columns[i].TopValues, p.Columns[i].TopValues)
		}
	}
	out.SampleRows = make([][]string, len(p.SampleRows))
	for i, row := range p.SampleRows {
		out.SampleRows[i] = append([]string(nil), row...)
	}
	out.Reductions = append([]string(nil), p.Reductions...)
	return &out
}
