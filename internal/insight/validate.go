package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datasight/datasight-cli/internal/profile"
)

// Validate is the single gate between untrusted model output and anything
// persisted or displayed. It locates a JSON object in raw (tolerating code
// fences and surrounding prose, without repairing broken JSON), checks every
// field of the result contract, and verifies chart column references against
// the profiled dataset.
func Validate(raw string, p *profile.DatasetProfile) (*Result, error) {
	frag, ok := extractObject(raw)
	if !ok {
		return nil, &MalformedJSONError{}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(frag), &obj); err != nil {
		return nil, &MalformedJSONError{Cause: err}
	}

	var bad []string
	res := &Result{}

	if !decodeString(obj, "executive_summary", &res.ExecutiveSummary) {
		bad = append(bad, "executive_summary")
	}
	if !decodeStrings(obj, "key_insights", &res.KeyInsights) {
		bad = append(bad, "key_insights")
	}
	if !decodeString(obj, "analysis_notes", &res.AnalysisNotes) {
		bad = append(bad, "analysis_notes")
	}
	if !decodeStrings(obj, "limitations", &res.Limitations) {
		bad = append(bad, "limitations")
	}
	if rawCharts, present := obj["suggested_charts"]; !present || string(rawCharts) == "null" {
		bad = append(bad, "suggested_charts")
	} else if err := json.Unmarshal(rawCharts, &res.SuggestedCharts); err != nil {
		bad = append(bad, "suggested_charts")
	}
	if len(bad) > 0 {
		return nil, &SchemaViolationError{Fields: bad, Reason: "missing or mistyped fields"}
	}

	if err := checkContent(res, p); err != nil {
		return nil, err
	}
	return res, nil
}

// checkContent enforces the semantic constraints on an already well-typed
// result: non-empty insight and limitation lists, complete chart entries, and
// no references to columns the dataset does not have.
func checkContent(res *Result, p *profile.DatasetProfile) error {
	if nonEmptyStrings(res.KeyInsights) == 0 {
		return &SchemaViolationError{Fields: []string{"key_insights"}, Reason: "must be a non-empty list of non-empty strings"}
	}
	if nonEmptyStrings(res.Limitations) == 0 {
		return &SchemaViolationError{Fields: []string{"limitations"}, Reason: "must be a non-empty list of non-empty strings"}
	}
	for _, s := range res.KeyInsights {
		if strings.TrimSpace(s) == "" {
			return &SchemaViolationError{Fields: []string{"key_insights"}, Reason: "contains an empty entry"}
		}
	}
	for _, s := range res.Limitations {
		if strings.TrimSpace(s) == "" {
			return &SchemaViolationError{Fields: []string{"limitations"}, Reason: "contains an empty entry"}
		}
	}
	for i, ch := range res.SuggestedCharts {
		if strings.TrimSpace(ch.ChartType) == "" {
			return &SchemaViolationError{
				Fields: []string{fmt.Sprintf("suggested_charts[%d].chart_type", i)},
				Reason: "chart_type is required",
			}
		}
		if strings.TrimSpace(ch.Rationale) == "" {
			return &SchemaViolationError{
				Fields: []string{fmt.Sprintf("suggested_charts[%d].rationale", i)},
				Reason: "rationale is required",
			}
		}
		for _, col := range ch.Columns {
			if !p.HasColumn(col) {
				return &SchemaViolationError{
					Fields: []string{fmt.Sprintf("suggested_charts[%d].columns", i)},
					Reason: fmt.Sprintf("references column %q which does not exist in the dataset", col),
				}
			}
		}
	}
	return nil
}

func nonEmptyStrings(ss []string) int {
	n := 0
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

func decodeString(obj map[string]json.RawMessage, key string, dst *string) bool {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func decodeStrings(obj map[string]json.RawMessage, key string, dst *[]string) bool {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// extractObject locates the first balanced top-level JSON object in text,
// checking fenced code blocks and surrounding prose. It does not modify or
// repair the fragment it finds.
func extractObject(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", false
	}
	// A fenced block usually carries the object, but a fence elsewhere in the
	// reply must not hide an object sitting in the prose, so valid fragments
	// win over whichever region happens to come first.
	regions := []string{s}
	if fence, ok := fencedBlock(s); ok {
		regions = []string{fence, s}
	}
	fallback := ""
	for _, region := range regions {
		frag, ok := scanObject(region)
		if !ok {
			continue
		}
		if json.Valid([]byte(frag)) {
			return frag, true
		}
		if fallback == "" {
			fallback = frag
		}
	}
	// Surface the broken fragment so the parse error reaches the caller.
	return fallback, fallback != ""
}

// fencedBlock returns the content of the first ``` block, minus the language
// tag line.
func fencedBlock(s string) (string, bool) {
	i := strings.Index(s, "```")
	if i < 0 {
		return "", false
	}
	rest := s[i+3:]
	if j := strings.Index(rest, "\n"); j >= 0 {
		rest = rest[j+1:]
	}
	j := strings.Index(rest, "```")
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// scanObject finds the first balanced {...} fragment, tracking strings so
// braces inside them do not count.
func scanObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
