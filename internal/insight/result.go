package insight

// SuggestedChart is one chart recommendation. Columns may only reference
// column names present in the profiled dataset.
type SuggestedChart struct {
	ChartType string   `json:"chart_type"`
	Columns   []string `json:"columns"`
	Rationale string   `json:"rationale"`
}

// Result is the only shape ever accepted as a successful pipeline output.
// Field names are fixed; anything else is rejected, never partially accepted.
type Result struct {
	ExecutiveSummary string           `json:"executive_summary"`
	KeyInsights      []string         `json:"key_insights"`
	SuggestedCharts  []SuggestedChart `json:"suggested_charts"`
	AnalysisNotes    string           `json:"analysis_notes"`
	Limitations      []string         `json:"limitations"`
}
