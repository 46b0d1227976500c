package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datasight/datasight-cli/internal/insight"
	"github.com/datasight/datasight-cli/internal/profile"
)

// DryRunRuntime synthesizes a deterministic, schema-valid reply from the
// dataset profile without performing any I/O. Its output has the same shape
// as a successful live response, so downstream stages cannot tell which mode
// produced it.
type DryRunRuntime struct {
	Profile *profile.DatasetProfile
}

// NewDryRunRuntime builds the offline substitute for a single invocation.
func NewDryRunRuntime(p *profile.DatasetProfile) *DryRunRuntime {
	return &DryRunRuntime{Profile: p}
}

func (d *DryRunRuntime) Generate(_ context.Context, _ GenerateRequest) (*GenerateResponse, error) {
	res := d.synthesize()
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, &InferenceError{Err: fmt.Errorf("marshal dry-run result: %w", err)}
	}
	return &GenerateResponse{
		ID:      "dry-run",
		Choices: []Choice{{Message: Message{Role: "assistant", Content: string(raw)}}},
	}, nil
}

func (d *DryRunRuntime) synthesize() insight.Result {
	p := d.Profile
	res := insight.Result{
		ExecutiveSummary: fmt.Sprintf(
			"Dry run: profiled %d rows across %d columns; no model was contacted.",
			p.RowCount, p.ColumnCount),
		AnalysisNotes: "Deterministic dry-run output generated locally from the dataset profile.",
		Limitations: []string{
			"Dry-run output is synthesized from summary statistics only and contains no model analysis.",
		},
	}
	for _, c := range p.Columns {
		switch c.Kind {
		case profile.KindNumeric:
			res.KeyInsights = append(res.KeyInsights, fmt.Sprintf(
				"Column %q is numeric with range %.4g to %.4g (mean %.4g).", c.Name, c.Min, c.Max, c.Mean))
		case profile.KindDatetime:
			res.KeyInsights = append(res.KeyInsights, fmt.Sprintf(
				"Column %q is a datetime spanning %s to %s.", c.Name, c.Earliest, c.Latest))
		default:
			res.KeyInsights = append(res.KeyInsights, fmt.Sprintf(
				"Column %q is %s with %d distinct values.", c.Name, c.Kind, c.Distinct))
		}
		if len(res.KeyInsights) >= 3 {
			break
		}
	}
	if len(res.KeyInsights) == 0 {
		res.KeyInsights = append(res.KeyInsights, "Dataset profiled; no columns could be characterized.")
	}
	if chart, ok := d.chart(); ok {
		res.SuggestedCharts = append(res.SuggestedCharts, chart)
	}
	return res
}

// chart picks the first plottable column pair: a datetime/categorical axis
// against a numeric column when available, else the first column alone.
func (d *DryRunRuntime) chart() (insight.SuggestedChart, bool) {
	p := d.Profile
	var axis, value string
	for _, c := range p.Columns {
		if (c.Kind == profile.KindDatetime || c.Kind == profile.KindCategorical) && axis == "" {
			axis = c.Name
		}
		if c.Kind == profile.KindNumeric && value == "" {
			value = c.Name
		}
	}
	switch {
	case axis != "" && value != "":
		return insight.SuggestedChart{
			ChartType: "line",
			Columns:   []string{axis, value},
			Rationale: fmt.Sprintf("Plot %s against %s to inspect the overall trend.", value, axis),
		}, true
	case value != "":
		return insight.SuggestedChart{
			ChartType: "histogram",
			Columns:   []string{value},
			Rationale: fmt.Sprintf("Inspect the distribution of %s.", value),
		}, true
	case len(p.Columns) > 0:
		return insight.SuggestedChart{
			ChartType: "bar",
			Columns:   []string{p.Columns[0].Name},
			Rationale: fmt.Sprintf("Compare value frequencies of %s.", p.Columns[0].Name),
		}, true
	}
	return insight.SuggestedChart{}, false
}
