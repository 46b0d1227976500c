package prompt

import (
	"strings"

	"github.com/datasight/datasight-cli/internal/profile"
)

// instructions is the fixed output contract sent with every request. It names
// every required field of the result shape and forbids anything outside the
// JSON object.
const instructions = `You are a data analyst assistant.
Return ONLY a single JSON object with exactly these fields:
- "executive_summary": string
- "key_insights": array of strings (at least one)
- "suggested_charts": array of objects, each with "chart_type" (string), "columns" (array of column names taken from the schema below), "rationale" (string)
- "analysis_notes": string
- "limitations": array of strings (at least one)
Do not return executable code of any kind.
Do not wrap the JSON in markdown code fences.
Do not add prose, comments, or explanation outside the JSON object.
Only reference column names that appear in the dataset summary.`

// Build renders the request prompt from an already-redacted profile and the
// user's verbatim question. Pure: identical inputs always yield an identical
// string.
func Build(p *profile.DatasetProfile, question string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	b.WriteString(p.Render())
	b.WriteString("\n[QUESTION]\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// Correction returns the line appended to a retried prompt after the previous
// response failed validation.
func Correction(reason string) string {
	return "\n[CORRECTION]\nYour previous response was invalid because: " + reason + "\nReturn only the corrected JSON object.\n"
}
