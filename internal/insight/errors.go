package insight

import (
	"fmt"
	"strings"
)

// MalformedJSONError means no parseable JSON object could be located in the
// model's reply. The validator never attempts to repair broken JSON.
type MalformedJSONError struct {
	Cause error
}

func (e *MalformedJSONError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed json: %v", e.Cause)
	}
	return "malformed json: no JSON object found in response"
}

func (e *MalformedJSONError) Unwrap() error { return e.Cause }

// SchemaViolationError means the reply parsed as JSON but does not satisfy
// the result contract. Fields names the missing, mistyped, or otherwise
// offending fields.
type SchemaViolationError struct {
	Fields []string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("schema violation: %s [%s]", e.Reason, strings.Join(e.Fields, ", "))
	}
	return "schema violation: " + e.Reason
}
