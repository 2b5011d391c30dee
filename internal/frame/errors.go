package frame

import (
	"errors"
	"fmt"
)

// SchemaError reports a malformed frame shape: bad enum value, weight
// out of range, duplicate id, missing required field. Detected before
// digest computation; the offending frame is rejected as-is.
type SchemaError struct {
	// Field locates the offending value (e.g. "nodes[2].weight").
	Field string
	// Detail is a human-readable description.
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Field, e.Detail)
}

// ReferentialError reports an edge whose endpoint does not exist in the
// frame. Dangling references are rejected at ingestion, never repaired.
type ReferentialError struct {
	// Edge is the identity of the offending edge.
	Edge EdgeKey
	// Missing is the endpoint id that has no node.
	Missing string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referential error: edge %s references unknown node %q", e.Edge, e.Missing)
}

// IsSchemaError reports whether err is (or wraps) a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsReferentialError reports whether err is (or wraps) a *ReferentialError.
func IsReferentialError(err error) bool {
	var re *ReferentialError
	return errors.As(err, &re)
}
