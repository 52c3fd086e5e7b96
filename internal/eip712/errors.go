package eip712

import (
	"errors"
	"fmt"
)

// SchemaError reports a malformed schema or a value tree that does not
// conform to its schema. Path locates the offending type, field or element,
// e.g. "LimitOrder.inputs[1].tokenAmount".
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "eip712: " + e.Reason
	}
	return fmt.Sprintf("eip712: %s: %s", e.Path, e.Reason)
}

// IsSchemaError reports whether err or any error it wraps is a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

var errNilValue = errors.New("nil value")

func schemaErrorf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
