package jsonschema

import (
	"errors"
	"fmt"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidPointer          = "invalid_pointer"
	CodeAdditionalPropsNotAllow = "additional_properties_not_allowed"
	CodeCircularReference       = "circular_reference"
	CodeMalformedNode           = "malformed_node"
)

// SchemaError reports a structural violation found while normalizing a schema
// document. Normalization is all-or-nothing: the first SchemaError aborts the
// whole call with no partial output.
type SchemaError struct {
	Code    string // One of the codes listed above.
	Path    string // JSON Pointer to the offending node ("/" for the root).
	Pointer string // The $ref pointer involved, when relevant.
	Message string
}

func (e *SchemaError) Error() string {
	p := e.Path
	if p == "" {
		p = "/"
	}
	if e.Message == "" {
		return fmt.Sprintf("%s at %s", e.Code, p)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, p, e.Message)
}

// AsSchemaError extracts a *SchemaError from an error using errors.As internally.
func AsSchemaError(err error) (*SchemaError, bool) {
	if err == nil {
		return nil, false
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func errAt(code, path, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Path: normalizePath(path), Message: fmt.Sprintf(format, args...)}
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
