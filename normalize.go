package strictout

import (
	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/strictout/internal/strictify"
	"github.com/reoring/strictout/jsonschema"
)

// SchemaError is re-exported from jsonschema so callers of the root API can
// match on it without importing the representation package.
type SchemaError = jsonschema.SchemaError

// Error codes carried by SchemaError.
const (
	CodeInvalidPointer          = jsonschema.CodeInvalidPointer
	CodeAdditionalPropsNotAllow = jsonschema.CodeAdditionalPropsNotAllow
	CodeCircularReference       = jsonschema.CodeCircularReference
	CodeMalformedNode           = jsonschema.CodeMalformedNode
)

// AsSchemaError extracts a *SchemaError from an error.
func AsSchemaError(err error) (*SchemaError, bool) { return jsonschema.AsSchemaError(err) }

// EnsureStrict normalizes a JSON-Schema-shaped nested mapping into the strict
// dialect a constrained text generator can consume:
//
//   - every object is closed and all of its properties are required;
//   - every $ref is resolved and fully inlined (cycles are rejected);
//   - definition containers are dropped from the result;
//   - an entirely empty schema maps to the canonical empty object schema.
//
// The input is never retained or mutated; the result is a fresh, independent
// document. EnsureStrict is idempotent and fails with a typed *SchemaError on
// the first structural violation, never returning partial output.
func EnsureStrict(schema map[string]any) (map[string]any, error) {
	if len(schema) == 0 {
		return emptyObjectSchema(), nil
	}

	root, err := jsonschema.FromValue(schema)
	if err != nil {
		return nil, err
	}

	strictRoot, err := strictify.Strict(root, root)
	if err != nil {
		return nil, err
	}

	inlined, err := strictify.Inline(strictRoot, strictRoot, nil)
	if err != nil {
		return nil, err
	}

	// Nothing references the definition containers anymore.
	inlined.Defs = nil
	inlined.Definitions = nil

	return inlined.Value(), nil
}

// EnsureStrictJSON decodes a JSON schema document and normalizes it.
func EnsureStrictJSON(b []byte) (map[string]any, error) {
	var v map[string]any
	if err := j.Unmarshal(b, &v); err != nil {
		return nil, &SchemaError{Code: CodeMalformedNode, Path: "/", Message: "invalid JSON schema document: " + err.Error()}
	}
	return EnsureStrict(v)
}

// EnsureStrictYAML decodes a YAML schema document and normalizes it. YAML is
// accepted as a second authoring format; the normalized form is identical to
// the JSON path.
func EnsureStrictYAML(b []byte) (map[string]any, error) {
	var v map[string]any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, &SchemaError{Code: CodeMalformedNode, Path: "/", Message: "invalid YAML schema document: " + err.Error()}
	}
	return EnsureStrict(v)
}

// emptyObjectSchema is the canonical strict form of an empty input schema.
// Returned fresh on every call so callers may mutate the result.
func emptyObjectSchema() map[string]any {
	return map[string]any{
		"additionalProperties": false,
		"type":                 "object",
		"properties":           map[string]any{},
		"required":             []string{},
	}
}
