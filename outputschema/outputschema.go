// Package outputschema implements the output-contract boundary between a
// text-generation backend and the strictout core: it describes the expected
// output as a JSON Schema (wrapping non-object roots under a fixed key),
// normalizes it to the strict dialect, and on the way back runs the
// repair-validate pipeline and unwraps the value again. The core pipeline
// itself is unaware of the wrapping.
package outputschema

import (
	"context"
	"errors"
	"fmt"

	strictout "github.com/reoring/strictout"
	"github.com/reoring/strictout/jsonschema"
)

// WrapperKey is the synthetic top-level key used to represent a non-object
// root type as a JSON object.
const WrapperKey = "response"

// Descriptor captures the JSON schema of an expected output and validates raw
// generator text into a typed value.
type Descriptor interface {
	// IsPlainText reports whether the output is plain text rather than JSON.
	IsPlainText() bool
	// Name identifies the target type in diagnostics.
	Name() string
	// JSONSchema returns the schema to hand to the backend. Only called when
	// the output is not plain text.
	JSONSchema() (map[string]any, error)
	// IsStrict reports whether JSONSchema is in the strict dialect.
	IsStrict() bool
	// ValidateJSON parses and validates raw generator text, repairing it when
	// needed. It returns a single consolidated *OutputError on failure.
	ValidateJSON(ctx context.Context, text string) (any, error)
}

// OutputError is the consolidated "model produced invalid output" failure the
// boundary raises. It names the target type and preserves the root-cause
// error and the repair diagnostic.
type OutputError struct {
	TypeName   string
	Diagnostic string
	Err        error
}

func (e *OutputError) Error() string {
	msg := fmt.Sprintf("model produced invalid output for %s", e.TypeName)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += " (" + e.Diagnostic + ")"
	}
	return msg
}

func (e *OutputError) Unwrap() error { return e.Err }

// AsOutputError extracts an *OutputError from an error.
func AsOutputError(err error) (*OutputError, bool) {
	var oe *OutputError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// Option configures a Schema.
type Option func(*Schema)

// WithoutStrict keeps the target schema as supplied instead of normalizing it
// to the strict dialect.
func WithoutStrict() Option { return func(s *Schema) { s.strict = false } }

// WithoutRepair disables the repair tiers during ValidateJSON.
func WithoutRepair() Option { return func(s *Schema) { s.enableRepair = false } }

// WithCache routes normalization through a shared NormalizeCache.
func WithCache(c *strictout.NormalizeCache) Option { return func(s *Schema) { s.cache = c } }

// Schema is the standard descriptor: a named target type described by a JSON
// Schema nested mapping plus an optional TypeContract for local validation.
type Schema struct {
	name         string
	contract     strictout.TypeContract
	strict       bool
	enableRepair bool
	wrapped      bool
	cache        *strictout.NormalizeCache
	schema       map[string]any
}

// New builds a Schema for the named target type. When the supplied schema
// cannot be represented as a JSON object at the root (its type is not
// "object"), it is wrapped under WrapperKey before normalization and
// unwrapped again after validation. Strict normalization is on by default; a
// schema that violates strict mode surfaces the underlying *SchemaError.
func New(name string, schema map[string]any, contract strictout.TypeContract, opts ...Option) (*Schema, error) {
	s := &Schema{
		name:         name,
		contract:     contract,
		strict:       true,
		enableRepair: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	typ, _ := schema["type"].(string)
	s.wrapped = typ != "object"

	effective := schema
	if s.wrapped {
		effective = map[string]any{
			"type": "object",
			"properties": map[string]any{
				WrapperKey: schema,
			},
			"required":             []string{WrapperKey},
			"additionalProperties": false,
		}
	}

	if s.strict {
		normalized, err := s.normalize(effective)
		if err != nil {
			return nil, fmt.Errorf("output type %s is not valid in strict mode: %w", name, err)
		}
		s.schema = normalized
	} else {
		s.schema, _ = jsonschema.CopyValue(effective).(map[string]any)
	}
	return s, nil
}

func (s *Schema) normalize(schema map[string]any) (map[string]any, error) {
	if s.cache != nil {
		return s.cache.EnsureStrict(schema)
	}
	return strictout.EnsureStrict(schema)
}

func (s *Schema) IsPlainText() bool { return false }
func (s *Schema) Name() string      { return s.name }
func (s *Schema) IsStrict() bool    { return s.strict }

// JSONSchema returns a copy of the (wrapped, normalized) schema.
func (s *Schema) JSONSchema() (map[string]any, error) {
	out, _ := jsonschema.CopyValue(s.schema).(map[string]any)
	return out, nil
}

// ValidateJSON runs the repair-validate pipeline over raw generator text and
// unwraps the wrapper key when one was applied.
func (s *Schema) ValidateJSON(ctx context.Context, text string) (any, error) {
	res := strictout.RepairAndValidate(ctx, text, s.contract, strictout.RepairOpt{
		EnableRepair: s.enableRepair,
	})
	if !res.Success {
		return nil, &OutputError{TypeName: s.name, Diagnostic: res.Diagnostic, Err: res.OriginalErr}
	}
	if !s.wrapped {
		return res.Value, nil
	}

	m, ok := res.Value.(map[string]any)
	if !ok {
		return nil, &OutputError{
			TypeName: s.name,
			Err:      fmt.Errorf("expected an object, got %T", res.Value),
		}
	}
	inner, ok := m[WrapperKey]
	if !ok {
		return nil, &OutputError{
			TypeName: s.name,
			Err:      fmt.Errorf("missing key %q in output object", WrapperKey),
		}
	}
	return inner, nil
}

// JSONObject is the descriptor for backends that only accept a generic
// {"type":"object"} response format. The backend sees no structure; the
// contract still validates locally, with repair available.
type JSONObject struct {
	name         string
	contract     strictout.TypeContract
	enableRepair bool
}

// NewJSONObject builds a JSONObject descriptor for the named target type.
func NewJSONObject(name string, contract strictout.TypeContract, opts ...JSONObjectOption) *JSONObject {
	o := &JSONObject{name: name, contract: contract, enableRepair: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// JSONObjectOption configures a JSONObject descriptor.
type JSONObjectOption func(*JSONObject)

// JSONObjectWithoutRepair disables the repair tiers during ValidateJSON.
func JSONObjectWithoutRepair() JSONObjectOption {
	return func(o *JSONObject) { o.enableRepair = false }
}

func (o *JSONObject) IsPlainText() bool { return false }
func (o *JSONObject) Name() string      { return fmt.Sprintf("JSONObject(%s)", o.name) }
func (o *JSONObject) IsStrict() bool    { return false }

func (o *JSONObject) JSONSchema() (map[string]any, error) {
	return map[string]any{"type": "object"}, nil
}

func (o *JSONObject) ValidateJSON(ctx context.Context, text string) (any, error) {
	res := strictout.RepairAndValidate(ctx, text, o.contract, strictout.RepairOpt{
		EnableRepair: o.enableRepair,
	})
	if !res.Success {
		return nil, &OutputError{TypeName: o.name, Diagnostic: res.Diagnostic, Err: res.OriginalErr}
	}
	return res.Value, nil
}

// PlainText is the descriptor for outputs that are not JSON at all.
type PlainText struct{}

func (PlainText) IsPlainText() bool { return true }
func (PlainText) Name() string      { return "text" }
func (PlainText) IsStrict() bool    { return false }

func (PlainText) JSONSchema() (map[string]any, error) {
	return nil, errors.New("outputschema: plain text output has no JSON schema")
}

func (PlainText) ValidateJSON(ctx context.Context, text string) (any, error) {
	return text, nil
}
