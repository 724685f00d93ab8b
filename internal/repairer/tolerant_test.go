package repairer_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reoring/strictout/internal/repairer"
)

func TestParse_Structured(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want any
	}{
		{"clean object", `{"a": 1}`, map[string]any{"a": float64(1)}},
		{"unquoted keys", `{a: 1, b: two}`, map[string]any{"a": float64(1), "b": "two"}},
		{"single quotes", `{'a': 'b'}`, map[string]any{"a": "b"}},
		{"missing value", `{"a":}`, map[string]any{"a": nil}},
		{"equals separator", `{a = 1}`, map[string]any{"a": float64(1)}},
		{"truncated nesting", `{"a": {"b": [1, {"c": 2`, map[string]any{
			"a": map[string]any{"b": []any{float64(1), map[string]any{"c": float64(2)}}},
		}},
		{"comments", "{\n  // the answer\n  \"a\": 42\n}", map[string]any{"a": float64(42)}},
		{"block comment", `{"a": /* inline */ 1}`, map[string]any{"a": float64(1)}},
		{"python literals", `{"x": True, "y": None}`, map[string]any{"x": true, "y": nil}},
		{"nan becomes null", `{"x": NaN}`, map[string]any{"x": nil}},
		{"duplicate keys last wins", `{"a": 1, "a": 2}`, map[string]any{"a": float64(2)}},
		{"semicolon separators", `[1; 2; 3]`, []any{float64(1), float64(2), float64(3)}},
		{"embedded in prose", `The plan: {"steps": ["a", "b"]} Done.`, map[string]any{"steps": []any{"a", "b"}}},
		{"escapes decoded", `{"a": "x\ny A"}`, map[string]any{"a": "x\ny A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repairer.Parse(tc.in, repairer.ModeStructured)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParse_StructuredRejectsProse(t *testing.T) {
	_, err := repairer.Parse("just words", repairer.ModeStructured)
	if !errors.Is(err, repairer.ErrNoStructure) {
		t.Fatalf("expected ErrNoStructure, got %v", err)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, mode := range []repairer.Mode{repairer.ModeStructured, repairer.ModeAnyValue} {
		if _, err := repairer.Parse("  \n ", mode); err == nil {
			t.Fatalf("expected an error for blank input in mode %v", mode)
		}
	}
}

func TestParse_AnyValue(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want any
	}{
		{"bare number", "42", float64(42)},
		{"bare bool", "true", true},
		{"bare null", "None", nil},
		{"quoted scalar", `'hello'`, "hello"},
		{"prose coerced to string", "not json at all", "not json at all"},
		{"object still wins", `{"a": 1}`, map[string]any{"a": float64(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repairer.Parse(tc.in, repairer.ModeAnyValue)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Parse(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}
