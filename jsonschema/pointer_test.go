package jsonschema_test

import (
	"testing"

	js "github.com/reoring/strictout/jsonschema"
)

func mustNode(t *testing.T, v map[string]any) *js.Node {
	t.Helper()
	n, err := js.FromValue(v)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	return n
}

func TestResolve_Defs(t *testing.T) {
	root := mustNode(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"profile": map[string]any{"$ref": "#/$defs/Profile"},
		},
		"$defs": map[string]any{
			"Profile": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
				},
			},
		},
	})

	got, err := js.Resolve(root, "#/$defs/Profile")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Kind != js.KindObject {
		t.Fatalf("expected object node, got %v", got.Kind)
	}
	if _, ok := got.Property("name"); !ok {
		t.Fatalf("resolved node missing property name")
	}
}

func TestResolve_ThroughProperties(t *testing.T) {
	root := mustNode(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	})

	got, err := js.Resolve(root, "#/properties/items/items")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Type != "string" {
		t.Fatalf("expected string leaf, got %q", got.Type)
	}
}

func TestResolve_Errors(t *testing.T) {
	root := mustNode(t, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"$defs": map[string]any{
			"A": map[string]any{"type": "integer"},
		},
	})

	cases := []struct {
		name    string
		pointer string
	}{
		{"no root marker", "$defs/A"},
		{"missing definition", "#/$defs/Missing"},
		{"missing property", "#/properties/age"},
		{"through a leaf", "#/properties/name/properties/x"},
		{"unknown segment", "#/nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := js.Resolve(root, tc.pointer)
			if err == nil {
				t.Fatalf("expected error for %q", tc.pointer)
			}
			se, ok := js.AsSchemaError(err)
			if !ok || se.Code != js.CodeInvalidPointer {
				t.Fatalf("expected invalid_pointer, got %v", err)
			}
			if se.Pointer != tc.pointer {
				t.Fatalf("expected pointer %q recorded, got %q", tc.pointer, se.Pointer)
			}
		})
	}
}

func TestJoinPointer_Escaping(t *testing.T) {
	got := js.JoinPointer("", "properties", "a/b~c")
	if got != "/properties/a~1b~0c" {
		t.Fatalf("unexpected pointer path: %q", got)
	}
}
