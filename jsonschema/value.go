package jsonschema

import (
	"sort"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FromValue converts a generic nested mapping (string-keyed maps, sequences,
// scalars) into a Node tree. The input is never retained or mutated; every
// value that crosses into the tree is deep-copied.
//
// A non-mapping where a schema is required yields a malformed_node error.
func FromValue(v any) (*Node, error) {
	return nodeFromValue(v, "")
}

// FromJSON decodes a JSON document and converts it via FromValue.
func FromJSON(b []byte) (*Node, error) {
	var v any
	if err := j.Unmarshal(b, &v); err != nil {
		return nil, errAt(CodeMalformedNode, "", "invalid JSON document: %v", err)
	}
	return FromValue(v)
}

// FromYAML decodes a YAML document and converts it via FromValue. YAML is
// accepted as a second authoring format for schema documents; the resulting
// tree is identical to the JSON form.
func FromYAML(b []byte) (*Node, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, errAt(CodeMalformedNode, "", "invalid YAML document: %v", err)
	}
	return FromValue(v)
}

func nodeFromValue(v any, path string) (*Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errAt(CodeMalformedNode, path, "expected a mapping, got %T", v)
	}

	n := &Node{}
	claimed := map[string]bool{}

	var err error
	if n.Defs, err = defsFromValue(m, "$defs", path, claimed); err != nil {
		return nil, err
	}
	if n.Definitions, err = defsFromValue(m, "definitions", path, claimed); err != nil {
		return nil, err
	}

	typ, _ := m["type"].(string)

	switch {
	case isString(m["$ref"]):
		n.Kind = KindRef
		n.Ref = m["$ref"].(string)
		claimed["$ref"] = true

	case isMapping(m["properties"]) || typ == "object":
		n.Kind = KindObject
		n.Type = typ
		claimed["type"] = true
		if props, ok := m["properties"].(map[string]any); ok {
			claimed["properties"] = true
			names := sortedKeys(props)
			for _, name := range names {
				child, err := nodeFromValue(props[name], JoinPointer(path, "properties", name))
				if err != nil {
					return nil, err
				}
				n.Properties = append(n.Properties, Property{Name: name, Schema: child})
			}
		}
		if req, ok := m["required"]; ok {
			claimed["required"] = true
			n.Required = stringSlice(req)
		}
		if ap, ok := m["additionalProperties"]; ok {
			claimed["additionalProperties"] = true
			b, ok := ap.(bool)
			if !ok {
				return nil, errAt(CodeAdditionalPropsNotAllow, path,
					"additionalProperties must be a boolean, got %T", ap)
			}
			n.AdditionalProperties = &b
		}

	case isMapping(m["items"]) || typ == "array":
		n.Kind = KindArray
		n.Type = typ
		claimed["type"] = true
		if items, ok := m["items"]; ok {
			claimed["items"] = true
			child, err := nodeFromValue(items, JoinPointer(path, "items"))
			if err != nil {
				return nil, err
			}
			n.Items = child
		}

	case isSequence(m["anyOf"]):
		n.Kind = KindAnyOf
		claimed["anyOf"] = true
		if n.Variants, err = variantsFromValue(m["anyOf"].([]any), path, "anyOf"); err != nil {
			return nil, err
		}

	case isSequence(m["allOf"]):
		n.Kind = KindAllOf
		claimed["allOf"] = true
		if n.Variants, err = variantsFromValue(m["allOf"].([]any), path, "allOf"); err != nil {
			return nil, err
		}

	default:
		n.Kind = KindLeaf
		if typ != "" {
			n.Type = typ
			claimed["type"] = true
		}
	}

	for _, k := range sortedKeys(m) {
		if claimed[k] {
			continue
		}
		if n.Attrs == nil {
			n.Attrs = map[string]any{}
		}
		n.Attrs[k] = CopyValue(m[k])
	}
	return n, nil
}

func defsFromValue(m map[string]any, container, path string, claimed map[string]bool) ([]Property, error) {
	dm, ok := m[container].(map[string]any)
	if !ok {
		return nil, nil
	}
	claimed[container] = true
	var defs []Property
	for _, name := range sortedKeys(dm) {
		child, err := nodeFromValue(dm[name], JoinPointer(path, container, name))
		if err != nil {
			return nil, err
		}
		defs = append(defs, Property{Name: name, Schema: child})
	}
	return defs, nil
}

func variantsFromValue(seq []any, path, keyword string) ([]*Node, error) {
	out := make([]*Node, len(seq))
	for i, v := range seq {
		child, err := nodeFromValue(v, JoinPointer(path, keyword, itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = child
	}
	return out, nil
}

// Value renders the tree back into the generic nested-mapping wire form. The
// result shares no mutable state with the tree.
func (n *Node) Value() map[string]any {
	if n == nil {
		return nil
	}
	out := map[string]any{}
	for k, v := range n.Attrs {
		out[k] = CopyValue(v)
	}
	if n.Type != "" {
		out["type"] = n.Type
	}

	switch n.Kind {
	case KindObject:
		props := map[string]any{}
		for _, p := range n.Properties {
			props[p.Name] = p.Schema.Value()
		}
		out["properties"] = props
		req := append([]string(nil), n.Required...)
		if req == nil {
			req = []string{}
		}
		out["required"] = req
		if n.AdditionalProperties != nil {
			out["additionalProperties"] = *n.AdditionalProperties
		}
	case KindArray:
		if n.Items != nil {
			out["items"] = n.Items.Value()
		}
	case KindAnyOf:
		out["anyOf"] = variantValues(n.Variants)
	case KindAllOf:
		out["allOf"] = variantValues(n.Variants)
	case KindRef:
		out["$ref"] = n.Ref
	}

	if n.Defs != nil {
		out["$defs"] = defsValue(n.Defs)
	}
	if n.Definitions != nil {
		out["definitions"] = defsValue(n.Definitions)
	}
	return out
}

func variantValues(vs []*Node) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Value()
	}
	return out
}

func defsValue(defs []Property) map[string]any {
	out := map[string]any{}
	for _, d := range defs {
		out[d.Name] = d.Schema.Value()
	}
	return out
}

// CopyValue deep-copies a generic JSON-like value (maps, slices, scalars).
func CopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func isMapping(v any) bool  { _, ok := v.(map[string]any); return ok }
func isSequence(v any) bool { _, ok := v.([]any); return ok }
func isString(v any) bool   { s, ok := v.(string); return ok && s != "" }

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
