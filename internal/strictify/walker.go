// Package strictify implements the two recursive transforms behind
// EnsureStrict: the strict-mode walker and the reference inliner. Both are
// pure, copy-returning functions over jsonschema.Node; the input tree is
// never mutated.
package strictify

import (
	"strconv"

	js "github.com/reoring/strictout/jsonschema"
)

// Strict applies the strict-mode rules to a schema tree and returns a
// transformed copy:
//
//   - every object becomes closed (additionalProperties:false) with all
//     declared properties required;
//   - a pre-existing additionalProperties:true is a hard configuration error;
//   - single-member allOf wrappers are flattened;
//   - a default annotation equal to null is dropped;
//   - a $ref decorated with sibling keys is unraveled into a concrete inline
//     type (sibling keys win on conflict); bare refs are left for Inline.
//
// root is the document the tree belongs to; refs resolve against it.
func Strict(n *js.Node, root *js.Node) (*js.Node, error) {
	return strict(n, "", root, nil)
}

func strict(n *js.Node, path string, root *js.Node, active map[string]struct{}) (*js.Node, error) {
	if n == nil {
		return nil, &js.SchemaError{Code: js.CodeMalformedNode, Path: pathOrRoot(path), Message: "expected a schema node"}
	}
	out := n.Clone()

	// Definition containers are strict-normalized in place: they are the
	// resolution targets of later inlining.
	if err := strictDefs(out.Defs, js.JoinPointer(path, "$defs"), root, active); err != nil {
		return nil, err
	}
	if err := strictDefs(out.Definitions, js.JoinPointer(path, "definitions"), root, active); err != nil {
		return nil, err
	}

	stripNullDefault(out)

	switch out.Kind {
	case js.KindRef:
		if len(out.Attrs) == 0 {
			// Bare reference: Inline handles it.
			return out, nil
		}
		return unravelRef(out, path, root, active)

	case js.KindObject:
		for i, p := range out.Properties {
			child, err := strict(p.Schema, js.JoinPointer(path, "properties", p.Name), root, active)
			if err != nil {
				return nil, err
			}
			out.Properties[i].Schema = child
		}
		if out.AdditionalProperties != nil && *out.AdditionalProperties {
			return nil, &js.SchemaError{
				Code:    js.CodeAdditionalPropsNotAllow,
				Path:    pathOrRoot(path),
				Message: "additionalProperties must not be true for strict object types",
			}
		}
		closed := false
		out.AdditionalProperties = &closed
		out.Required = propertyNames(out.Properties)

	case js.KindArray:
		if out.Items != nil {
			child, err := strict(out.Items, js.JoinPointer(path, "items"), root, active)
			if err != nil {
				return nil, err
			}
			out.Items = child
		}

	case js.KindAnyOf:
		for i, v := range out.Variants {
			child, err := strict(v, js.JoinPointer(path, "anyOf", itoa(i)), root, active)
			if err != nil {
				return nil, err
			}
			out.Variants[i] = child
		}

	case js.KindAllOf:
		for i, v := range out.Variants {
			child, err := strict(v, js.JoinPointer(path, "allOf", itoa(i)), root, active)
			if err != nil {
				return nil, err
			}
			out.Variants[i] = child
		}
		if len(out.Variants) == 1 {
			return spliceAllOf(out), nil
		}
	}

	return out, nil
}

// unravelRef turns a decorated reference into a concrete inline type: the
// resolved target's fields are merged underneath the node's own sibling keys
// and the reference itself is dropped. The merged node is strict-normalized
// again because the referenced definition may not be strict yet.
func unravelRef(n *js.Node, path string, root *js.Node, active map[string]struct{}) (*js.Node, error) {
	if _, seen := active[n.Ref]; seen {
		return nil, circularErr(n.Ref, path)
	}
	resolved, err := js.Resolve(root, n.Ref)
	if err != nil {
		if se, ok := js.AsSchemaError(err); ok {
			se.Path = pathOrRoot(path)
			return nil, se
		}
		return nil, err
	}

	merged := resolved.Clone()
	if merged.Kind == js.KindRef {
		// The decorated node's own $ref is dropped after the merge; a bare
		// ref target therefore degrades to its annotations only.
		merged.Kind = js.KindLeaf
		merged.Ref = ""
	}
	merged.Attrs = mergeAttrs(merged.Attrs, n.Attrs)
	if n.Defs != nil {
		merged.Defs = n.Defs
	}
	if n.Definitions != nil {
		merged.Definitions = n.Definitions
	}

	next := extend(active, n.Ref)
	return strict(merged, path, root, next)
}

// spliceAllOf flattens a single-member allOf into its member. The member's
// fields take precedence over annotations left on the wrapper.
func spliceAllOf(n *js.Node) *js.Node {
	member := n.Variants[0]
	member.Attrs = mergeAttrs(n.Attrs, member.Attrs)
	if member.Defs == nil {
		member.Defs = n.Defs
	}
	if member.Definitions == nil {
		member.Definitions = n.Definitions
	}
	return member
}

func strictDefs(defs []js.Property, base string, root *js.Node, active map[string]struct{}) error {
	for i, d := range defs {
		child, err := strict(d.Schema, js.JoinPointer(base, d.Name), root, active)
		if err != nil {
			return err
		}
		defs[i].Schema = child
	}
	return nil
}

// stripNullDefault removes a default annotation whose value is null. The type
// stays nullable; only the redundant annotation goes away.
func stripNullDefault(n *js.Node) {
	if n.Attrs == nil {
		return
	}
	if v, ok := n.Attrs["default"]; ok && v == nil {
		delete(n.Attrs, "default")
		if len(n.Attrs) == 0 {
			n.Attrs = nil
		}
	}
}

func propertyNames(props []js.Property) []string {
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

// mergeAttrs overlays attrs onto base, overlay winning on conflict. Values
// are deep-copied so the result aliases neither input.
func mergeAttrs(base, overlay map[string]any) map[string]any {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = js.CopyValue(v)
	}
	for k, v := range overlay {
		out[k] = js.CopyValue(v)
	}
	return out
}

// extend returns a new set containing every member of s plus ptr. Sets are
// path-scoped: sibling branches must not observe each other's additions.
func extend(s map[string]struct{}, ptr string) map[string]struct{} {
	out := make(map[string]struct{}, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[ptr] = struct{}{}
	return out
}

func circularErr(pointer, path string) *js.SchemaError {
	return &js.SchemaError{
		Code:    js.CodeCircularReference,
		Path:    pathOrRoot(path),
		Pointer: pointer,
		Message: "circular reference detected: " + pointer,
	}
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func itoa(i int) string { return strconv.Itoa(i) }
