package strictify

import (
	js "github.com/reoring/strictout/jsonschema"
)

// Inline replaces every reference in the tree with a deep copy of its fully
// resolved, fully inlined target. The result contains no Ref node anywhere.
//
// visited holds the pointers active on the current descent path. It is
// extended copy-on-write, so two independent references to the same
// definition from different branches each inline successfully; only a true
// cycle along one path is rejected, fail-fast, with circular_reference.
func Inline(n *js.Node, root *js.Node, visited map[string]struct{}) (*js.Node, error) {
	return inline(n, "", root, visited)
}

func inline(n *js.Node, path string, root *js.Node, visited map[string]struct{}) (*js.Node, error) {
	if n == nil {
		return nil, nil
	}

	if n.Kind == js.KindRef {
		if _, seen := visited[n.Ref]; seen {
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
		inlined, err := inline(resolved, path, root, extend(visited, n.Ref))
		if err != nil {
			return nil, err
		}
		// Local annotations always take precedence over the referenced
		// definition's attributes.
		if len(n.Attrs) > 0 {
			inlined.Attrs = mergeAttrs(inlined.Attrs, n.Attrs)
		}
		return inlined, nil
	}

	out := n.Clone()

	switch out.Kind {
	case js.KindObject:
		for i, p := range out.Properties {
			child, err := inline(p.Schema, js.JoinPointer(path, "properties", p.Name), root, visited)
			if err != nil {
				return nil, err
			}
			out.Properties[i].Schema = child
		}
	case js.KindArray:
		if out.Items != nil {
			child, err := inline(out.Items, js.JoinPointer(path, "items"), root, visited)
			if err != nil {
				return nil, err
			}
			out.Items = child
		}
	case js.KindAnyOf, js.KindAllOf:
		kw := "anyOf"
		if out.Kind == js.KindAllOf {
			kw = "allOf"
		}
		for i, v := range out.Variants {
			child, err := inline(v, js.JoinPointer(path, kw, itoa(i)), root, visited)
			if err != nil {
				return nil, err
			}
			out.Variants[i] = child
		}
	}

	// Nested definition containers are inlined too, so an inner definition
	// that references another definition resolves; the orchestrator drops the
	// top-level containers afterwards.
	if err := inlineDefs(out.Defs, js.JoinPointer(path, "$defs"), root, visited); err != nil {
		return nil, err
	}
	if err := inlineDefs(out.Definitions, js.JoinPointer(path, "definitions"), root, visited); err != nil {
		return nil, err
	}
	return out, nil
}

func inlineDefs(defs []js.Property, base string, root *js.Node, visited map[string]struct{}) error {
	for i, d := range defs {
		child, err := inline(d.Schema, js.JoinPointer(base, d.Name), root, visited)
		if err != nil {
			return err
		}
		defs[i].Schema = child
	}
	return nil
}
