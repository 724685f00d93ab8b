// Package jsonschema holds the in-memory representation of a JSON-Schema-shaped
// document: a recursive tagged variant (Node) plus pointer resolution and
// conversion to and from the generic nested-mapping wire form.
//
// Nodes never alias each other. A Ref node holds only the pointer string, so
// copies are always deep and independently mutable; the normalizer relies on
// this to inline one definition into many sites safely.
package jsonschema

// Kind tags the variant a Node represents.
type Kind int

const (
	KindLeaf Kind = iota
	KindObject
	KindArray
	KindAnyOf
	KindAllOf
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindAnyOf:
		return "anyOf"
	case KindAllOf:
		return "allOf"
	case KindRef:
		return "$ref"
	default:
		return "leaf"
	}
}

// Property is one named entry of an object's properties (or of a definitions
// container). Order is canonical: builders keep entries sorted by name.
type Property struct {
	Name   string
	Schema *Node
}

// Node is a schema subtree. Exactly the fields of its Kind are meaningful;
// Attrs, Defs and Definitions may accompany any kind.
type Node struct {
	Kind Kind

	// Object
	Properties           []Property
	Required             []string
	AdditionalProperties *bool

	// Array
	Items *Node

	// AnyOf / AllOf
	Variants []*Node

	// Ref: a document-relative pointer such as "#/$defs/Name". Logical only,
	// never a memory reference into another node.
	Ref string

	// Leaf type keyword ("string", "integer", ...); empty when absent.
	Type string

	// Attrs carries pass-through keywords (description, default, enum, ...)
	// that the strict rules do not interpret structurally.
	Attrs map[string]any

	// Defs / Definitions are the "$defs" and "definitions" containers,
	// addressable by pointer.
	Defs        []Property
	Definitions []Property
}

// Property returns the schema of the named property, if declared.
func (n *Node) Property(name string) (*Node, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// Clone returns a deep copy. The result shares no mutable state with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Kind: n.Kind,
		Ref:  n.Ref,
		Type: n.Type,
	}
	if n.AdditionalProperties != nil {
		b := *n.AdditionalProperties
		out.AdditionalProperties = &b
	}
	if n.Required != nil {
		out.Required = append([]string(nil), n.Required...)
	}
	out.Properties = cloneProperties(n.Properties)
	out.Defs = cloneProperties(n.Defs)
	out.Definitions = cloneProperties(n.Definitions)
	out.Items = n.Items.Clone()
	if n.Variants != nil {
		out.Variants = make([]*Node, len(n.Variants))
		for i, v := range n.Variants {
			out.Variants[i] = v.Clone()
		}
	}
	if n.Attrs != nil {
		out.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = CopyValue(v)
		}
	}
	return out
}

func cloneProperties(props []Property) []Property {
	if props == nil {
		return nil
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = Property{Name: p.Name, Schema: p.Schema.Clone()}
	}
	return out
}
