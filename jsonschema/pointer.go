package jsonschema

import (
	"strconv"
	"strings"
)

// Resolve walks a document-relative pointer (for example "#/$defs/Name")
// against the root node and returns the target. It fails with invalid_pointer
// when the pointer does not start with "#/", any segment is missing, or the
// pointer traverses a node that is not addressable (for example through a
// leaf). Resolve never mutates the tree; callers clone the result before
// transforming it.
func Resolve(root *Node, pointer string) (*Node, error) {
	if !strings.HasPrefix(pointer, "#/") {
		return nil, &SchemaError{
			Code:    CodeInvalidPointer,
			Path:    "/",
			Pointer: pointer,
			Message: "pointer must start with #/",
		}
	}
	segs := strings.Split(pointer[2:], "/")
	for i := range segs {
		segs[i] = unescapePointerToken(segs[i])
	}

	cur := root
	for i := 0; i < len(segs); {
		if cur == nil {
			return nil, resolveErr(pointer, segs[:i])
		}
		switch segs[i] {
		case "$defs":
			if i+1 >= len(segs) {
				return nil, resolveErr(pointer, segs[:i+1])
			}
			next, ok := lookupDef(cur.Defs, segs[i+1])
			if !ok {
				return nil, resolveErr(pointer, segs[:i+2])
			}
			cur, i = next, i+2
		case "definitions":
			if i+1 >= len(segs) {
				return nil, resolveErr(pointer, segs[:i+1])
			}
			next, ok := lookupDef(cur.Definitions, segs[i+1])
			if !ok {
				return nil, resolveErr(pointer, segs[:i+2])
			}
			cur, i = next, i+2
		case "properties":
			if i+1 >= len(segs) || cur.Kind != KindObject {
				return nil, resolveErr(pointer, segs[:i+1])
			}
			next, ok := cur.Property(segs[i+1])
			if !ok {
				return nil, resolveErr(pointer, segs[:i+2])
			}
			cur, i = next, i+2
		case "items":
			if cur.Kind != KindArray || cur.Items == nil {
				return nil, resolveErr(pointer, segs[:i+1])
			}
			cur, i = cur.Items, i+1
		case "anyOf", "allOf":
			if i+1 >= len(segs) || (cur.Kind != KindAnyOf && cur.Kind != KindAllOf) {
				return nil, resolveErr(pointer, segs[:i+1])
			}
			idx, err := strconv.Atoi(segs[i+1])
			if err != nil || idx < 0 || idx >= len(cur.Variants) {
				return nil, resolveErr(pointer, segs[:i+2])
			}
			cur, i = cur.Variants[idx], i+2
		default:
			return nil, resolveErr(pointer, segs[:i+1])
		}
	}
	if cur == nil {
		return nil, resolveErr(pointer, segs)
	}
	return cur, nil
}

func lookupDef(defs []Property, name string) (*Node, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d.Schema, true
		}
	}
	return nil, false
}

func resolveErr(pointer string, reached []string) *SchemaError {
	return &SchemaError{
		Code:    CodeInvalidPointer,
		Path:    normalizePath(joinSegments(reached)),
		Pointer: pointer,
		Message: "pointer " + pointer + " does not resolve to a schema node",
	}
}

func joinSegments(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(escapePointerToken(s))
	}
	return b.String()
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

func escapePointerToken(s string) string   { return pointerEscaper.Replace(s) }
func unescapePointerToken(s string) string { return pointerUnescaper.Replace(s) }

// JoinPointer appends tokens to a JSON Pointer path, escaping as needed.
func JoinPointer(base string, tokens ...string) string {
	b := &strings.Builder{}
	b.WriteString(base)
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(escapePointerToken(t))
	}
	return b.String()
}

func itoa(i int) string { return strconv.Itoa(i) }
