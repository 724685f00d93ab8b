package repairer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Mode selects how permissive the tolerant reader is about the overall shape
// of the input.
type Mode int

const (
	// ModeStructured requires an object or array somewhere in the input and
	// reads it best-effort. Used by the object-mode repair tier.
	ModeStructured Mode = iota
	// ModeAnyValue additionally accepts bare scalars and, as a last resort,
	// coerces the whole input to a string. Used by the fallback tier.
	ModeAnyValue
)

var (
	// ErrNoStructure reports that structured mode found no object or array.
	ErrNoStructure = errors.New("repairer: no object or array found in input")
	// ErrEmptyInput reports that there was nothing to read at all.
	ErrEmptyInput = errors.New("repairer: empty input")
)

// Parse reads malformed JSON-ish text into a generic value. It tolerates
// unquoted keys, single quotes, missing or extra separators, comments,
// Python-style literals, and truncated input. It never fails on content once
// a starting point is found; duplicate keys keep the last value seen.
func Parse(s string, mode Mode) (any, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	cleaned := StripNoise(s)
	if start := strings.IndexAny(cleaned, "{["); start >= 0 {
		p := &reader{src: cleaned, i: start}
		return p.value(), nil
	}

	if mode == ModeStructured {
		return nil, ErrNoStructure
	}

	// No structure at all: classify the whole input as a single scalar.
	p := &reader{src: cleaned}
	p.skipJunk()
	if p.i >= len(p.src) {
		return nil, ErrEmptyInput
	}
	if c := p.src[p.i]; c == '"' || c == '\'' {
		v := p.string(c)
		p.skipJunk()
		if p.i >= len(p.src) {
			return v, nil
		}
		// Trailing prose after the quoted part: fall through to whole-text.
	} else if v, ok := classifyScalar(strings.TrimSpace(cleaned)); ok {
		return v, nil
	}
	return trimmed, nil
}

type reader struct {
	src string
	i   int
}

func (p *reader) value() any {
	p.skipJunk()
	if p.i >= len(p.src) {
		return nil
	}
	switch c := p.src[p.i]; c {
	case '{':
		return p.object()
	case '[':
		return p.array()
	case '"', '\'':
		return p.string(c)
	default:
		tok := p.bare(",;}]\n")
		v, _ := classifyScalar(tok)
		return v
	}
}

func (p *reader) object() any {
	p.i++ // consume '{'
	m := map[string]any{}
	for {
		p.skipJunk()
		if p.i >= len(p.src) {
			return m // implicit close at EOF
		}
		start := p.i
		switch c := p.src[p.i]; c {
		case '}':
			p.i++
			return m
		case ',', ';':
			p.i++
			continue
		case '"', '\'':
			p.entry(p.string(c), m)
		default:
			key := strings.TrimSpace(p.bare(":=,}\n"))
			if key == "" {
				p.i++
				continue
			}
			p.entry(key, m)
		}
		if p.i == start {
			p.i++ // always advance
		}
	}
}

// entry reads the separator and value for a key whose name is already known.
// A missing value records null.
func (p *reader) entry(key string, m map[string]any) {
	p.skipJunk()
	if p.i < len(p.src) && (p.src[p.i] == ':' || p.src[p.i] == '=') {
		p.i++
	}
	p.skipJunk()
	if p.i >= len(p.src) || p.src[p.i] == '}' || p.src[p.i] == ',' {
		m[key] = nil
		return
	}
	m[key] = p.value()
}

func (p *reader) array() any {
	p.i++ // consume '['
	out := []any{}
	for {
		p.skipJunk()
		if p.i >= len(p.src) {
			return out
		}
		start := p.i
		switch p.src[p.i] {
		case ']':
			p.i++
			return out
		case ',', ';':
			p.i++
			continue
		default:
			out = append(out, p.value())
		}
		if p.i == start {
			p.i++
		}
	}
}

// string reads a quoted literal, decoding the standard escapes. Unterminated
// literals run to the end of input.
func (p *reader) string(q byte) string {
	var b strings.Builder
	p.i++
	for p.i < len(p.src) {
		c := p.src[p.i]
		if c == q {
			p.i++
			return b.String()
		}
		if c != '\\' || p.i+1 >= len(p.src) {
			b.WriteByte(c)
			p.i++
			continue
		}
		p.i++
		switch e := p.src[p.i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if r, n, ok := decodeUnicodeEscape(p.src[p.i+1:]); ok {
				b.WriteRune(r)
				p.i += n
			} else {
				b.WriteByte('u')
			}
		default:
			b.WriteByte(e)
		}
		p.i++
	}
	return b.String()
}

func decodeUnicodeEscape(s string) (r rune, consumed int, ok bool) {
	if len(s) < 4 {
		return 0, 0, false
	}
	u, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	r = rune(u)
	consumed = 4
	if utf16.IsSurrogate(r) && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		if lo, err := strconv.ParseUint(s[6:10], 16, 32); err == nil {
			if combined := utf16.DecodeRune(r, rune(lo)); combined != 0xFFFD {
				return combined, 10, true
			}
		}
	}
	return r, consumed, true
}

func (p *reader) bare(stop string) string {
	start := p.i
	for p.i < len(p.src) && strings.IndexByte(stop, p.src[p.i]) < 0 {
		p.i++
	}
	return strings.TrimSpace(p.src[start:p.i])
}

// skipJunk advances past whitespace and line or block comments.
func (p *reader) skipJunk() {
	for p.i < len(p.src) {
		c := p.src[p.i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.i++
			continue
		}
		if c == '/' && p.i+1 < len(p.src) {
			switch p.src[p.i+1] {
			case '/':
				if nl := strings.IndexByte(p.src[p.i:], '\n'); nl >= 0 {
					p.i += nl + 1
				} else {
					p.i = len(p.src)
				}
				continue
			case '*':
				if end := strings.Index(p.src[p.i+2:], "*/"); end >= 0 {
					p.i += end + 4
				} else {
					p.i = len(p.src)
				}
				continue
			}
		}
		return
	}
}

// classifyScalar maps a bare token to a JSON value. Unrecognized tokens stay
// strings; ok is false only for empty tokens.
func classifyScalar(tok string) (any, bool) {
	switch tok {
	case "":
		return nil, false
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	case "null", "None", "undefined", "NaN":
		return nil, true
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, true
	}
	return tok, true
}
