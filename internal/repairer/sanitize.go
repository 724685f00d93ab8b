// Package repairer contains the repair strategies behind RepairAndValidate:
// a conservative text sanitizer (tier 1) and a tolerant value reader used by
// the object-mode and fallback tiers.
package repairer

import "strings"

// StripNoise removes the wrapping a generator commonly adds around JSON:
// markdown code fences and prose before the first structural character. The
// JSON-ish payload itself is untouched.
func StripNoise(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = ""
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	return strings.TrimSpace(s)
}

// Sanitize applies minimal structural fixes to malformed JSON text: unquoted
// object keys, single-quote delimiters, trailing commas, and unterminated
// trailing structures. Content is changed as little as possible; anything the
// scanner cannot make sense of yields "" so the caller advances to a more
// aggressive tier.
func Sanitize(s string) string {
	s = StripNoise(s)
	if s == "" {
		return ""
	}
	if s[0] == '\'' {
		// A lone single-quoted scalar.
		body, _ := scanQuoted(s, 0)
		return quote(body)
	}
	if s[0] != '{' && s[0] != '[' {
		return ""
	}
	return rewrite(s)
}

type sanFrame struct {
	object       bool
	expectingKey bool
}

// rewrite scans from the first opening bracket and emits corrected text. It
// stops once the top-level structure closes, dropping trailing junk; at EOF
// any still-open strings and containers are closed.
func rewrite(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)
	var stack []sanFrame

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			lit, next := scanQuoted(s, i)
			out.WriteString(quote(lit))
			i = next
			noteString(stack)
		case c == '{':
			stack = append(stack, sanFrame{object: true, expectingKey: true})
			out.WriteByte(c)
			i++
		case c == '[':
			stack = append(stack, sanFrame{})
			out.WriteByte(c)
			i++
		case c == '}' || c == ']':
			trimDanglingSeparator(&out)
			out.WriteByte(c)
			i++
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			if len(stack) == 0 {
				return out.String()
			}
			noteValue(stack)
		case c == ',':
			// Drop the comma when nothing follows it before the closer.
			if j := skipSpace(s, i+1); j >= len(s) || s[j] == '}' || s[j] == ']' {
				i++
				continue
			}
			out.WriteByte(c)
			i++
			if n := len(stack); n > 0 && stack[n-1].object {
				stack[n-1].expectingKey = true
			}
		case c == ':':
			out.WriteByte(c)
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			out.WriteByte(c)
			i++
		default:
			tok, next := scanBare(s, i)
			i = next
			if tok == "" {
				continue
			}
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectingKey {
				out.WriteString(quote(tok))
				stack[n-1].expectingKey = false
				continue
			}
			out.WriteString(bareValue(tok))
			noteValue(stack)
		}
	}

	// EOF with open containers: finish the pending entry, then close each
	// frame innermost-first.
	closeDangling(&out, stack)
	return out.String()
}

func noteValue(stack []sanFrame) {
	if n := len(stack); n > 0 && stack[n-1].object && !stack[n-1].expectingKey {
		stack[n-1].expectingKey = true
	}
}

// noteString records a quoted literal: in key position it becomes the pending
// key, otherwise it completes the current entry.
func noteString(stack []sanFrame) {
	n := len(stack)
	if n == 0 || !stack[n-1].object {
		return
	}
	stack[n-1].expectingKey = !stack[n-1].expectingKey
}

// scanQuoted reads a string literal delimited by s[start] (single or double
// quote), honoring backslash escapes, and returns its raw body. Unterminated
// literals run to EOF.
func scanQuoted(s string, start int) (body string, next int) {
	q := s[start]
	var b strings.Builder
	i := start + 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			nc := s[i+1]
			if nc == q {
				b.WriteByte(q)
			} else {
				b.WriteByte(c)
				b.WriteByte(nc)
			}
			i += 2
			continue
		}
		if c == q {
			return b.String(), i + 1
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

func scanBare(s string, start int) (tok string, next int) {
	i := start
	for i < len(s) {
		c := s[i]
		if c == ',' || c == ':' || c == '{' || c == '}' || c == '[' || c == ']' ||
			c == '"' || c == '\'' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		i++
	}
	return s[start:i], i
}

// bareValue renders an unquoted token as JSON: literals and numbers pass
// through (Python spellings normalized), anything else becomes a string.
func bareValue(tok string) string {
	switch tok {
	case "true", "false", "null":
		return tok
	case "True":
		return "true"
	case "False":
		return "false"
	case "None":
		return "null"
	}
	if isNumeric(tok) {
		return tok
	}
	return quote(tok)
}

func isNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	seenDigit := false
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return seenDigit
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			// Preserve escape sequences carried over from the source text.
			if i+1 < len(s) {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i++
			} else {
				b.WriteString(`\\`)
			}
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		c := s[i]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		i++
	}
	return i
}

// trimDanglingSeparator drops a trailing comma or colon (plus whitespace)
// from the emitted text, completing a colon with null so the entry survives.
func trimDanglingSeparator(out *strings.Builder) {
	s := out.String()
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			end--
			continue
		}
		break
	}
	if end == 0 {
		return
	}
	switch s[end-1] {
	case ',':
		out.Reset()
		out.WriteString(s[:end-1])
	case ':':
		out.Reset()
		out.WriteString(s[:end])
		out.WriteString("null")
	}
}

func closeDangling(out *strings.Builder, stack []sanFrame) {
	if len(stack) == 0 {
		return
	}
	trimDanglingSeparator(out)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].object {
			out.WriteByte('}')
		} else {
			out.WriteByte(']')
		}
	}
}
