package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// parsePyLiteral parses the subset of Python literal syntax that models emit
// when they echo a data structure: lists, tuples, dicts, sets, single- or
// double-quoted strings, numbers, True, False and None.
//
// Lists, tuples and sets become []any, dicts become map[string]any (non-string
// keys are formatted with fmt), and numbers become float64 to match
// encoding/json.
func parsePyLiteral(s string) (any, error) {
	p := &pyParser{src: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return v, nil
}

type pyParser struct {
	src string
	pos int
}

func (p *pyParser) errorf(format string, args ...any) error {
	return fmt.Errorf("python literal at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *pyParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *pyParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *pyParser) value() (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '[':
		p.pos++
		items, _, err := p.sequence(']')
		return items, err
	case c == '(':
		p.pos++
		items, trailingComma, err := p.sequence(')')
		if err != nil {
			return nil, err
		}
		// (x) is a parenthesized value, (x,) is a tuple.
		if len(items) == 1 && !trailingComma {
			return items[0], nil
		}
		return items, nil
	case c == '{':
		p.pos++
		return p.mapping()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

// sequence parses comma-separated values up to end. The opening delimiter has
// already been consumed.
func (p *pyParser) sequence(end byte) ([]any, bool, error) {
	items := []any{}
	trailingComma := false
	for {
		p.skipSpace()
		if p.peek() == end {
			p.pos++
			return items, trailingComma, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, false, err
		}
		items = append(items, v)
		trailingComma = false

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			trailingComma = true
		case end:
		default:
			return nil, false, p.errorf("expected ',' or %q", end)
		}
	}
}

// mapping parses a dict or a set. The '{' has already been consumed.
func (p *pyParser) mapping() (any, error) {
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return map[string]any{}, nil
	}

	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ':' {
		// A set literal.
		items := []any{first}
		if p.peek() == ',' {
			p.pos++
			rest, _, err := p.sequence('}')
			if err != nil {
				return nil, err
			}
			items = append(items, rest...)
		} else if p.peek() == '}' {
			p.pos++
		} else {
			return nil, p.errorf("expected ':' or ','")
		}
		return items, nil
	}

	out := map[string]any{}
	key := first
	for {
		p.pos++ // ':'
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[keyString(key)] = v

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return out, nil
			}
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}

		if key, err = p.value(); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func (p *pyParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return nil, err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *pyParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"':
		b.WriteByte(c)
	case '\n':
		// line continuation
	case 'x', 'u':
		n := 2
		if c == 'u' {
			n = 4
		}
		if p.pos+n > len(p.src) {
			return p.errorf("short \\%c escape", c)
		}
		code, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
		if err != nil {
			return p.errorf("bad \\%c escape", c)
		}
		b.WriteRune(rune(code))
		p.pos += n
	default:
		// Unknown escapes are kept as written.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *pyParser) number() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("bad number %q", text)
	}
	return f, nil
}

func (p *pyParser) keyword() (any, error) {
	for _, kw := range []struct {
		word  string
		value any
	}{
		{"True", true},
		{"False", false},
		{"None", nil},
	} {
		if strings.HasPrefix(p.src[p.pos:], kw.word) {
			p.pos += len(kw.word)
			return kw.value, nil
		}
	}
	return nil, p.errorf("unexpected character %q", p.peek())
}
