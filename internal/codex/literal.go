// ABOUTME: Literal text format for sequences and mappings of strings
// ABOUTME: Emits Python-style quoted literals and parses them back, accepting either quote style

package codex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errLiteral = errors.New("malformed literal")

// quote renders s as a quoted literal: single quotes unless s contains a
// single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func emitSequence(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

type literalPair struct {
	key   string
	value string
}

func emitMapping(pairs []literalPair) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = quote(p.key) + ": " + quote(p.value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// parseSequence parses "[a, b]" or "(a, b)" where each item is a quoted string
// or a bare numeric token.
func parseSequence(s string) ([]string, error) {
	p := &literalParser{src: s}
	p.skipSpace()

	var closing byte
	switch p.peek() {
	case '[':
		closing = ']'
	case '(':
		closing = ')'
	default:
		return nil, p.errorf("expected '[' or '('")
	}
	p.pos++

	items := []string{}
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			break
		}
		item, err := p.scalar()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}

	if err := p.end(); err != nil {
		return nil, err
	}
	return items, nil
}

// parseMapping parses "{k: v, ...}" preserving source order.
func parseMapping(s string) ([]literalPair, error) {
	p := &literalParser{src: s}
	p.skipSpace()
	if p.peek() != '{' {
		return nil, p.errorf("expected '{'")
	}
	p.pos++

	pairs := []literalPair{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			break
		}
		key, err := p.scalar()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.pos++
		p.skipSpace()
		value, err := p.scalar()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, literalPair{key: key, value: value})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}

	if err := p.end(); err != nil {
		return nil, err
	}
	return pairs, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", errLiteral, p.pos, fmt.Sprintf(format, args...))
}

// peek returns the current byte, or 0 at end of input.
func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return p.errorf("unexpected trailing input")
	}
	return nil
}

func (p *literalParser) scalar() (string, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.quoted()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case c == 0:
		return "", p.errorf("unexpected end of input")
	default:
		return "", p.errorf("unexpected character %q", c)
	}
}

func (p *literalParser) number() (string, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		isWord := c == '.' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !isWord {
			break
		}
		p.pos++
	}
	tok := p.src[start:p.pos]
	if tok == "-" || tok == "+" {
		return "", p.errorf("sign without digits")
	}
	return tok, nil
}

func (p *literalParser) quoted() (string, error) {
	q := p.src[p.pos]
	p.pos++

	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == q:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return "", p.errorf("invalid UTF-8")
			}
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("dangling escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'x':
		return p.hexEscape(b, 2)
	case 'u':
		return p.hexEscape(b, 4)
	default:
		// Unknown escapes are kept verbatim.
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *literalParser) hexEscape(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("short hex escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return p.errorf("bad hex escape")
	}
	p.pos += digits
	b.WriteRune(rune(n))
	return nil
}
