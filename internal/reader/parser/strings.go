// Released under an MIT license. See LICENSE.

package parser

import (
	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/common/struct/token"
	"github.com/wotpp/wpp/internal/reader/lexer"
)

// <string> ::= Hex | Bin | Smart-opened literal | '!' Symbol | quoted literal
//
// The node's payload is fully decoded: escape sequences and the per-form
// post-processing happen here, not at evaluation time.
func (p *parser) string() ast.ID {
	node := p.tree.Add(&ast.String{Info: ast.At(*p.peek().Source())})

	var text string

	t := p.peek()

	switch {
	case t.Is(token.Hex):
		text = hexString(p.advance().Value())
	case t.Is(token.Bin):
		text = binString(p.advance().Value())
	case t.Is(token.Smart):
		text = p.smartString()
	case t.Is('!'):
		text = p.stringifyString()
	case t.Is('\'', '"'):
		text = p.normalString()
	}

	ast.To[ast.String](p.tree, node).Text = text

	return node
}

// normalString scans a quoted literal, interpreting escape sequences.
func (p *parser) normalString() string {
	// The opening quote was peeked in normal mode, past any whitespace,
	// so it is consumed in that mode.
	delim := p.advance()
	end := token.Class(delim.Value()[0])

	var literal []byte

	for !p.lex.Peek(lexer.String).Is(end) {
		t := p.lex.Peek(lexer.String)
		if t.Is(token.EOF) {
			p.fail(t.Source(), "reached EOF while parsing string")
		}

		literal = accumulate(p.lex.Advance(lexer.String), literal, true)
	}

	p.lex.Advance(lexer.String) // Skip terminating quote.

	return string(literal)
}

// stringifyString scans a '!' followed by an identifier. The value is the
// identifier's name.
func (p *parser) stringifyString() string {
	p.advance() // Skip '!'.

	if !p.peek().Is(token.Symbol) {
		p.fail(p.peek().Source(), "expecting an identifier to follow !")
	}

	return p.advance().Value()
}

// smartString scans a raw, paragraph, or code string. The literal ends at
// the first quote immediately followed by the user's delimiter; a quote
// that is not is part of the literal.
func (p *parser) smartString() string {
	opener := p.advance()

	kind := opener.Value()[0] // 'r', 'p' or 'c'.
	delim := opener.Value()[1:]

	quote := p.lex.Advance(lexer.String)
	end := token.Class(quote.Value()[0])

	escapes := kind != 'r'

	var literal []byte

	for {
		t := p.lex.Peek(lexer.String)

		if t.Is(token.EOF) {
			p.fail(t.Source(), "reached EOF while parsing string")
		}

		if t.Is(end) {
			// Consume the quote; it may be part of the literal
			// rather than the terminator.
			literal = accumulate(p.lex.Advance(lexer.String), literal, escapes)

			consumed, done := p.delimits(delim)
			if done {
				literal = literal[:len(literal)-1] // Remove the quote.

				break
			}

			literal = append(literal, consumed...)

			continue
		}

		literal = accumulate(p.lex.Advance(lexer.String), literal, escapes)
	}

	switch kind {
	case 'c':
		return codeString(string(literal))
	case 'p':
		return paraString(string(literal))
	}

	return string(literal)
}

// delimits consumes the user delimiter a byte at a time. On a mismatch it
// returns the prefix already consumed, which belongs to the literal.
func (p *parser) delimits(delim string) (string, bool) {
	for i := 0; i < len(delim); i++ {
		t := p.lex.Peek(lexer.Character)
		if !t.Is(token.Byte) || t.Value()[0] != delim[i] {
			return delim[:i], false
		}

		p.lex.Advance(lexer.Character)
	}

	return delim, true
}

// accumulate appends one string-mode token to the literal, decoding escape
// sequences unless the enclosing form is raw.
func accumulate(t *token.T, literal []byte, escapes bool) []byte {
	if escapes && t.Is(token.Escape) {
		return append(literal, decodeEscape(t.Value())...)
	}

	return append(literal, t.Value()...)
}

func decodeEscape(s string) []byte {
	switch s[1] {
	case '"', '\'', '\\':
		return []byte{s[1]}
	case 'n':
		return []byte{'\n'}
	case 't':
		return []byte{'\t'}
	case 'r':
		return []byte{'\r'}
	case 'x':
		return []byte{hexDigit(s[2])<<4 | hexDigit(s[3])}
	case 'b':
		var v byte
		for i := 2; i < len(s); i++ {
			v = v<<1 | (s[i] - '0')
		}

		return []byte{v}
	}

	return []byte(s)
}

// hexString decodes a hex literal's digits. The digits are read right to
// left, ignoring underscores; every two digits produce one byte, and the
// accumulated buffer is reversed into natural order at the end.
func hexString(digits string) string {
	var b []byte

	counter := 0

	for i := len(digits); i > 0; i-- {
		c := digits[i-1]

		if c == '_' {
			continue
		}

		if counter&1 != 0 {
			b[len(b)-1] |= hexDigit(c) << 4
		} else {
			b = append(b, hexDigit(c))
		}

		counter++
	}

	reverse(b)

	return string(b)
}

// binString decodes a binary literal's digits: right to left, ignoring
// underscores, eight digits per byte, reversed at the end.
func binString(digits string) string {
	var b []byte

	counter := 0

	for i := len(digits); i > 0; i-- {
		c := digits[i-1]

		if c == '_' {
			continue
		}

		if counter&7 != 0 {
			b[len(b)-1] |= (c - '0') << (counter & 7)
		} else {
			b = append(b, c-'0')
		}

		counter++
	}

	reverse(b)

	return string(b)
}

// paraString collapses every whitespace run to a single space and strips
// one leading and one trailing whitespace byte.
func paraString(s string) string {
	b := make([]byte, 0, len(s))

	space := false

	for i := 0; i < len(s); i++ {
		ws := isWhitespace(s[i])

		switch {
		case ws && space:
		case ws:
			b = append(b, ' ')
		default:
			b = append(b, s[i])
		}

		space = ws
	}

	if len(b) > 0 && b[0] == ' ' {
		b = b[1:]
	}

	if len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}

	return string(b)
}

// codeString trims trailing whitespace and the leading whitespace lines,
// then strips the minimum indentation common to every line.
func codeString(s string) string {
	b := []byte(s)

	// Trailing whitespace.
	for len(b) > 0 && isWhitespace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}

	// Leading whitespace up to and including the last newline in the
	// run. Whitespace after that newline is indentation and is handled
	// below.
	i, last := 0, -1

	for i < len(b) && isWhitespace(b[i]) {
		if b[i] == '\n' {
			last = i
		}

		i++
	}

	if last >= 0 {
		b = b[last+1:]
	}

	// Discover the common indentation: the shortest whitespace run
	// following a newline.
	common := int(^uint(0) >> 1)

	for i := 0; i < len(b); i++ {
		if b[i] != '\n' {
			continue
		}

		indent := 0

		i++
		for i < len(b) && isWhitespace(b[i]) {
			i++
			indent++
		}

		if indent < common {
			common = indent
		}
	}

	// Strip up to common whitespace bytes at position i.
	strip := func(i int) {
		j := i
		for j < len(b) && j-i < common && isWhitespace(b[j]) {
			j++
		}

		b = append(b[:i], b[j:]...)
	}

	if len(b) > 0 && isWhitespace(b[0]) {
		strip(0)
	}

	for i := 0; i < len(b); i++ {
		if b[i] == '\n' {
			strip(i + 1)
		}
	}

	return string(b)
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}

	return c - 'A' + 10
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
