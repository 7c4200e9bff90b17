// Released under an MIT license. See LICENSE.

// Package lexer provides a lexical scanner for the wpp language.
//
// The scanner is driven by the parser: every Peek and Advance names the
// mode to scan in, because the same bytes tokenize differently inside and
// outside a string literal. Peek is idempotent for a given mode; peeking
// again in a different mode rescans the same bytes under the new rules.
package lexer

import (
	"strings"

	"github.com/wotpp/wpp/internal/common/struct/loc"
	"github.com/wotpp/wpp/internal/common/struct/report"
	"github.com/wotpp/wpp/internal/common/struct/token"
)

// Mode selects the tokenization rules for a Peek or Advance.
type Mode int

// Scanner modes.
const (
	// Normal skips whitespace and comments and recognizes keywords,
	// identifiers, punctuation, and the openers of the string forms.
	Normal Mode = iota

	// String emits literal chunks, escape sequences, and quotes.
	// Whitespace is significant.
	String

	// Character emits exactly one raw byte. Used to inspect the
	// user-defined delimiter when terminating a smart string.
	Character
)

const whitespace = " \t\n\r"

// T holds the state of the scanner.
type T struct {
	bytes string // Buffer being scanned.
	name  string // Label for the source of the buffer.

	state position // State after the last Advance.

	ahead *token.T // Token lookahead.
	after position // State after consuming the lookahead.
	mode  Mode     // Mode the lookahead was produced in.
}

type lexer = T

type position struct {
	index int // Index of the current byte.
	line  int
	char  int
}

// New creates a scanner for text. Name can be a file name or other label.
func New(name, text string) *T {
	return &T{
		bytes: text,
		name:  name,
		state: position{line: 1, char: 1},
	}
}

// Advance consumes and returns the next token in the mode m.
func (l *lexer) Advance(m Mode) *token.T {
	t := l.Peek(m)

	l.state = l.after
	l.ahead = nil

	return t
}

// Loc returns the location of the next unconsumed byte.
func (l *lexer) Loc() *loc.T {
	return l.at(l.state)
}

// Peek returns the next token in the mode m without consuming it.
func (l *lexer) Peek(m Mode) *token.T {
	if l.ahead != nil && l.mode == m {
		return l.ahead
	}

	c := &cursor{lexer: l, position: l.state}

	var t *token.T

	switch m {
	case Normal:
		t = c.normal()
	case String:
		t = c.str()
	case Character:
		t = c.character()
	}

	l.ahead = t
	l.after = c.position
	l.mode = m

	return t
}

func (l *lexer) at(p position) *loc.T {
	return &loc.T{
		Char:   p.char,
		Line:   p.line,
		Name:   l.name,
		Offset: p.index,
	}
}

func (l *lexer) fail(p position, message string) {
	panic(report.New(report.Lex, *l.at(p), message))
}

const eof = -1

// cursor is a scan in progress. Its position is only written back to the
// lexer when the token it produced is consumed.
type cursor struct {
	*lexer
	position

	first position // State at the current token's first byte.
}

func (c *cursor) accept(r rune) {
	if r == '\n' {
		c.line++
		c.char = 1
	} else {
		c.char++
	}

	c.index++
}

func (c *cursor) emit(class token.Class) *token.T {
	return c.emitText(class, c.bytes[c.first.index:c.index])
}

func (c *cursor) emitText(class token.Class, value string) *token.T {
	return token.New(class, value, *c.at(c.first))
}

func (c *cursor) mark() {
	c.first = c.position
}

func (c *cursor) next() rune {
	r := c.peek()
	if r != eof {
		c.accept(r)
	}

	return r
}

func (c *cursor) peek() rune {
	return c.peekAt(0)
}

func (c *cursor) peekAt(n int) rune {
	if c.index+n < len(c.bytes) {
		return rune(c.bytes[c.index+n])
	}

	return eof
}

// Normal mode.

func (c *cursor) normal() *token.T {
	c.skipSpace()
	c.mark()

	r := c.peek()

	switch r {
	case eof:
		return c.emitText(token.EOF, "")
	case '(', ')', '{', '}', ',', '*', '=', '!', '\'', '"':
		c.next()

		return c.emit(token.Class(r))
	case '.':
		c.next()

		if c.peek() != '.' {
			c.fail(c.first, "unexpected '.'")
		}

		c.next()

		return c.emit(token.Cat)
	case '-':
		c.next()

		if c.peek() != '>' {
			c.fail(c.first, "unexpected '-'")
		}

		c.next()

		return c.emit(token.Arrow)
	case '0':
		if t := c.number(); t != nil {
			return t
		}

		return c.symbol()
	case 'r', 'p', 'c':
		if t := c.smart(); t != nil {
			return t
		}

		return c.symbol()
	}

	if isSymbol(r) {
		return c.symbol()
	}

	c.fail(c.first, "unexpected character "+quote(r))

	return nil
}

// number scans a hex (0x) or binary (0b) string literal. The emitted
// token's value is the digit sequence without the 0x or 0b opener.
// It returns nil when the bytes at the cursor are not such a literal.
func (c *cursor) number() *token.T {
	base := c.peekAt(1)

	digit := isHexDigit
	class := token.Hex

	switch base {
	case 'x':
	case 'b':
		digit = isBinDigit
		class = token.Bin
	default:
		return nil
	}

	if !digit(c.peekAt(2)) && c.peekAt(2) != '_' {
		return nil
	}

	c.next() // Skip '0'.
	c.next() // Skip 'x' or 'b'.

	c.mark()

	for digit(c.peek()) || c.peek() == '_' {
		c.next()
	}

	return c.emit(class)
}

// smart scans a smart string opener: a type letter in {r, p, c}, a
// user-chosen delimiter of zero or more bytes, and a lookahead quote.
// The quote is left for the parser to consume in string mode.
// It returns nil when the bytes at the cursor are not an opener.
func (c *cursor) smart() *token.T {
	n := 1

	for {
		r := c.peekAt(n)

		switch {
		case r == '\'' || r == '"':
			for ; n > 0; n-- {
				c.next()
			}

			return c.emit(token.Smart)
		case r == eof, isSymbol(r), strings.ContainsRune(whitespace, r):
			return nil
		}

		n++
	}
}

func (c *cursor) symbol() *token.T {
	for isSymbol(c.peek()) {
		c.next()
	}

	s := c.bytes[c.first.index:c.index]

	keyword, found := map[string]token.Class{
		"drop":   token.Drop,
		"let":    token.Let,
		"map":    token.Map,
		"prefix": token.Prefix,
		"var":    token.Var,
	}[s]
	if found {
		return c.emit(keyword)
	}

	return c.emit(token.Symbol)
}

func (c *cursor) skipSpace() {
	for {
		r := c.peek()

		switch {
		case r == eof:
			return
		case strings.ContainsRune(whitespace, r):
			c.next()
		case r == '#' && c.peekAt(1) == '[':
			c.comment()
		default:
			return
		}
	}
}

// comment skips a balanced #[ ... ] comment.
func (c *cursor) comment() {
	opened := c.position

	c.next() // Skip '#'.
	c.next() // Skip '['.

	depth := 1

	for depth > 0 {
		r := c.next()

		switch {
		case r == eof:
			c.fail(opened, "unterminated comment")
		case r == '#' && c.peek() == '[':
			c.next()
			depth++
		case r == ']':
			depth--
		}
	}
}

// String mode.

func (c *cursor) str() *token.T {
	c.mark()

	r := c.peek()

	switch r {
	case eof:
		return c.emitText(token.EOF, "")
	case '\'', '"':
		c.next()

		return c.emit(token.Class(r))
	case '\\':
		return c.escape()
	}

	for {
		r := c.peek()
		if r == eof || r == '\\' || r == '\'' || r == '"' {
			break
		}

		c.next()
	}

	return c.emit(token.Chunk)
}

// escape scans a backslash escape sequence. The emitted token's value is
// the raw bytes of the sequence; decoding is left to the parser so that
// raw strings can keep the sequence verbatim.
func (c *cursor) escape() *token.T {
	c.next() // Skip '\'.

	r := c.next()

	switch r {
	case eof:
		c.fail(c.first, "unterminated escape sequence")
	case '"', '\'', '\\', 'n', 't', 'r':
		return c.emit(token.Escape)
	case 'x':
		c.digits(2, isHexDigit, "hex")

		return c.emit(token.Escape)
	case 'b':
		c.digits(8, isBinDigit, "binary")

		return c.emit(token.Escape)
	}

	// Not a recognized escape. The backslash and the byte that
	// follows it are literal text.
	return c.emit(token.Chunk)
}

func (c *cursor) digits(n int, valid func(rune) bool, kind string) {
	for i := 0; i < n; i++ {
		r := c.peek()

		if r == eof {
			c.fail(c.first, "unterminated escape sequence")
		}

		if !valid(r) {
			c.fail(c.position, "invalid "+kind+" digit "+quote(r))
		}

		c.next()
	}
}

// Character mode.

func (c *cursor) character() *token.T {
	c.mark()

	if c.peek() == eof {
		return c.emitText(token.EOF, "")
	}

	c.next()

	return c.emit(token.Byte)
}

// Byte classes.

func isBinDigit(r rune) bool {
	return r == '0' || r == '1'
}

func isHexDigit(r rune) bool {
	return r >= '0' && r <= '9' ||
		r >= 'a' && r <= 'f' ||
		r >= 'A' && r <= 'F'
}

// isSymbol returns true for bytes that can appear in an identifier.
// The '/' is significant: it joins a prefix to the name it qualifies.
// Digits are included so that an arity can be written where a drop
// target names one.
func isSymbol(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '/'
}

func quote(r rune) string {
	return "'" + string(r) + "'"
}
