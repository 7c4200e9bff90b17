// Released under an MIT license. See LICENSE.

// Package parser provides a recursive descent parser for the wpp language.
package parser

import (
	"errors"

	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/common/struct/loc"
	"github.com/wotpp/wpp/internal/common/struct/report"
	"github.com/wotpp/wpp/internal/common/struct/token"
	"github.com/wotpp/wpp/internal/reader/lexer"
)

// T holds the state of the parser.
type T struct {
	lex  *lexer.T
	tree *ast.T
}

type parser = T

// New creates a new parser emitting nodes into tree.
func New(tree *ast.T, lex *lexer.T) *T {
	return &parser{lex: lex, tree: tree}
}

// Document parses a complete document and returns its node index.
func (p *parser) Document() (id ast.ID, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		switch r := r.(type) {
		case *report.T:
			err = r
		case error:
			err = r
		case string:
			err = errors.New(r)
		default:
			err = errors.New("unexpected error")
		}
	}()

	return p.document(), nil
}

func (p *parser) advance() *token.T {
	return p.lex.Advance(lexer.Normal)
}

func (p *parser) fail(source *loc.T, message string) {
	panic(report.New(report.Parse, *source, message))
}

func (p *parser) peek() *token.T {
	return p.lex.Peek(lexer.Normal)
}

// intrinsics maps the name of each built-in operation to its kind.
//
//nolint:gochecknoglobals
var intrinsics = map[string]ast.Kind{
	"assert": ast.Assert,
	"error":  ast.Error,
	"escape": ast.Escape,
	"eval":   ast.Eval,
	"file":   ast.File,
	"find":   ast.Find,
	"length": ast.Length,
	"log":    ast.Log,
	"pipe":   ast.Pipe,
	"run":    ast.Run,
	"slice":  ast.Slice,
	"source": ast.Source,
}

func intrinsic(t *token.T) bool {
	if !t.Is(token.Symbol) {
		return false
	}

	_, found := intrinsics[t.Value()]

	return found
}

// reserved returns true for tokens that may not be used as names.
func reserved(t *token.T) bool {
	return t.Is(token.Let, token.Var, token.Drop, token.Prefix, token.Map) ||
		intrinsic(t)
}

func expr(t *token.T) bool {
	return t.Is(token.Symbol, token.Smart, token.Hex, token.Bin,
		token.Map, '!', '\'', '"', '{', '=')
}

func stmt(t *token.T) bool {
	return t.Is(token.Let, token.Var, token.Drop, token.Prefix) || expr(t)
}

// <document> ::= <statement>* EOF
func (p *parser) document() ast.ID {
	node := p.tree.Add(&ast.Document{Info: ast.At(*p.lex.Loc())})

	for !p.peek().Is(token.EOF) {
		s := p.statement()
		ast.To[ast.Document](p.tree, node).Stmts =
			append(ast.To[ast.Document](p.tree, node).Stmts, s)
	}

	return node
}

// <statement> ::= <let> | <var> | <drop> | <prefix> | <expression>
func (p *parser) statement() ast.ID {
	t := p.peek()

	switch {
	case t.Is(token.Let):
		return p.let()
	case t.Is(token.Var):
		return p.variable()
	case t.Is(token.Drop):
		return p.drop()
	case t.Is(token.Prefix):
		return p.prefix()
	case expr(t):
		return p.expression()
	}

	p.fail(t.Source(), "expecting a statement")

	return ast.Empty
}

// <let> ::= 'let' Symbol ('(' Symbol (',' Symbol)* ')')? <expression>
func (p *parser) let() ast.ID {
	node := p.tree.Add(&ast.Fn{Info: ast.At(*p.peek().Source())})

	p.advance() // Skip 'let'.

	if !p.peek().Is(token.Symbol) {
		p.fail(p.peek().Source(), "function declaration does not have a name")
	}

	name := p.advance().Value()

	var params []string

	if p.peek().Is('(') {
		p.advance() // Skip '('.

		for p.peek().Is(token.Symbol) && !intrinsic(p.peek()) {
			id := p.advance()

			for _, seen := range params {
				if seen == id.Value() {
					p.fail(id.Source(), "duplicate parameter name '"+id.Value()+"'")
				}
			}

			params = append(params, id.Value())

			if p.peek().Is(',') {
				p.advance()
			} else if !p.peek().Is(')') {
				p.fail(p.peek().Source(), "expecting comma to follow parameter name")
			}
		}

		if reserved(p.peek()) {
			t := p.advance()
			p.fail(t.Source(), "parameter name '"+t.Value()+"' conflicts with keyword")
		}

		if !p.peek().Is(')') {
			p.fail(p.peek().Source(), "expecting ')' to follow parameter list")
		}

		p.advance() // Skip ')'.
	}

	fn := ast.To[ast.Fn](p.tree, node)
	fn.Name = name
	fn.Params = params

	body := p.expression()
	ast.To[ast.Fn](p.tree, node).Body = body

	return node
}

// <var> ::= 'var' Symbol <expression>
func (p *parser) variable() ast.ID {
	node := p.tree.Add(&ast.Var{Info: ast.At(*p.peek().Source())})

	p.advance() // Skip 'var'.

	if !p.peek().Is(token.Symbol) {
		p.fail(p.peek().Source(), "variable declaration does not have a name")
	}

	ast.To[ast.Var](p.tree, node).Name = p.advance().Value()

	body := p.expression()
	ast.To[ast.Var](p.tree, node).Body = body

	return node
}

// <drop> ::= 'drop' <fninvoke>
func (p *parser) drop() ast.ID {
	node := p.tree.Add(&ast.Drop{Info: ast.At(*p.peek().Source())})

	p.advance() // Skip 'drop'.

	if !p.peek().Is(token.Symbol) {
		p.fail(p.peek().Source(), "expecting a function name to follow drop")
	}

	target := p.fninvoke()
	ast.To[ast.Drop](p.tree, node).Target = target

	return node
}

// <codeify> ::= '=' <expression>
func (p *parser) codeify() ast.ID {
	p.advance() // Skip '='.

	if !expr(p.peek()) {
		p.fail(p.peek().Source(), "expecting an expression to follow =")
	}

	node := p.tree.Add(&ast.Codeify{Info: ast.At(*p.peek().Source())})

	e := p.expression()
	ast.To[ast.Codeify](p.tree, node).Expr = e

	return node
}

// <prefix> ::= 'prefix' <expression> '{' <statement>* '}'
func (p *parser) prefix() ast.ID {
	node := p.tree.Add(&ast.Pre{Info: ast.At(*p.peek().Source())})

	p.advance() // Skip 'prefix'.

	if !expr(p.peek()) {
		p.fail(p.peek().Source(), "prefix does not have a name")
	}

	e := p.expression()
	ast.To[ast.Pre](p.tree, node).Exprs = []ast.ID{e}

	if !p.peek().Is('{') {
		p.fail(p.peek().Source(), "expecting '{' to follow prefix name")
	}

	p.advance() // Skip '{'.

	for stmt(p.peek()) {
		s := p.statement()
		ast.To[ast.Pre](p.tree, node).Stmts =
			append(ast.To[ast.Pre](p.tree, node).Stmts, s)
	}

	if !p.peek().Is('}') {
		p.fail(p.peek().Source(), "prefix is unterminated")
	}

	p.advance() // Skip '}'.

	return node
}

// <block> ::= '{' <statement>* <expression> '}'
//
// The grammar is resolved by backing up: the last statement parsed, if it
// is an expression and no further expression follows, is popped from the
// statement list and becomes the block's value.
func (p *parser) block() ast.ID {
	node := p.tree.Add(&ast.Block{Info: ast.At(*p.peek().Source()), Expr: ast.Empty})

	p.advance() // Skip '{'.

	last := false

	var stmts []ast.ID

	for stmt(p.peek()) {
		last = expr(p.peek())
		stmts = append(stmts, p.statement())
	}

	if !last {
		p.fail(p.peek().Source(), "expecting a trailing expression at the end of a block")
	}

	if p.peek().Is(token.Arrow) {
		p.fail(ast.To[ast.Block](p.tree, node).Loc(), "map is missing test expression")
	}

	if !p.peek().Is('}') {
		p.fail(p.peek().Source(), "block is unterminated")
	}

	p.advance() // Skip '}'.

	b := ast.To[ast.Block](p.tree, node)
	b.Stmts = stmts[:len(stmts)-1]
	b.Expr = stmts[len(stmts)-1]

	return node
}

// <map> ::= 'map' <expression> '{' (<expression> '->' <expression>)* ('*' '->' <expression>)? '}'
func (p *parser) mapping() ast.ID {
	p.advance() // Skip 'map'.

	node := p.tree.Add(&ast.Map{Info: ast.At(*p.peek().Source()), Default: ast.Empty})

	if !expr(p.peek()) {
		p.fail(p.peek().Source(), "expecting an expression to follow map")
	}

	e := p.expression()
	ast.To[ast.Map](p.tree, node).Expr = e

	if !p.peek().Is('{') {
		p.fail(p.peek().Source(), "expecting '{'")
	}

	p.advance() // Skip '{'.

	for expr(p.peek()) {
		pattern := p.expression()

		if !p.peek().Is(token.Arrow) {
			p.fail(p.peek().Source(), "expecting '->'")
		}

		p.advance() // Skip '->'.

		if !expr(p.peek()) {
			p.fail(p.peek().Source(), "expecting an expression")
		}

		arm := p.expression()

		m := ast.To[ast.Map](p.tree, node)
		m.Cases = append(m.Cases, [2]ast.ID{pattern, arm})
	}

	if p.peek().Is('*') {
		p.advance() // Skip '*'.

		if !p.peek().Is(token.Arrow) {
			p.fail(p.peek().Source(), "expecting '->'")
		}

		p.advance() // Skip '->'.

		if !expr(p.peek()) {
			p.fail(p.peek().Source(), "expecting an expression")
		}

		d := p.expression()
		ast.To[ast.Map](p.tree, node).Default = d
	}

	if !p.peek().Is('}') {
		p.fail(p.peek().Source(), "expecting '}'")
	}

	p.advance() // Skip '}'.

	return node
}

// <fninvoke> ::= Symbol ('(' (<expression> (',' <expression>)*)? ')')?
func (p *parser) fninvoke() ast.ID {
	node := p.tree.Add(&ast.FnInvoke{Info: ast.At(*p.peek().Source())})

	fn := p.advance()

	var args []ast.ID

	if p.peek().Is('(') {
		p.advance() // Skip '('.

		for expr(p.peek()) {
			args = append(args, p.expression())

			if p.peek().Is(',') {
				p.advance()
			} else if !p.peek().Is(')') {
				p.fail(p.peek().Source(), "expecting comma to follow argument")
			}
		}

		if !p.peek().Is(')') {
			p.fail(p.peek().Source(), "expecting ')' to follow argument list")
		}

		p.advance() // Skip ')'.
	}

	// A call to a built-in is rewritten in place now that the callee
	// is known.
	if kind, found := intrinsics[fn.Value()]; found {
		p.tree.Replace(node, &ast.Intrinsic{
			Info: ast.At(*fn.Source()),
			Kind: kind,
			Name: fn.Value(),
			Args: args,
		})
	} else {
		f := ast.To[ast.FnInvoke](p.tree, node)
		f.Name = fn.Value()
		f.Args = args
	}

	return node
}

// <expression> ::= <primary> ('..' <expression>)?
//
// Concatenation is right-associative: the right hand side is a single
// recursive call into expression.
func (p *parser) expression() ast.ID {
	var lhs ast.ID

	t := p.peek()

	switch {
	case t.Is(token.Symbol):
		lhs = p.fninvoke()
	case t.Is(token.Smart, token.Hex, token.Bin, '!', '\'', '"'):
		lhs = p.string()
	case t.Is('{'):
		lhs = p.block()
	case t.Is(token.Map):
		lhs = p.mapping()
	case t.Is('='):
		lhs = p.codeify()
	default:
		p.fail(t.Source(), "expecting an expression")
	}

	if p.peek().Is(token.Cat) {
		node := p.tree.Add(&ast.Concat{Info: ast.At(*p.peek().Source())})

		p.advance() // Skip '..'.

		rhs := p.expression()

		c := ast.To[ast.Concat](p.tree, node)
		c.LHS = lhs
		c.RHS = rhs

		return node
	}

	return lhs
}
