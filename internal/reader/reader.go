// Released under an MIT license. See LICENSE.

// Package reader encapsulates the wpp lexer and parser.
package reader

import (
	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/reader/lexer"
	"github.com/wotpp/wpp/internal/reader/parser"
)

// T (reader) turns source text into documents in a shared node store.
// It is reentrant: the engine calls back into Parse to evaluate the
// source and codeify forms, and every fragment's nodes live in the same
// store for the duration of a compilation.
type T struct {
	tree *ast.T
}

type reader = T

// New creates a new reader with an empty node store.
func New() *T {
	return &reader{tree: ast.New()}
}

// Parse parses text and returns the index of its Document node.
// Name labels the source of the text in diagnostics.
func (r *reader) Parse(name, text string) (ast.ID, error) {
	return parser.New(r.tree, lexer.New(name, text)).Document()
}

// Tree returns the reader's node store.
func (r *reader) Tree() *ast.T {
	return r.tree
}
