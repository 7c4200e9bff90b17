// Released under an MIT license. See LICENSE.

// Package ast provides the node store shared by the wpp parser and engine.
//
// Nodes are stored in a flat, append-only arena and refer to each other by
// index, never by pointer. Appending a node can grow the arena, so callers
// must not hold a node reference obtained from To across a call to Add;
// the discipline is to compute an index first, Add the children, and then
// write the child indices back through a fresh To.
package ast

import (
	"github.com/wotpp/wpp/internal/common/struct/loc"
)

// ID is an index into the node store.
type ID int32

// Empty marks an absent node reference, such as a map with no default arm.
const Empty ID = -1

// Node is implemented by every node variant.
type Node interface {
	Loc() *loc.T
}

// Info carries the source location every node variant embeds.
type Info struct {
	Source loc.T
}

// At creates the Info for a node at source.
func At(source loc.T) Info {
	return Info{Source: source}
}

// Loc returns the node's source location.
func (i *Info) Loc() *loc.T {
	return &i.Source
}

// Node variants.

// Document is the root node: an ordered sequence of statements.
type Document struct {
	Info
	Stmts []ID
}

// Fn is a function definition.
type Fn struct {
	Info
	Name   string
	Params []string
	Body   ID
}

// Var is a variable definition. Its body is evaluated at definition time.
type Var struct {
	Info
	Name string
	Body ID
}

// Drop removes the newest matching function definition.
// Target is an invocation node that names the definition structurally.
type Drop struct {
	Info
	Target ID
}

// Pre qualifies the names defined and looked up by its statements.
type Pre struct {
	Info
	Exprs []ID
	Stmts []ID
}

// Block is a scoped sequence of statements with a trailing expression.
type Block struct {
	Info
	Stmts []ID
	Expr  ID
}

// Map dispatches on the first pattern equal to the scrutinee.
// Default is Empty when no '*' arm was given.
type Map struct {
	Info
	Expr    ID
	Cases   [][2]ID
	Default ID
}

// FnInvoke is a function call, or a variable reference when no
// function of the name exists and no arguments were given.
type FnInvoke struct {
	Info
	Name string
	Args []ID
}

// Intrinsic is a call to a built-in operation. FnInvoke nodes are
// replaced in place with Intrinsic once the callee is known.
type Intrinsic struct {
	Info
	Kind Kind
	Name string
	Args []ID
}

// Codeify re-parses the value of its expression and evaluates the result.
type Codeify struct {
	Info
	Expr ID
}

// String is a fully decoded literal.
type String struct {
	Info
	Text string
}

// Concat is the '..' operator.
type Concat struct {
	Info
	LHS ID
	RHS ID
}

// Kind identifies an intrinsic operation.
type Kind int

// Intrinsic kinds.
const (
	Source Kind = iota
	File
	Assert
	Error
	Pipe
	Run
	Slice
	Find
	Length
	Log
	Escape
	Eval
)

// T (ast) is the append-only node store.
type T struct {
	nodes []Node
}

type ast = T

// New creates a new empty store.
func New() *ast {
	return &ast{}
}

// Add appends the node n and returns its index.
func (t *ast) Add(n Node) ID {
	t.nodes = append(t.nodes, n)

	return ID(len(t.nodes) - 1)
}

// Node returns the node at index i without asserting its variant.
func (t *ast) Node(i ID) Node {
	return t.nodes[i]
}

// Replace swaps the node at index i for n. Indices held by other
// nodes are unaffected.
func (t *ast) Replace(i ID, n Node) {
	t.nodes[i] = n
}

// Size returns the number of nodes in the store.
func (t *ast) Size() int {
	return len(t.nodes)
}

// Is returns true if the node at index i is the variant N.
func Is[N any, PN interface {
	*N
	Node
}](t *ast, i ID) bool {
	_, ok := t.nodes[i].(PN)

	return ok
}

// To returns the node at index i as the variant N.
// The reference is only valid until the next Add.
func To[N any, PN interface {
	*N
	Node
}](t *ast, i ID) PN {
	return t.nodes[i].(PN)
}
