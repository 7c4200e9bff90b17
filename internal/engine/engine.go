// Released under an MIT license. See LICENSE.

// Package engine provides an evaluator for parsed wpp code.
//
// Evaluation walks the node store producing a string: a document's value
// is the concatenation of its statements' values, and a definition's
// value is empty. The engine owns the reader so that the source, eval,
// and codeify forms can re-enter the parser at run time; fragments
// evaluated that way share the engine's environment, so the definitions
// they make persist.
package engine

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/common/struct/env"
	"github.com/wotpp/wpp/internal/common/struct/loc"
	"github.com/wotpp/wpp/internal/common/struct/report"
	"github.com/wotpp/wpp/internal/reader"
)

// T (engine) holds the state of an evaluation.
type T struct {
	environment *env.T
	prefixes    []string
	reader      *reader.T

	diag io.Writer // Destination for log output and subprocess errors.
	exec bool      // Allow the run and pipe intrinsics.
	root string    // Search root for the file and run intrinsics.
}

type engine = T

// Option configures an engine.
type Option func(*engine)

// Diagnostics directs log output and subprocess errors to w.
func Diagnostics(w io.Writer) Option {
	return func(e *engine) {
		e.diag = w
	}
}

// NoExec disables the run and pipe intrinsics.
func NoExec() Option {
	return func(e *engine) {
		e.exec = false
	}
}

// Root sets the search root for the file and run intrinsics.
func Root(dir string) Option {
	return func(e *engine) {
		e.root = dir
	}
}

// New creates a new engine evaluating nodes parsed by r.
func New(r *reader.T, options ...Option) *T {
	e := &engine{
		environment: env.New(),
		reader:      r,

		diag: os.Stderr,
		exec: true,
		root: ".",
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Evaluate evaluates the document doc and returns its value.
// On error no partial value is returned.
func (e *engine) Evaluate(doc ast.ID) (string, error) {
	return e.document(doc)
}

// Snapshot returns a copy of the engine's environment.
func (e *engine) Snapshot() *env.T {
	return e.environment.Copy()
}

// Restore replaces the engine's environment with the snapshot s.
func (e *engine) Restore(s *env.T) {
	e.environment = s
}

func (e *engine) document(doc ast.ID) (string, error) {
	stmts := ast.To[ast.Document](e.reader.Tree(), doc).Stmts

	var b strings.Builder

	for _, s := range stmts {
		v, err := e.eval(s)
		if err != nil {
			return "", err
		}

		b.WriteString(v)
	}

	return b.String(), nil
}

//nolint:gocyclo
func (e *engine) eval(id ast.ID) (string, error) {
	switch n := e.reader.Tree().Node(id).(type) {
	case *ast.String:
		return n.Text, nil

	case *ast.Concat:
		lhs, err := e.eval(n.LHS)
		if err != nil {
			return "", err
		}

		rhs, err := e.eval(n.RHS)
		if err != nil {
			return "", err
		}

		return lhs + rhs, nil

	case *ast.Block:
		return e.block(n)

	case *ast.FnInvoke:
		return e.invoke(n)

	case *ast.Fn:
		e.environment.Define(e.qualified(n.Name), len(n.Params), id)

		return "", nil

	case *ast.Var:
		name, body := n.Name, n.Body

		v, err := e.eval(body)
		if err != nil {
			return "", err
		}

		e.environment.Bind(e.qualified(name), v)

		return "", nil

	case *ast.Drop:
		return e.drop(n)

	case *ast.Pre:
		return e.pre(n)

	case *ast.Map:
		return e.mapping(n)

	case *ast.Codeify:
		v, err := e.eval(n.Expr)
		if err != nil {
			return "", err
		}

		return e.meta("<codeify>", v)

	case *ast.Intrinsic:
		return e.intrinsic(n)
	}

	return "", e.fail(e.reader.Tree().Node(id).Loc(), "cannot evaluate node")
}

// block evaluates statements in a new frame and returns the value of the
// trailing expression. Statement values inside a block are discarded.
func (e *engine) block(n *ast.Block) (string, error) {
	stmts, expr := n.Stmts, n.Expr

	e.environment.Push()
	defer e.environment.Pop()

	for _, s := range stmts {
		if _, err := e.eval(s); err != nil {
			return "", err
		}
	}

	return e.eval(expr)
}

// invoke calls a function, or falls back to a variable reference when no
// function matches and the call has no arguments. Arguments are evaluated
// eagerly, left to right, under the caller's environment; the body is
// evaluated under a new frame binding parameters to argument values.
func (e *engine) invoke(n *ast.FnInvoke) (string, error) {
	name, source := n.Name, *n.Loc()

	args := make([]string, 0, len(n.Args))

	for _, a := range n.Args {
		v, err := e.eval(a)
		if err != nil {
			return "", err
		}

		args = append(args, v)
	}

	if fn, found := e.function(name, len(args)); found {
		f := ast.To[ast.Fn](e.reader.Tree(), fn)
		params, body := f.Params, f.Body

		e.environment.Push()
		defer e.environment.Pop()

		for i, p := range params {
			e.environment.Bind(p, args[i])
		}

		return e.eval(body)
	}

	if len(args) == 0 {
		if v, found := e.value(name); found {
			return v, nil
		}
	}

	return "", e.fail(&source, "'"+name+"' is not defined")
}

func (e *engine) drop(n *ast.Drop) (string, error) {
	switch t := e.reader.Tree().Node(n.Target).(type) {
	case *ast.Intrinsic:
		return "", e.fail(n.Loc(), "cannot drop intrinsic '"+t.Name+"'")
	case *ast.FnInvoke:
		name, arity := t.Name, len(t.Args)

		// A drop target's single argument can name the arity
		// directly: drop f(0) drops the zero-parameter f.
		if len(t.Args) == 1 {
			if a, literal := e.arity(t.Args[0]); literal {
				arity = a
			}
		}

		if strings.ContainsRune(name, '/') {
			if e.environment.Drop(name, arity) {
				return "", nil
			}
		} else {
			for k := len(e.prefixes); k >= 0; k-- {
				if e.environment.Drop(strings.Join(e.prefixes[:k], "")+name, arity) {
					return "", nil
				}
			}
		}

		return "", e.fail(n.Loc(), "'"+name+"' is not defined")
	}

	return "", e.fail(n.Loc(), "drop target is not a function")
}

// arity returns the value of a drop-target argument written as a decimal
// numeral, such as the 0 in drop f(0).
func (e *engine) arity(id ast.ID) (int, bool) {
	if !ast.Is[ast.FnInvoke](e.reader.Tree(), id) {
		return 0, false
	}

	t := ast.To[ast.FnInvoke](e.reader.Tree(), id)
	if len(t.Args) != 0 {
		return 0, false
	}

	n, err := strconv.Atoi(t.Name)
	if err != nil {
		return 0, false
	}

	return n, true
}

// pre pushes a prefix segment while its statements run, so that the
// names they define and look up are qualified. Defining f inside
// prefix "p/" { ... } is the same as defining p/f outside it.
func (e *engine) pre(n *ast.Pre) (string, error) {
	exprs, stmts := n.Exprs, n.Stmts

	var segment strings.Builder

	for _, x := range exprs {
		v, err := e.eval(x)
		if err != nil {
			return "", err
		}

		segment.WriteString(v)
	}

	e.prefixes = append(e.prefixes, segment.String())
	defer func() {
		e.prefixes = e.prefixes[:len(e.prefixes)-1]
	}()

	for _, s := range stmts {
		if _, err := e.eval(s); err != nil {
			return "", err
		}
	}

	return "", nil
}

// mapping evaluates the scrutinee, then each pattern in declaration
// order. The first equal pattern's arm is the value; arms that are not
// chosen are never evaluated.
func (e *engine) mapping(n *ast.Map) (string, error) {
	cases, fallback := n.Cases, n.Default

	scrutinee, err := e.eval(n.Expr)
	if err != nil {
		return "", err
	}

	for _, c := range cases {
		pattern, err := e.eval(c[0])
		if err != nil {
			return "", err
		}

		if pattern == scrutinee {
			return e.eval(c[1])
		}
	}

	if fallback != ast.Empty {
		return e.eval(fallback)
	}

	return "", nil
}

// meta parses text as a new document and evaluates it in the current
// environment.
func (e *engine) meta(label, text string) (string, error) {
	doc, err := e.reader.Parse(label, text)
	if err != nil {
		return "", err
	}

	return e.document(doc)
}

// function resolves name at the given arity under the current prefix
// stack: the deepest qualification is tried first, the bare name last.
// A name that is already qualified with '/' is looked up directly.
func (e *engine) function(name string, arity int) (ast.ID, bool) {
	if strings.ContainsRune(name, '/') {
		return e.environment.Function(name, arity)
	}

	for k := len(e.prefixes); k >= 0; k-- {
		if id, found := e.environment.Function(strings.Join(e.prefixes[:k], "")+name, arity); found {
			return id, true
		}
	}

	return ast.Empty, false
}

// value resolves a variable name under the current prefix stack.
func (e *engine) value(name string) (string, bool) {
	if strings.ContainsRune(name, '/') {
		return e.environment.Value(name)
	}

	for k := len(e.prefixes); k >= 0; k-- {
		if v, found := e.environment.Value(strings.Join(e.prefixes[:k], "") + name); found {
			return v, true
		}
	}

	return "", false
}

// qualified returns name qualified by the current prefix stack.
// Definitions resolve the stack once and store the qualified name.
func (e *engine) qualified(name string) string {
	if len(e.prefixes) == 0 {
		return name
	}

	return strings.Join(e.prefixes, "") + name
}

func (e *engine) fail(source *loc.T, message string) error {
	return report.New(report.Eval, *source, message)
}
