// Released under an MIT license. See LICENSE.

// Package env provides the wpp evaluator's environment.
//
// The environment is a stack of frames. A frame is pushed when entering a
// block or binding call arguments and popped on exit, so definitions made
// inside are local to the construct. Within a frame, redefining a name
// shadows the previous definition; dropping removes the newest.
package env

import (
	"github.com/wotpp/wpp/internal/common/struct/ast"
)

// Key identifies a function. A name may be defined at several arities.
type Key struct {
	Name  string
	Arity int
}

type frame struct {
	funcs map[Key][]ast.ID
	vars  map[string][]string
}

func newFrame() *frame {
	return &frame{
		funcs: map[Key][]ast.ID{},
		vars:  map[string][]string{},
	}
}

func (f *frame) copy() *frame {
	fresh := newFrame()

	for k, v := range f.funcs {
		fresh.funcs[k] = append([]ast.ID{}, v...)
	}

	for k, v := range f.vars {
		fresh.vars[k] = append([]string{}, v...)
	}

	return fresh
}

// T (env) is a stack of frames mapping names to functions and variables.
type T struct {
	frames []*frame
}

type env = T

// New creates a new environment with a single empty frame.
func New() *env {
	return &env{frames: []*frame{newFrame()}}
}

// Bind associates the name k with the value v in the current frame.
// An existing binding for k in this frame is shadowed, not replaced.
func (e *env) Bind(k, v string) {
	f := e.top()
	f.vars[k] = append(f.vars[k], v)
}

// Copy creates a deep copy of the environment. Used to snapshot the
// environment so that a failed evaluation can be rolled back.
func (e *env) Copy() *env {
	fresh := &env{frames: make([]*frame, 0, len(e.frames))}

	for _, f := range e.frames {
		fresh.frames = append(fresh.frames, f.copy())
	}

	return fresh
}

// Define pushes a definition of the function k with the given arity.
func (e *env) Define(k string, arity int, body ast.ID) {
	f := e.top()
	key := Key{Name: k, Arity: arity}
	f.funcs[key] = append(f.funcs[key], body)
}

// Drop removes the newest definition of the function k at the given arity.
// It returns false if no such definition exists in any frame.
func (e *env) Drop(k string, arity int) bool {
	key := Key{Name: k, Arity: arity}

	for i := len(e.frames) - 1; i >= 0; i-- {
		s := e.frames[i].funcs[key]
		if len(s) > 0 {
			e.frames[i].funcs[key] = s[:len(s)-1]

			return true
		}
	}

	return false
}

// Function returns the newest definition of the function k at the given arity.
func (e *env) Function(k string, arity int) (ast.ID, bool) {
	key := Key{Name: k, Arity: arity}

	for i := len(e.frames) - 1; i >= 0; i-- {
		s := e.frames[i].funcs[key]
		if len(s) > 0 {
			return s[len(s)-1], true
		}
	}

	return ast.Empty, false
}

// Pop discards the current frame and every definition made in it.
func (e *env) Pop() {
	e.frames = e.frames[:len(e.frames)-1]
}

// Push adds a new empty frame.
func (e *env) Push() {
	e.frames = append(e.frames, newFrame())
}

// Value returns the newest binding of the variable k.
func (e *env) Value(k string) (string, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		s := e.frames[i].vars[k]
		if len(s) > 0 {
			return s[len(s)-1], true
		}
	}

	return "", false
}

func (e *env) top() *frame {
	return e.frames[len(e.frames)-1]
}
