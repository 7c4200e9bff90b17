package env

import (
	"testing"

	"github.com/wotpp/wpp/internal/common/struct/ast"
)

func TestShadowing(t *testing.T) {
	e := New()

	e.Define("f", 1, ast.ID(1))
	e.Define("f", 1, ast.ID(2))

	if id, found := e.Function("f", 1); !found || id != ast.ID(2) {
		t.Fatalf("expected the newest definition; got %v, %v", id, found)
	}

	if !e.Drop("f", 1) {
		t.Fatal("expected drop to succeed")
	}

	if id, found := e.Function("f", 1); !found || id != ast.ID(1) {
		t.Fatalf("expected the older definition; got %v, %v", id, found)
	}
}

func TestArityIsPartOfTheKey(t *testing.T) {
	e := New()

	e.Define("f", 0, ast.ID(1))
	e.Define("f", 2, ast.ID(2))

	if id, _ := e.Function("f", 0); id != ast.ID(1) {
		t.Fatalf("expected the zero-parameter definition; got %v", id)
	}

	if id, _ := e.Function("f", 2); id != ast.ID(2) {
		t.Fatalf("expected the two-parameter definition; got %v", id)
	}

	if _, found := e.Function("f", 1); found {
		t.Fatal("expected no definition at arity 1")
	}
}

func TestFramesAreLocal(t *testing.T) {
	e := New()

	e.Define("outer", 0, ast.ID(1))
	e.Push()
	e.Define("inner", 0, ast.ID(2))
	e.Bind("v", "x")

	if _, found := e.Function("outer", 0); !found {
		t.Fatal("expected outer definitions to be visible")
	}

	e.Pop()

	if _, found := e.Function("inner", 0); found {
		t.Fatal("expected inner definitions to disappear")
	}

	if _, found := e.Value("v"); found {
		t.Fatal("expected inner bindings to disappear")
	}
}

func TestDropReachesOuterFrames(t *testing.T) {
	e := New()

	e.Define("f", 0, ast.ID(1))
	e.Push()

	if !e.Drop("f", 0) {
		t.Fatal("expected drop to reach the outer frame")
	}

	if _, found := e.Function("f", 0); found {
		t.Fatal("expected the definition to be gone")
	}
}

func TestVariableShadowing(t *testing.T) {
	e := New()

	e.Bind("v", "old")
	e.Bind("v", "new")

	if v, _ := e.Value("v"); v != "new" {
		t.Fatalf("expected %q; got %q", "new", v)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	e := New()
	e.Define("f", 0, ast.ID(1))
	e.Bind("v", "x")

	c := e.Copy()

	e.Define("f", 0, ast.ID(2))
	e.Bind("v", "y")

	if id, _ := c.Function("f", 0); id != ast.ID(1) {
		t.Fatalf("expected the copy to keep %v; got %v", ast.ID(1), id)
	}

	if v, _ := c.Value("v"); v != "x" {
		t.Fatalf("expected %q; got %q", "x", v)
	}
}
