package engine

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/wotpp/wpp/internal/common/struct/report"
	"github.com/wotpp/wpp/internal/reader"
)

func evaluate(t *testing.T, text string, options ...Option) string {
	t.Helper()

	r := reader.New()

	doc, err := r.Parse("test", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options = append([]Option{Diagnostics(io.Discard)}, options...)

	v, err := New(r, options...).Evaluate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return v
}

func evaluateError(t *testing.T, text string, options ...Option) error {
	t.Helper()

	r := reader.New()

	doc, err := r.Parse("test", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options = append([]Option{Diagnostics(io.Discard)}, options...)

	_, err = New(r, options...).Evaluate(doc)
	if err == nil {
		t.Fatal("expected an error")
	}

	e, ok := err.(*report.T)
	if !ok {
		t.Fatalf("expected a report; got %v", err)
	}

	if e.Category() != report.Eval {
		t.Fatalf("expected an eval error; got %v", e)
	}

	return err
}

func expect(t *testing.T, text, want string) {
	t.Helper()

	if got := evaluate(t, text); got != want {
		t.Fatalf("expected %q; got %q", want, got)
	}
}

func TestGreeting(t *testing.T) {
	expect(t, `let greet(x) "hello " .. x   greet("world")`, "hello world")
}

func TestDefinitionsYieldNothing(t *testing.T) {
	expect(t, `let f "x"  var v "y"  "done"`, "done")
}

func TestPrefixQualifiesDefinitions(t *testing.T) {
	expect(t, `prefix "a/" { let f(x) x }   a/f("ok")`, "ok")
}

func TestPrefixIsIndistinguishableFromQualifiedDefinition(t *testing.T) {
	inside := evaluate(t, `prefix "p/" { let i "v" }   p/i`)
	outside := evaluate(t, `let p/i "v"   p/i`)

	if inside != outside || inside != "v" {
		t.Fatalf("expected %q and %q to be \"v\"", inside, outside)
	}
}

func TestPrefixLookup(t *testing.T) {
	expect(t, `let a/f "q"  prefix "a/" { f }`, "")

	// Lookup inside a prefix block prefers the deepest qualification
	// and falls back to the bare name.
	expect(t, `let f "outer"  let a/f "inner"  prefix "a/" { var r f }  a/r`, "inner")
	expect(t, `let f "outer"  prefix "a/" { var r f }  a/r`, "outer")
}

func TestNestedPrefixes(t *testing.T) {
	expect(t, `prefix "a/" { prefix "b/" { let f "x" } }  a/b/f`, "x")
}

func TestShadowingAndDrop(t *testing.T) {
	expect(t, `let f(x) "a"  let f(x) "b"  f("z")`, "b")
	expect(t, `let f(x) "a"  let f(x) "b"  drop f(x)  f("z")`, "a")
}

func TestDropByArity(t *testing.T) {
	expect(t, `let x "A"   let x "B"   x .. " " .. { drop x(0) x }`, "B A")
}

func TestDropMissing(t *testing.T) {
	evaluateError(t, `drop f(x)`)
}

func TestBlockScope(t *testing.T) {
	expect(t, `let x "outer"  { let x "inner" x } .. " " .. x`, "inner outer")
}

func TestBlockStatementsAreSideEffectsOnly(t *testing.T) {
	expect(t, `{ "discarded" "kept" }`, "kept")
}

func TestHexEscapes(t *testing.T) {
	expect(t, `"\x48\x69"`, "Hi")
}

func TestHexLiteral(t *testing.T) {
	expect(t, `0x48_69`, "Hi")
}

func TestCodeString(t *testing.T) {
	expect(t, "c#\"   int x = 1;\n   int y = 2;\n\"#", "int x = 1;\nint y = 2;")
}

func TestMapDispatch(t *testing.T) {
	expect(t, `map "b" { "a" -> "1" "b" -> "2" * -> "3" }`, "2")
	expect(t, `map "z" { "a" -> "1" "b" -> "2" * -> "3" }`, "3")
	expect(t, `map "z" { "a" -> "1" }`, "")
}

func TestMapFirstMatchWins(t *testing.T) {
	expect(t, `map "a" { "a" -> "1" "a" -> "2" }`, "1")
}

func TestMapArmsAreLazy(t *testing.T) {
	// The arm of a case that is not chosen must not be evaluated.
	expect(t, `map "a" { "a" -> "ok" "b" -> error("never") }`, "ok")
}

func TestVariables(t *testing.T) {
	expect(t, `var greeting "hey"  greeting`, "hey")
	expect(t, `var x "1"  var x "2"  x`, "2")
}

func TestVariablesEvaluateEagerly(t *testing.T) {
	expect(t, `var a "1"  var b a  { var a "2" b }`, "1")
}

func TestFunctionBodiesAreLazy(t *testing.T) {
	// Bodies see the environment at call time, not definition time.
	expect(t, `let f g  let g "late"  f`, "late")
}

func TestArguments(t *testing.T) {
	expect(t, `let pair(a, b) a .. b  pair("x", "y")`, "xy")
}

func TestArity(t *testing.T) {
	expect(t, `let f "zero"  let f(x) "one"  f .. f("a")`, "zeroone")
}

func TestUndefined(t *testing.T) {
	err := evaluateError(t, `missing("x")`)
	if !strings.Contains(err.Error(), "'missing' is not defined") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrongArity(t *testing.T) {
	evaluateError(t, `let f(x) x  f`)
}

func TestSourcePersists(t *testing.T) {
	expect(t, `source("let f(x) x .. x") .. f("a")`, "aa")
}

func TestEvalIsSource(t *testing.T) {
	expect(t, `eval("let f(x) x .. x") .. f("a")`, "aa")
}

func TestCodeify(t *testing.T) {
	expect(t, `let f "F"  = "f"`, "F")
	expect(t, `var name "\"quoted\""  = name`, "quoted")
}

func TestCodeifyDefinitionsPersist(t *testing.T) {
	expect(t, `= "let f(x) x"  f("z")`, "z")
}

func TestStringify(t *testing.T) {
	expect(t, `!greet`, "greet")
}

func TestReplSnapshotRestore(t *testing.T) {
	r := reader.New()
	e := New(r, Diagnostics(io.Discard))

	doc, err := r.Parse("test", `let f "v"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.Evaluate(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := e.Snapshot()

	doc, err = r.Parse("test", `let f "w"  error("boom")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.Evaluate(doc); err == nil {
		t.Fatal("expected an error")
	}

	e.Restore(snapshot)

	doc, err = r.Parse("test", `f`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := e.Evaluate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v != "v" {
		t.Fatalf("expected %q; got %q", "v", v)
	}
}

func TestLogWritesToDiagnostics(t *testing.T) {
	var buf bytes.Buffer

	r := reader.New()

	doc, err := r.Parse("test", `log("note") "value"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := New(r, Diagnostics(&buf)).Evaluate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v != "value" {
		t.Fatalf("expected %q; got %q", "value", v)
	}

	if buf.String() != "note\n" {
		t.Fatalf("expected %q; got %q", "note\n", buf.String())
	}
}

func TestNoPartialOutputOnError(t *testing.T) {
	r := reader.New()

	doc, err := r.Parse("test", `"before" error("boom")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := New(r, Diagnostics(io.Discard)).Evaluate(doc)
	if err == nil {
		t.Fatal("expected an error")
	}

	if v != "" {
		t.Fatalf("expected no output; got %q", v)
	}
}
