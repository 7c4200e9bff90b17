package main

import (
	"testing"

	"github.com/wotpp/wpp/internal/engine"
	"github.com/wotpp/wpp/internal/reader"
)

func TestInput(t *testing.T) {
	r := reader.New()

	doc, err := r.Parse("wpp", `
let item(x) "<li>" .. x .. "</li>"

let list(a, b) "<ul>" .. item(a) .. item(b) .. "</ul>"

list("one", "two")
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := engine.New(r).Evaluate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "<ul><li>one</li><li>two</li></ul>"
	if v != want {
		t.Fatalf("expected %q; got %q", want, v)
	}
}
