package ast

import (
	"testing"

	"github.com/wotpp/wpp/internal/common/struct/loc"
)

func TestIndicesAreStable(t *testing.T) {
	tree := New()

	s := tree.Add(&String{Info: At(loc.T{Line: 1, Char: 1}), Text: "payload"})

	// Grow the store well past any initial capacity.
	for i := 0; i < 1000; i++ {
		tree.Add(&String{Text: "filler"})
	}

	if got := To[String](tree, s).Text; got != "payload" {
		t.Fatalf("expected %q; got %q", "payload", got)
	}
}

func TestReplace(t *testing.T) {
	tree := New()

	n := tree.Add(&FnInvoke{Name: "run", Args: []ID{}})

	tree.Replace(n, &Intrinsic{Kind: Run, Name: "run", Args: []ID{}})

	if !Is[Intrinsic](tree, n) {
		t.Fatal("expected the node to be replaced")
	}

	if Is[FnInvoke](tree, n) {
		t.Fatal("expected the old variant to be gone")
	}
}

func TestEmptyIsNotAnIndex(t *testing.T) {
	tree := New()

	n := tree.Add(&Map{Default: Empty})

	if To[Map](tree, n).Default != Empty {
		t.Fatal("expected the default arm to be empty")
	}
}
