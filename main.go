/*
Wpp evaluates wot++ documents: macro programs whose value is a string.
A document is parsed into a tree of definitions and expressions and
evaluated under a mutable environment; the concatenation of its
top-level expression values is written to standard output.

	wpp page.wpp >page.html

With no documents and a TTY on stdin, wpp starts an interactive
session.

Wpp is released under an MIT-style license.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wotpp/wpp/internal/engine"
	"github.com/wotpp/wpp/internal/reader"
	"github.com/wotpp/wpp/internal/system/options"
	"github.com/wotpp/wpp/internal/ui"
)

const version = "wpp 0.1.0"

func main() {
	options.Parse(version)

	if options.Repl() {
		r := reader.New()
		ui.Run(r, engine.New(r, configure()...))

		return
	}

	files := options.Files()
	if len(files) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			fail(err)
		}

		if err := evaluate("<stdin>", string(text)); err != nil {
			fail(err)
		}

		return
	}

	for _, path := range files {
		text, err := os.ReadFile(path)
		if err != nil {
			fail(err)
		}

		if err := evaluate(path, string(text)); err != nil {
			fail(err)
		}
	}
}

func configure() []engine.Option {
	if options.Exec() {
		return nil
	}

	return []engine.Option{engine.NoExec()}
}

// evaluate runs one document against a fresh environment. Its value is
// written to stdout only when the whole document evaluates cleanly.
func evaluate(name, text string) error {
	r := reader.New()

	doc, err := r.Parse(name, text)
	if err != nil {
		return err
	}

	v, err := engine.New(r, configure()...).Evaluate(doc)
	if err != nil {
		return err
	}

	_, err = os.Stdout.WriteString(v)

	return err
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
