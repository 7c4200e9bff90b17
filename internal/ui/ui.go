// Released under an MIT license. See LICENSE.

// Package ui provides an interactive session for the wpp language.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/common/struct/env"
	"github.com/wotpp/wpp/internal/reader"
	"github.com/wotpp/wpp/internal/system/history"
)

// Evaluator is the interface for things that evaluate parsed documents.
// Snapshot and Restore bracket each input so that a failed evaluation
// leaves the environment as it was.
type Evaluator interface {
	Evaluate(doc ast.ID) (string, error)
	Snapshot() *env.T
	Restore(s *env.T)
}

// Run reads, evaluates, and prints until EOF.
func Run(r *reader.T, e Evaluator) {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	_ = history.Load(cli.ReadHistory)

	defer func() {
		_ = history.Save(cli.WriteHistory)
	}()

	for {
		line, err := cli.Prompt(">>> ")

		switch err {
		case nil:
		case liner.ErrPromptAborted:
			continue
		default:
			fmt.Println()

			return
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		cli.AppendHistory(line)

		snapshot := e.Snapshot()

		doc, err := r.Parse("repl", line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)

			continue
		}

		v, err := e.Evaluate(doc)
		if err != nil {
			e.Restore(snapshot)
			fmt.Fprintln(os.Stderr, err)

			continue
		}

		if v != "" {
			fmt.Println(v)
		}
	}
}
