// Released under an MIT license. See LICENSE.

// Package options parses wpp's command line.
package options

import (
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

//nolint:gochecknoglobals
var (
	exec  = true
	files []string
	repl  bool
	usage = `wpp

Usage:
  wpp [-R] [--] FILE...
  wpp [-rR]
  wpp -h
  wpp -v

Arguments:
  FILE  Path to a wpp document. Documents are evaluated in order and
        their values written to standard output.

Options:
  -r, --repl     Start an interactive session.
  -R, --no-run   Disable the run and pipe intrinsics.
  -h, --help     Display this help.
  -v, --version  Print wpp version.

If wpp's stdin is a TTY and no documents are given, an interactive
session is started. Otherwise, with no documents, a single document is
read from stdin.
`
)

// Exec returns true unless the run and pipe intrinsics were disabled.
func Exec() bool {
	return exec
}

// Files returns the document paths to evaluate.
func Files() []string {
	return files
}

// Parse parses the command line.
func Parse(version string) {
	opts, err := docopt.ParseArgs(usage, nil, version)
	if err != nil {
		// Error in the usage doc. This should never happen.
		panic(err.Error())
	}

	files, _ = opts["FILE"].([]string)

	repl, _ = opts.Bool("--repl")
	if len(files) == 0 && isatty.IsTerminal(os.Stdin.Fd()) {
		repl = true
	}

	noRun, _ := opts.Bool("--no-run")
	exec = !noRun
}

// Repl returns true if an interactive session was requested.
func Repl() bool {
	return repl
}
