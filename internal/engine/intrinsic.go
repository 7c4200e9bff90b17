// Released under an MIT license. See LICENSE.

package engine

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wotpp/wpp/internal/common/struct/ast"
	"github.com/wotpp/wpp/internal/common/struct/loc"
)

// arities maps each intrinsic to the number of arguments it takes.
//
//nolint:gochecknoglobals
var arities = map[ast.Kind]int{
	ast.Assert: 2,
	ast.Error:  1,
	ast.Escape: 1,
	ast.Eval:   1,
	ast.File:   1,
	ast.Find:   2,
	ast.Length: 1,
	ast.Log:    1,
	ast.Pipe:   2,
	ast.Run:    1,
	ast.Slice:  3,
	ast.Source: 1,
}

// intrinsic dispatches a call to a built-in operation. Arguments are
// evaluated eagerly, left to right, like function call arguments.
func (e *engine) intrinsic(n *ast.Intrinsic) (string, error) {
	kind, name, source := n.Kind, n.Name, *n.Loc()

	if len(n.Args) != arities[kind] {
		return "", e.fail(&source, fmt.Sprintf("%s expects %d argument(s), got %d",
			name, arities[kind], len(n.Args)))
	}

	args := make([]string, 0, len(n.Args))

	for _, a := range n.Args {
		v, err := e.eval(a)
		if err != nil {
			return "", err
		}

		args = append(args, v)
	}

	switch kind {
	case ast.Source, ast.Eval:
		return e.meta("<"+name+">", args[0])

	case ast.File:
		return e.file(&source, args[0])

	case ast.Assert:
		if args[0] != args[1] {
			return "", e.fail(&source, fmt.Sprintf("assertion failed: %q != %q", args[0], args[1]))
		}

		return "", nil

	case ast.Error:
		return "", e.fail(&source, args[0])

	case ast.Run:
		return e.run(&source, args[0], "")

	case ast.Pipe:
		return e.run(&source, args[0], args[1])

	case ast.Slice:
		return e.slice(&source, args[0], args[1], args[2])

	case ast.Find:
		return strconv.Itoa(strings.Index(args[0], args[1])), nil

	case ast.Length:
		return strconv.Itoa(len(args[0])), nil

	case ast.Log:
		fmt.Fprintln(e.diag, args[0])

		return "", nil

	case ast.Escape:
		return escape(args[0]), nil
	}

	return "", e.fail(&source, "unknown intrinsic '"+name+"'")
}

func (e *engine) file(source *loc.T, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", e.fail(source, "cannot read file "+strconv.Quote(name))
	}

	return string(b), nil
}

// run executes command with the shell, blocking until it exits. Its
// standard output is the value; standard error goes to the diagnostic
// stream. A non-zero exit is an error.
func (e *engine) run(source *loc.T, command, stdin string) (string, error) {
	if !e.exec {
		return "", e.fail(source, "the run and pipe intrinsics are disabled")
	}

	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Dir = e.root
	cmd.Stderr = e.diag

	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var out bytes.Buffer

	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", e.fail(source, "command failed: "+err.Error())
	}

	return out.String(), nil
}

// slice returns length bytes of s starting at index. A negative index
// counts back from the end of s.
func (e *engine) slice(source *loc.T, s, index, length string) (string, error) {
	i, err := strconv.Atoi(index)
	if err != nil {
		return "", e.fail(source, "slice index is not an integer: "+strconv.Quote(index))
	}

	n, err := strconv.Atoi(length)
	if err != nil {
		return "", e.fail(source, "slice length is not an integer: "+strconv.Quote(length))
	}

	if i < 0 {
		i += len(s)
	}

	if i < 0 || n < 0 || i+n > len(s) {
		return "", e.fail(source, "slice out of range")
	}

	return s[i : i+n], nil
}

// escape rewrites quotes, backslashes, and non-printable bytes into
// their printable escape forms.
func escape(s string) string {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}

	return b.String()
}
