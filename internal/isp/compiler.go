package isp

import (
	"context"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Compiler turns one stylesheet source into plain CSS. path is the source's
// location on disk, which compilers use to resolve relative imports.
type Compiler interface {
	Compile(ctx context.Context, path string, source string) (string, error)
}

// CompileError is the one error kind the pipeline recognizes: a source that
// failed to compile (syntax error, missing import and so on).
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// CSSCompiler passes plain CSS through untouched after checking that its
// blocks and strings are well formed.
type CSSCompiler struct{}

func (CSSCompiler) Compile(ctx context.Context, path string, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkCSSSyntax(source); err != nil {
		return "", err
	}
	return source, nil
}

type syntaxError struct {
	line int
	msg  string
}

func (e syntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

func checkCSSSyntax(source string) error {
	l := css.NewLexer(parse.NewInputString(source))

	line := 1
	var open []int // line of each unclosed "{"
	parens := 0

	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return syntaxError{line: line, msg: err.Error()}
			}
			if len(open) > 0 {
				return syntaxError{line: open[len(open)-1], msg: `unclosed block, expected "}"`}
			}
			if parens > 0 {
				return syntaxError{line: line, msg: `unclosed parenthesis, expected ")"`}
			}
			return nil
		case css.BadStringToken:
			return syntaxError{line: line, msg: "unterminated string"}
		case css.BadURLToken:
			return syntaxError{line: line, msg: "malformed url()"}
		case css.LeftBraceToken:
			open = append(open, line)
		case css.RightBraceToken:
			if len(open) == 0 {
				return syntaxError{line: line, msg: `unexpected "}"`}
			}
			open = open[:len(open)-1]
		case css.LeftParenthesisToken, css.FunctionToken:
			parens++
		case css.RightParenthesisToken:
			if parens == 0 {
				return syntaxError{line: line, msg: `unexpected ")"`}
			}
			parens--
		}
		for _, b := range data {
			if b == '\n' {
				line++
			}
		}
	}
}
