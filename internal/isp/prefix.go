package isp

import (
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type prefixRule struct {
	prefixes []string
	// If value is set, the rule only applies to declarations with exactly
	// that value. With prefixValue, the prefix goes on the value rather
	// than the property (position: -webkit-sticky).
	value       string
	prefixValue bool
}

// Properties that still need vendor prefixes in the default browser set.
var prefixRules = map[string][]prefixRule{
	"appearance":           {{prefixes: []string{"-webkit-", "-moz-"}}},
	"backdrop-filter":      {{prefixes: []string{"-webkit-"}}},
	"background-clip":      {{prefixes: []string{"-webkit-"}, value: "text"}},
	"box-decoration-break": {{prefixes: []string{"-webkit-"}}},
	"clip-path":            {{prefixes: []string{"-webkit-"}}},
	"hyphens":              {{prefixes: []string{"-webkit-"}}},
	"initial-letter":       {{prefixes: []string{"-webkit-"}}},
	"mask":                 {{prefixes: []string{"-webkit-"}}},
	"mask-clip":            {{prefixes: []string{"-webkit-"}}},
	"mask-composite":       {{prefixes: []string{"-webkit-"}}},
	"mask-image":           {{prefixes: []string{"-webkit-"}}},
	"mask-origin":          {{prefixes: []string{"-webkit-"}}},
	"mask-position":        {{prefixes: []string{"-webkit-"}}},
	"mask-repeat":          {{prefixes: []string{"-webkit-"}}},
	"mask-size":            {{prefixes: []string{"-webkit-"}}},
	"position":             {{prefixes: []string{"-webkit-"}, value: "sticky", prefixValue: true}},
	"print-color-adjust":   {{prefixes: []string{"-webkit-"}}},
	"tab-size":             {{prefixes: []string{"-moz-"}}},
	"text-emphasis":        {{prefixes: []string{"-webkit-"}}},
	"text-size-adjust":     {{prefixes: []string{"-webkit-", "-moz-"}}},
	"user-select":          {{prefixes: []string{"-webkit-"}}},
}

type token struct {
	tt   css.TokenType
	text string
}

func tokenize(content string) ([]token, error) {
	l := css.NewLexer(parse.NewInputString(content))
	var tokens []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return tokens, nil
		}
		tokens = append(tokens, token{tt: tt, text: string(data)})
	}
}

func isTrivia(tt css.TokenType) bool {
	return tt == css.WhitespaceToken || tt == css.CommentToken
}

// declaration is a property: value pair located in the token stream.
type declaration struct {
	property string // lowercased
	value    string // trimmed, without !important
	start    int    // index of the property token
	end      int    // index one past the last value token
}

// scanStatement looks at the statement starting at i inside a block and
// returns it if it is a plain declaration. The statement runs to the
// first ";", "{" or "}" outside parentheses.
func scanStatement(tokens []token, i int) *declaration {
	parens := 0
	end := len(tokens)
	for j := i; j < len(tokens); j++ {
		switch tokens[j].tt {
		case css.LeftParenthesisToken, css.FunctionToken, css.LeftBracketToken:
			parens++
		case css.RightParenthesisToken, css.RightBracketToken:
			if parens > 0 {
				parens--
			}
		case css.SemicolonToken, css.RightBraceToken, css.LeftBraceToken:
			if parens == 0 {
				end = j
			}
		}
		if end != len(tokens) {
			break
		}
	}

	// Nested rule or at-rule prelude, not a declaration.
	if end < len(tokens) && tokens[end].tt == css.LeftBraceToken {
		return nil
	}

	if i >= end || tokens[i].tt != css.IdentToken {
		return nil
	}
	j := i + 1
	for j < end && isTrivia(tokens[j].tt) {
		j++
	}
	if j >= end || tokens[j].tt != css.ColonToken {
		return nil
	}

	valueEnd := end
	for valueEnd > j+1 && isTrivia(tokens[valueEnd-1].tt) {
		valueEnd--
	}
	var value strings.Builder
	for k := j + 1; k < valueEnd; k++ {
		value.WriteString(tokens[k].text)
	}

	return &declaration{
		property: strings.ToLower(tokens[i].text),
		value:    strings.TrimSpace(value.String()),
		start:    i,
		end:      valueEnd,
	}
}

func stripImportant(value string) string {
	v := strings.TrimSpace(value)
	lower := strings.ToLower(v)
	if idx := strings.LastIndex(lower, "!important"); idx >= 0 && strings.TrimSpace(lower[idx+len("!important"):]) == "" {
		v = strings.TrimSpace(v[:idx])
	}
	return v
}

func declarationKey(property, value string) string {
	return property + ":" + strings.ToLower(stripImportant(value))
}

// Prefix adds vendor-prefixed copies in front of declarations that need
// them. Everything else, whitespace and comments included, passes through
// byte for byte. A prefixed copy that already precedes its declaration in
// the same block is not added again, so Prefix(Prefix(x)) == Prefix(x).
func Prefix(content string) (string, error) {
	tokens, err := tokenize(content)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(content))

	// seen holds the declarations of each open block, innermost last.
	var seen []map[string]bool

	atStatementStart := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.tt {
		case css.LeftBraceToken:
			seen = append(seen, map[string]bool{})
			atStatementStart = true
			sb.WriteString(tok.text)
			continue
		case css.RightBraceToken:
			if len(seen) > 0 {
				seen = seen[:len(seen)-1]
			}
			atStatementStart = len(seen) > 0
			sb.WriteString(tok.text)
			continue
		case css.SemicolonToken:
			atStatementStart = len(seen) > 0
			sb.WriteString(tok.text)
			continue
		}

		if !atStatementStart || isTrivia(tok.tt) || len(seen) == 0 {
			sb.WriteString(tok.text)
			continue
		}
		atStatementStart = false

		decl := scanStatement(tokens, i)
		if decl == nil {
			sb.WriteString(tok.text)
			continue
		}

		block := seen[len(seen)-1]
		indent := leadingIndent(tokens, i)
		var original strings.Builder
		for k := decl.start; k < decl.end; k++ {
			original.WriteString(tokens[k].text)
		}

		for _, rule := range prefixRules[decl.property] {
			if rule.value != "" && !strings.EqualFold(stripImportant(decl.value), rule.value) {
				continue
			}
			for _, prefix := range rule.prefixes {
				var prefixed, key string
				if rule.prefixValue {
					value := prefix + decl.value
					prefixed = tokens[decl.start].text + ": " + value
					key = declarationKey(decl.property, value)
				} else {
					prefixed = prefix + original.String()
					key = declarationKey(prefix+decl.property, decl.value)
				}
				if block[key] {
					continue
				}
				block[key] = true
				sb.WriteString(prefixed)
				sb.WriteString(";")
				sb.WriteString(indent)
			}
		}

		block[declarationKey(decl.property, decl.value)] = true
		sb.WriteString(original.String())
		i = decl.end - 1
	}

	return sb.String(), nil
}

// leadingIndent is the whitespace between the previous statement and the
// token at i, reused to lay out inserted declarations.
func leadingIndent(tokens []token, i int) string {
	if i == 0 || tokens[i-1].tt != css.WhitespaceToken {
		return ""
	}
	return tokens[i-1].text
}
