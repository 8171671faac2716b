package query

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	TOpenParen TokenType = iota
	TCloseParen
	TComma
	TOpBoolean
	TOpComparison
	TOpNumeric3
	TOpNumeric4
	TLiteralInteger
	TLiteralRegex
	TLiteralString
	TVar
	TVarAttribute
	TFunction
)

func (t TokenType) String() string {
	return map[TokenType]string{
		TOpenParen:      "OPEN_PAREN",
		TCloseParen:     "CLOSE_PAREN",
		TComma:          "COMMA",
		TOpBoolean:      "OP_BOOLEAN",
		TOpComparison:   "OP_COMPARISON",
		TOpNumeric3:     "OP_NUMERIC3",
		TOpNumeric4:     "OP_NUMERIC4",
		TLiteralInteger: "LITERAL_INTEGER",
		TLiteralRegex:   "LITERAL_REGEX",
		TLiteralString:  "LITERAL_STRING",
		TVar:            "VAR",
		TVarAttribute:   "VAR_ATTRIBUTE",
		TFunction:       "FUNCTION",
	}[t]
}

// Token is a lexed token. Text is the token as written, except for string
// and regex literals where it is the unquoted content.
type Token struct {
	Type TokenType
	Pos  int
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %d", t.Type, t.Text, t.Pos)
}

var operators = []struct {
	text string
	typ  TokenType
}{
	{"&&", TOpBoolean},
	{"||", TOpBoolean},
	{"==", TOpComparison},
	{"!=", TOpComparison},
	{"<=", TOpComparison},
	{">=", TOpComparison},
	{"~=", TOpComparison},
	{"<", TOpComparison},
	{">", TOpComparison},
	{"~", TOpComparison},
	{"+", TOpNumeric3},
	{"-", TOpNumeric3},
	{"%", TOpNumeric3},
	{"*", TOpNumeric4},
	{"/", TOpNumeric4},
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Tokenize splits src into tokens.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	// operand reports whether the previous token ends an operand, in which
	// case '-' and '/' are operators rather than the start of a literal.
	operand := func() bool {
		if len(toks) == 0 {
			return false
		}
		switch toks[len(toks)-1].Type {
		case TCloseParen, TLiteralInteger, TLiteralRegex, TLiteralString, TVar, TVarAttribute:
			return true
		}
		return false
	}
	invalid := func(i int) error {
		return &CompileError{Msg: fmt.Sprintf("Invalid input found at '%s'", src[i:])}
	}

	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case isSpace(c):
			i++

		case c == '(':
			toks = append(toks, Token{Type: TOpenParen, Pos: i, Text: "("})
			i++
		case c == ')':
			toks = append(toks, Token{Type: TCloseParen, Pos: i, Text: ")"})
			i++
		case c == ',':
			toks = append(toks, Token{Type: TComma, Pos: i, Text: ","})
			i++

		case isDigit(c) || (c == '-' && i+1 < n && isDigit(src[i+1]) && !operand()):
			j := i + 1
			for j < n && isDigit(src[j]) {
				j++
			}
			toks = append(toks, Token{Type: TLiteralInteger, Pos: i, Text: src[i:j]})
			i = j

		case c == '/' && !operand():
			text, j, ok := scanQuoted(src, i, '/', false)
			if !ok {
				return nil, invalid(i)
			}
			toks = append(toks, Token{Type: TLiteralRegex, Pos: i, Text: text})
			i = j

		case c == '"' || c == '\'':
			text, j, ok := scanQuoted(src, i, c, true)
			if !ok {
				return nil, invalid(i)
			}
			toks = append(toks, Token{Type: TLiteralString, Pos: i, Text: text})
			i = j

		case isIdentStart(c):
			j := i + 1
			for j < n && isIdent(src[j]) {
				j++
			}
			name := src[i:j]
			k := j
			for k < n && isSpace(src[k]) {
				k++
			}
			if k < n && src[k] == '(' {
				if _, ok := funcNames[name]; !ok {
					return nil, &CompileError{Msg: fmt.Sprintf("Unknown function '%s'", name)}
				}
				toks = append(toks, Token{Type: TFunction, Pos: i, Text: name})
				i = j
				continue
			}
			toks = append(toks, Token{Type: TVar, Pos: i, Text: name})
			i = j
			if i+1 < n && src[i] == '.' && isIdentStart(src[i+1]) {
				j = i + 2
				for j < n && isIdent(src[j]) {
					j++
				}
				toks = append(toks, Token{Type: TVarAttribute, Pos: i + 1, Text: src[i+1 : j]})
				i = j
			}

		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op.text) {
					toks = append(toks, Token{Type: op.typ, Pos: i, Text: op.text})
					i += len(op.text)
					matched = true
					break
				}
			}
			if !matched {
				return nil, invalid(i)
			}
		}
	}
	return toks, nil
}

// scanQuoted scans a literal opened by the delimiter at src[i]. Backslash
// escapes the delimiter; with unescape set the common escapes are decoded,
// otherwise other escapes are kept as written so regexes see them.
func scanQuoted(src string, i int, delim byte, unescape bool) (string, int, bool) {
	var b strings.Builder
	for j := i + 1; j < len(src); j++ {
		c := src[j]
		switch {
		case c == delim:
			return b.String(), j + 1, true
		case c == '\\' && j+1 < len(src):
			j++
			e := src[j]
			switch {
			case e == delim:
				b.WriteByte(e)
			case !unescape:
				b.WriteByte('\\')
				b.WriteByte(e)
			case e == 'n':
				b.WriteByte('\n')
			case e == 't':
				b.WriteByte('\t')
			case e == 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, false
}
