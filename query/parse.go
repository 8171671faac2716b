package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

type parser struct {
	toks []Token
}

func (p *parser) empty() bool { return len(p.toks) == 0 }

func (p *parser) peek() Token { return p.toks[0] }

func (p *parser) next() Token {
	t := p.toks[0]
	p.toks = p.toks[1:]
	return t
}

func compileErrorf(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}

func parse(toks []Token) (expr, error) {
	if len(toks) == 0 {
		return nil, compileErrorf("Query string cannot be empty")
	}
	p := &parser{toks: toks}
	e, err := p.e1()
	if err != nil {
		return nil, err
	}
	if !p.empty() {
		return nil, compileErrorf("Invalid input found at '%s'", p.peek().Text)
	}
	return e, nil
}

// binary parses left (op right)? where op is any operator of type typ and
// right is parsed by rhs.
func (p *parser) binary(typ TokenType, lhs, rhs func() (expr, error)) (expr, error) {
	left, err := lhs()
	if err != nil {
		return nil, err
	}
	if p.empty() || p.peek().Type != typ {
		return left, nil
	}
	op := opNames[p.next().Text]
	right, err := rhs()
	if err != nil {
		return nil, err
	}
	return &binaryExpr{op: op, left: left, right: right}, nil
}

func (p *parser) e1() (expr, error) { return p.binary(TOpBoolean, p.e2, p.e1) }
func (p *parser) e2() (expr, error) { return p.binary(TOpComparison, p.e3, p.e3) }
func (p *parser) e3() (expr, error) { return p.binary(TOpNumeric3, p.e4, p.e3) }
func (p *parser) e4() (expr, error) { return p.binary(TOpNumeric4, p.e5, p.e4) }

func (p *parser) e5() (expr, error) {
	if p.empty() {
		return nil, compileErrorf("Expected <e5> but no more tokens available")
	}
	tok := p.next()
	switch tok.Type {
	case TOpenParen:
		e, err := p.e1()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TCloseParen, "<e5>"); err != nil {
			return nil, err
		}
		return e, nil

	case TLiteralInteger:
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, compileErrorf("Invalid integer literal '%s'", tok.Text)
		}
		return &intLit{v: v}, nil

	case TLiteralRegex:
		re, err := regexp2.Compile(tok.Text, regexp2.ECMAScript)
		if err != nil {
			return nil, &CompileError{Msg: fmt.Sprintf("Invalid regex /%s/", tok.Text), Err: err}
		}
		// (?![\s\S]) holds only at the end of the input, unlike $ which
		// also holds before a final newline.
		full, err := regexp2.Compile(`^(?:`+tok.Text+`)(?![\s\S])`, regexp2.ECMAScript)
		if err != nil {
			return nil, &CompileError{Msg: fmt.Sprintf("Invalid regex /%s/", tok.Text), Err: err}
		}
		return &regexLit{src: tok.Text, re: re, full: full}, nil

	case TLiteralString:
		return &strLit{v: tok.Text}, nil

	case TVar:
		e := &varExpr{name: tok.Text}
		if !p.empty() && p.peek().Type == TVarAttribute {
			e.attr = p.next().Text
		}
		return e, nil

	case TFunction:
		return p.function(tok)
	}

	rest := []string{fmt.Sprintf("'%s'", tok.Text)}
	for _, t := range p.toks {
		rest = append(rest, fmt.Sprintf("'%s'", t.Text))
	}
	p.toks = nil
	return nil, compileErrorf("Expected <e5> token but found token type %s instead ( %s)", tok.Type, strings.Join(rest, " "))
}

func (p *parser) expect(typ TokenType, where string) error {
	if p.empty() {
		return compileErrorf("Expected %s in %s but no more tokens available", typ, where)
	}
	if t := p.next(); t.Type != typ {
		return compileErrorf("Expected %s in %s but found token type %s instead", typ, where, t.Type)
	}
	return nil
}

func (p *parser) function(tok Token) (expr, error) {
	fn, ok := funcNames[tok.Text]
	if !ok {
		return nil, compileErrorf("Unknown function '%s'", tok.Text)
	}
	if err := p.expect(TOpenParen, "<e5> function"); err != nil {
		return nil, err
	}
	e := &funcExpr{fn: fn}
	for {
		if p.empty() {
			return nil, compileErrorf("Expected %s in <e5> function but no more tokens available", TCloseParen)
		}
		if p.peek().Type == TCloseParen {
			p.next()
			return e, nil
		}
		if len(e.args) != 0 {
			if err := p.expect(TComma, "<e5> function"); err != nil {
				return nil, err
			}
		}
		arg, err := p.e1()
		if err != nil {
			return nil, err
		}
		e.args = append(e.args, arg)
	}
}
