package query

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Op is a binary operator.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpEq
	OpNe
	OpLe
	OpLt
	OpGe
	OpGt
	OpFullMatch
	OpMatch
	OpAdd
	OpSub
	OpMod
	OpMul
	OpDiv
)

var opNames = map[string]Op{
	"&&": OpAnd,
	"||": OpOr,
	"==": OpEq,
	"!=": OpNe,
	"<=": OpLe,
	"<":  OpLt,
	">=": OpGe,
	">":  OpGt,
	"~=": OpFullMatch,
	"~":  OpMatch,
	"+":  OpAdd,
	"-":  OpSub,
	"%":  OpMod,
	"*":  OpMul,
	"/":  OpDiv,
}

func (o Op) String() string {
	for k, v := range opNames {
		if v == o {
			return k
		}
	}
	return "?"
}

// Func is a builtin function.
type Func int

const (
	FuncAll Func = iota
	FuncAny
	FuncInt
	FuncLen
	FuncStr
)

var funcNames = map[string]Func{
	"all": FuncAll,
	"any": FuncAny,
	"int": FuncInt,
	"len": FuncLen,
	"str": FuncStr,
}

func (f Func) String() string {
	for k, v := range funcNames {
		if v == f {
			return k
		}
	}
	return "?"
}

// expr is a node of a compiled query.
type expr interface {
	eval(ctx *evalCtx) (Value, error)
	String() string
}

type binaryExpr struct {
	op          Op
	left, right expr
}

func (e *binaryExpr) String() string {
	return "(" + e.left.String() + " " + e.op.String() + " " + e.right.String() + ")"
}

type funcExpr struct {
	fn   Func
	args []expr
}

func (e *funcExpr) String() string {
	args := make([]string, len(e.args))
	for i, a := range e.args {
		args[i] = a.String()
	}
	return e.fn.String() + "(" + strings.Join(args, ", ") + ")"
}

type varExpr struct {
	name string
	attr string
}

func (e *varExpr) String() string {
	if e.attr == "" {
		return e.name
	}
	return e.name + "." + e.attr
}

type intLit struct {
	v int64
}

func (e *intLit) String() string { return strconv.FormatInt(e.v, 10) }

type strLit struct {
	v string
}

func (e *strLit) String() string { return strconv.Quote(e.v) }

type regexLit struct {
	src  string
	re   *regexp2.Regexp
	full *regexp2.Regexp
}

func (e *regexLit) String() string { return "/" + e.src + "/" }
