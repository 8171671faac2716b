package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/debug"
	"github.com/signadot/docrep/go-docrep/wire"
)

// scope is one level of variable bindings.
type scope struct {
	vars   map[string]Value
	parent *scope
}

func (s *scope) lookup(name string) (Value, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// evalCtx is the state of evaluating a query against one document.
type evalCtx struct {
	doc   docrep.Document
	scope *scope
	// visits counts instances visited by any and all.
	visits int
}

func newEvalCtx(doc docrep.Document, index int) (*evalCtx, error) {
	root, err := docrep.Root(doc)
	if err != nil {
		return nil, &RuntimeError{Msg: "Document cannot be queried", Err: err}
	}
	return &evalCtx{
		doc: doc,
		scope: &scope{vars: map[string]Value{
			"doc":   {Type: TypeDoc, inst: root},
			"index": Int(int64(index)),
		}},
	}, nil
}

func runtimeErrorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

func checkAccepts(what string, t, mask Type) error {
	if t&mask == 0 {
		return runtimeErrorf("Invalid input type to %s: found %s", what, t)
	}
	return nil
}

func checkSameAccepts(op Op, l, r, mask Type) error {
	if l&mask == 0 {
		return runtimeErrorf("Invalid left type to %s: found %s", op, l)
	}
	if r&mask == 0 {
		return runtimeErrorf("Invalid right type to %s: found %s", op, r)
	}
	if l != r {
		return runtimeErrorf("Left and right types to %s do not match. Found %s and %s", op, l, r)
	}
	return nil
}

func (e *intLit) eval(*evalCtx) (Value, error) { return Int(e.v), nil }

func (e *strLit) eval(*evalCtx) (Value, error) { return String(e.v), nil }

func (e *regexLit) eval(*evalCtx) (Value, error) {
	return Value{Type: TypeRegex, re: e.re, full: e.full}, nil
}

func (e *varExpr) eval(ctx *evalCtx) (Value, error) {
	v, ok := ctx.scope.lookup(e.name)
	if !ok {
		return Value{}, runtimeErrorf("Variable '%s' does not exist", e.name)
	}
	if e.attr == "" {
		return v, nil
	}
	if v.Type != TypeAnn && v.Type != TypeDoc {
		return Value{}, runtimeErrorf("Invalid access to attribute '%s' of variable '%s' of type %s", e.attr, e.name, v.Type)
	}
	fv, ok, err := v.inst.Lookup(e.attr)
	if err != nil {
		return Value{}, &RuntimeError{Msg: fmt.Sprintf("Reading attribute '%s' of variable '%s'", e.attr, e.name), Err: err}
	}
	if ok {
		return e.fieldValue(fv)
	}
	if v.Type == TypeDoc {
		for _, st := range v.inst.Class.Stores {
			if st.Serial == e.attr {
				return Value{Type: TypeStore, store: st}, nil
			}
		}
	}
	return Missing(), nil
}

func (e *varExpr) fieldValue(fv docrep.FieldValue) (Value, error) {
	f := fv.Field
	if f.IsSlice || f.IsPointer || f.IsSelfPointer {
		return Value{}, runtimeErrorf("Field '%s' is of an invalid type", e.attr)
	}
	w := fv.Value
	switch w.Kind {
	case wire.BoolKind:
		return Bool(w.Bool), nil
	case wire.IntKind:
		return Int(w.Int), nil
	case wire.UintKind:
		return Int(int64(w.Uint)), nil
	case wire.RawKind:
		return String(string(w.Raw)), nil
	}
	return Value{}, runtimeErrorf("Field '%s' is of an invalid type", e.attr)
}

func (e *binaryExpr) eval(ctx *evalCtx) (Value, error) {
	l, err := e.left.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.eval(ctx)
	if err != nil {
		return Value{}, err
	}

	switch e.op {
	case OpAnd, OpOr, OpLe, OpLt, OpGe, OpGt, OpSub, OpMod, OpMul, OpDiv:
		if err := checkSameAccepts(e.op, l.Type, r.Type, TypeInteger); err != nil {
			return Value{}, err
		}
	case OpEq, OpNe, OpAdd:
		if err := checkSameAccepts(e.op, l.Type, r.Type, TypeInteger|TypeString); err != nil {
			return Value{}, err
		}
	case OpMatch, OpFullMatch:
		if err := checkAccepts("left side of "+e.op.String(), l.Type, TypeString); err != nil {
			return Value{}, err
		}
		if err := checkAccepts("right side of "+e.op.String(), r.Type, TypeRegex); err != nil {
			return Value{}, err
		}
	}

	switch e.op {
	case OpAnd:
		return Bool(l.Int != 0 && r.Int != 0), nil
	case OpOr:
		return Bool(l.Int != 0 || r.Int != 0), nil
	case OpEq:
		if l.Type == TypeInteger {
			return Bool(l.Int == r.Int), nil
		}
		return Bool(l.Str == r.Str), nil
	case OpNe:
		if l.Type == TypeInteger {
			return Bool(l.Int != r.Int), nil
		}
		return Bool(l.Str != r.Str), nil
	case OpLe:
		return Bool(l.Int <= r.Int), nil
	case OpLt:
		return Bool(l.Int < r.Int), nil
	case OpGe:
		return Bool(l.Int >= r.Int), nil
	case OpGt:
		return Bool(l.Int > r.Int), nil
	case OpMatch:
		ok, err := r.re.MatchString(l.Str)
		if err != nil {
			return Value{}, &RuntimeError{Msg: "Matching " + r.String(), Err: err}
		}
		return Bool(ok), nil
	case OpFullMatch:
		ok, err := r.full.MatchString(l.Str)
		if err != nil {
			return Value{}, &RuntimeError{Msg: "Matching " + r.String(), Err: err}
		}
		return Bool(ok), nil
	case OpAdd:
		if l.Type == TypeInteger {
			return Int(l.Int + r.Int), nil
		}
		return String(l.Str + r.Str), nil
	case OpSub:
		return Int(l.Int - r.Int), nil
	case OpMul:
		return Int(l.Int * r.Int), nil
	case OpDiv, OpMod:
		if r.Int == 0 {
			return Value{}, runtimeErrorf("Division by zero in %s", e.op)
		}
		if e.op == OpDiv {
			return Int(l.Int / r.Int), nil
		}
		return Int(l.Int % r.Int), nil
	}
	return Value{}, runtimeErrorf("Unknown operator %d", int(e.op))
}

func (e *funcExpr) checkArity(n int) error {
	if len(e.args) != n {
		return runtimeErrorf("Incorrect number of arguments to '%s'. Found %d but expected %d", e.fn, len(e.args), n)
	}
	return nil
}

func (e *funcExpr) eval(ctx *evalCtx) (Value, error) {
	switch e.fn {
	case FuncAll, FuncAny:
		return e.iterate(ctx, e.fn == FuncAny)
	}
	if err := e.checkArity(1); err != nil {
		return Value{}, err
	}
	v, err := e.args[0].eval(ctx)
	if err != nil {
		return Value{}, err
	}
	what := fmt.Sprintf("arg0 of '%s'", e.fn)

	switch e.fn {
	case FuncInt:
		if err := checkAccepts(what, v.Type, TypeInteger|TypeMissing|TypeString); err != nil {
			return Value{}, err
		}
		switch v.Type {
		case TypeMissing:
			return Int(0), nil
		case TypeString:
			i, ok := parseInt(v.Str)
			if !ok {
				return Value{}, runtimeErrorf("Failed to convert string value '%s' to an integer", v.Str)
			}
			return Int(i), nil
		}
		return v, nil

	case FuncLen:
		if err := checkAccepts(what, v.Type, TypeMissing|TypeString|TypeStore); err != nil {
			return Value{}, err
		}
		switch v.Type {
		case TypeMissing:
			return Int(0), nil
		case TypeString:
			return Int(int64(len(v.Str))), nil
		}
		return Int(int64(v.store.NElem)), nil

	case FuncStr:
		if err := checkAccepts(what, v.Type, TypeInteger|TypeMissing|TypeString); err != nil {
			return Value{}, err
		}
		switch v.Type {
		case TypeMissing:
			return String(""), nil
		case TypeInteger:
			return String(strconv.FormatInt(v.Int, 10)), nil
		}
		return v, nil
	}
	return Value{}, runtimeErrorf("Unknown function %d", int(e.fn))
}

// iterate evaluates the predicate of any or all once per instance of the
// store given as the first argument, in index order, stopping at the
// first instance that decides the result.
func (e *funcExpr) iterate(ctx *evalCtx, isAny bool) (Value, error) {
	if err := e.checkArity(2); err != nil {
		return Value{}, err
	}
	v, err := e.args[0].eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if err := checkAccepts(fmt.Sprintf("arg0 of '%s'", e.fn), v.Type, TypeMissing|TypeStore); err != nil {
		return Value{}, err
	}
	if v.Type == TypeMissing {
		return Bool(false), nil
	}
	insts, err := docrep.Instances(ctx.doc, v.store)
	if err != nil {
		return Value{}, &RuntimeError{Msg: fmt.Sprintf("Reading store '%s'", v.store.Serial), Err: err}
	}
	if debug.Query() {
		debug.Logf("%s over store %q with %d instances", e.fn, v.store.Serial, len(insts))
	}

	outer := ctx.scope
	defer func() { ctx.scope = outer }()
	for _, inst := range insts {
		ctx.scope = &scope{vars: map[string]Value{"ann": {Type: TypeAnn, inst: inst}}, parent: outer}
		ctx.visits++
		r, err := e.args[1].eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if isAny && r.Truthy() {
			return Bool(true), nil
		}
		if !isAny && !r.Truthy() {
			return Bool(false), nil
		}
	}
	return Bool(!isAny), nil
}

// parseInt converts s the way C's strtoll does when the whole string must
// be consumed: leading white space and a sign are allowed, out of range
// values saturate, and the empty string is 0.
func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, true
	}
	t := strings.TrimLeft(s, " \t\n\v\f\r")
	digits := t
	if digits != "" && (digits[0] == '+' || digits[0] == '-') {
		digits = digits[1:]
	}
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	i, err := strconv.ParseInt(t, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return i, true
}
