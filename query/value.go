package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/signadot/docrep/go-docrep"
)

// Type is the type of a Value. Types are distinct bits so operators can
// describe the types they accept as a mask.
type Type uint8

const (
	TypeAnn Type = 1 << iota
	TypeDoc
	TypeInteger
	TypeMissing
	TypeRegex
	TypeStore
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeAnn:
		return "ann"
	case TypeDoc:
		return "doc"
	case TypeInteger:
		return "integer"
	case TypeMissing:
		return "missing"
	case TypeRegex:
		return "regex"
	case TypeStore:
		return "store"
	case TypeString:
		return "string"
	}
	var parts []string
	for b := TypeAnn; b != 0 && b <= TypeString; b <<= 1 {
		if t&b != 0 {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, "|")
}

// Value is the result of evaluating a query or one of its parts.
type Value struct {
	Type Type
	Int  int64
	Str  string

	re    *regexp2.Regexp
	full  *regexp2.Regexp
	inst  docrep.Instance
	store *docrep.RTStore
}

func Int(i int64) Value {
	return Value{Type: TypeInteger, Int: i}
}

func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func String(s string) Value {
	return Value{Type: TypeString, Str: s}
}

func Missing() Value {
	return Value{Type: TypeMissing}
}

// Instance returns the instance of an ann or doc value.
func (v Value) Instance() docrep.Instance { return v.inst }

// Store returns the runtime store of a store value.
func (v Value) Store() *docrep.RTStore { return v.store }

// Truthy converts v to a boolean. Integers are true when non-zero, strings
// when non-empty, missing is false and every other type is true.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeInteger:
		return v.Int != 0
	case TypeString:
		return v.Str != ""
	case TypeMissing:
		return false
	}
	return true
}

func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeString:
		return strconv.Quote(v.Str)
	case TypeMissing:
		return "<missing>"
	case TypeRegex:
		return "/" + v.re.String() + "/"
	case TypeStore:
		return fmt.Sprintf("<store %s>", v.store.Serial)
	case TypeAnn:
		return fmt.Sprintf("<ann %s[%d]>", v.inst.Class.Serial, v.inst.Index)
	case TypeDoc:
		return "<doc>"
	}
	return "<invalid>"
}
