package wire

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind uint8

const (
	NilKind Kind = iota
	BoolKind
	IntKind
	UintKind
	FloatKind
	RawKind
	ArrayKind
	MapKind
)

func (k Kind) String() string {
	switch k {
	case NilKind:
		return "nil"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case UintKind:
		return "uint"
	case FloatKind:
		return "float"
	case RawKind:
		return "raw"
	case ArrayKind:
		return "array"
	case MapKind:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a decoded self-describing wire value. Exactly the field matching
// Kind is meaningful.
type Value struct {
	Kind Kind

	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Raw   []byte
	Array []Value
	Map   []Pair
}

// Pair is one entry of a map value, in wire order.
type Pair struct {
	Key   Value
	Value Value
}

func Nil() Value              { return Value{Kind: NilKind} }
func FromBool(b bool) Value   { return Value{Kind: BoolKind, Bool: b} }
func FromInt(i int64) Value   { return Value{Kind: IntKind, Int: i} }
func FromUint(u uint64) Value { return Value{Kind: UintKind, Uint: u} }
func FromFloat(f float64) Value {
	return Value{Kind: FloatKind, Float: f}
}
func FromRaw(b []byte) Value      { return Value{Kind: RawKind, Raw: b} }
func FromString(s string) Value   { return Value{Kind: RawKind, Raw: []byte(s)} }
func FromArray(vs ...Value) Value { return Value{Kind: ArrayKind, Array: vs} }
func FromMap(ps ...Pair) Value    { return Value{Kind: MapKind, Map: ps} }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool {
	return v.Kind == NilKind
}

// AsUint returns v as an unsigned integer if it is a non-negative integer.
func (v Value) AsUint() (uint64, bool) {
	switch v.Kind {
	case UintKind:
		return v.Uint, true
	case IntKind:
		if v.Int < 0 {
			return 0, false
		}
		return uint64(v.Int), true
	}
	return 0, false
}

// AsInt returns v as a signed integer. Booleans convert to 0 or 1;
// unsigned values above the int64 range do not convert.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case IntKind:
		return v.Int, true
	case UintKind:
		if v.Uint > 1<<63-1 {
			return 0, false
		}
		return int64(v.Uint), true
	case BoolKind:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Get returns the value stored under the unsigned integer key k of a map
// value.
func (v Value) Get(k uint64) (Value, bool) {
	if v.Kind != MapKind {
		return Value{}, false
	}
	for i := range v.Map {
		if kk, ok := v.Map[i].Key.AsUint(); ok && kk == k {
			return v.Map[i].Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether a and b are the same value. Int and Uint values
// holding the same non-negative number are equal, since the wire does not
// preserve signedness for them.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		au, aok := a.AsUint()
		bu, bok := b.AsUint()
		return aok && bok && au == bu && a.Kind != BoolKind && b.Kind != BoolKind
	}
	switch a.Kind {
	case NilKind:
		return true
	case BoolKind:
		return a.Bool == b.Bool
	case IntKind:
		return a.Int == b.Int
	case UintKind:
		return a.Uint == b.Uint
	case FloatKind:
		return a.Float == b.Float
	case RawKind:
		return string(a.Raw) == string(b.Raw)
	case ArrayKind:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case MapKind:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for i := range a.Map {
			if !Equal(a.Map[i].Key, b.Map[i].Key) || !Equal(a.Map[i].Value, b.Map[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case NilKind:
		return "nil"
	case BoolKind:
		return strconv.FormatBool(v.Bool)
	case IntKind:
		return strconv.FormatInt(v.Int, 10)
	case UintKind:
		return strconv.FormatUint(v.Uint, 10)
	case FloatKind:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case RawKind:
		return strconv.Quote(string(v.Raw))
	case ArrayKind:
		parts := make([]string, len(v.Array))
		for i := range v.Array {
			parts[i] = v.Array[i].String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case MapKind:
		parts := make([]string, len(v.Map))
		for i := range v.Map {
			parts[i] = v.Map[i].Key.String() + ": " + v.Map[i].Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("<kind %d>", v.Kind)
}
