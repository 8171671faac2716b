package docrep

import (
	"reflect"

	"github.com/signadot/docrep/go-docrep/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// shouldWrite reports whether the Go value v of def carries data worth
// writing.
func shouldWrite(def *FieldDef, v reflect.Value) bool {
	switch def.Kind {
	case KindPrimitive:
		switch v.Kind() {
		case reflect.String, reflect.Slice:
			return v.Len() != 0
		}
		return true
	case KindPointer:
		return !v.Interface().(Pointer).IsNil()
	case KindPointers:
		return v.Len() != 0
	case KindSlice:
		s := v.Interface().(Slice)
		return s.Start != 0 || s.Stop != 0
	case KindPointerSlice:
		s := v.Interface().(PointerSlice)
		return s.Start != 0 || s.Stop != 0
	}
	return false
}

// fieldValue returns the wire form of the Go value v of def.
func fieldValue(def *FieldDef, v reflect.Value) wire.Value {
	switch def.Kind {
	case KindPrimitive:
		switch v.Kind() {
		case reflect.Bool:
			return wire.FromBool(v.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return wire.FromInt(v.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return wire.FromUint(v.Uint())
		case reflect.Float32, reflect.Float64:
			return wire.FromFloat(v.Float())
		case reflect.String:
			return wire.FromString(v.String())
		case reflect.Slice:
			return wire.FromRaw(v.Bytes())
		}
	case KindPointer:
		return wire.FromUint(uint64(v.Interface().(Pointer).Index()))
	case KindPointers:
		ps := v.Interface().(Pointers)
		vs := make([]wire.Value, len(ps))
		for i, p := range ps {
			if p.IsNil() {
				vs[i] = wire.Nil()
			} else {
				vs[i] = wire.FromUint(uint64(p.Index()))
			}
		}
		return wire.FromArray(vs...)
	case KindSlice:
		s := v.Interface().(Slice)
		return wire.FromArray(wire.FromUint(s.Start), wire.FromUint(s.Stop-s.Start))
	case KindPointerSlice:
		s := v.Interface().(PointerSlice)
		return wire.FromArray(wire.FromUint(uint64(s.Start)), wire.FromUint(uint64(s.Stop-s.Start)))
	}
	return wire.Nil()
}

// checkField validates v before writing. n is the length of the target
// store for pointer kinds.
func checkField(def *FieldDef, v reflect.Value, n int) error {
	switch def.Kind {
	case KindPointer:
		if i := v.Interface().(Pointer).Index(); i >= n {
			return errorf("Field '%s' points to %d but store '%s' has %d elements", def.Serial, i, def.Target.Serial, n)
		}
	case KindPointers:
		for _, p := range v.Interface().(Pointers) {
			if i := p.Index(); i >= n {
				return errorf("Field '%s' points to %d but store '%s' has %d elements", def.Serial, i, def.Target.Serial, n)
			}
		}
	case KindSlice:
		if s := v.Interface().(Slice); s.Stop < s.Start {
			return errorf("Field '%s' has slice stop %d before start %d", def.Serial, s.Stop, s.Start)
		}
	case KindPointerSlice:
		s := v.Interface().(PointerSlice)
		if s.Start < 0 || s.Stop < s.Start || s.Stop > n {
			return errorf("Field '%s' range [%d, %d) is out of bounds for store '%s' with %d elements",
				def.Serial, s.Start, s.Stop, def.Target.Serial, n)
		}
	}
	return nil
}

// encodeField writes the Go value v of def.
func encodeField(e *msgpack.Encoder, def *FieldDef, v reflect.Value, n int) error {
	if err := checkField(def, v, n); err != nil {
		return err
	}
	return wire.WriteValue(e, fieldValue(def, v))
}

// decodeField stores w into the Go value v of def. n is the length of the
// target store for pointer kinds.
func decodeField(def *FieldDef, v reflect.Value, w wire.Value, n int) error {
	switch def.Kind {
	case KindPrimitive:
		return decodePrimitive(def, v, w)

	case KindPointer:
		if w.IsNil() {
			v.Set(reflect.ValueOf(Pointer(0)))
			return nil
		}
		p, err := decodePointer(def, w, n)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(p))
		return nil

	case KindPointers:
		if w.Kind != wire.ArrayKind {
			return mismatch(def, w)
		}
		ps := make(Pointers, len(w.Array))
		for i, e := range w.Array {
			if e.IsNil() {
				continue
			}
			p, err := decodePointer(def, e, n)
			if err != nil {
				return err
			}
			ps[i] = p
		}
		v.Set(reflect.ValueOf(ps))
		return nil

	case KindSlice:
		start, length, err := decodeRange(def, w)
		if err != nil {
			return err
		}
		if start+length < start {
			return errorf("Field '%s' slice [%d, +%d) overflows", def.Serial, start, length)
		}
		v.Set(reflect.ValueOf(Slice{Start: start, Stop: start + length}))
		return nil

	case KindPointerSlice:
		start, length, err := decodeRange(def, w)
		if err != nil {
			return err
		}
		if start > uint64(n) || length > uint64(n)-start {
			return errorf("Field '%s' range [%d, +%d) is out of bounds for a store of %d elements", def.Serial, start, length, n)
		}
		v.Set(reflect.ValueOf(PointerSlice{Start: int(start), Stop: int(start + length)}))
		return nil
	}
	return errorf("Field '%s' has unknown kind %s", def.Serial, def.Kind)
}

func decodePointer(def *FieldDef, w wire.Value, n int) (Pointer, error) {
	u, ok := w.AsUint()
	if !ok {
		return 0, mismatch(def, w)
	}
	if u >= uint64(n) {
		return 0, errorf("Field '%s' points to %d but the store has %d elements", def.Serial, u, n)
	}
	return PointerTo(int(u)), nil
}

func decodeRange(def *FieldDef, w wire.Value) (uint64, uint64, error) {
	if w.Kind != wire.ArrayKind || len(w.Array) != 2 {
		return 0, 0, mismatch(def, w)
	}
	start, ok := w.Array[0].AsUint()
	if !ok {
		return 0, 0, mismatch(def, w)
	}
	length, ok := w.Array[1].AsUint()
	if !ok {
		return 0, 0, mismatch(def, w)
	}
	return start, length, nil
}

func decodePrimitive(def *FieldDef, v reflect.Value, w wire.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		if w.Kind != wire.BoolKind {
			return mismatch(def, w)
		}
		v.SetBool(w.Bool)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := w.AsInt()
		if !ok || w.Kind == wire.BoolKind || v.OverflowInt(i) {
			return mismatch(def, w)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, ok := w.AsUint()
		if !ok || v.OverflowUint(u) {
			return mismatch(def, w)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		switch w.Kind {
		case wire.FloatKind:
			v.SetFloat(w.Float)
		case wire.IntKind:
			v.SetFloat(float64(w.Int))
		case wire.UintKind:
			v.SetFloat(float64(w.Uint))
		default:
			return mismatch(def, w)
		}
	case reflect.String:
		if w.Kind != wire.RawKind {
			return mismatch(def, w)
		}
		v.SetString(string(w.Raw))
	case reflect.Slice:
		switch w.Kind {
		case wire.RawKind:
			v.SetBytes(append([]byte(nil), w.Raw...))
		case wire.NilKind:
			v.SetBytes(nil)
		default:
			return mismatch(def, w)
		}
	default:
		return errorf("Field '%s' has unsupported Go type %s", def.Serial, v.Type())
	}
	return nil
}

func mismatch(def *FieldDef, w wire.Value) error {
	return errorf("Field '%s' of Go type %s cannot hold a %s value read from the stream", def.Serial, def.Type, w.Kind)
}
