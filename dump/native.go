package dump

import (
	"math"

	"github.com/samber/lo"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/wire"
)

// Native converts the wire value of field f to plain Go values: nil, bool,
// int, uint64 (above the int range), float64, string, []any and
// map[string]any. Slices become [start, stop] and pointers become the
// index pointed at, or nil.
func Native(f *docrep.RTField, v wire.Value) any {
	switch f.Kind() {
	case docrep.KindSlice, docrep.KindPointerSlice:
		if start, stop, ok := SliceBounds(v); ok {
			return []any{Plain(wire.FromUint(start)), Plain(wire.FromUint(stop))}
		}
	case docrep.KindPointers:
		if v.Kind == wire.ArrayKind {
			return lo.Map(v.Array, func(e wire.Value, _ int) any { return Plain(e) })
		}
	}
	return Plain(v)
}

// Plain converts v to plain Go values without regard to field shape.
func Plain(v wire.Value) any {
	switch v.Kind {
	case wire.BoolKind:
		return v.Bool
	case wire.IntKind:
		return int(v.Int)
	case wire.UintKind:
		if v.Uint > math.MaxInt64 {
			return v.Uint
		}
		return int(v.Uint)
	case wire.FloatKind:
		return v.Float
	case wire.RawKind:
		return string(v.Raw)
	case wire.ArrayKind:
		return lo.Map(v.Array, func(e wire.Value, _ int) any { return Plain(e) })
	case wire.MapKind:
		m := make(map[string]any, len(v.Map))
		for _, p := range v.Map {
			k := p.Key.String()
			if p.Key.Kind == wire.RawKind {
				k = string(p.Key.Raw)
			}
			m[k] = Plain(p.Value)
		}
		return m
	}
	return nil
}

// SliceBounds decodes a slice field value, written as [start, len], into
// its half-open bounds.
func SliceBounds(v wire.Value) (start, stop uint64, ok bool) {
	if v.Kind != wire.ArrayKind || len(v.Array) != 2 {
		return 0, 0, false
	}
	a, aok := v.Array[0].AsUint()
	n, nok := v.Array[1].AsUint()
	if !aok || !nok {
		return 0, 0, false
	}
	return a, a + n, true
}

// Fields returns the fields present on inst converted with Native, keyed
// by wire name.
func Fields(inst docrep.Instance) (map[string]any, error) {
	fvs, err := inst.Fields()
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(fvs))
	for _, fv := range fvs {
		m[fv.Field.Serial] = Native(fv.Field, fv.Value)
	}
	return m, nil
}

// Map returns doc as one map: the document fields by wire name, and each
// store by wire name as a list of instance field maps. A store shadows a
// document field of the same name.
func Map(doc docrep.Document) (map[string]any, error) {
	root, err := docrep.Root(doc)
	if err != nil {
		return nil, err
	}
	m, err := Fields(root)
	if err != nil {
		return nil, err
	}
	for _, st := range root.Class.Stores {
		insts, err := docrep.Instances(doc, st)
		if err != nil {
			return nil, err
		}
		list := make([]any, len(insts))
		for i, inst := range insts {
			if list[i], err = Fields(inst); err != nil {
				return nil, err
			}
		}
		m[st.Serial] = list
	}
	return m, nil
}
