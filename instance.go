package docrep

import (
	"reflect"

	"github.com/signadot/docrep/go-docrep/wire"
)

// Instance is a dynamic view of the document instance or of one store
// instance, resolving fields by wire name whether they were decoded into
// Go values or kept lazily. Lazy bytes are decoded on every access.
type Instance struct {
	Class *RTClass
	// Store is nil for the document instance.
	Store *RTStore
	Index int

	typed reflect.Value
	lazy  wire.Span
	dyn   []wire.Pair
}

// FieldValue is a field present on an instance with its wire value.
type FieldValue struct {
	Field *RTField
	Value wire.Value
}

// Root returns the view of the document instance of doc.
func Root(doc Document) (Instance, error) {
	d := doc.docrepDoc()
	if d.rt == nil {
		return Instance{}, ErrNoRuntime
	}
	return Instance{
		Class: d.rt.Root,
		typed: reflect.ValueOf(doc).Elem(),
		lazy:  d.lazy,
	}, nil
}

// Instances returns the views of the instances of store, in index order.
func Instances(doc Document, store *RTStore) ([]Instance, error) {
	d := doc.docrepDoc()
	if d.rt == nil {
		return nil, ErrNoRuntime
	}
	if store.IsLazy() {
		v, err := store.Lazy.Decode()
		if err != nil {
			return nil, err
		}
		if v.Kind != wire.ArrayKind {
			return nil, errorf("Lazy store '%s' holds a %s instead of an array", store.Serial, v.Kind)
		}
		res := make([]Instance, len(v.Array))
		for i, e := range v.Array {
			if e.Kind != wire.MapKind {
				return nil, errorf("Instance %d of lazy store '%s' is a %s instead of a map", i, store.Serial, e.Kind)
			}
			res[i] = Instance{Class: store.Class, Store: store, Index: i, dyn: e.Map}
		}
		return res, nil
	}
	acc := reflect.ValueOf(doc).Elem().FieldByIndex(store.Def.index).Addr().Interface().(storeAccess)
	res := make([]Instance, acc.storeLen())
	for i := range res {
		elem := acc.storeIndex(i)
		res[i] = Instance{
			Class: store.Class,
			Store: store,
			Index: i,
			typed: elem,
			lazy:  elem.Addr().Interface().(Annotation).docrepAnn().lazy,
		}
	}
	return res, nil
}

// Lookup returns the value of the field named serial. ok is false when the
// class has no such field or the instance does not carry it.
func (in Instance) Lookup(serial string) (fv FieldValue, ok bool, err error) {
	f := in.Class.Field(serial)
	if f == nil {
		return FieldValue{}, false, nil
	}
	v, ok, err := in.get(f)
	return FieldValue{Field: f, Value: v}, ok, err
}

// Fields returns the fields present on the instance in wire field order.
func (in Instance) Fields() ([]FieldValue, error) {
	var res []FieldValue
	for _, f := range in.Class.Fields {
		v, ok, err := in.get(f)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, FieldValue{Field: f, Value: v})
		}
	}
	return res, nil
}

func (in Instance) get(f *RTField) (wire.Value, bool, error) {
	id := uint64(f.Index)
	if in.dyn != nil {
		for _, p := range in.dyn {
			if k, ok := p.Key.AsUint(); ok && k == id {
				return p.Value, true, nil
			}
		}
		return wire.Value{}, false, nil
	}
	if !in.lazy.IsZero() {
		fields, err := in.lazy.Fields()
		if err != nil {
			return wire.Value{}, false, err
		}
		for _, rf := range fields {
			if rf.ID == id {
				v, err := wire.NewCursor(rf.Raw).Value()
				return v, err == nil, err
			}
		}
	}
	if in.typed.IsValid() && f.Def != nil {
		v := in.typed.FieldByIndex(f.Def.index)
		if shouldWrite(f.Def, v) {
			return fieldValue(f.Def, v), true, nil
		}
	}
	return wire.Value{}, false, nil
}
