package docrep

import (
	"github.com/signadot/docrep/go-docrep/wire"
)

// Runtime is the schema a document was written with, reconciled against
// the static schema it was read with. It owns the buffers backing every
// lazy span of the document. A Runtime is immutable once built.
type Runtime struct {
	Classes []*RTClass
	Root    *RTClass
	Schema  *DocSchema

	arena wire.Arena
}

// Release frees the lazy buffers. Spans into them report
// wire.ErrReleased afterwards.
func (rt *Runtime) Release() {
	rt.arena.Release()
}

// LazyBytes is the size of the retained lazy buffers.
func (rt *Runtime) LazyBytes() int {
	return rt.arena.Bytes()
}

// Class returns the class with the given wire name.
func (rt *Runtime) Class(serial string) *RTClass {
	for _, c := range rt.Classes {
		if c.Serial == serial {
			return c
		}
	}
	return nil
}

// Store returns the store with the given wire name.
func (rt *Runtime) Store(serial string) *RTStore {
	for _, s := range rt.Root.Stores {
		if s.Serial == serial {
			return s
		}
	}
	return nil
}

// RTClass is a class as declared on the stream. Def is nil for foreign
// classes, which have no static counterpart.
type RTClass struct {
	Index  int
	Serial string
	Def    *ClassDef
	Fields []*RTField
	// Stores is only populated on the root class.
	Stores []*RTStore
}

func (c *RTClass) IsForeign() bool { return c.Def == nil }

// Field returns the field with the given wire name.
func (c *RTClass) Field(serial string) *RTField {
	for _, f := range c.Fields {
		if f.Serial == serial {
			return f
		}
	}
	return nil
}

// RTField is a field as declared on the stream. Its wire id is Index.
type RTField struct {
	Index         int
	Serial        string
	IsPointer     bool
	IsSlice       bool
	IsSelfPointer bool
	IsCollection  bool
	// Target is the store pointer fields point into.
	Target *RTStore
	Def    *FieldDef

	storeID uint64
}

// KeepsLazy reports whether the encoded bytes of the field are retained.
func (f *RTField) KeepsLazy() bool {
	return f.Def == nil || f.Def.Mode == ReadOnly
}

// IsEager reports whether the field is decoded into the Go value.
func (f *RTField) IsEager() bool {
	return f.Def != nil
}

// Kind is the wire shape of the field. Declared fields report their
// declared kind; self-pointers report the pointer kinds.
func (f *RTField) Kind() FieldKind {
	if f.Def != nil {
		return f.Def.Kind
	}
	ptr := f.IsPointer || f.IsSelfPointer
	switch {
	case ptr && f.IsSlice:
		return KindPointerSlice
	case f.IsSlice:
		return KindSlice
	case ptr && f.IsCollection:
		return KindPointers
	case ptr:
		return KindPointer
	}
	return KindPrimitive
}

// RTStore is a store as declared on the stream. Def is nil for lazy
// stores, whose bytes are kept verbatim in Lazy.
type RTStore struct {
	Index  int
	Serial string
	Class  *RTClass
	Def    *StoreDef
	NElem  int
	Lazy   wire.Span
}

func (s *RTStore) IsLazy() bool { return s.Def == nil }
