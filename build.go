package docrep

import (
	"math"

	"github.com/signadot/docrep/go-docrep/debug"
)

// buildRuntime reconciles a stream header with the static schema s.
// A store holds at least one byte per element, so element counts above
// maxSection cannot be satisfied by any section.
func buildRuntime(h *header, s *DocSchema, maxSection uint64) (*Runtime, error) {
	rt := &Runtime{Schema: s}

	byName := map[string]*ClassDef{MetaClass: s.Root}
	for _, c := range s.Classes {
		byName[c.Serial] = c
	}

	for k, hc := range h.classes {
		c := &RTClass{Index: k, Serial: hc.name, Def: byName[hc.name]}
		if hc.name == MetaClass {
			if rt.Root != nil {
				return nil, errorf("Read in more than one %s class", MetaClass)
			}
			rt.Root = c
		}
		for f, hf := range hc.fields {
			field := &RTField{
				Index:         f,
				Serial:        hf.name,
				IsPointer:     hf.isPointer,
				IsSlice:       hf.isSlice,
				IsSelfPointer: hf.isSelfPointer,
				IsCollection:  hf.isCollection,
				storeID:       hf.storeID,
			}
			if c.Def != nil {
				field.Def = fieldBySerial(c.Def, hf.name)
			}
			if def := field.Def; def != nil {
				if hf.isPointer != def.Kind.IsPointer() {
					return nil, errorf("Field '%s' of class '%s' has IS_POINTER as %t on the stream, but %t on the class's field",
						hf.name, hc.name, hf.isPointer, def.Kind.IsPointer())
				}
				if hf.isSlice != def.Kind.IsSlice() {
					return nil, errorf("Field '%s' of class '%s' has IS_SLICE as %t on the stream, but %t on the class's field",
						hf.name, hc.name, hf.isSlice, def.Kind.IsSlice())
				}
				if hf.isCollection && def.Kind != KindPointers {
					return nil, errorf("Field '%s' of class '%s' has IS_COLLECTION as true on the stream, but false on the class's field",
						hf.name, hc.name)
				}
				if hf.isSelfPointer {
					return nil, errorf("Field '%s' of class '%s' is a self pointer on the stream, which cannot be declared statically",
						hf.name, hc.name)
				}
			}
			c.Fields = append(c.Fields, field)
		}
		rt.Classes = append(rt.Classes, c)
	}
	if rt.Root == nil {
		return nil, errorf("Did not read in a %s class", MetaClass)
	}

	for n, hs := range h.stores {
		if hs.classID >= uint64(len(rt.Classes)) {
			return nil, errorf("klass_id value %d >= number of klasses (%d)", hs.classID, len(rt.Classes))
		}
		if hs.nelem > maxSection || hs.nelem > math.MaxInt {
			return nil, errorf("Store '%s' declares %d elements, more than a section of at most %d bytes can hold",
				hs.name, hs.nelem, maxSection)
		}
		store := &RTStore{
			Index:  n,
			Serial: hs.name,
			Class:  rt.Classes[hs.classID],
			Def:    storeBySerial(s, hs.name),
			NElem:  int(hs.nelem),
		}
		rt.Root.Stores = append(rt.Root.Stores, store)
		if store.Def == nil {
			continue
		}
		if store.Class.Def != store.Def.Class {
			return nil, errorf("Store '%s' points to %s but the stream says it points to %s",
				hs.name, store.Def.Class.Serial, store.Class.Serial)
		}
	}

	// The store of each pointer field is only known once all stores are.
	for _, c := range rt.Classes {
		for _, f := range c.Fields {
			if !f.IsPointer {
				continue
			}
			if f.storeID >= uint64(len(rt.Root.Stores)) {
				return nil, errorf("store_id value %d >= number of stores (%d)", f.storeID, len(rt.Root.Stores))
			}
			f.Target = rt.Root.Stores[f.storeID]
			if f.Def != nil && f.Target.Def != f.Def.Target {
				return nil, errorf("Field '%s' of class '%s' points into store '%s' on the stream, but into '%s' on the class's field",
					f.Serial, c.Serial, f.Target.Serial, f.Def.Target.Serial)
			}
		}
	}

	if debug.Schema() {
		for _, c := range rt.Classes {
			debug.Logf("runtime class %d %q foreign=%t fields=%d", c.Index, c.Serial, c.IsForeign(), len(c.Fields))
		}
		for _, st := range rt.Root.Stores {
			debug.Logf("runtime store %d %q class=%q nelem=%d lazy=%t", st.Index, st.Serial, st.Class.Serial, st.NElem, st.IsLazy())
		}
	}
	return rt, nil
}

func storeBySerial(s *DocSchema, serial string) *StoreDef {
	for _, sd := range s.Stores {
		if sd.Serial == serial {
			return sd
		}
	}
	return nil
}

func fieldBySerial(c *ClassDef, serial string) *FieldDef {
	for _, f := range c.Fields {
		if f.Serial == serial {
			return f
		}
	}
	return nil
}
