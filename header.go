package docrep

import (
	"github.com/signadot/docrep/go-docrep/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// Keys of the per-field map in a class header.
const (
	fieldKeyName        = 0
	fieldKeyPointer     = 1
	fieldKeySlice       = 2
	fieldKeySelfPointer = 3
	fieldKeyCollection  = 4
)

// Array lengths in a header come from the stream; slices grow as entries
// are actually read.
const maxHeaderPrealloc = 64

type header struct {
	classes []headerClass
	stores  []headerStore
}

type headerClass struct {
	name   string
	fields []headerField
}

type headerField struct {
	name          string
	storeID       uint64
	isPointer     bool
	isSlice       bool
	isSelfPointer bool
	isCollection  bool
}

type headerStore struct {
	name    string
	classID uint64
	nelem   uint64
}

func readArrayLen(d *msgpack.Decoder, what string) (int, error) {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return 0, wrapf(err, "reading %s", what)
	}
	if n < 0 {
		return 0, errorf("expected array for %s but found nil", what)
	}
	return n, nil
}

func readUint(d *msgpack.Decoder, what string) (uint64, error) {
	v, err := wire.ReadValue(d)
	if err != nil {
		return 0, wrapf(err, "reading %s", what)
	}
	u, ok := v.AsUint()
	if !ok {
		return 0, errorf("expected unsigned integer for %s but found %s", what, v.Kind)
	}
	return u, nil
}

func readRaw(d *msgpack.Decoder, what string) (string, error) {
	v, err := wire.ReadValue(d)
	if err != nil {
		return "", wrapf(err, "reading %s", what)
	}
	if v.Kind != wire.RawKind {
		return "", errorf("expected raw bytes for %s but found %s", what, v.Kind)
	}
	return string(v.Raw), nil
}

// readFlag reads a boolean flag value. nil counts as set, as some writers
// mark flags by presence alone.
func readFlag(d *msgpack.Decoder, what string) (bool, error) {
	v, err := wire.ReadValue(d)
	if err != nil {
		return false, wrapf(err, "reading %s", what)
	}
	switch v.Kind {
	case wire.BoolKind:
		return v.Bool, nil
	case wire.NilKind:
		return true, nil
	}
	return false, errorf("expected bool for %s but found %s", what, v.Kind)
}

func readHeader(d *msgpack.Decoder) (*header, error) {
	h := &header{}
	nclasses, err := readArrayLen(d, "<klasses>")
	if err != nil {
		return nil, err
	}
	h.classes = make([]headerClass, 0, min(nclasses, maxHeaderPrealloc))
	for range nclasses {
		var c headerClass
		if err := readHeaderClass(d, &c); err != nil {
			return nil, err
		}
		h.classes = append(h.classes, c)
	}

	nstores, err := readArrayLen(d, "<stores>")
	if err != nil {
		return nil, err
	}
	h.stores = make([]headerStore, 0, min(nstores, maxHeaderPrealloc))
	for range nstores {
		h.stores = append(h.stores, headerStore{})
		s := &h.stores[len(h.stores)-1]
		ntriple, err := readArrayLen(d, "<store>")
		if err != nil {
			return nil, err
		}
		if ntriple != 3 {
			return nil, errorf("Invalid sized tuple read in: expected 3 elements but found %d", ntriple)
		}
		if s.name, err = readRaw(d, "store name"); err != nil {
			return nil, err
		}
		if s.classID, err = readUint(d, "store klass_id"); err != nil {
			return nil, err
		}
		if s.nelem, err = readUint(d, "store nelem"); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func readHeaderClass(d *msgpack.Decoder, c *headerClass) error {
	npair, err := readArrayLen(d, "<klass>")
	if err != nil {
		return err
	}
	if npair != 2 {
		return errorf("Invalid sized tuple read in: expected 2 elements but found %d", npair)
	}
	if c.name, err = readRaw(d, "klass name"); err != nil {
		return err
	}
	nfields, err := readArrayLen(d, "<fields>")
	if err != nil {
		return err
	}
	c.fields = make([]headerField, 0, min(nfields, maxHeaderPrealloc))
	for f := range nfields {
		c.fields = append(c.fields, headerField{})
		hf := &c.fields[f]
		nitems, err := d.DecodeMapLen()
		if err != nil {
			return wrapf(err, "reading <field>")
		}
		for range nitems {
			key, err := readUint(d, "<field> key")
			if err != nil {
				return err
			}
			switch key {
			case fieldKeyName:
				hf.name, err = readRaw(d, "field name")
			case fieldKeyPointer:
				hf.storeID, err = readUint(d, "field store_id")
				hf.isPointer = true
			case fieldKeySlice:
				hf.isSlice, err = readFlag(d, "IS_SLICE")
			case fieldKeySelfPointer:
				hf.isSelfPointer, err = readFlag(d, "IS_SELF_POINTER")
			case fieldKeyCollection:
				hf.isCollection, err = readFlag(d, "IS_COLLECTION")
			default:
				return errorf("Unknown value %d as key in <field> map", key)
			}
			if err != nil {
				return err
			}
		}
		if hf.name == "" {
			return errorf("Field number %d did not contain a NAME key", f+1)
		}
	}
	return nil
}

func writeHeader(e *msgpack.Encoder, h *header) error {
	if err := e.EncodeArrayLen(len(h.classes)); err != nil {
		return err
	}
	for _, c := range h.classes {
		if err := e.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := e.EncodeString(c.name); err != nil {
			return err
		}
		if err := e.EncodeArrayLen(len(c.fields)); err != nil {
			return err
		}
		for _, f := range c.fields {
			if err := writeHeaderField(e, f); err != nil {
				return err
			}
		}
	}
	if err := e.EncodeArrayLen(len(h.stores)); err != nil {
		return err
	}
	for _, s := range h.stores {
		if err := e.EncodeArrayLen(3); err != nil {
			return err
		}
		if err := e.EncodeString(s.name); err != nil {
			return err
		}
		if err := e.EncodeUint(s.classID); err != nil {
			return err
		}
		if err := e.EncodeUint(s.nelem); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderField(e *msgpack.Encoder, f headerField) error {
	n := 1
	for _, b := range []bool{f.isPointer, f.isSlice, f.isSelfPointer, f.isCollection} {
		if b {
			n++
		}
	}
	if err := e.EncodeMapLen(n); err != nil {
		return err
	}
	if err := e.EncodeUint(fieldKeyName); err != nil {
		return err
	}
	if err := e.EncodeString(f.name); err != nil {
		return err
	}
	if f.isPointer {
		if err := e.EncodeUint(fieldKeyPointer); err != nil {
			return err
		}
		if err := e.EncodeUint(f.storeID); err != nil {
			return err
		}
	}
	flags := []struct {
		key uint64
		set bool
	}{
		{fieldKeySlice, f.isSlice},
		{fieldKeySelfPointer, f.isSelfPointer},
		{fieldKeyCollection, f.isCollection},
	}
	for _, fl := range flags {
		if !fl.set {
			continue
		}
		if err := e.EncodeUint(fl.key); err != nil {
			return err
		}
		if err := e.EncodeBool(true); err != nil {
			return err
		}
	}
	return nil
}
