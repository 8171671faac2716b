package docrep

import (
	"bytes"
	"io"
	"reflect"

	"github.com/signadot/docrep/go-docrep/debug"
	"github.com/signadot/docrep/go-docrep/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// Writer writes documents to a stream. Fields, classes and stores that a
// document retained lazily when it was read are written back alongside
// the declared ones.
type Writer struct {
	w      io.Writer
	schema *DocSchema
	opts   writerOpts
	count  int
}

// NewWriter returns a Writer of documents of schema s. A nil s writes
// FauxDocs.
func NewWriter(w io.Writer, s *DocSchema, opts ...WriterOption) *Writer {
	if s == nil {
		s = FauxSchema()
	}
	wr := &Writer{w: w, schema: s}
	for _, o := range opts {
		o(&wr.opts)
	}
	return wr
}

// Count is the number of documents written so far.
func (w *Writer) Count() int { return w.count }

// Write writes doc as one complete document.
func (w *Writer) Write(doc Document) error {
	dv := reflect.ValueOf(doc)
	if dv.Type() != reflect.PointerTo(w.schema.Type) {
		return ErrSchemaMismatch
	}
	dv = dv.Elem()
	d := doc.docrepDoc()

	p, err := newPlan(w.schema, d.rt, dv, w.opts.dropLazy)
	if err != nil {
		return err
	}
	if debug.Write() {
		for _, c := range p.classes {
			debug.Logf("write class %d %q fields=%d", c.index, c.serial, len(c.fields))
		}
		for _, s := range p.stores {
			debug.Logf("write store %d %q class=%q nelem=%d", s.index, s.serial, s.class.serial, s.nelem)
		}
	}

	var out bytes.Buffer
	enc := msgpack.NewEncoder(&out)
	if err := writeHeader(enc, p.header()); err != nil {
		return err
	}

	var body bytes.Buffer
	var rtRoot *RTClass
	if d.rt != nil {
		rtRoot = d.rt.Root
	}
	if err := p.encodeInstance(&body, p.root, rtRoot, dv, d.lazy); err != nil {
		return err
	}
	if err := writeSection(enc, &out, body.Bytes()); err != nil {
		return err
	}

	for _, s := range p.stores {
		body.Reset()
		if err := p.encodeStore(&body, s); err != nil {
			return err
		}
		if err := writeSection(enc, &out, body.Bytes()); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(out.Bytes()); err != nil {
		return err
	}
	w.count++
	return nil
}

func writeSection(enc *msgpack.Encoder, out *bytes.Buffer, body []byte) error {
	if err := enc.EncodeUint(uint64(len(body))); err != nil {
		return err
	}
	_, err := out.Write(body)
	return err
}

// plan is the schema a single document is written with: the static
// schema plus whatever the document retained from the stream it was read
// from.
type plan struct {
	root    *wclass
	classes []*wclass
	stores  []*wstore
}

type wclass struct {
	index  int
	serial string
	def    *ClassDef
	rt     *RTClass
	fields []*wfield
	byRT   map[*RTField]int
}

type wfield struct {
	serial string
	def    *FieldDef
	rt     *RTField
	target *wstore
}

type wstore struct {
	index  int
	serial string
	def    *StoreDef
	rt     *RTStore
	class  *wclass
	nelem  int
	access storeAccess
}

func newPlan(s *DocSchema, rt *Runtime, doc reflect.Value, dropLazy bool) (*plan, error) {
	p := &plan{}
	seen := map[string]bool{}
	addStore := func(ws *wstore) error {
		if seen[ws.serial] {
			return errorf("Store '%s' would be written twice", ws.serial)
		}
		seen[ws.serial] = true
		ws.index = len(p.stores)
		p.stores = append(p.stores, ws)
		return nil
	}
	for _, sd := range s.Stores {
		acc := doc.FieldByIndex(sd.index).Addr().Interface().(storeAccess)
		ws := &wstore{serial: sd.Serial, def: sd, nelem: acc.storeLen(), access: acc}
		if rt != nil {
			for _, st := range rt.Root.Stores {
				if st.Def != nil && st.Def.Name == sd.Name {
					ws.rt = st
				}
			}
		}
		if err := addStore(ws); err != nil {
			return nil, err
		}
	}
	if rt != nil && !dropLazy {
		for _, st := range rt.Root.Stores {
			if !st.IsLazy() {
				continue
			}
			if err := addStore(&wstore{serial: st.Serial, rt: st, nelem: st.NElem}); err != nil {
				return nil, err
			}
		}
	}

	var rtRoot *RTClass
	if rt != nil {
		rtRoot = rt.Root
	}
	p.root = p.addClass(MetaClass, s.Root, rtRoot)
	for _, ws := range p.stores {
		switch {
		case ws.def != nil:
			ws.class = p.classForDef(ws.def.Class, rt)
		case ws.rt.Class.Def != nil:
			ws.class = p.classForDef(ws.rt.Class.Def, rt)
		default:
			ws.class = p.classForRT(ws.rt.Class)
		}
	}
	for _, wc := range p.classes {
		p.addFields(wc, dropLazy)
	}
	return p, nil
}

func (p *plan) addClass(serial string, def *ClassDef, rtc *RTClass) *wclass {
	wc := &wclass{index: len(p.classes), serial: serial, def: def, rt: rtc, byRT: map[*RTField]int{}}
	p.classes = append(p.classes, wc)
	return wc
}

func (p *plan) classForDef(def *ClassDef, rt *Runtime) *wclass {
	for _, wc := range p.classes {
		if wc.def != nil && wc.def.Type == def.Type {
			return wc
		}
	}
	var rtc *RTClass
	if rt != nil {
		for _, c := range rt.Classes {
			if c.Def != nil && c.Def.Type == def.Type {
				rtc = c
			}
		}
	}
	return p.addClass(def.Serial, def, rtc)
}

func (p *plan) classForRT(rtc *RTClass) *wclass {
	for _, wc := range p.classes {
		if wc.rt == rtc {
			return wc
		}
	}
	return p.addClass(rtc.Serial, nil, rtc)
}

func (p *plan) storeForDef(sd *StoreDef) *wstore {
	for _, ws := range p.stores {
		if ws.def != nil && ws.def.Name == sd.Name {
			return ws
		}
	}
	return nil
}

func (p *plan) storeForRT(st *RTStore) *wstore {
	for _, ws := range p.stores {
		if ws.rt == st {
			return ws
		}
	}
	return nil
}

func (p *plan) addFields(wc *wclass, dropLazy bool) {
	add := func(wf *wfield) {
		if wf.rt != nil {
			wc.byRT[wf.rt] = len(wc.fields)
		}
		wc.fields = append(wc.fields, wf)
	}
	if wc.def != nil {
		for _, fd := range wc.def.Fields {
			if fd.Mode == Delete {
				continue
			}
			wf := &wfield{serial: fd.Serial, def: fd}
			if fd.Kind.IsPointer() {
				wf.target = p.storeForDef(fd.Target)
			}
			if wc.rt != nil {
				for _, f := range wc.rt.Fields {
					if f.Def != nil && f.Def.Name == fd.Name {
						wf.rt = f
					}
				}
			}
			add(wf)
		}
	}
	if wc.rt == nil || dropLazy {
		return
	}
	for _, f := range wc.rt.Fields {
		if f.Def != nil {
			continue
		}
		wf := &wfield{serial: f.Serial, rt: f}
		if f.IsPointer {
			wf.target = p.storeForRT(f.Target)
			if wf.target == nil {
				continue
			}
		}
		add(wf)
	}
}

func (p *plan) header() *header {
	h := &header{}
	for _, wc := range p.classes {
		hc := headerClass{name: wc.serial}
		for _, wf := range wc.fields {
			hf := headerField{name: wf.serial}
			if wf.target != nil {
				hf.isPointer = true
				hf.storeID = uint64(wf.target.index)
			}
			if wf.def != nil {
				hf.isSlice = wf.def.Kind.IsSlice()
				hf.isCollection = wf.def.Kind == KindPointers
			} else {
				hf.isSlice = wf.rt.IsSlice
				hf.isSelfPointer = wf.rt.IsSelfPointer
				hf.isCollection = wf.rt.IsCollection
			}
			hc.fields = append(hc.fields, hf)
		}
		h.classes = append(h.classes, hc)
	}
	for _, ws := range p.stores {
		h.stores = append(h.stores, headerStore{
			name:    ws.serial,
			classID: uint64(ws.class.index),
			nelem:   uint64(ws.nelem),
		})
	}
	return h
}

// encodeInstance writes one {field_id: value} map. Retained bytes in lazy,
// keyed by the field ids of rtc, take precedence over the Go value.
func (p *plan) encodeInstance(out *bytes.Buffer, wc *wclass, rtc *RTClass, typed reflect.Value, lazy wire.Span) error {
	vals := make([][]byte, len(wc.fields))
	n := 0
	if rtc != nil && !lazy.IsZero() {
		fields, err := lazy.Fields()
		if err != nil {
			return err
		}
		for _, rf := range fields {
			if rf.ID >= uint64(len(rtc.Fields)) {
				return errorf("Lazy field id %d >= number of fields (%d) of class '%s'", rf.ID, len(rtc.Fields), rtc.Serial)
			}
			wi, ok := wc.byRT[rtc.Fields[rf.ID]]
			if !ok {
				continue
			}
			vals[wi] = rf.Raw
			n++
		}
	}
	if typed.IsValid() {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		for wi, wf := range wc.fields {
			if wf.def == nil || vals[wi] != nil {
				continue
			}
			v := typed.FieldByIndex(wf.def.index)
			if !shouldWrite(wf.def, v) {
				continue
			}
			nelem := 0
			if wf.target != nil {
				nelem = wf.target.nelem
			}
			start := buf.Len()
			if err := encodeField(enc, wf.def, v, nelem); err != nil {
				return err
			}
			vals[wi] = buf.Bytes()[start:buf.Len()]
			n++
		}
	}

	enc := msgpack.NewEncoder(out)
	if err := enc.EncodeMapLen(n); err != nil {
		return err
	}
	for wi, raw := range vals {
		if raw == nil {
			continue
		}
		if err := enc.EncodeUint(uint64(wi)); err != nil {
			return err
		}
		if _, err := out.Write(raw); err != nil {
			return err
		}
	}
	return nil
}

func (p *plan) encodeStore(out *bytes.Buffer, ws *wstore) error {
	if ws.def == nil {
		return p.encodeLazyStore(out, ws)
	}
	enc := msgpack.NewEncoder(out)
	if err := enc.EncodeArrayLen(ws.nelem); err != nil {
		return err
	}
	var rtc *RTClass
	if ws.rt != nil {
		rtc = ws.rt.Class
	}
	for i := range ws.nelem {
		elem := ws.access.storeIndex(i)
		ann := elem.Addr().Interface().(Annotation).docrepAnn()
		if err := p.encodeInstance(out, ws.class, rtc, elem, ann.lazy); err != nil {
			return err
		}
	}
	return nil
}

// encodeLazyStore copies the retained store bytes, re-keying field ids
// when the write schema of the class differs from the stream's.
func (p *plan) encodeLazyStore(out *bytes.Buffer, ws *wstore) error {
	raw, err := ws.rt.Lazy.Bytes()
	if err != nil {
		return err
	}
	rtc := ws.rt.Class
	identity := len(ws.class.byRT) == len(rtc.Fields)
	for i, f := range rtc.Fields {
		if wi, ok := ws.class.byRT[f]; !ok || wi != i {
			identity = false
		}
	}
	if identity {
		_, err := out.Write(raw)
		return err
	}

	c := wire.NewCursor(raw)
	n, err := c.ArrayLen()
	if err != nil {
		return wrapf(err, "reading lazy store '%s'", ws.serial)
	}
	enc := msgpack.NewEncoder(out)
	if err := enc.EncodeArrayLen(n); err != nil {
		return err
	}
	var a wire.Arena
	defer a.Release()
	for range n {
		m, err := c.MapLen()
		if err != nil {
			return wrapf(err, "reading lazy store '%s'", ws.serial)
		}
		buf := a.New(0)
		for range m {
			id, err := c.Uint()
			if err != nil {
				return err
			}
			val, err := c.Raw()
			if err != nil {
				return err
			}
			if err := buf.AppendField(id, val); err != nil {
				return err
			}
		}
		if err := p.encodeInstance(out, ws.class, rtc, reflect.Value{}, buf.Span(0, m)); err != nil {
			return err
		}
	}
	return nil
}
