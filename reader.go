package docrep

import (
	"bufio"
	"errors"
	"io"
	"reflect"

	"github.com/signadot/docrep/go-docrep/debug"
	"github.com/signadot/docrep/go-docrep/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// Reader reads a sequence of documents from a stream.
type Reader struct {
	br     *bufio.Reader
	dec    *msgpack.Decoder
	schema *DocSchema
	opts   readerOpts

	cursor  *wire.Cursor
	scratch []byte
	count   int
}

// NewReader returns a Reader decoding documents of schema s from r. A nil
// s reads every document as a FauxDoc.
func NewReader(r io.Reader, s *DocSchema, opts ...ReaderOption) *Reader {
	if s == nil {
		s = FauxSchema()
	}
	rd := &Reader{
		br:     bufio.NewReader(r),
		schema: s,
		opts:   readerOpts{maxSection: defaultMaxSection},
		cursor: wire.NewCursor(nil),
	}
	for _, o := range opts {
		o(&rd.opts)
	}
	rd.dec = msgpack.NewDecoder(rd.br)
	return rd
}

// Schema returns the static schema documents are read with.
func (r *Reader) Schema() *DocSchema { return r.schema }

// Count is the number of documents read so far, which is also the
// 0-based index of the next document.
func (r *Reader) Count() int { return r.count }

// Read reads the next document into doc. It returns false with a nil
// error at a clean end of stream. doc must be a fresh document of the
// reader's schema type.
func (r *Reader) Read(doc Document) (bool, error) {
	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	dv := reflect.ValueOf(doc)
	if dv.Type() != reflect.PointerTo(r.schema.Type) {
		return false, ErrSchemaMismatch
	}
	d := doc.docrepDoc()
	if d.rt != nil {
		return false, ErrDocReused
	}
	dv = dv.Elem()

	h, err := readHeader(r.dec)
	if err != nil {
		return false, err
	}
	rt, err := buildRuntime(h, r.schema, r.opts.maxSection)
	if err != nil {
		return false, err
	}
	d.rt = rt

	body, err := r.section()
	if err != nil {
		return false, err
	}
	lazy := rt.arena.New(len(body))
	r.cursor.Reset(body)
	nlazy, err := r.readInstance(rt.Root, dv, lazy)
	if err != nil {
		return false, err
	}
	if err := r.checkConsumed(MetaClass); err != nil {
		return false, err
	}
	if nlazy == 0 {
		rt.arena.Drop(lazy)
	} else {
		d.lazy = lazy.Span(0, nlazy)
	}
	if debug.Read() {
		debug.Logf("read doc %d: %d body bytes, %d lazy fields", r.count, len(body), nlazy)
	}

	for _, store := range rt.Root.Stores {
		if err := r.readStore(rt, store, dv); err != nil {
			return false, err
		}
	}
	r.count++
	return true, nil
}

// section reads one nbytes-prefixed body into the scratch buffer.
func (r *Reader) section() ([]byte, error) {
	n, err := readUint(r.dec, "<instances_nbytes>")
	if err != nil {
		return nil, err
	}
	if n > r.opts.maxSection {
		return nil, errorf("Section of %d bytes exceeds the limit of %d", n, r.opts.maxSection)
	}
	if uint64(cap(r.scratch)) < n {
		r.scratch = make([]byte, n)
	}
	buf := r.scratch[:n]
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, r.shortRead(n, err)
	}
	return buf, nil
}

func (r *Reader) shortRead(n uint64, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return wrapf(err, "Failed to read in %d from the input stream", n)
}

func (r *Reader) checkConsumed(what string) error {
	if n := r.cursor.Remaining(); n != 0 {
		return errorf("%d trailing bytes after the instances of %s", n, what)
	}
	return nil
}

func (r *Reader) readStore(rt *Runtime, store *RTStore, doc reflect.Value) error {
	if store.IsLazy() {
		n, err := readUint(r.dec, "<instances_nbytes>")
		if err != nil {
			return err
		}
		if n > r.opts.maxSection {
			return errorf("Section of %d bytes exceeds the limit of %d", n, r.opts.maxSection)
		}
		buf := rt.arena.New(int(n))
		if _, err := io.CopyN(buf, r.br, int64(n)); err != nil {
			return r.shortRead(n, err)
		}
		store.Lazy = buf.Span(0, 0)
		if debug.Read() {
			debug.Logf("read lazy store %q: %d bytes", store.Serial, n)
		}
		return nil
	}

	body, err := r.section()
	if err != nil {
		return err
	}
	r.cursor.Reset(body)
	n, err := r.cursor.ArrayLen()
	if err != nil {
		return wrapf(err, "reading instances of store '%s'", store.Serial)
	}
	if n != store.NElem {
		return errorf("Store '%s' declares %d elements but holds %d", store.Serial, store.NElem, n)
	}
	if n > r.cursor.Remaining() {
		return errorf("Store '%s' declares %d elements but its section has %d bytes left", store.Serial, n, r.cursor.Remaining())
	}
	acc := doc.FieldByIndex(store.Def.index).Addr().Interface().(storeAccess)
	acc.storeResize(n)
	lazy := rt.arena.New(len(body))
	total := 0
	for i := range n {
		elem := acc.storeIndex(i)
		start := lazy.Len()
		nlazy, err := r.readInstance(store.Class, elem, lazy)
		if err != nil {
			return err
		}
		if nlazy != 0 {
			ann := elem.Addr().Interface().(Annotation).docrepAnn()
			ann.lazy = lazy.Span(start, nlazy)
			total += nlazy
		}
	}
	if err := r.checkConsumed(store.Serial); err != nil {
		return err
	}
	if lazy.Len() == 0 {
		rt.arena.Drop(lazy)
	}
	if debug.Read() {
		debug.Logf("read store %q: %d instances, %d lazy fields", store.Serial, n, total)
	}
	return nil
}

// readInstance decodes one {field_id: value} map from the cursor into the
// struct inst, appending the fields to keep lazily to lazy. It returns the
// number of fields appended.
func (r *Reader) readInstance(c *RTClass, inst reflect.Value, lazy *wire.Buffer) (int, error) {
	size, err := r.cursor.MapLen()
	if err != nil {
		return 0, wrapf(err, "reading <instance> of class '%s'", c.Serial)
	}
	nlazy := 0
	for range size {
		key, err := r.cursor.Uint()
		if err != nil {
			return 0, wrapf(err, "reading field id of class '%s'", c.Serial)
		}
		if key >= uint64(len(c.Fields)) {
			return 0, errorf("Field id %d >= number of fields (%d) of class '%s'", key, len(c.Fields), c.Serial)
		}
		f := c.Fields[key]
		raw, err := r.cursor.Raw()
		if err != nil {
			return 0, wrapf(err, "reading field '%s' of class '%s'", f.Serial, c.Serial)
		}
		if f.KeepsLazy() {
			if err := lazy.AppendField(key, raw); err != nil {
				return 0, err
			}
			nlazy++
		}
		if !f.IsEager() {
			continue
		}
		w, err := wire.NewCursor(raw).Value()
		if err != nil {
			return 0, wrapf(err, "decoding field '%s' of class '%s'", f.Serial, c.Serial)
		}
		n := 0
		if f.Target != nil {
			n = f.Target.NElem
		}
		if err := decodeField(f.Def, inst.FieldByIndex(f.Def.index), w, n); err != nil {
			return 0, err
		}
	}
	return nlazy, nil
}
