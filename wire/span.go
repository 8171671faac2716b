package wire

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrReleased = errors.New("wire: span buffer has been released")

// Buffer is an append-only byte buffer owned by an Arena.
type Buffer struct {
	data     []byte
	released bool
}

func (b *Buffer) Write(p []byte) (int, error) {
	if b.released {
		return 0, ErrReleased
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	if b.released {
		return ErrReleased
	}
	b.data = append(b.data, c)
	return nil
}

// Len is the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// AppendField appends one (field id, encoded value) pair.
func (b *Buffer) AppendField(id uint64, raw []byte) error {
	enc := msgpack.NewEncoder(b)
	if err := enc.EncodeUint(id); err != nil {
		return err
	}
	_, err := b.Write(raw)
	return err
}

// Span returns the span covering bytes [off, Len()) holding nfields pairs.
func (b *Buffer) Span(off, nfields int) Span {
	return Span{buf: b, off: off, n: len(b.data) - off, NFields: nfields}
}

// Arena owns the buffers of one runtime. Releasing it invalidates every
// span into its buffers.
type Arena struct {
	bufs []*Buffer
}

// New returns a fresh buffer with the given capacity.
func (a *Arena) New(capacity int) *Buffer {
	b := &Buffer{data: make([]byte, 0, capacity)}
	a.bufs = append(a.bufs, b)
	return b
}

// Drop releases b early when it turned out to be unused.
func (a *Arena) Drop(b *Buffer) {
	for i, x := range a.bufs {
		if x == b {
			a.bufs = append(a.bufs[:i], a.bufs[i+1:]...)
			break
		}
	}
	b.data = nil
	b.released = true
}

// Bytes is the total size of live buffers.
func (a *Arena) Bytes() int {
	n := 0
	for _, b := range a.bufs {
		n += len(b.data)
	}
	return n
}

func (a *Arena) Release() {
	for _, b := range a.bufs {
		b.data = nil
		b.released = true
	}
	a.bufs = nil
}

// Span is an immutable view of encoded bytes inside a Buffer. For instance
// spans the bytes are NFields consecutive (uint field id, value) pairs with
// no map header; for a lazy store they are the whole instances array.
type Span struct {
	buf     *Buffer
	off, n  int
	NFields int
}

// IsZero reports whether s refers to nothing.
func (s Span) IsZero() bool {
	return s.buf == nil
}

// Len is the byte length of s.
func (s Span) Len() int {
	return s.n
}

// Bytes returns the bytes of s. The slice must not be modified.
func (s Span) Bytes() ([]byte, error) {
	if s.buf == nil {
		return nil, nil
	}
	if s.buf.released {
		return nil, ErrReleased
	}
	return s.buf.data[s.off : s.off+s.n : s.off+s.n], nil
}

// RawField is a field id with the encoded bytes of its value.
type RawField struct {
	ID  uint64
	Raw []byte
}

// Fields splits an instance span into its pairs.
func (s Span) Fields() ([]RawField, error) {
	b, err := s.Bytes()
	if err != nil || b == nil {
		return nil, err
	}
	c := NewCursor(b)
	res := make([]RawField, s.NFields)
	for i := range res {
		if res[i].ID, err = c.Uint(); err != nil {
			return nil, err
		}
		if res[i].Raw, err = c.Raw(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Map decodes an instance span into a map value keyed by field id.
func (s Span) Map() (Value, error) {
	b, err := s.Bytes()
	if err != nil {
		return Value{}, err
	}
	ps := make([]Pair, 0, s.NFields)
	if b == nil {
		return FromMap(ps...), nil
	}
	c := NewCursor(b)
	for range s.NFields {
		k, err := c.Value()
		if err != nil {
			return Value{}, err
		}
		v, err := c.Value()
		if err != nil {
			return Value{}, err
		}
		ps = append(ps, Pair{Key: k, Value: v})
	}
	return FromMap(ps...), nil
}

// Decode decodes the whole span as a single value, as used for lazy stores.
func (s Span) Decode() (Value, error) {
	b, err := s.Bytes()
	if err != nil {
		return Value{}, err
	}
	if b == nil {
		return FromArray(), nil
	}
	return NewCursor(b).Value()
}
