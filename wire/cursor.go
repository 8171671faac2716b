package wire

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Cursor decodes values from an in-memory body while tracking its offset,
// so the exact encoded bytes of any value can be sliced out.
type Cursor struct {
	buf []byte
	r   *bytes.Reader
	dec *msgpack.Decoder
}

func NewCursor(buf []byte) *Cursor {
	r := bytes.NewReader(buf)
	return &Cursor{buf: buf, r: r, dec: msgpack.NewDecoder(r)}
}

// Reset repositions c at the start of buf.
func (c *Cursor) Reset(buf []byte) {
	c.buf = buf
	c.r.Reset(buf)
	c.dec.Reset(c.r)
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return len(c.buf) - c.r.Len()
}

// Remaining is the number of unconsumed bytes.
func (c *Cursor) Remaining() int {
	return c.r.Len()
}

// Decoder exposes the underlying decoder for typed reads.
func (c *Cursor) Decoder() *msgpack.Decoder {
	return c.dec
}

// Raw skips the next value and returns its encoded bytes. The returned
// slice aliases the cursor's buffer.
func (c *Cursor) Raw() ([]byte, error) {
	start := c.Offset()
	if err := c.dec.Skip(); err != nil {
		return nil, err
	}
	return c.buf[start:c.Offset()], nil
}

// Value decodes the next value.
func (c *Cursor) Value() (Value, error) {
	return ReadValue(c.dec)
}

// Uint decodes the next value as an unsigned integer.
func (c *Cursor) Uint() (uint64, error) {
	v, err := c.Value()
	if err != nil {
		return 0, err
	}
	u, ok := v.AsUint()
	if !ok {
		return 0, fmt.Errorf("wire: expected unsigned integer, found %s", v.Kind)
	}
	return u, nil
}

// Uint32 decodes the next value as an unsigned integer fitting 32 bits.
func (c *Cursor) Uint32() (uint32, error) {
	u, err := c.Uint()
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("wire: value %d overflows uint32", u)
	}
	return uint32(u), nil
}

func (c *Cursor) ArrayLen() (int, error) {
	n, err := c.dec.DecodeArrayLen()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("wire: expected array, found nil")
	}
	return n, nil
}

func (c *Cursor) MapLen() (int, error) {
	n, err := c.dec.DecodeMapLen()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("wire: expected map, found nil")
	}
	return n, nil
}
