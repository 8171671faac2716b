package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Collection lengths are read from the input; larger collections grow as
// their elements decode.
const maxPrealloc = 64

// ReadValue decodes the next value from d without a target type.
func ReadValue(d *msgpack.Decoder) (Value, error) {
	c, err := d.PeekCode()
	if err != nil {
		return Value{}, err
	}
	switch {
	case c == msgpcode.Nil:
		if err := d.DecodeNil(); err != nil {
			return Value{}, err
		}
		return Nil(), nil

	case c == msgpcode.False || c == msgpcode.True:
		b, err := d.DecodeBool()
		if err != nil {
			return Value{}, err
		}
		return FromBool(b), nil

	case c <= msgpcode.PosFixedNumHigh,
		c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64:
		u, err := d.DecodeUint64()
		if err != nil {
			return Value{}, err
		}
		return FromUint(u), nil

	case c >= msgpcode.NegFixedNumLow,
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		i, err := d.DecodeInt64()
		if err != nil {
			return Value{}, err
		}
		return FromInt(i), nil

	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := d.DecodeFloat64()
		if err != nil {
			return Value{}, err
		}
		return FromFloat(f), nil

	case msgpcode.IsString(c) || msgpcode.IsBin(c):
		b, err := d.DecodeBytes()
		if err != nil {
			return Value{}, err
		}
		if b == nil {
			b = []byte{}
		}
		return FromRaw(b), nil

	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := d.DecodeArrayLen()
		if err != nil {
			return Value{}, err
		}
		vs := make([]Value, 0, min(n, maxPrealloc))
		for range n {
			v, err := ReadValue(d)
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, v)
		}
		return FromArray(vs...), nil

	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := d.DecodeMapLen()
		if err != nil {
			return Value{}, err
		}
		ps := make([]Pair, 0, min(n, maxPrealloc))
		for range n {
			var p Pair
			if p.Key, err = ReadValue(d); err != nil {
				return Value{}, err
			}
			if p.Value, err = ReadValue(d); err != nil {
				return Value{}, err
			}
			ps = append(ps, p)
		}
		return FromMap(ps...), nil
	}
	return Value{}, fmt.Errorf("wire: unsupported value code 0x%02x", c)
}

// WriteValue encodes v to e.
func WriteValue(e *msgpack.Encoder, v Value) error {
	switch v.Kind {
	case NilKind:
		return e.EncodeNil()
	case BoolKind:
		return e.EncodeBool(v.Bool)
	case IntKind:
		return e.EncodeInt(v.Int)
	case UintKind:
		return e.EncodeUint(v.Uint)
	case FloatKind:
		return e.EncodeFloat64(v.Float)
	case RawKind:
		return e.EncodeString(string(v.Raw))
	case ArrayKind:
		if err := e.EncodeArrayLen(len(v.Array)); err != nil {
			return err
		}
		for i := range v.Array {
			if err := WriteValue(e, v.Array[i]); err != nil {
				return err
			}
		}
		return nil
	case MapKind:
		if err := e.EncodeMapLen(len(v.Map)); err != nil {
			return err
		}
		for i := range v.Map {
			if err := WriteValue(e, v.Map[i].Key); err != nil {
				return err
			}
			if err := WriteValue(e, v.Map[i].Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("wire: cannot encode value of kind %s", v.Kind)
}
