// Package wire is the value codec underneath docrep streams.
//
// Every integer, string and collection in a docrep stream is a MessagePack
// value. This package wraps github.com/vmihailenco/msgpack/v5 with the few
// things the reader and writer need beyond plain encode/decode:
//
//   - Value, a closed sum type for self-describing values decoded without a
//     target type (nil, bool, int, uint, float, raw, array, map).
//   - Cursor, a decoder over an in-memory body that knows its offset, so that
//     the exact bytes of a value can be captured without re-encoding.
//   - Buffer and Span, an arena-owned byte buffer and an immutable view of a
//     run of (field id, value) pairs inside it. Spans carry a buffer handle
//     and offsets, never a bare slice that could outlive its buffer.
//
// Raw byte strings are always written with the MessagePack str family so
// that streams stay readable by the older raw-only MessagePack readers that
// produced the format.
package wire
