package docrep

import (
	"bytes"
	"testing"

	"github.com/signadot/docrep/go-docrep/wire"
	"github.com/vmihailenco/msgpack/v5"
)

type Token struct {
	Ann  `dr:"class=Token"`
	Raw  string
	Span Slice
	Norm string `dr:"mode=ro"`
}

type Sent struct {
	Ann
	Tokens PointerSlice `dr:"field=span store=Tokens"`
	Head   Pointer      `dr:"store=Tokens"`
	Deps   Pointers     `dr:"store=Tokens"`
}

type testDoc struct {
	Doc
	Name    string
	Count   int64
	Score   float64
	Done    bool
	Payload []byte
	Scratch string `dr:"-"`
	Tokens  Store[Token]
	Sents   Store[Sent]
}

func sampleDoc() *testDoc {
	d := &testDoc{Name: "greeting", Count: -3, Score: 0.5, Done: true, Payload: []byte{1, 2}}
	d.Tokens.Append(Token{Raw: "hello", Span: Slice{Start: 0, Stop: 5}, Norm: "hello"})
	d.Tokens.Append(Token{Raw: "World", Span: Slice{Start: 6, Stop: 11}, Norm: "world"})
	d.Tokens.Append(Token{Raw: "!", Span: Slice{Start: 11, Stop: 12}})
	d.Sents.Append(Sent{
		Tokens: PointerSlice{Start: 0, Stop: 3},
		Head:   PointerTo(1),
		Deps:   Pointers{PointerTo(0), 0, PointerTo(2)},
	})
	return d
}

func writeDocs(t *testing.T, s *DocSchema, docs ...Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, s)
	for _, d := range docs {
		if err := w.Write(d); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	return buf.Bytes()
}

// stream hand-encodes a document from a header and its section values.
func stream(t *testing.T, classes, stores wire.Value, sections ...wire.Value) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, v := range []wire.Value{classes, stores} {
		if err := wire.WriteValue(enc, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, s := range sections {
		var body bytes.Buffer
		if err := wire.WriteValue(msgpack.NewEncoder(&body), s); err != nil {
			t.Fatal(err)
		}
		if err := enc.EncodeUint(uint64(body.Len())); err != nil {
			t.Fatal(err)
		}
		buf.Write(body.Bytes())
	}
	return buf.Bytes()
}

func field(name string, extra ...wire.Pair) wire.Value {
	return wire.FromMap(append([]wire.Pair{{Key: wire.FromUint(0), Value: wire.FromString(name)}}, extra...)...)
}

func class(name string, fields ...wire.Value) wire.Value {
	return wire.FromArray(wire.FromString(name), wire.FromArray(fields...))
}

func kv(k uint64, v wire.Value) wire.Pair {
	return wire.Pair{Key: wire.FromUint(k), Value: v}
}
