package docrep

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/signadot/docrep/go-docrep/wire"
)

var ignoreAnn = cmpopts.IgnoreTypes(Ann{})

func readOne(t *testing.T, s *DocSchema, data []byte, doc Document) {
	t.Helper()
	r := NewReader(bytes.NewReader(data), s)
	ok, err := r.Read(doc)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ok {
		t.Fatal("Read: unexpected end of stream")
	}
}

func TestRoundTrip(t *testing.T) {
	s := MustSchemaOf(&testDoc{})
	in := sampleDoc()
	in.Scratch = "not written"
	data := writeDocs(t, s, in)

	out := &testDoc{}
	readOne(t, s, data, out)

	if out.Name != in.Name || out.Count != in.Count || out.Score != in.Score || out.Done != in.Done {
		t.Errorf("root fields: got %+v", out)
	}
	if diff := cmp.Diff(in.Payload, out.Payload); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
	if out.Scratch != "" {
		t.Errorf("skipped field was written: %q", out.Scratch)
	}
	if diff := cmp.Diff(in.Tokens.Items(), out.Tokens.Items(), ignoreAnn); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(in.Sents.Items(), out.Sents.Items(), ignoreAnn); diff != "" {
		t.Errorf("sents (-want +got):\n%s", diff)
	}
	tok, err := out.Tokens.Get(out.Sents.At(0).Head)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Raw != "World" {
		t.Errorf("head token = %q", tok.Raw)
	}
	rt := out.Runtime()
	if rt == nil || rt.Root.Serial != MetaClass {
		t.Fatal("missing runtime")
	}
	for _, st := range rt.Root.Stores {
		if st.IsLazy() {
			t.Errorf("store %q should be eager", st.Serial)
		}
	}
}

func TestReadSequence(t *testing.T) {
	s := MustSchemaOf(&testDoc{})
	a, b := sampleDoc(), &testDoc{Name: "empty"}
	data := writeDocs(t, s, a, b)

	r := NewReader(bytes.NewReader(data), s)
	var names []string
	for {
		d := &testDoc{}
		ok, err := r.Read(d)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"greeting", "empty"}, names); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d", r.Count())
	}
}

func TestReadEmpty(t *testing.T) {
	r := NewReader(bytes.NewReader(nil), MustSchemaOf(&testDoc{}))
	ok, err := r.Read(&testDoc{})
	if ok || err != nil {
		t.Errorf("Read on empty stream = %v, %v", ok, err)
	}
}

func TestReadOnlyKeepsBytes(t *testing.T) {
	s := MustSchemaOf(&testDoc{})
	out := &testDoc{}
	readOne(t, s, writeDocs(t, s, sampleDoc()), out)

	tok := out.Tokens.At(0)
	if tok.Norm != "hello" {
		t.Fatalf("Norm = %q", tok.Norm)
	}
	fields, err := tok.Lazy().Fields()
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected one retained field, got %d", len(fields))
	}
	norm := out.Runtime().Store("tokens").Class.Field("norm")
	if fields[0].ID != uint64(norm.Index) {
		t.Errorf("retained field id %d, want %d", fields[0].ID, norm.Index)
	}
	if !out.Tokens.At(2).Lazy().IsZero() {
		t.Error("token without a norm should retain nothing")
	}
}

func TestDocReused(t *testing.T) {
	s := MustSchemaOf(&testDoc{})
	data := writeDocs(t, s, sampleDoc(), sampleDoc())
	r := NewReader(bytes.NewReader(data), s)
	d := &testDoc{}
	if _, err := r.Read(d); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Read(d); !errors.Is(err, ErrDocReused) {
		t.Errorf("expected ErrDocReused, got %v", err)
	}
}

func TestWrongDocType(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x90}), MustSchemaOf(&testDoc{}))
	if _, err := r.Read(&FauxDoc{}); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

type plainHead struct {
	Doc
	Head uint64
}

type item struct {
	Ann
	Value string
}

type pointerHead struct {
	Doc
	Head  Pointer `dr:"store=Items"`
	Items Store[item]
}

type sliceHead struct {
	Doc
	Head Slice
}

func TestFlagMismatch(t *testing.T) {
	ph := &pointerHead{}
	ph.Head = ph.Items.Append(item{Value: "x"})

	cases := []struct {
		name string
		data []byte
		into Document
		want string
	}{
		{
			name: "uint read as pointer",
			data: writeDocs(t, MustSchemaOf(&plainHead{}), &plainHead{Head: 7}),
			into: &pointerHead{},
			want: "Field 'head' of class '__meta__' has IS_POINTER as false on the stream, but true on the class's field",
		},
		{
			name: "pointer read as uint",
			data: writeDocs(t, MustSchemaOf(&pointerHead{}), ph),
			into: &plainHead{},
			want: "has IS_POINTER as true on the stream, but false",
		},
		{
			name: "uint read as slice",
			data: writeDocs(t, MustSchemaOf(&plainHead{}), &plainHead{Head: 7}),
			into: &sliceHead{},
			want: "has IS_SLICE as false on the stream, but true",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := SchemaOf(c.into)
			if err != nil {
				t.Fatal(err)
			}
			_, err = NewReader(bytes.NewReader(c.data), s).Read(c.into)
			var derr *Error
			if !errors.As(err, &derr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if !strings.Contains(derr.Msg, c.want) {
				t.Errorf("error %q does not contain %q", derr.Msg, c.want)
			}
		})
	}
}

func TestMalformedHeader(t *testing.T) {
	none := wire.FromArray()
	empty := wire.FromMap()
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "missing meta",
			data: stream(t, wire.FromArray(class("Other")), none, empty),
			want: "Did not read in a __meta__ class",
		},
		{
			name: "bad class tuple",
			data: stream(t, wire.FromArray(wire.FromArray(wire.FromString(MetaClass))), none, empty),
			want: "expected 2 elements but found 1",
		},
		{
			name: "unknown field key",
			data: stream(t, wire.FromArray(class(MetaClass, field("x", kv(9, wire.FromBool(true))))), none, empty),
			want: "Unknown value 9 as key in <field> map",
		},
		{
			name: "nameless field",
			data: stream(t, wire.FromArray(class(MetaClass, wire.FromMap(kv(2, wire.FromBool(true))))), none, empty),
			want: "Field number 1 did not contain a NAME key",
		},
		{
			name: "class id out of range",
			data: stream(t, wire.FromArray(class(MetaClass)),
				wire.FromArray(wire.FromArray(wire.FromString("things"), wire.FromUint(4), wire.FromUint(0))),
				empty, wire.FromArray()),
			want: "klass_id value 4 >= number of klasses (1)",
		},
		{
			name: "store id out of range",
			data: stream(t, wire.FromArray(class(MetaClass, field("p", kv(1, wire.FromUint(2))))), none, empty),
			want: "store_id value 2 >= number of stores (0)",
		},
		{
			name: "field id out of range",
			data: stream(t, wire.FromArray(class(MetaClass)), none, wire.FromMap(kv(0, wire.FromUint(1)))),
			want: "Field id 0 >= number of fields (0)",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(c.data), nil).Read(&FauxDoc{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not contain %q", err, c.want)
			}
		})
	}
}

func TestStoreClassMismatch(t *testing.T) {
	type other struct {
		Ann   `dr:"class=Other"`
		Label string
	}
	type wrongDoc struct {
		Doc
		Tokens Store[other]
	}
	w := &wrongDoc{}
	w.Tokens.Append(other{Label: "x"})
	data := writeDocs(t, MustSchemaOf(&wrongDoc{}), w)

	_, err := NewReader(bytes.NewReader(data), MustSchemaOf(&testDoc{})).Read(&testDoc{})
	if err == nil || !strings.Contains(err.Error(), "Store 'tokens' points to Token but the stream says it points to Other") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestPointerBounds(t *testing.T) {
	s := MustSchemaOf(&pointerHead{})
	bad := &pointerHead{Head: PointerTo(3)}
	bad.Items.Append(item{Value: "only"})
	if err := NewWriter(io.Discard, s).Write(bad); err == nil {
		t.Error("expected write error for out of range pointer")
	}

	classes := wire.FromArray(
		class(MetaClass, field("head", kv(1, wire.FromUint(0)))),
		class("item", field("value")),
	)
	stores := wire.FromArray(wire.FromArray(wire.FromString("items"), wire.FromUint(1), wire.FromUint(1)))
	data := stream(t, classes, stores,
		wire.FromMap(kv(0, wire.FromUint(1))),
		wire.FromArray(wire.FromMap(kv(0, wire.FromString("only")))),
	)
	_, err := NewReader(bytes.NewReader(data), s).Read(&pointerHead{})
	if err == nil || !strings.Contains(err.Error(), "points to 1 but the store has 1 elements") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestStoreCountBounds(t *testing.T) {
	s := MustSchemaOf(&pointerHead{})
	classes := wire.FromArray(
		class(MetaClass, field("head", kv(1, wire.FromUint(0)))),
		class("item", field("value")),
	)
	items := func(n uint64) wire.Value {
		return wire.FromArray(wire.FromArray(wire.FromString("items"), wire.FromUint(1), wire.FromUint(n)))
	}
	// an array16 header claiming 1000 instances with no bytes after it
	shortStore := append(stream(t, classes, items(1000), wire.FromMap()), 0x03, 0xdc, 0x03, 0xe8)

	cases := []struct {
		name string
		data []byte
		want string
	}{
		{
			name: "count above section limit",
			data: stream(t, classes, items(1<<62), wire.FromMap()),
			want: "Store 'items' declares 4611686018427387904 elements",
		},
		{
			name: "count above int",
			data: stream(t, classes, items(1<<63+5), wire.FromMap()),
			want: "Store 'items' declares 9223372036854775813 elements",
		},
		{
			name: "count beyond section bytes",
			data: shortStore,
			want: "Store 'items' declares 1000 elements but its section has 0 bytes left",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(c.data), s).Read(&pointerHead{})
			var derr *Error
			if !errors.As(err, &derr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if !strings.Contains(derr.Msg, c.want) {
				t.Errorf("error %q does not contain %q", derr.Msg, c.want)
			}
		})
	}
}

func TestNilSinglePointer(t *testing.T) {
	classes := wire.FromArray(
		class(MetaClass, field("head", kv(1, wire.FromUint(0)))),
		class("item", field("value")),
	)
	stores := wire.FromArray(wire.FromArray(wire.FromString("items"), wire.FromUint(1), wire.FromUint(1)))
	data := stream(t, classes, stores,
		wire.FromMap(kv(0, wire.Nil())),
		wire.FromArray(wire.FromMap(kv(0, wire.FromString("only")))),
	)
	d := &pointerHead{Head: PointerTo(0)}
	readOne(t, MustSchemaOf(d), data, d)
	if !d.Head.IsNil() {
		t.Errorf("head = %v, want nil pointer", d.Head)
	}
	if d.Items.Len() != 1 {
		t.Errorf("items has %d instances, want 1", d.Items.Len())
	}
}

func TestShortRead(t *testing.T) {
	s := MustSchemaOf(&testDoc{})
	data := writeDocs(t, s, sampleDoc())
	_, err := NewReader(bytes.NewReader(data[:len(data)-1]), s).Read(&testDoc{})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	var derr *Error
	if !errors.As(err, &derr) || !strings.HasPrefix(derr.Msg, "Failed to read in") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRelease(t *testing.T) {
	d := &FauxDoc{}
	readOne(t, nil, writeDocs(t, MustSchemaOf(&testDoc{}), sampleDoc()), d)
	root, err := Root(d)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := root.Lookup("name"); !ok || err != nil {
		t.Fatalf("Lookup before release: %v %v", ok, err)
	}
	d.Release()
	if _, _, err := root.Lookup("name"); !errors.Is(err, wire.ErrReleased) {
		t.Errorf("expected ErrReleased, got %v", err)
	}
}
