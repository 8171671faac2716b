package docrep

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docrep/go-docrep/wire"
)

// narrowDoc knows only the name of a Document.
type narrowDoc struct {
	Doc
	Name string
}

type tokenRaw struct {
	Ann `dr:"class=Token"`
	Raw string
}

// tokensDoc knows the tokens store but only the raw field of its tokens.
type tokensDoc struct {
	Doc
	Count  int64
	Tokens Store[tokenRaw]
}

type deleteDoc struct {
	Doc
	Name  string
	Count int64 `dr:"mode=delete"`
}

func recast(t *testing.T, data []byte, via Document) []byte {
	t.Helper()
	s := MustSchemaOf(via)
	readOne(t, s, data, via)
	return writeDocs(t, s, via)
}

func TestRecastPreservesLazy(t *testing.T) {
	full := MustSchemaOf(&testDoc{})
	in := sampleDoc()
	orig := writeDocs(t, full, in)

	for _, c := range []struct {
		name string
		via  func() Document
	}{
		{"narrow", func() Document { return &narrowDoc{} }},
		{"tokens only", func() Document { return &tokensDoc{} }},
		{"faux", func() Document { return &FauxDoc{} }},
	} {
		t.Run(c.name, func(t *testing.T) {
			data := recast(t, orig, c.via())
			// twice, so lazily kept fields are re-keyed onto fields that
			// were themselves kept lazily
			data = recast(t, data, c.via())

			out := &testDoc{}
			readOne(t, full, data, out)
			if out.Name != in.Name || out.Count != in.Count || out.Score != in.Score || !out.Done {
				t.Errorf("root fields: got %+v", out)
			}
			if diff := cmp.Diff(in.Tokens.Items(), out.Tokens.Items(), ignoreAnn); diff != "" {
				t.Errorf("tokens (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(in.Sents.Items(), out.Sents.Items(), ignoreAnn); diff != "" {
				t.Errorf("sents (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecastEditsDeclaredFields(t *testing.T) {
	full := MustSchemaOf(&testDoc{})
	s := MustSchemaOf(&tokensDoc{})
	d := &tokensDoc{}
	readOne(t, s, writeDocs(t, full, sampleDoc()), d)
	d.Count = 42
	d.Tokens.At(0).Raw = "HELLO"

	out := &testDoc{}
	readOne(t, full, writeDocs(t, s, d), out)
	if out.Count != 42 {
		t.Errorf("Count = %d", out.Count)
	}
	tok := out.Tokens.At(0)
	if tok.Raw != "HELLO" || tok.Norm != "hello" || tok.Span != (Slice{Start: 0, Stop: 5}) {
		t.Errorf("token 0 = %+v", tok)
	}
}

func TestFauxIdentity(t *testing.T) {
	orig := writeDocs(t, MustSchemaOf(&testDoc{}), sampleDoc(), &testDoc{Name: "second"})
	r := NewReader(bytes.NewReader(orig), nil)
	var buf bytes.Buffer
	w := NewWriter(&buf, nil)
	for {
		d := &FauxDoc{}
		ok, err := r.Read(d)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		for _, st := range d.Runtime().Root.Stores {
			if !st.IsLazy() {
				t.Errorf("store %q of a FauxDoc should be lazy", st.Serial)
			}
		}
		if err := w.Write(d); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(orig, buf.Bytes()) {
		t.Errorf("faux round trip changed the stream:\n%x\n%x", orig, buf.Bytes())
	}
}

func TestDropLazy(t *testing.T) {
	d := &narrowDoc{}
	readOne(t, MustSchemaOf(d), writeDocs(t, MustSchemaOf(&testDoc{}), sampleDoc()), d)
	var buf bytes.Buffer
	if err := NewWriter(&buf, MustSchemaOf(d), DropLazy(true)).Write(d); err != nil {
		t.Fatal(err)
	}
	out := &FauxDoc{}
	readOne(t, nil, buf.Bytes(), out)
	rt := out.Runtime()
	if len(rt.Classes) != 1 || len(rt.Root.Fields) != 1 || len(rt.Root.Stores) != 0 {
		t.Errorf("expected only the name field, got %d classes %d fields %d stores",
			len(rt.Classes), len(rt.Root.Fields), len(rt.Root.Stores))
	}
}

func TestDeleteMode(t *testing.T) {
	d := &deleteDoc{}
	readOne(t, MustSchemaOf(d), writeDocs(t, MustSchemaOf(&testDoc{}), sampleDoc()), d)
	if d.Count != -3 {
		t.Errorf("deleted field should still be read, got %d", d.Count)
	}
	out := &testDoc{}
	readOne(t, MustSchemaOf(out), writeDocs(t, MustSchemaOf(d), d), out)
	if out.Count != 0 {
		t.Errorf("deleted field was written: %d", out.Count)
	}
	if out.Name != "greeting" || out.Tokens.Len() != 3 {
		t.Errorf("unexpected doc %+v", out)
	}
}

func TestHeaderFlags(t *testing.T) {
	d := &FauxDoc{}
	readOne(t, nil, writeDocs(t, MustSchemaOf(&testDoc{}), sampleDoc()), d)
	got := map[string]FieldKind{}
	for _, c := range d.Runtime().Classes {
		for _, f := range c.Fields {
			if f.Def != nil {
				t.Fatalf("field %s.%s of a FauxDoc has a declaration", c.Serial, f.Serial)
			}
			key := f.Serial
			if f.Serial == "span" {
				key = c.Serial + ".span"
			}
			got[key] = f.Kind()
		}
	}
	for key, want := range map[string]FieldKind{
		"deps":       KindPointers,
		"head":       KindPointer,
		"Token.span": KindSlice,
		"count":      KindPrimitive,
	} {
		if got[key] != want {
			t.Errorf("%s: got kind %s, want %s", key, got[key], want)
		}
	}
	pointerSlices := 0
	for _, k := range got {
		if k == KindPointerSlice {
			pointerSlices++
		}
	}
	if pointerSlices != 1 {
		t.Errorf("expected one pointer-slice field, got %d in %v", pointerSlices, got)
	}

	classes := wire.FromArray(
		class(MetaClass, field("head", kv(1, wire.FromUint(0)), kv(4, wire.FromBool(true)))),
		class("item", field("value")),
	)
	stores := wire.FromArray(wire.FromArray(wire.FromString("items"), wire.FromUint(1), wire.FromUint(0)))
	data := stream(t, classes, stores, wire.FromMap(), wire.FromArray())
	_, err := NewReader(bytes.NewReader(data), MustSchemaOf(&pointerHead{})).Read(&pointerHead{})
	if err == nil || !strings.Contains(err.Error(), "Field 'head' of class '__meta__' has IS_COLLECTION as true on the stream") {
		t.Errorf("unexpected error %v", err)
	}
}
