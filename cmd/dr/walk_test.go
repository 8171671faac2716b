package main

import (
	"bytes"
	"testing"

	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/query"
)

type item struct {
	docrep.Ann
	Name string
}

type itemsDoc struct {
	docrep.Doc
	Items docrep.Store[item]
}

func stream(t *testing.T, sizes ...int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := docrep.NewWriter(&buf, docrep.MustSchemaOf(&itemsDoc{}))
	for _, n := range sizes {
		d := &itemsDoc{}
		for range n {
			d.Items.Append(item{Name: "x"})
		}
		if err := w.Write(d); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestWalkStop(t *testing.T) {
	var seen []int
	err := walk(bytes.NewReader(stream(t, 1, 2, 3)), func(_ *docrep.FauxDoc, i int) error {
		seen = append(seen, i)
		if i == 1 {
			return errStop
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Errorf("seen %v, want [0 1]", seen)
	}
}

// TestGrepRoundTrip filters a stream the way the grep command does and
// checks the kept documents are byte-identical to the originals.
func TestGrepRoundTrip(t *testing.T) {
	all := stream(t, 1, 2, 3, 2)
	want := stream(t, 2, 2)
	in := query.MustCompile("len(doc.items) == 2")

	var out bytes.Buffer
	w := docrep.NewWriter(&out, nil)
	err := walk(bytes.NewReader(all), func(doc *docrep.FauxDoc, i int) error {
		ok, err := in.Match(doc, i)
		if err != nil || !ok {
			return err
		}
		return w.Write(doc)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, out.Bytes()) {
		t.Errorf("filtered stream differs:\n got %x\nwant %x", out.Bytes(), want)
	}
}

func TestWalkError(t *testing.T) {
	data := stream(t, 1)
	if err := walk(bytes.NewReader(data[:len(data)-1]), func(*docrep.FauxDoc, int) error { return nil }); err == nil {
		t.Error("expected error for a truncated stream")
	}
}
