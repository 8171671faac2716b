// Package docrep reads and writes docrep streams: self-describing binary
// documents made of a root document instance plus named stores of
// annotation instances.
//
// # Declaring a schema
//
// A document type embeds [Doc]; annotation types embed [Ann]. Stores are
// [Store] fields of the document. Fields are declared with `dr` struct tags:
//
//	type Token struct {
//	    docrep.Ann `dr:"class=Token"`
//	    Raw  string
//	    Span docrep.Slice `dr:"field=span"`
//	    Next docrep.Pointer `dr:"store=Tokens"`
//	}
//
//	type Document struct {
//	    docrep.Doc
//	    Text   []byte `dr:"mode=ro"`
//	    Tokens docrep.Store[Token] `dr:"field=tokens"`
//	}
//
// Exported fields of a supported type are part of the schema unless tagged
// `dr:"-"`. Serial names default to the snake case of the Go name and may be
// changed with `field=` (or `class=` on the embedded Ann).
//
// # Reading
//
// A [Reader] reconciles the schema written at the head of each document
// with the static schema. Fields and stores the static schema knows about
// are decoded into the Go values; everything else is kept as immutable
// encoded bytes owned by the document's [Runtime], and re-emitted by a
// [Writer] so that narrowing a schema never loses data.
//
//	s := docrep.MustSchemaOf(&Document{})
//	r := docrep.NewReader(in, s)
//	for {
//	    doc := &Document{}
//	    ok, err := r.Read(doc)
//	    if err != nil || !ok {
//	        ...
//	    }
//	}
//
// # Related Packages
//
//   - github.com/signadot/docrep/go-docrep/wire - value codec
//   - github.com/signadot/docrep/go-docrep/query - query language
package docrep
