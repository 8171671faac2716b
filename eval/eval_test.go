package eval

import (
	"bytes"
	"errors"
	"testing"

	"github.com/signadot/docrep/go-docrep"
	"github.com/stretchr/testify/require"
)

type tok struct {
	docrep.Ann `dr:"class=Token"`
	Raw        string
	Pos        int64
}

type sent struct {
	docrep.Ann `dr:"class=Sentence"`
	Head       docrep.Pointer `dr:"store=Tokens"`
}

type corpusDoc struct {
	docrep.Doc
	Title  string
	Tokens docrep.Store[tok]
	Sents  docrep.Store[sent]
}

func readBack(t *testing.T, withFaux bool, docs ...*corpusDoc) []docrep.Document {
	t.Helper()
	var buf bytes.Buffer
	w := docrep.NewWriter(&buf, docrep.MustSchemaOf(&corpusDoc{}))
	for _, d := range docs {
		require.NoError(t, w.Write(d))
	}
	var r *docrep.Reader
	if withFaux {
		r = docrep.NewReader(&buf, nil)
	} else {
		r = docrep.NewReader(&buf, docrep.MustSchemaOf(&corpusDoc{}))
	}
	var res []docrep.Document
	for {
		var d docrep.Document = &corpusDoc{}
		if withFaux {
			d = &docrep.FauxDoc{}
		}
		ok, err := r.Read(d)
		require.NoError(t, err)
		if !ok {
			return res
		}
		res = append(res, d)
	}
}

func sampleDoc() *corpusDoc {
	d := &corpusDoc{Title: "greeting"}
	d.Tokens.Append(tok{Raw: "hello", Pos: 1})
	d.Tokens.Append(tok{Raw: "world", Pos: 2})
	d.Sents.Append(sent{Head: docrep.PointerTo(1)})
	return d
}

func TestRun(t *testing.T) {
	cases := []struct {
		src  string
		want any
	}{
		{`doc.title`, "greeting"},
		{`doc.title + "!"`, "greeting!"},
		{`len(doc.tokens)`, 2},
		{`map(doc.tokens, .raw)`, []any{"hello", "world"}},
		{`doc.tokens[0].pos + doc.tokens[1].pos`, 3},
		{`doc.tokens[doc.sents[0].head].raw`, "world"},
		{`index * 10`, 70},
		{`any(doc.tokens, .raw == "world")`, true},
		{`doc.nope == nil`, true},
		{`query('len(doc.tokens) == 2 && index == 7')`, true},
		{`query('any(doc.tokens, ann.raw == "nope")')`, false},
		{`stores()`, []string{"tokens", "sents"}},
		{`class("sents")`, "Sentence"},
		{`class("nope")`, ""},
	}
	for _, faux := range []bool{false, true} {
		docs := readBack(t, faux, sampleDoc())
		for _, c := range cases {
			t.Run(c.src, func(t *testing.T) {
				p, err := Compile(c.src)
				require.NoError(t, err)
				got, err := p.Run(docs[0], 7)
				require.NoError(t, err)
				require.Equal(t, c.want, got)
			})
		}
	}
}

func TestLazySymbol(t *testing.T) {
	typed := readBack(t, false, sampleDoc())[0]
	faux := readBack(t, true, sampleDoc())[0]
	p, err := Compile(`lazy("tokens")`)
	require.NoError(t, err)

	got, err := p.Run(typed, 0)
	require.NoError(t, err)
	require.Equal(t, false, got)

	got, err = p.Run(faux, 0)
	require.NoError(t, err)
	require.Equal(t, true, got)
}

func TestErrors(t *testing.T) {
	_, err := Compile(`doc.title +`)
	require.Error(t, err)

	doc := readBack(t, false, sampleDoc())[0]
	p, err := Compile(`query("doc.tokens + 1")`)
	require.NoError(t, err)
	_, err = p.Run(doc, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid left type to +: found store")

	p, err = Compile(`doc.title`)
	require.NoError(t, err)
	_, err = p.Run(&corpusDoc{}, 0)
	require.True(t, errors.Is(err, docrep.ErrNoRuntime))
}

func TestRegister(t *testing.T) {
	require.ErrorIs(t, Register(GetEnv()), ErrSymbolExists)
	require.ErrorIs(t, Register(&symbol{name: "doc"}), ErrSymbolExists)
	require.NotNil(t, Lookup("query"))

	var names []string
	for _, s := range Symbols() {
		names = append(names, s.String())
	}
	require.Equal(t, []string{"class", "getenv", "lazy", "query", "stores"}, names)
}

func TestTruthy(t *testing.T) {
	for v, want := range map[any]bool{
		nil: false, true: true, false: false, 0: false, 3: true,
		0.0: false, "": false, "x": true,
	} {
		require.Equal(t, want, Truthy(v), "%v", v)
	}
	require.False(t, Truthy([]any{}))
	require.True(t, Truthy(map[string]any{"a": 1}))
}
