package query

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docrep/go-docrep"
	"github.com/stretchr/testify/require"
)

type token struct {
	docrep.Ann `dr:"class=Token"`
	Raw        string
}

type tokDoc struct {
	docrep.Doc
	Lang   string `dr:"mode=ro"`
	Year   int64
	Flag   bool
	Span   docrep.Slice
	Tokens docrep.Store[token]
}

func newTokDoc(raws ...string) *tokDoc {
	d := &tokDoc{Lang: "en", Year: 2013, Flag: true, Span: docrep.Slice{Start: 1, Stop: 4}}
	for _, r := range raws {
		d.Tokens.Append(token{Raw: r})
	}
	return d
}

func encode(t *testing.T, docs ...*tokDoc) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := docrep.NewWriter(&buf, docrep.MustSchemaOf(&tokDoc{}))
	for _, d := range docs {
		require.NoError(t, w.Write(d))
	}
	return buf.Bytes()
}

// readAll reads data both into typed documents and into FauxDocs.
func readAll(t *testing.T, data []byte) (typed, faux []docrep.Document) {
	t.Helper()
	tr := docrep.NewReader(bytes.NewReader(data), docrep.MustSchemaOf(&tokDoc{}))
	fr := docrep.NewReader(bytes.NewReader(data), nil)
	for {
		d := &tokDoc{}
		ok, err := tr.Read(d)
		require.NoError(t, err)
		if !ok {
			break
		}
		f := &docrep.FauxDoc{}
		ok, err = fr.Read(f)
		require.NoError(t, err)
		require.True(t, ok)
		typed = append(typed, d)
		faux = append(faux, f)
	}
	return typed, faux
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize(`doc.a == -1 && any(doc.s, ann.r ~ /x\/y/) || index - 2 > 'q'`)
	require.NoError(t, err)
	var got []TokenType
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	want := []TokenType{
		TVar, TVarAttribute, TOpComparison, TLiteralInteger, TOpBoolean,
		TFunction, TOpenParen, TVar, TVarAttribute, TComma, TVar, TVarAttribute, TOpComparison, TLiteralRegex, TCloseParen,
		TOpBoolean, TVar, TOpNumeric3, TLiteralInteger, TOpComparison, TLiteralString,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token types (-want +got):\n%s", diff)
	}
	require.Equal(t, "-1", toks[3].Text)
	require.Equal(t, "x/y", toks[13].Text)
	require.Equal(t, "q", toks[len(toks)-1].Text)
}

func TestPrecedence(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"doc.a == 1 && doc.b == 2", "((doc.a == 1) && (doc.b == 2))"},
		{"1 - 2 - 3", "(1 - (2 - 3))"},
		{"index < 1 + 2 || 0", "((index < (1 + 2)) || 0)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{`len(doc.tokens) == 2`, "(len(doc.tokens) == 2)"},
		{`any(doc.tokens, ann.raw ~= /h.*/)`, `any(doc.tokens, (ann.raw ~= /h.*/))`},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			in, err := Compile(c.src)
			require.NoError(t, err)
			require.Equal(t, c.want, in.String())
		})
	}
}

func TestEvalValues(t *testing.T) {
	typed, faux := readAll(t, encode(t, newTokDoc("hello", "world")))
	cases := []struct {
		src  string
		want Value
	}{
		{"1 + 2 * 3", Int(7)},
		{"1 - 2 - 3", Int(2)},
		{"7 % 4", Int(3)},
		{"-7 / 2", Int(-3)},
		{"'a' + \"b\"", String("ab")},
		{`"abc" ~ /b/`, Int(1)},
		{`"abc" ~= /b/`, Int(0)},
		{`"abc" ~= /a.c/`, Int(1)},
		{`"ab" ~= /a|ab/`, Int(1)},
		{`"ab" ~= /a|b/`, Int(0)},
		{`"ab" ~= /b/`, Int(0)},
		{`str(12) + "x"`, String("12x")},
		{`int("42") + 1`, Int(43)},
		{`int(" +42")`, Int(42)},
		{`int("-7") + 1`, Int(-6)},
		{`int("")`, Int(0)},
		{`int("99999999999999999999")`, Int(9223372036854775807)},
		{`len("abc")`, Int(3)},
		{"0 || 1", Int(1)},
		{"1 && 0", Int(0)},
		{"index", Int(5)},
		{"doc.year", Int(2013)},
		{"doc.flag && doc.year > 2000", Int(1)},
		{`doc.lang == "en"`, Int(1)},
		{"len(doc.tokens)", Int(2)},
		{`any(doc.tokens, ann.raw == "world")`, Int(1)},
		{`all(doc.tokens, len(ann.raw) == 5)`, Int(1)},
		{`all(doc.tokens, ann.raw ~= /h.*/)`, Int(0)},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			in, err := Compile(c.src)
			require.NoError(t, err)
			for _, doc := range []docrep.Document{typed[0], faux[0]} {
				v, err := in.Eval(doc, 5)
				require.NoError(t, err)
				require.Equal(t, c.want.Type, v.Type, "type of %s", v)
				require.Equal(t, c.want.Int, v.Int)
				require.Equal(t, c.want.Str, v.Str)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	typed, _ := readAll(t, encode(t, newTokDoc("a")))
	doc := typed[0]

	v, err := MustCompile("doc.nope").Eval(doc, 0)
	require.NoError(t, err)
	require.Equal(t, TypeMissing, v.Type)
	require.False(t, v.Truthy())

	for src, want := range map[string]Value{
		"int(doc.nope)":             Int(0),
		"str(doc.nope)":             String(""),
		"len(doc.nope)":             Int(0),
		"any(doc.nope, 1)":          Int(0),
		"all(doc.nope, 1)":          Int(0),
		"any(doc.tokens, ann.nope)": Int(0),
	} {
		v, err := MustCompile(src).Eval(doc, 0)
		require.NoError(t, err, src)
		require.Equal(t, want, v, src)
	}
}

func TestShortCircuit(t *testing.T) {
	typed, faux := readAll(t, encode(t, newTokDoc("a", "hello", "c")))
	cases := []struct {
		src    string
		want   bool
		visits int
	}{
		{`any(doc.tokens, ann.raw == "hello")`, true, 2},
		{`all(doc.tokens, ann.raw == "hello")`, false, 1},
		{`all(doc.tokens, ann.raw != "c")`, false, 3},
		{`any(doc.tokens, ann.raw == "z")`, false, 3},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			in := MustCompile(c.src)
			for _, doc := range []docrep.Document{typed[0], faux[0]} {
				ctx, err := newEvalCtx(doc, 0)
				require.NoError(t, err)
				v, err := in.root.eval(ctx)
				require.NoError(t, err)
				require.Equal(t, c.want, v.Truthy())
				require.Equal(t, c.visits, ctx.visits)
			}
		})
	}
}

func TestEndToEnd(t *testing.T) {
	data := encode(t, newTokDoc("hello", "there"), newTokDoc("a", "b", "c"), newTokDoc(), newTokDoc("x", "hello"))
	typed, faux := readAll(t, data)

	for _, docs := range [][]docrep.Document{typed, faux} {
		var lens, hellos []int
		lenQ := MustCompile("len(doc.tokens) == 2")
		helloQ := MustCompile(`any(doc.tokens, ann.raw == "hello")`)
		for i, d := range docs {
			ok, err := lenQ.Match(d, i)
			require.NoError(t, err)
			if ok {
				lens = append(lens, i)
			}
			ok, err = helloQ.Match(d, i)
			require.NoError(t, err)
			if ok {
				hellos = append(hellos, i)
			}
		}
		require.Equal(t, []int{0, 3}, lens)
		require.Equal(t, []int{0, 3}, hellos)
	}
}

func TestRuntimeErrors(t *testing.T) {
	typed, _ := readAll(t, encode(t, newTokDoc("a", "b")))
	doc := typed[0]
	cases := []struct {
		src, want string
	}{
		{"doc.tokens + 1", "Invalid left type to +: found store"},
		{"1 + doc.tokens", "Invalid right type to +: found store"},
		{"1 + 'a'", "Left and right types to + do not match. Found integer and string"},
		{"'a' < 'b'", "Invalid left type to <: found string"},
		{"nope", "Variable 'nope' does not exist"},
		{"index.x", "Invalid access to attribute 'x' of variable 'index' of type integer"},
		{"doc.span", "Field 'span' is of an invalid type"},
		{"int('x')", "Failed to convert string value 'x' to an integer"},
		{"int('12x')", "Failed to convert string value '12x' to an integer"},
		{"int(' ')", "Failed to convert string value ' ' to an integer"},
		{"int('+')", "Failed to convert string value '+' to an integer"},
		{"len(1)", "Invalid input type to arg0 of 'len': found integer"},
		{"any(doc.tokens)", "Incorrect number of arguments to 'any'. Found 1 but expected 2"},
		{"all(1, 1)", "Invalid input type to arg0 of 'all': found integer"},
		{"1 / 0", "Division by zero in /"},
		{"1 % 0", "Division by zero in %"},
		{"'a' ~ 'b'", "Invalid input type to right side of ~: found string"},
		{"ann.raw", "Variable 'ann' does not exist"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			in := MustCompile(c.src)
			for range 2 {
				_, err := in.Eval(doc, 0)
				var rerr *RuntimeError
				require.True(t, errors.As(err, &rerr), "got %v", err)
				require.Equal(t, c.want, rerr.Msg)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{"", "Query string cannot be empty"},
		{"   ", "Query string cannot be empty"},
		{"1 +", "Expected <e5> but no more tokens available"},
		{"(1", "Expected CLOSE_PAREN in <e5> but no more tokens available"},
		{"(1 2", "Expected CLOSE_PAREN in <e5> but found token type LITERAL_INTEGER instead"},
		{"len(1", "Expected CLOSE_PAREN in <e5> function but no more tokens available"},
		{"any(doc.x 2)", "Expected COMMA in <e5> function but found token type LITERAL_INTEGER instead"},
		{"1 2", "Invalid input found at '2'"},
		{"foo(1)", "Unknown function 'foo'"},
		{"1 # 2", "Invalid input found at '# 2'"},
		{"'abc", "Invalid input found at ''abc'"},
		{"== 1", "Expected <e5> token but found token type OP_COMPARISON instead ( '==' '1')"},
		{"99999999999999999999", "Invalid integer literal '99999999999999999999'"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := Compile(c.src)
			var cerr *CompileError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			require.Equal(t, c.want, cerr.Msg)
		})
	}

	_, err := Compile("'a' ~ /(/")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "Invalid regex /(/", cerr.Msg)
	require.Error(t, cerr.Err)
}

func TestEvalWithoutRuntime(t *testing.T) {
	_, err := MustCompile("1").Eval(newTokDoc(), 0)
	require.ErrorIs(t, err, docrep.ErrNoRuntime)
}
