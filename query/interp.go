package query

import (
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/debug"
)

// Interpreter is a compiled query. It is immutable and may be shared
// between goroutines; every evaluation uses its own context.
type Interpreter struct {
	src  string
	root expr
}

// Compile lexes and parses src.
func Compile(src string) (*Interpreter, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	root, err := parse(toks)
	if err != nil {
		return nil, err
	}
	if debug.Query() {
		debug.Logf("compiled %q as %s", src, root)
	}
	return &Interpreter{src: src, root: root}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(src string) *Interpreter {
	in, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return in
}

// Source returns the query as given to Compile.
func (in *Interpreter) Source() string { return in.src }

// String returns the parsed query with every binary operation
// parenthesised.
func (in *Interpreter) String() string { return in.root.String() }

// Eval evaluates the query against doc, the index'th document of its
// stream. doc must have been read from a stream.
func (in *Interpreter) Eval(doc docrep.Document, index int) (Value, error) {
	ctx, err := newEvalCtx(doc, index)
	if err != nil {
		return Value{}, err
	}
	return in.root.eval(ctx)
}

// Match reports whether the query is truthy for doc.
func (in *Interpreter) Match(doc docrep.Document, index int) (bool, error) {
	v, err := in.Eval(doc, index)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
