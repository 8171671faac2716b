package eval

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/debug"
	"github.com/signadot/docrep/go-docrep/dump"
)

const (
	docVar   = "doc"
	indexVar = "index"
)

// Program is a compiled expression. It may be run concurrently.
type Program struct {
	src string
	prg *vm.Program
}

func Compile(src string) (*Program, error) {
	prg, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", src, err)
	}
	return &Program{src: src, prg: prg}, nil
}

func (p *Program) String() string { return p.src }

// Env returns the variables an expression sees for doc.
func Env(doc docrep.Document, index int) (map[string]any, error) {
	m, err := dump.Map(doc)
	if err != nil {
		return nil, err
	}
	env := map[string]any{docVar: m, indexVar: index}
	for _, s := range Symbols() {
		env[s.String()] = s.Bind(doc, index)
	}
	return env, nil
}

// Run evaluates p against doc, the index'th document of its stream.
func (p *Program) Run(doc docrep.Document, index int) (any, error) {
	env, err := Env(doc, index)
	if err != nil {
		return nil, err
	}
	if debug.Eval() {
		debug.Logf("eval %q on document %d", p.src, index)
	}
	return expr.Run(p.prg, env)
}

// Truthy reports whether an expression result selects a document: true,
// a non-zero number, or a non-empty string, list or map.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) != 0
	case map[string]any:
		return len(v) != 0
	}
	return true
}
