package dump

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/wire"
)

// Option configures a Printer.
type Option func(*Printer)

// WithColors makes the Printer use c. A nil c turns colour off.
func WithColors(c *Colors) Option {
	return func(p *Printer) {
		if c == nil {
			c = plainColors()
		}
		p.colors = c
	}
}

// Printer writes annotated listings of documents.
type Printer struct {
	w      io.Writer
	colors *Colors
	b      strings.Builder
	indent int
}

func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, colors: plainColors()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Doc writes doc, which is document number num of its stream.
func (p *Printer) Doc(doc docrep.Document, num int) error {
	root, err := docrep.Root(doc)
	if err != nil {
		return err
	}
	p.b.Reset()
	p.indent = 0

	p.line()
	p.b.WriteString(p.colors.Key("%d:", num))
	p.b.WriteString(" {")
	p.sep("Document")
	p.b.WriteByte('\n')
	p.indent++
	if err := p.fields(root); err != nil {
		return err
	}
	for _, st := range root.Class.Stores {
		if err := p.store(doc, st); err != nil {
			return err
		}
	}
	p.indent--
	p.line()
	p.b.WriteString("},\n")

	_, err = io.WriteString(p.w, p.b.String())
	return err
}

func (p *Printer) store(doc docrep.Document, st *docrep.RTStore) error {
	insts, err := docrep.Instances(doc, st)
	if err != nil {
		return fmt.Errorf("store %q: %w", st.Serial, err)
	}
	p.line()
	p.b.WriteString(p.colors.Key("%s:", st.Serial))
	p.b.WriteString(" {")
	p.sep("%s (%d)", st.Class.Serial, len(insts))
	p.b.WriteByte('\n')
	p.indent++
	for i, inst := range insts {
		p.line()
		p.b.WriteString(p.colors.Key("%#x:", i))
		p.b.WriteString(" {\n")
		p.indent++
		if err := p.fields(inst); err != nil {
			return fmt.Errorf("%s[%d]: %w", st.Serial, i, err)
		}
		p.indent--
		p.line()
		p.b.WriteString("},\n")
	}
	p.indent--
	p.line()
	p.b.WriteString("},\n")
	return nil
}

func (p *Printer) fields(inst docrep.Instance) error {
	fvs, err := inst.Fields()
	if err != nil {
		return err
	}
	width := 0
	for _, f := range inst.Class.Fields {
		width = max(width, len(f.Serial))
	}
	for _, fv := range fvs {
		p.line()
		p.b.WriteString(p.colors.Key("%-*s: ", width, fv.Field.Serial))
		p.field(inst, fv.Field, fv.Value)
		p.b.WriteByte('\n')
	}
	return nil
}

func (p *Printer) line() {
	for range p.indent {
		p.b.WriteString("  ")
	}
}

func (p *Printer) sep(format string, args ...any) {
	p.b.WriteByte('\t')
	p.b.WriteString(p.colors.Comment("# "+format, args...))
}

func (p *Printer) field(inst docrep.Instance, f *docrep.RTField, v wire.Value) {
	switch f.Kind() {
	case docrep.KindSlice, docrep.KindPointerSlice:
		p.slice(f, v)
	case docrep.KindPointer, docrep.KindPointers:
		p.pointer(inst, f, v)
	default:
		p.primitive(v)
	}
}

func (p *Printer) slice(f *docrep.RTField, v wire.Value) {
	start, stop, ok := SliceBounds(v)
	if !ok {
		p.b.WriteString(p.colors.Bad("%s", v))
		return
	}
	fmt.Fprintf(&p.b, "[%#x, %#x],", start, stop)
	what := "byte slice"
	if f.Target != nil {
		what = "slice into " + f.Target.Serial
	}
	p.sep("%s (%d, %d)", what, start, stop)
}

func (p *Printer) pointer(inst docrep.Instance, f *docrep.RTField, v wire.Value) {
	many := f.Kind() == docrep.KindPointers
	if many && v.Kind == wire.ArrayKind {
		p.b.WriteByte('[')
		for i, e := range v.Array {
			if i != 0 {
				p.b.WriteString(", ")
			}
			p.index(e)
		}
		p.b.WriteByte(']')
	} else {
		p.index(v)
	}
	what := "pointer"
	if many {
		what += "s"
	}
	switch {
	case f.IsSelfPointer:
		into := "the document"
		if inst.Store != nil {
			into = inst.Store.Serial
		}
		p.sep("self-%s into %s", what, into)
	case f.Target != nil:
		p.sep("%s into %s", what, f.Target.Serial)
	default:
		p.sep("%s", what)
	}
}

func (p *Printer) index(v wire.Value) {
	if v.IsNil() {
		p.b.WriteString("nil")
		return
	}
	if u, ok := v.AsUint(); ok {
		fmt.Fprintf(&p.b, "%#x", u)
		return
	}
	p.b.WriteString(p.colors.Bad("%s", v.Kind))
}

func (p *Printer) primitive(v wire.Value) {
	switch v.Kind {
	case wire.NilKind:
		p.b.WriteString("nil")
	case wire.BoolKind:
		p.b.WriteString(strconv.FormatBool(v.Bool) + ",")
	case wire.FloatKind:
		p.b.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64) + ",")
		p.sep("double")
	case wire.IntKind:
		fmt.Fprintf(&p.b, "%#x,", v.Int)
		p.sep("int (%d)", v.Int)
	case wire.UintKind:
		fmt.Fprintf(&p.b, "%#x,", v.Uint)
		p.sep("uint (%d)", v.Uint)
	case wire.RawKind:
		p.b.WriteString(strconv.Quote(string(v.Raw)) + ",")
		p.sep("raw (%dB)", len(v.Raw))
	case wire.ArrayKind:
		p.b.WriteString(v.String() + ",")
		p.sep("array (%d)", len(v.Array))
	case wire.MapKind:
		p.b.WriteString(v.String() + ",")
		p.sep("map (%d)", len(v.Map))
	default:
		p.b.WriteString(p.colors.Bad("%s", v.Kind))
	}
}
