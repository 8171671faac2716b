package docrep

import (
	"fmt"

	"github.com/signadot/docrep/go-docrep/wire"
)

// Doc is embedded by document types. It holds the runtime schema of the
// stream the document was read from and the encoded fields the static
// schema did not claim.
type Doc struct {
	rt   *Runtime
	lazy wire.Span
}

func (d *Doc) docrepDoc() *Doc { return d }

// Runtime returns the runtime schema of the last read, or nil if the
// document was not read from a stream.
func (d *Doc) Runtime() *Runtime { return d.rt }

// Lazy returns the retained encoded fields of the document instance.
func (d *Doc) Lazy() wire.Span { return d.lazy }

// Release releases the buffers retained by the document's runtime.
func (d *Doc) Release() {
	if d.rt != nil {
		d.rt.Release()
	}
}

// Document is implemented by any struct embedding Doc.
type Document interface {
	docrepDoc() *Doc
	Runtime() *Runtime
	Release()
}

// Ann is embedded by annotation types stored in a Store.
type Ann struct {
	lazy wire.Span
}

func (a *Ann) docrepAnn() *Ann { return a }

// Lazy returns the retained encoded fields of the instance.
func (a *Ann) Lazy() wire.Span { return a.lazy }

// Annotation is implemented by any struct embedding Ann.
type Annotation interface {
	docrepAnn() *Ann
}

// Pointer refers to one instance of a store by index. The zero value is
// the nil pointer; otherwise the value is the index plus one.
type Pointer int

// PointerTo returns a pointer to index i.
func PointerTo(i int) Pointer {
	if i < 0 {
		panic(fmt.Sprintf("docrep: negative pointer index %d", i))
	}
	return Pointer(i + 1)
}

func (p Pointer) IsNil() bool { return p <= 0 }

// Index returns the index p points to, or -1 if p is nil.
func (p Pointer) Index() int {
	if p.IsNil() {
		return -1
	}
	return int(p) - 1
}

func (p Pointer) String() string {
	if p.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("&%d", p.Index())
}

// Pointers is a collection of pointers into one store.
type Pointers []Pointer

// Slice is a half-open range [Start, Stop) over some external byte buffer.
type Slice struct {
	Start, Stop uint64
}

func (s Slice) Len() uint64 {
	if s.Stop < s.Start {
		return 0
	}
	return s.Stop - s.Start
}

// PointerSlice is a half-open range [Start, Stop) of instances of a store.
type PointerSlice struct {
	Start, Stop int
}

func (s PointerSlice) Len() int {
	if s.Stop < s.Start {
		return 0
	}
	return s.Stop - s.Start
}
