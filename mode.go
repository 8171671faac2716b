package docrep

import "fmt"

// Mode controls how a declared field or store is treated by the reader
// and the writer.
type Mode int

const (
	// ReadWrite fields are decoded and written back from the Go value.
	ReadWrite Mode = iota + 1
	// ReadOnly fields are decoded and their encoded bytes are also kept;
	// the writer re-emits the kept bytes.
	ReadOnly
	// Delete fields are decoded but never written.
	Delete
	// StreamOnly exists on the wire only and cannot be declared.
	StreamOnly
)

func (m Mode) String() string {
	switch m {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	case Delete:
		return "delete"
	case StreamOnly:
		return "stream-only"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode as written in a struct tag.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "rw", "read-write":
		return ReadWrite, nil
	case "ro", "read-only":
		return ReadOnly, nil
	case "delete":
		return Delete, nil
	case "stream-only":
		return 0, fmt.Errorf("mode %q cannot be used in a static declaration", s)
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// FieldKind is the wire shape of a declared field.
type FieldKind int

const (
	KindPrimitive FieldKind = iota
	KindPointer
	KindPointers
	KindSlice
	KindPointerSlice
)

func (k FieldKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindPointer:
		return "pointer"
	case KindPointers:
		return "pointers"
	case KindSlice:
		return "slice"
	case KindPointerSlice:
		return "pointer-slice"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// IsPointer reports whether fields of kind k point into a store.
func (k FieldKind) IsPointer() bool {
	return k == KindPointer || k == KindPointers || k == KindPointerSlice
}

// IsSlice reports whether fields of kind k are written as [start, len].
func (k FieldKind) IsSlice() bool {
	return k == KindSlice || k == KindPointerSlice
}
