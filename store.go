package docrep

import (
	"fmt"
	"iter"
	"reflect"
)

// Store is an ordered collection of annotation instances held by a
// document. T must embed Ann.
type Store[T any] struct {
	items []T
}

func (s *Store[T]) Len() int { return len(s.items) }

// At returns the i'th instance. It panics when i is out of range.
func (s *Store[T]) At(i int) *T { return &s.items[i] }

// Get dereferences p.
func (s *Store[T]) Get(p Pointer) (*T, error) {
	if p.IsNil() {
		return nil, fmt.Errorf("docrep: dereference of nil pointer")
	}
	i := p.Index()
	if i >= len(s.items) {
		return nil, fmt.Errorf("docrep: pointer %d out of range for store of length %d", i, len(s.items))
	}
	return &s.items[i], nil
}

// Append appends v and returns a pointer to it.
func (s *Store[T]) Append(v T) Pointer {
	s.items = append(s.items, v)
	return PointerTo(len(s.items) - 1)
}

// Create appends n zero instances and returns the range they occupy.
func (s *Store[T]) Create(n int) PointerSlice {
	start := len(s.items)
	s.storeResize(start + n)
	return PointerSlice{Start: start, Stop: start + n}
}

// Range returns the instances covered by ps.
func (s *Store[T]) Range(ps PointerSlice) ([]T, error) {
	if ps.Start < 0 || ps.Stop < ps.Start || ps.Stop > len(s.items) {
		return nil, fmt.Errorf("docrep: range [%d, %d) out of bounds for store of length %d", ps.Start, ps.Stop, len(s.items))
	}
	return s.items[ps.Start:ps.Stop], nil
}

// Items returns the backing slice.
func (s *Store[T]) Items() []T { return s.items }

func (s *Store[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := range s.items {
			if !yield(i, &s.items[i]) {
				return
			}
		}
	}
}

func (s *Store[T]) storeLen() int { return len(s.items) }

func (s *Store[T]) storeResize(n int) {
	if n <= cap(s.items) {
		clear(s.items[len(s.items):n])
		s.items = s.items[:n]
		return
	}
	items := make([]T, n)
	copy(items, s.items)
	s.items = items
}

func (s *Store[T]) storeIndex(i int) reflect.Value {
	return reflect.ValueOf(&s.items[i]).Elem()
}

func (s *Store[T]) storeElem() reflect.Type {
	return reflect.TypeFor[T]()
}

// storeAccess is the type-erased view of a Store used by the reader and
// writer.
type storeAccess interface {
	storeLen() int
	storeResize(n int)
	storeIndex(i int) reflect.Value
	storeElem() reflect.Type
}

var storeAccessType = reflect.TypeFor[storeAccess]()
