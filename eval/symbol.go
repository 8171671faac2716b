package eval

import "github.com/signadot/docrep/go-docrep"

// Symbol is a function made available to expressions.
type Symbol interface {
	String() string
	// Signature describes the arguments and result for listings.
	Signature() string
	// Bind returns the Go function implementing the symbol for one
	// evaluation.
	Bind(doc docrep.Document, index int) any
}

type name string

func (s name) String() string {
	return string(s)
}

type symbol struct {
	name
	sig  string
	bind func(doc docrep.Document, index int) any
}

func (s *symbol) Signature() string { return s.sig }

func (s *symbol) Bind(doc docrep.Document, index int) any { return s.bind(doc, index) }
