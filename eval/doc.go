// Package eval runs expr-lang expressions against docrep documents.
//
// An expression sees the variables
//
//	doc    the document as a map: fields by wire name, and each store as
//	       a list of instance maps (see dump.Map)
//	index  the position of the document in its stream
//
// plus the registered functions listed by Symbols, such as query, which
// evaluates a docrep query against the same document.
package eval
