// Package query compiles and evaluates the docrep query language, a small
// expression language over the fields and stores of a document.
//
// # Grammar
//
//	e1 ::= e2 (("&&" | "||") e1)?
//	e2 ::= e3 (("==" | "!=" | "<=" | "<" | ">=" | ">" | "~=" | "~") e3)?
//	e3 ::= e4 (("+" | "-" | "%") e3)?
//	e4 ::= e5 (("*" | "/") e4)?
//	e5 ::= function "(" (e1 ("," e1)*)? ")"
//	     | var ("." attribute)?
//	     | "(" e1 ")"
//	     | integer | /regex/ | "string"
//
// Binary operators are right associative within a tier. The variables
// doc and index are bound for every document; any and all bind ann to
// each instance of the store they iterate.
//
// # Usage
//
//	q, err := query.Compile(`any(doc.tokens, ann.raw == "hello")`)
//	...
//	ok, err := q.Match(doc, index)
//
// # Related Packages
//
//   - github.com/signadot/docrep/go-docrep - documents and runtime schemas
package query
