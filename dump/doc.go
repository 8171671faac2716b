// Package dump renders docrep documents for people and for other tools.
//
// [Printer] writes an annotated, optionally coloured listing of every field
// of the document and of every instance of every store, noting the wire
// type of primitives and where pointers and slices point. [JSON] writes
// the same content as a JSON object and [SchemaYAML] describes the runtime
// schema a document was written with.
package dump
