// Package libdiff compares docrep documents.
//
// Lines diffs the annotated listings produced by dump.Printer, so every
// field of every store instance shows up as its own line. MergePatch
// produces an RFC 7386 JSON merge patch between the JSON forms of two
// documents; ApplyMergePatch applies one.
package libdiff
