// Package debug holds env-toggled diagnostics for docrep.
//
// Each concern is enabled by a boolean environment variable:
//
//	DR_DEBUG_READ    reader sections and lazy captures
//	DR_DEBUG_WRITE   writer schema and sections
//	DR_DEBUG_SCHEMA  runtime schema reconciliation
//	DR_DEBUG_QUERY   query compilation and evaluation
//	DR_DEBUG_EVAL    expression projections
//
// Output goes to stderr through a zap logger whose level is taken from
// DR_LOG_LEVEL (default debug when any toggle is set).
package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Read   bool
	Write  bool
	Schema bool
	Query  bool
	Eval   bool
}

var d *debug

func init() {
	d = &debug{}
	d.Read = boolEnv("DR_DEBUG_READ")
	d.Write = boolEnv("DR_DEBUG_WRITE")
	d.Schema = boolEnv("DR_DEBUG_SCHEMA")
	d.Query = boolEnv("DR_DEBUG_QUERY")
	d.Eval = boolEnv("DR_DEBUG_EVAL")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Read() bool {
	return d.Read
}
func Write() bool {
	return d.Write
}
func Schema() bool {
	return d.Schema
}
func Query() bool {
	return d.Query
}
func Eval() bool {
	return d.Eval
}

// Enable turns on every toggle; used by the -debug flag of the dr tool.
func Enable() {
	d.Read = true
	d.Write = true
	d.Schema = true
	d.Query = true
	d.Eval = true
}
