package query

// CompileError is returned by Compile for queries that do not lex or
// parse.
type CompileError struct {
	Msg string
	Err error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// RuntimeError is returned when evaluating a query against one document
// fails. The interpreter remains usable for other documents.
type RuntimeError struct {
	Msg string
	Err error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }
