package docrep

// ReaderOption configures a Reader.
type ReaderOption func(*readerOpts)

type readerOpts struct {
	maxSection uint64
}

const defaultMaxSection = 1 << 30

// MaxSectionSize bounds the byte size of a single document or store body.
func MaxSectionSize(n uint64) ReaderOption {
	return func(o *readerOpts) { o.maxSection = n }
}

// WriterOption configures a Writer.
type WriterOption func(*writerOpts)

type writerOpts struct {
	dropLazy bool
}

// DropLazy makes the Writer emit only what the static schema declares,
// discarding retained foreign fields and lazy stores.
func DropLazy(v bool) WriterOption {
	return func(o *writerOpts) { o.dropLazy = v }
}
