package docrep

import "sync"

// FauxDoc declares no fields or stores, so reading into it keeps the whole
// document lazily and writing it back reproduces it.
type FauxDoc struct {
	Doc
}

var fauxSchema = sync.OnceValue(func() *DocSchema {
	return MustSchemaOf(&FauxDoc{})
})

// FauxSchema returns the schema of FauxDoc.
func FauxSchema() *DocSchema {
	return fauxSchema()
}
