package eval

import (
	"os"

	"github.com/samber/lo"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/query"
)

var getEnvSym = &symbol{
	name: "getenv",
	sig:  "getenv(name string) string",
	bind: func(docrep.Document, int) any {
		return func(k string) string { return os.Getenv(k) }
	},
}

func GetEnv() Symbol {
	return getEnvSym
}

var querySym = &symbol{
	name: "query",
	sig:  "query(src string) bool",
	bind: func(doc docrep.Document, index int) any {
		return func(src string) (bool, error) {
			in, err := query.Compile(src)
			if err != nil {
				return false, err
			}
			return in.Match(doc, index)
		}
	},
}

// Query evaluates a docrep query against the document.
func Query() Symbol {
	return querySym
}

var storesSym = &symbol{
	name: "stores",
	sig:  "stores() []string",
	bind: func(doc docrep.Document, _ int) any {
		return func() []string {
			return lo.Map(doc.Runtime().Root.Stores, func(s *docrep.RTStore, _ int) string { return s.Serial })
		}
	},
}

// Stores lists the store names of the document in wire order.
func Stores() Symbol {
	return storesSym
}

var classSym = &symbol{
	name: "class",
	sig:  "class(store string) string",
	bind: func(doc docrep.Document, _ int) any {
		return func(store string) string {
			if st := doc.Runtime().Store(store); st != nil {
				return st.Class.Serial
			}
			return ""
		}
	},
}

// Class returns the class name of a store, or "" if there is no such store.
func Class() Symbol {
	return classSym
}

var lazySym = &symbol{
	name: "lazy",
	sig:  "lazy(store string) bool",
	bind: func(doc docrep.Document, _ int) any {
		return func(store string) bool {
			st := doc.Runtime().Store(store)
			return st != nil && st.IsLazy()
		}
	},
}

// Lazy reports whether a store was kept undecoded.
func Lazy() Symbol {
	return lazySym
}
