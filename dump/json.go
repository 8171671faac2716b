package dump

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/go-faster/jx"
	"github.com/signadot/docrep/go-docrep"
)

// JSON writes doc as a JSON object in the shape of Map, with fields in
// wire order followed by the stores.
func JSON(w io.Writer, doc docrep.Document, indent int) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(indent)
	if err := EncodeJSON(e, doc); err != nil {
		return err
	}
	if indent > 0 {
		e.RawStr("\n")
	}
	_, err := e.WriteTo(w)
	return err
}

// EncodeJSON appends doc to e.
func EncodeJSON(e *jx.Encoder, doc docrep.Document) error {
	root, err := docrep.Root(doc)
	if err != nil {
		return err
	}
	stores := make(map[string]bool, len(root.Class.Stores))
	for _, st := range root.Class.Stores {
		stores[st.Serial] = true
	}
	fvs, err := root.Fields()
	if err != nil {
		return err
	}
	e.ObjStart()
	for _, fv := range fvs {
		if stores[fv.Field.Serial] {
			continue
		}
		e.FieldStart(fv.Field.Serial)
		EncodeValue(e, Native(fv.Field, fv.Value))
	}
	for _, st := range root.Class.Stores {
		insts, err := docrep.Instances(doc, st)
		if err != nil {
			return err
		}
		e.FieldStart(st.Serial)
		e.ArrStart()
		for _, inst := range insts {
			if err := encodeInstance(e, inst); err != nil {
				return err
			}
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	return nil
}

func encodeInstance(e *jx.Encoder, inst docrep.Instance) error {
	fvs, err := inst.Fields()
	if err != nil {
		return err
	}
	e.ObjStart()
	for _, fv := range fvs {
		e.FieldStart(fv.Field.Serial)
		EncodeValue(e, Native(fv.Field, fv.Value))
	}
	e.ObjEnd()
	return nil
}

// EncodeValue appends a value as returned by Native or Map, or by an
// expression over them, to e. Map keys are sorted.
func EncodeValue(e *jx.Encoder, v any) {
	switch v := v.(type) {
	case nil:
		e.Null()
	case bool:
		e.Bool(v)
	case int:
		e.Int(v)
	case int64:
		e.Int64(v)
	case uint64:
		e.UInt64(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e.Str(fmt.Sprint(v))
			return
		}
		e.Float64(v)
	case string:
		e.Str(v)
	case []string:
		e.ArrStart()
		for _, x := range v {
			e.Str(x)
		}
		e.ArrEnd()
	case []any:
		e.ArrStart()
		for _, x := range v {
			EncodeValue(e, x)
		}
		e.ArrEnd()
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		e.ObjStart()
		for _, k := range keys {
			e.FieldStart(k)
			EncodeValue(e, v[k])
		}
		e.ObjEnd()
	default:
		e.Str(fmt.Sprint(v))
	}
}
