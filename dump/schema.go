package dump

import (
	"io"

	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"github.com/signadot/docrep/go-docrep"
)

// SchemaDoc is the YAML form of a runtime schema.
type SchemaDoc struct {
	Classes []SchemaClass `yaml:"classes"`
	Stores  []SchemaStore `yaml:"stores,omitempty"`
}

type SchemaClass struct {
	Name string `yaml:"name"`
	// Declared is the Go type the class was read into, if any.
	Declared string        `yaml:"declared,omitempty"`
	Fields   []SchemaField `yaml:"fields,omitempty"`
}

type SchemaField struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Into     string `yaml:"into,omitempty"`
	Self     bool   `yaml:"self,omitempty"`
	Declared string `yaml:"declared,omitempty"`
	Mode     string `yaml:"mode,omitempty"`
}

type SchemaStore struct {
	Name     string `yaml:"name"`
	Class    string `yaml:"class"`
	Size     int    `yaml:"size"`
	Lazy     bool   `yaml:"lazy,omitempty"`
	Declared string `yaml:"declared,omitempty"`
}

// Schema describes the runtime schema of doc.
func Schema(doc docrep.Document) (*SchemaDoc, error) {
	rt := doc.Runtime()
	if rt == nil {
		return nil, docrep.ErrNoRuntime
	}
	res := &SchemaDoc{
		Classes: lo.Map(rt.Classes, func(c *docrep.RTClass, _ int) SchemaClass {
			sc := SchemaClass{Name: c.Serial, Fields: lo.Map(c.Fields, schemaField)}
			if c.Def != nil {
				sc.Declared = c.Def.Name
			}
			return sc
		}),
		Stores: lo.Map(rt.Root.Stores, func(s *docrep.RTStore, _ int) SchemaStore {
			ss := SchemaStore{Name: s.Serial, Class: s.Class.Serial, Size: s.NElem, Lazy: s.IsLazy()}
			if s.Def != nil {
				ss.Declared = s.Def.Name
			}
			return ss
		}),
	}
	return res, nil
}

func schemaField(f *docrep.RTField, _ int) SchemaField {
	sf := SchemaField{Name: f.Serial, Kind: f.Kind().String(), Self: f.IsSelfPointer}
	if f.Target != nil {
		sf.Into = f.Target.Serial
	}
	if f.Def != nil {
		sf.Declared = f.Def.Name
		sf.Mode = f.Def.Mode.String()
	}
	return sf
}

// SchemaYAML writes the runtime schema of doc as YAML.
func SchemaYAML(w io.Writer, doc docrep.Document) error {
	s, err := Schema(doc)
	if err != nil {
		return err
	}
	d, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(d)
	return err
}
