package docrep

import (
	"fmt"
	"reflect"

	"github.com/iancoleman/strcase"
)

// MetaClass is the wire name of the document root class.
const MetaClass = "__meta__"

// DocSchema is the static schema of a document type.
type DocSchema struct {
	Type    reflect.Type
	Root    *ClassDef
	Stores  []*StoreDef
	Classes []*ClassDef
}

// ClassDef describes a document or annotation struct type.
type ClassDef struct {
	Name   string
	Serial string
	Type   reflect.Type
	Fields []*FieldDef
}

// FieldDef describes one declared field. Serial is the name used on the
// wire and may be changed before reading or writing.
type FieldDef struct {
	Name   string
	Serial string
	Help   string
	Mode   Mode
	Kind   FieldKind
	Type   reflect.Type
	// Target is the store pointer kinds point into.
	Target *StoreDef

	index  []int
	target string
}

// StoreDef describes one Store field of the document type.
type StoreDef struct {
	Name   string
	Serial string
	Help   string
	Mode   Mode
	Class  *ClassDef

	index []int
}

var (
	docType          = reflect.TypeFor[Doc]()
	annType          = reflect.TypeFor[Ann]()
	pointerType      = reflect.TypeFor[Pointer]()
	pointersType     = reflect.TypeFor[Pointers]()
	sliceType        = reflect.TypeFor[Slice]()
	pointerSliceType = reflect.TypeFor[PointerSlice]()
)

// SchemaOf builds the static schema of the type of doc, which must be a
// pointer to a struct embedding Doc.
func SchemaOf(doc Document) (*DocSchema, error) {
	t := reflect.TypeOf(doc)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("docrep: %s is not a pointer to a struct", t)
	}
	b := &schemaBuilder{byType: map[reflect.Type]*ClassDef{}}
	return b.build(t.Elem())
}

// MustSchemaOf is SchemaOf that panics on error.
func MustSchemaOf(doc Document) *DocSchema {
	s, err := SchemaOf(doc)
	if err != nil {
		panic(err)
	}
	return s
}

// New allocates a zero document of the schema's type.
func (s *DocSchema) New() Document {
	return reflect.New(s.Type).Interface().(Document)
}

// Field returns the root field with the given Go or serial name.
func (s *DocSchema) Field(name string) *FieldDef {
	return s.Root.Field(name)
}

// Store returns the store with the given Go or serial name.
func (s *DocSchema) Store(name string) *StoreDef {
	for _, sd := range s.Stores {
		if sd.Name == name || sd.Serial == name {
			return sd
		}
	}
	return nil
}

// Class returns the annotation class with the given Go or serial name.
func (s *DocSchema) Class(name string) *ClassDef {
	for _, c := range s.Classes {
		if c.Name == name || c.Serial == name {
			return c
		}
	}
	return nil
}

// Field returns the field with the given Go or serial name.
func (c *ClassDef) Field(name string) *FieldDef {
	for _, f := range c.Fields {
		if f.Name == name || f.Serial == name {
			return f
		}
	}
	return nil
}

// Validate checks that serial names are unique. SchemaOf validates the
// schema it returns; call Validate again after renaming.
func (s *DocSchema) Validate() error {
	classes := map[string]*ClassDef{MetaClass: s.Root}
	for _, c := range s.Classes {
		if c.Serial == MetaClass {
			return fmt.Errorf("docrep: class %s cannot use the reserved name %q", c.Name, MetaClass)
		}
		if prev, ok := classes[c.Serial]; ok {
			return fmt.Errorf("docrep: classes %s and %s share serial name %q", prev.Name, c.Name, c.Serial)
		}
		classes[c.Serial] = c
	}
	for _, c := range append([]*ClassDef{s.Root}, s.Classes...) {
		seen := map[string]string{}
		for _, f := range c.Fields {
			if prev, ok := seen[f.Serial]; ok {
				return fmt.Errorf("docrep: fields %s and %s of class %s share serial name %q", prev, f.Name, c.Serial, f.Serial)
			}
			seen[f.Serial] = f.Name
		}
		if c != s.Root {
			continue
		}
		for _, sd := range s.Stores {
			if prev, ok := seen[sd.Serial]; ok {
				return fmt.Errorf("docrep: store %s and %s of the document share serial name %q", sd.Name, prev, sd.Serial)
			}
			seen[sd.Serial] = sd.Name
		}
	}
	return nil
}

type schemaBuilder struct {
	byType map[reflect.Type]*ClassDef
	s      *DocSchema
}

func (b *schemaBuilder) build(t reflect.Type) (*DocSchema, error) {
	b.s = &DocSchema{Type: t}
	root := &ClassDef{Name: t.Name(), Serial: MetaClass, Type: t}
	b.s.Root = root
	embedded := false
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == docType {
			embedded = true
			continue
		}
		if !sf.IsExported() {
			continue
		}
		ft, err := parseFieldTag(sf.Tag.Get(TagKey))
		if err != nil {
			return nil, fmt.Errorf("docrep: %s.%s: %w", t.Name(), sf.Name, err)
		}
		if ft.skip {
			continue
		}
		if reflect.PointerTo(sf.Type).Implements(storeAccessType) {
			sd, err := b.store(sf, ft)
			if err != nil {
				return nil, fmt.Errorf("docrep: %s.%s: %w", t.Name(), sf.Name, err)
			}
			b.s.Stores = append(b.s.Stores, sd)
			continue
		}
		fd, err := fieldDef(sf, ft)
		if err != nil {
			return nil, fmt.Errorf("docrep: %s.%s: %w", t.Name(), sf.Name, err)
		}
		root.Fields = append(root.Fields, fd)
	}
	if !embedded {
		return nil, fmt.Errorf("docrep: %s does not embed docrep.Doc", t)
	}
	for _, c := range append([]*ClassDef{root}, b.s.Classes...) {
		for _, fd := range c.Fields {
			if err := b.resolveTarget(c, fd); err != nil {
				return nil, err
			}
		}
	}
	if err := b.s.Validate(); err != nil {
		return nil, err
	}
	return b.s, nil
}

func (b *schemaBuilder) store(sf reflect.StructField, ft *fieldTag) (*StoreDef, error) {
	if ft.store != "" || ft.class != "" {
		return nil, fmt.Errorf("store fields take no store= or class= key")
	}
	if ft.mode == Delete || ft.mode == ReadOnly {
		return nil, fmt.Errorf("stores cannot be declared %s", ft.mode)
	}
	elem := reflect.New(sf.Type).Interface().(storeAccess).storeElem()
	c, err := b.class(elem)
	if err != nil {
		return nil, err
	}
	serial := ft.serial
	if serial == "" {
		serial = strcase.ToSnake(sf.Name)
	}
	return &StoreDef{
		Name:   sf.Name,
		Serial: serial,
		Help:   ft.help,
		Mode:   ft.mode,
		Class:  c,
		index:  sf.Index,
	}, nil
}

func (b *schemaBuilder) class(t reflect.Type) (*ClassDef, error) {
	if c, ok := b.byType[t]; ok {
		return c, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("store element %s is not a struct", t)
	}
	c := &ClassDef{Name: t.Name(), Serial: t.Name(), Type: t}
	embedded := false
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == annType {
			embedded = true
			ft, err := parseFieldTag(sf.Tag.Get(TagKey))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Name(), err)
			}
			if ft.class != "" {
				c.Serial = ft.class
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		ft, err := parseFieldTag(sf.Tag.Get(TagKey))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		if ft.skip {
			continue
		}
		if reflect.PointerTo(sf.Type).Implements(storeAccessType) {
			return nil, fmt.Errorf("%s.%s: stores can only be declared on the document", t.Name(), sf.Name)
		}
		fd, err := fieldDef(sf, ft)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		c.Fields = append(c.Fields, fd)
	}
	if !embedded {
		return nil, fmt.Errorf("store element %s does not embed docrep.Ann", t)
	}
	b.byType[t] = c
	b.s.Classes = append(b.s.Classes, c)
	return c, nil
}

func fieldDef(sf reflect.StructField, ft *fieldTag) (*FieldDef, error) {
	kind, ok := kindOf(sf.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported field type %s", sf.Type)
	}
	if ft.class != "" {
		return nil, fmt.Errorf("class= is only valid on the embedded docrep.Ann")
	}
	if kind.IsPointer() && ft.store == "" {
		return nil, fmt.Errorf("%s field needs a store= key", kind)
	}
	if !kind.IsPointer() && ft.store != "" {
		return nil, fmt.Errorf("store= is only valid on pointer fields")
	}
	serial := ft.serial
	if serial == "" {
		serial = strcase.ToSnake(sf.Name)
	}
	return &FieldDef{
		Name:   sf.Name,
		Serial: serial,
		Help:   ft.help,
		Mode:   ft.mode,
		Kind:   kind,
		Type:   sf.Type,
		index:  sf.Index,
		target: ft.store,
	}, nil
}

func (b *schemaBuilder) resolveTarget(c *ClassDef, fd *FieldDef) error {
	if !fd.Kind.IsPointer() {
		return nil
	}
	fd.Target = b.s.Store(fd.target)
	if fd.Target == nil {
		return fmt.Errorf("docrep: %s.%s points into unknown store %q", c.Name, fd.Name, fd.target)
	}
	return nil
}

func kindOf(t reflect.Type) (FieldKind, bool) {
	switch t {
	case pointerType:
		return KindPointer, true
	case pointersType:
		return KindPointers, true
	case sliceType:
		return KindSlice, true
	case pointerSliceType:
		return KindPointerSlice, true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindPrimitive, true
	case reflect.Slice:
		return KindPrimitive, t.Elem().Kind() == reflect.Uint8
	}
	return 0, false
}
