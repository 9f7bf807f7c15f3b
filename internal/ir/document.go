package ir

// Definition returns the definition named name, or nil.
func (d *Document) Definition(name string) *Definition {
	return d.index[name]
}

func (d *Document) Object(name string) *ObjectTypeDefinition {
	if def := d.index[name]; def != nil {
		return def.Object
	}
	return nil
}

func (d *Document) Input(name string) *InputObjectTypeDefinition {
	if def := d.index[name]; def != nil {
		return def.Input
	}
	return nil
}

func (d *Document) Enum(name string) *EnumTypeDefinition {
	if def := d.index[name]; def != nil {
		return def.Enum
	}
	return nil
}

// IsLeaf reports whether name is a built-in scalar or a declared enum.
func (d *Document) IsLeaf(name string) bool {
	return IsScalar(name) || d.Enum(name) != nil
}

// Enums returns enum definitions in declaration order.
func (d *Document) Enums() []*EnumTypeDefinition {
	var out []*EnumTypeDefinition
	for _, def := range d.Definitions {
		if def.Enum != nil {
			out = append(out, def.Enum)
		}
	}
	return out
}

// Field returns the field fieldName of the object type typeName, or nil.
func (d *Document) Field(typeName, fieldName string) *FieldDefinition {
	if obj := d.Object(typeName); obj != nil {
		return obj.Field(fieldName)
	}
	return nil
}

// Objects returns object definitions in declaration order.
func (d *Document) Objects() []*ObjectTypeDefinition {
	out := make([]*ObjectTypeDefinition, 0, len(d.Definitions))
	for _, def := range d.Definitions {
		if def.Object != nil {
			out = append(out, def.Object)
		}
	}
	return out
}

// Visitor receives the nodes of a Walk. Any callback may be nil.
type Visitor struct {
	Definition func(*Definition)
	Field      func(owner *ObjectTypeDefinition, f *FieldDefinition)
	InputValue func(owner string, field string, v *InputValueDefinition)
}

// Walk visits definitions, their fields and arguments depth-first in
// declaration order.
func (d *Document) Walk(v Visitor) {
	for _, def := range d.Definitions {
		if v.Definition != nil {
			v.Definition(def)
		}
		switch {
		case def.Object != nil:
			for _, f := range def.Object.Fields {
				if v.Field != nil {
					v.Field(def.Object, f)
				}
				if v.InputValue != nil {
					for _, a := range f.Args {
						v.InputValue(def.Object.Name, f.Name, a)
					}
				}
			}
		case def.Input != nil:
			if v.InputValue != nil {
				for _, f := range def.Input.Fields {
					v.InputValue(def.Input.Name, "", f)
				}
			}
		}
	}
}

// Routes maps every object type to the first depth-first route of field
// names that reaches it from the root operation types, starting with the
// root type name. Unreachable types map to a route holding only their name.
func (d *Document) Routes() map[string][]string {
	routes := make(map[string][]string)
	var visit func(name string, route []string)
	visit = func(name string, route []string) {
		obj := d.Object(name)
		if obj == nil {
			return
		}
		if _, seen := routes[name]; seen {
			return
		}
		routes[name] = route
		for _, f := range obj.Fields {
			next := make([]string, len(route)+1)
			copy(next, route)
			next[len(route)] = f.Name
			visit(f.Type.NamedType(), next)
		}
	}
	for _, root := range []string{d.Schema.Query, d.Schema.Mutation} {
		if root != "" {
			visit(root, []string{root})
		}
	}
	for _, obj := range d.Objects() {
		if _, ok := routes[obj.Name]; !ok {
			routes[obj.Name] = []string{obj.Name}
		}
	}
	return routes
}

func (d *Document) reindex() {
	d.index = make(map[string]*Definition, len(d.Definitions))
	for _, def := range d.Definitions {
		d.index[def.Name()] = def
		if def.Object != nil {
			def.Object.fieldIndex = make(map[string]*FieldDefinition, len(def.Object.Fields))
			for _, f := range def.Object.Fields {
				def.Object.fieldIndex[f.Name] = f
			}
		}
	}
}

// NewDocument assembles a Document from already-built definitions.
func NewDocument(schema SchemaDefinition, upstream Upstream, defs ...*Definition) *Document {
	d := &Document{Schema: schema, Upstream: upstream, Definitions: defs}
	d.reindex()
	return d
}
