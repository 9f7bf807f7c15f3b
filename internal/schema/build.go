package schema

import (
	"fmt"

	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/resolver"
)

// Build builds the executable schema from a validated document and its
// compiled resolver graph. Field types follow the document; exposed names,
// omissions and sync/async routing follow the graph.
func Build(doc *ir.Document, g *resolver.Graph) (*Schema, error) {
	s := NewSchema("")
	s.SetQueryType(doc.Schema.Query).
		SetMutationType(doc.Schema.Mutation)
	for _, d := range BuiltinDirectives() {
		s.AddDirective(d)
	}

	compiled := make(map[[2]string]*resolver.Field)
	for _, f := range g.Fields() {
		compiled[[2]string{f.TypeName, f.SourceName}] = f
	}

	for _, def := range doc.Definitions {
		switch {
		case def.Object != nil:
			t, err := buildObject(def.Object, compiled)
			if err != nil {
				return nil, err
			}
			s.AddType(t)
		case def.Input != nil:
			s.AddType(buildInput(def.Input))
		case def.Enum != nil:
			t := NewType(def.Enum.Name, TypeKindEnum, def.Enum.Description)
			for _, v := range def.Enum.Values {
				t.AddEnumValue(NewEnumValue(v, ""))
			}
			s.AddType(t)
		}
	}
	for _, t := range BuiltinScalars() {
		s.AddType(t)
	}
	if s.GetQueryType() == nil {
		return nil, fmt.Errorf("query type %q is not defined", s.QueryType)
	}
	return s, nil
}

func buildObject(def *ir.ObjectTypeDefinition, compiled map[[2]string]*resolver.Field) (*Type, error) {
	t := NewType(def.Name, TypeKindObject, def.Description)
	for _, fd := range def.Fields {
		cf := compiled[[2]string{def.Name, fd.Name}]
		if cf == nil {
			return nil, fmt.Errorf("field %s.%s has no compiled resolver", def.Name, fd.Name)
		}
		if cf.Omitted {
			continue
		}
		t.AddField(buildField(fd, cf))
	}
	return t, nil
}

func buildField(def *ir.FieldDefinition, cf *resolver.Field) *Field {
	desc := def.Description
	if failure, ok := cf.Resolver.(*resolver.Failure); ok {
		desc = (&ir.Error{Message: failure.Message, Trace: failure.Trace}).Describe(desc)
	}
	f := NewField(cf.Name, desc, FromIR(def.Type)).
		SetAsync(cf.IsAsync())
	for _, arg := range def.Args {
		f.AddArgument(buildInputValue(arg))
	}
	return f
}

func buildInput(def *ir.InputObjectTypeDefinition) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description)
	for _, v := range def.Fields {
		t.AddInputField(buildInputValue(v))
	}
	return t
}

func buildInputValue(v *ir.InputValueDefinition) *InputValue {
	return NewInputValue(v.Name, v.Description, FromIR(v.Type)).SetDefault(v.DefaultValue)
}

// FromIR converts a document type into a runtime type reference.
func FromIR(t *ir.Type) *TypeRef {
	var ref *TypeRef
	if t.IsList() {
		ref = ListType(FromIR(t.OfType))
	} else {
		ref = NamedType(t.Name)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
