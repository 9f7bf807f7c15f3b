package introspection

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/hanpama/restgraph/internal/ir"
	schema "github.com/hanpama/restgraph/internal/schema"
)

// Schema is the standard introspection shape of a composed document, as
// returned by an introspection query for __schema.
type Schema struct {
	QueryType        *RootType    `json:"queryType"`
	MutationType     *RootType    `json:"mutationType"`
	SubscriptionType *RootType    `json:"subscriptionType"`
	Types            []*FullType  `json:"types"`
	Directives       []*Directive `json:"directives"`
}

type RootType struct {
	Name string `json:"name"`
}

type FullType struct {
	Kind          string        `json:"kind"`
	Name          string        `json:"name"`
	Description   *string       `json:"description"`
	Fields        []*Field      `json:"fields"`
	InputFields   []*InputValue `json:"inputFields"`
	Interfaces    []*TypeRef    `json:"interfaces"`
	EnumValues    []*EnumValue  `json:"enumValues"`
	PossibleTypes []*TypeRef    `json:"possibleTypes"`
}

type Field struct {
	Name              string        `json:"name"`
	Description       *string       `json:"description"`
	Args              []*InputValue `json:"args"`
	Type              *TypeRef      `json:"type"`
	IsDeprecated      bool          `json:"isDeprecated"`
	DeprecationReason *string       `json:"deprecationReason"`
}

type EnumValue struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type InputValue struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Type         *TypeRef `json:"type"`
	DefaultValue *string  `json:"defaultValue"`
}

// TypeRef is a possibly wrapped type reference. Wrappers (LIST, NON_NULL)
// carry OfType, named references carry Name.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

type Directive struct {
	Name         string        `json:"name"`
	Description  *string       `json:"description"`
	Locations    []string      `json:"locations"`
	Args         []*InputValue `json:"args"`
	IsRepeatable bool          `json:"isRepeatable"`
}

// Project computes the introspection shape of a validated document. Types
// keep declaration order and are followed by the built-in scalars. Omitted
// fields are left out, renamed fields appear under their exposed name, and
// fields that failed validation carry the diagnostic in their description.
func Project(doc *ir.Document) *Schema {
	out := &Schema{QueryType: &RootType{Name: doc.Schema.Query}}
	if doc.Schema.Mutation != "" {
		out.MutationType = &RootType{Name: doc.Schema.Mutation}
	}

	for _, def := range doc.Definitions {
		switch {
		case def.Object != nil:
			out.Types = append(out.Types, projectObject(doc, def.Object))
		case def.Input != nil:
			t := &FullType{Kind: "INPUT_OBJECT", Name: def.Input.Name, Description: text(def.Input.Description)}
			for _, f := range def.Input.Fields {
				t.InputFields = append(t.InputFields, projectInputValue(f.Name, f.Description, ir2ref(doc, f.Type), f.DefaultValue))
			}
			out.Types = append(out.Types, t)
		case def.Enum != nil:
			t := &FullType{Kind: "ENUM", Name: def.Enum.Name, Description: text(def.Enum.Description)}
			for _, v := range def.Enum.Values {
				t.EnumValues = append(t.EnumValues, &EnumValue{Name: v})
			}
			out.Types = append(out.Types, t)
		}
	}
	for _, s := range schema.BuiltinScalars() {
		out.Types = append(out.Types, &FullType{Kind: "SCALAR", Name: s.Name, Description: text(s.Description)})
	}

	for _, d := range schema.BuiltinDirectives() {
		pd := &Directive{
			Name:         d.Name,
			Description:  text(d.Description),
			Locations:    d.Locations,
			Args:         []*InputValue{},
			IsRepeatable: d.IsRepeatable,
		}
		for _, a := range d.Arguments {
			pd.Args = append(pd.Args, projectInputValue(a.Name, a.Description, fromSchemaRef(a.Type), a.DefaultValue))
		}
		out.Directives = append(out.Directives, pd)
	}
	return out
}

func projectObject(doc *ir.Document, obj *ir.ObjectTypeDefinition) *FullType {
	t := &FullType{
		Kind:        "OBJECT",
		Name:        obj.Name,
		Description: text(obj.Description),
		Fields:      []*Field{},
		Interfaces:  []*TypeRef{},
	}
	for _, f := range obj.Fields {
		name := f.Name
		if m := f.Modify(); m != nil {
			if m.Omit {
				continue
			}
			if m.Name != "" {
				name = m.Name
			}
		}
		desc := f.Description
		if e := f.ErrorDirective(); e != nil {
			desc = e.Describe(desc)
		}
		pf := &Field{Name: name, Description: text(desc), Args: []*InputValue{}, Type: ir2ref(doc, f.Type)}
		for _, a := range f.Args {
			pf.Args = append(pf.Args, projectInputValue(a.Name, a.Description, ir2ref(doc, a.Type), a.DefaultValue))
		}
		t.Fields = append(t.Fields, pf)
	}
	return t
}

func projectInputValue(name, desc string, t *TypeRef, def any) *InputValue {
	v := &InputValue{Name: name, Description: text(desc), Type: t}
	if def != nil {
		s := schema.FormatValue(def)
		v.DefaultValue = &s
	}
	return v
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ir2ref(doc *ir.Document, t *ir.Type) *TypeRef {
	var ref *TypeRef
	if t.IsList() {
		ref = &TypeRef{Kind: "LIST", OfType: ir2ref(doc, t.OfType)}
	} else {
		name := t.Name
		ref = &TypeRef{Kind: kindOf(doc, name), Name: &name}
	}
	if t.NonNull {
		return &TypeRef{Kind: "NON_NULL", OfType: ref}
	}
	return ref
}

func fromSchemaRef(t *schema.TypeRef) *TypeRef {
	switch {
	case t.IsNonNull():
		return &TypeRef{Kind: "NON_NULL", OfType: fromSchemaRef(t.OfType)}
	case t.IsList():
		return &TypeRef{Kind: "LIST", OfType: fromSchemaRef(t.OfType)}
	}
	name := t.Named
	return &TypeRef{Kind: kindOf(nil, name), Name: &name}
}

func kindOf(doc *ir.Document, name string) string {
	switch {
	case ir.IsScalar(name):
		return "SCALAR"
	case doc != nil && doc.Input(name) != nil:
		return "INPUT_OBJECT"
	case doc != nil && doc.Enum(name) != nil:
		return "ENUM"
	}
	return "OBJECT"
}

// TypeOf converts a projected reference back to a document type.
func TypeOf(ref *TypeRef) *ir.Type {
	if ref == nil {
		return nil
	}
	switch ref.Kind {
	case "NON_NULL":
		inner := TypeOf(ref.OfType)
		if inner == nil {
			return nil
		}
		out := *inner
		out.NonNull = true
		return &out
	case "LIST":
		return ir.ListType(TypeOf(ref.OfType), false)
	}
	if ref.Name == nil {
		return nil
	}
	return ir.NamedType(*ref.Name, false)
}

// Handler serves the projection as an introspection response:
// {"data":{"__schema":...}}.
func Handler(doc *ir.Document) http.Handler {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(map[string]any{
		"data": map[string]any{"__schema": Project(doc)},
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}
