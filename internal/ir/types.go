package ir

import (
	"fmt"
	"strings"
)

// Document is the typed representation of a composed schema. Definitions
// keep declaration order; lookups by name go through the index.
type Document struct {
	Schema      SchemaDefinition  `json:"schema"`
	Upstream    Upstream          `json:"upstream"`
	Vars        map[string]string `json:"vars,omitempty"`
	Definitions []*Definition     `json:"definitions"`

	index map[string]*Definition
}

type SchemaDefinition struct {
	Query    string `json:"query"`
	Mutation string `json:"mutation,omitempty"`
}

type Upstream struct {
	BaseURL         string   `json:"baseURL,omitempty"`
	EnableHTTPCache bool     `json:"enableHttpCache,omitempty"`
	CacheKeyHeaders []string `json:"cacheKeyHeaders,omitempty"`
	ForwardHeaders  []string `json:"forwardHeaders,omitempty"`
}

// Definition holds exactly one of its members.
type Definition struct {
	Object *ObjectTypeDefinition      `json:"object,omitempty"`
	Input  *InputObjectTypeDefinition `json:"input,omitempty"`
	Enum   *EnumTypeDefinition        `json:"enum,omitempty"`
}

func (d *Definition) Name() string {
	switch {
	case d.Object != nil:
		return d.Object.Name
	case d.Input != nil:
		return d.Input.Name
	case d.Enum != nil:
		return d.Enum.Name
	}
	return ""
}

// EnumTypeDefinition is usable in both input and output positions. Values
// serialize as their names.
type EnumTypeDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Values      []string `json:"values"`
}

func (e *EnumTypeDefinition) Has(value string) bool {
	for _, v := range e.Values {
		if v == value {
			return true
		}
	}
	return false
}

type ObjectTypeDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Fields      []*FieldDefinition `json:"fields"`

	fieldIndex map[string]*FieldDefinition
}

// Field returns the field declared under name, or nil.
func (o *ObjectTypeDefinition) Field(name string) *FieldDefinition {
	return o.fieldIndex[name]
}

type InputObjectTypeDefinition struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Fields      []*InputValueDefinition `json:"fields"`
}

func (i *InputObjectTypeDefinition) Field(name string) *InputValueDefinition {
	for _, f := range i.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type FieldDefinition struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Args        []*InputValueDefinition `json:"args,omitempty"`
	Type        *Type                   `json:"type"`
	Directives  []Directive             `json:"-"`
}

func (f *FieldDefinition) Arg(name string) *InputValueDefinition {
	for _, a := range f.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type InputValueDefinition struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Type         *Type  `json:"type"`
	DefaultValue any    `json:"defaultValue,omitempty"`
}

// Type is either a named type (Name set) or a list (OfType set). Each level
// carries its own nullability, so [String!]! is
// {OfType: {Name: "String", NonNull: true}, NonNull: true}.
type Type struct {
	Name    string `json:"name,omitempty"`
	OfType  *Type  `json:"ofType,omitempty"`
	NonNull bool   `json:"nonNull,omitempty"`
}

func NamedType(name string, nonNull bool) *Type {
	return &Type{Name: name, NonNull: nonNull}
}

func ListType(of *Type, nonNull bool) *Type {
	return &Type{OfType: of, NonNull: nonNull}
}

func (t *Type) IsList() bool {
	return t != nil && t.OfType != nil
}

// NamedType returns the innermost type name.
func (t *Type) NamedType() string {
	if t == nil {
		return ""
	}
	if t.OfType != nil {
		return t.OfType.NamedType()
	}
	return t.Name
}

func (t *Type) String() string {
	if t == nil {
		return "Unknown"
	}
	var sb strings.Builder
	if t.OfType != nil {
		sb.WriteString("[" + t.OfType.String() + "]")
	} else {
		sb.WriteString(t.Name)
	}
	if t.NonNull {
		sb.WriteString("!")
	}
	return sb.String()
}

// Directive is one of *Http, *Const, *Inline, *Modify or *Error.
type Directive interface {
	DirectiveName() string
	isDirective()
}

type Http struct {
	Path    string     `json:"path"`
	BaseURL string     `json:"baseURL,omitempty"`
	Method  string     `json:"method,omitempty"`
	Query   []KeyValue `json:"query,omitempty"`
	Headers []KeyValue `json:"headers,omitempty"`
	Body    string     `json:"body,omitempty"`
	GroupBy []string   `json:"groupBy,omitempty"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Const struct {
	Data any `json:"data"`
}

type Inline struct {
	Path []string `json:"path"`
}

type Modify struct {
	Name string `json:"name,omitempty"`
	Omit bool   `json:"omit,omitempty"`
}

// Error is attached by Validate only. A field carrying it always fails with
// the stored message.
type Error struct {
	Message string   `json:"message"`
	Trace   []string `json:"trace"`
}

// Describe appends the failure to a field description.
func (e *Error) Describe(doc string) string {
	note := fmt.Sprintf("Error: %s (trace: %s)", e.Message, strings.Join(e.Trace, "."))
	if doc == "" {
		return note
	}
	return doc + "\n\n" + note
}

func (*Http) DirectiveName() string   { return "http" }
func (*Const) DirectiveName() string  { return "const" }
func (*Inline) DirectiveName() string { return "inline" }
func (*Modify) DirectiveName() string { return "modify" }
func (*Error) DirectiveName() string  { return "error" }

func (*Http) isDirective()   {}
func (*Const) isDirective()  {}
func (*Inline) isDirective() {}
func (*Modify) isDirective() {}
func (*Error) isDirective()  {}

// IsDataFetching reports whether d decides how a field obtains its value.
func IsDataFetching(d Directive) bool {
	switch d.(type) {
	case *Http, *Const, *Inline:
		return true
	}
	return false
}

func (f *FieldDefinition) directive(name string) Directive {
	for _, d := range f.Directives {
		if d.DirectiveName() == name {
			return d
		}
	}
	return nil
}

func (f *FieldDefinition) Http() *Http {
	d, _ := f.directive("http").(*Http)
	return d
}

func (f *FieldDefinition) Const() *Const {
	d, _ := f.directive("const").(*Const)
	return d
}

func (f *FieldDefinition) Inline() *Inline {
	d, _ := f.directive("inline").(*Inline)
	return d
}

func (f *FieldDefinition) Modify() *Modify {
	d, _ := f.directive("modify").(*Modify)
	return d
}

func (f *FieldDefinition) ErrorDirective() *Error {
	d, _ := f.directive("error").(*Error)
	return d
}

// HasResolver reports whether the field produces its own value rather than
// reading it from the parent.
func (f *FieldDefinition) HasResolver() bool {
	return f.Http() != nil || f.Const() != nil
}
