package schema

var stringType = &Type{
	Name:        "String",
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
}

var intType = &Type{
	Name:        "Int",
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
}

var floatType = &Type{
	Name:        "Float",
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
}

var booleanType = &Type{
	Name:        "Boolean",
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
}

var idType = &Type{
	Name:        "ID",
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

var jsonType = &Type{
	Name:        "JSON",
	Kind:        TypeKindScalar,
	Description: "The `JSON` scalar type carries any JSON value unchanged.",
}

// BuiltinScalars returns the scalar types every schema declares.
func BuiltinScalars() []*Type {
	return []*Type{stringType, intType, floatType, booleanType, idType, jsonType}
}

func isBuiltinType(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType, jsonType:
		return true
	}
	return false
}

func nonNullBoolean() *TypeRef { return NonNullType(NamedType("Boolean")) }

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{Name: "if", Description: "Included when true.", Type: nonNullBoolean()},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{Name: "if", Description: "Skipped when true.", Type: nonNullBoolean()},
	},
	Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
}

// Composition directives. They describe configuration, so clients see them
// in introspection but never send them.
var (
	httpDirective = NewDirective("http", "Resolves the field with an upstream HTTP request.", "FIELD_DEFINITION").
			AddArgument(NewInputValue("path", "Path template appended to the base URL.", NonNullType(NamedType("String")))).
			AddArgument(NewInputValue("baseURL", "Overrides the upstream base URL.", NamedType("String"))).
			AddArgument(NewInputValue("method", "HTTP method.", NamedType("String")).SetDefault("GET")).
			AddArgument(NewInputValue("query", "Query parameters as a list of {key, value}.", NamedType("JSON"))).
			AddArgument(NewInputValue("headers", "Request headers as a list of {key, value}.", NamedType("JSON"))).
			AddArgument(NewInputValue("body", "Request body template.", NamedType("String")))

	constDirective = NewDirective("const", "Resolves the field to a fixed value.", "FIELD_DEFINITION").
			AddArgument(NewInputValue("data", "", NonNullType(NamedType("JSON"))))

	inlineDirective = NewDirective("inline", "Resolves the field by descending into the parent value.", "FIELD_DEFINITION").
			AddArgument(NewInputValue("path", "", NonNullType(ListType(NonNullType(NamedType("String"))))))

	modifyDirective = NewDirective("modify", "Renames or hides the field.", "FIELD_DEFINITION").
			AddArgument(NewInputValue("name", "", NamedType("String"))).
			AddArgument(NewInputValue("omit", "", NamedType("Boolean")))

	errorDirective = NewDirective("error", "Marks a field whose directives could not be composed.", "FIELD_DEFINITION").
			AddArgument(NewInputValue("message", "", NonNullType(NamedType("String")))).
			AddArgument(NewInputValue("trace", "", NonNullType(ListType(NonNullType(NamedType("String"))))))
)

// BuiltinDirectives returns the directives every schema declares, sorted by
// name.
func BuiltinDirectives() []*Directive {
	return []*Directive{constDirective, errorDirective, httpDirective, includeDirective, inlineDirective, modifyDirective, skipDirective}
}

func isBuiltinDirective(d *Directive) bool {
	switch d {
	case includeDirective, skipDirective:
		return true
	}
	return false
}
