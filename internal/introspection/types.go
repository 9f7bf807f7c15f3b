package introspection

import (
	schema "github.com/hanpama/restgraph/internal/schema"
)

// extend returns a copy of sch with the introspection types registered and
// __schema/__type added to the query type.
func extend(sch *schema.Schema) *schema.Schema {
	ext := sch.Clone()
	for _, t := range metaTypes() {
		ext.AddType(t)
	}

	if q := sch.GetQueryType(); q != nil {
		fields := make([]*schema.Field, len(q.Fields), len(q.Fields)+2)
		copy(fields, q.Fields)
		query := schema.NewType(q.Name, q.Kind, q.Description)
		query.Fields = fields
		query.AddField(schema.NewField("__schema", "Access the current type schema of this server.", nonNull(named("__Schema")))).
			AddField(schema.NewField("__type", "Request the type information of a single type.", named("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.", nonNull(named("String")))))
		ext.AddType(query)
	}
	return ext
}

func named(name string) *schema.TypeRef                  { return schema.NamedType(name) }
func nonNull(t *schema.TypeRef) *schema.TypeRef          { return schema.NonNullType(t) }
func list(t *schema.TypeRef) *schema.TypeRef             { return schema.ListType(t) }
func nonNullList(name string) *schema.TypeRef            { return nonNull(list(nonNull(named(name)))) }
func nullableList(name string) *schema.TypeRef           { return list(nonNull(named(name))) }
func field(name string, t *schema.TypeRef) *schema.Field { return schema.NewField(name, "", t) }

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", named("Boolean")).SetDefault(false)
}

// metaTypes declares the introspection types. Deprecation, interfaces and
// possible types are part of the standard shape and always empty here.
func metaTypes() []*schema.Type {
	schemaT := schema.NewType("__Schema", schema.TypeKindObject, "A GraphQL Schema defines the capabilities of a GraphQL server.").
		AddField(schema.NewField("description", "", named("String"))).
		AddField(schema.NewField("types", "A list of all types supported by this server.", nonNullList("__Type"))).
		AddField(schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull(named("__Type")))).
		AddField(schema.NewField("mutationType", "If this server supports mutation, the type that mutation operations will be rooted at.", named("__Type"))).
		AddField(schema.NewField("subscriptionType", "Always null: subscriptions are not served.", named("__Type"))).
		AddField(schema.NewField("directives", "A list of all directives supported by this server.", nonNullList("__Directive")))

	typeT := schema.NewType("__Type", schema.TypeKindObject, "The fundamental unit of any GraphQL Schema is the type.").
		AddField(field("kind", nonNull(named("__TypeKind")))).
		AddField(field("name", named("String"))).
		AddField(field("description", named("String"))).
		AddField(field("specifiedByURL", named("String"))).
		AddField(field("fields", nullableList("__Field")).AddArgument(includeDeprecated())).
		AddField(field("interfaces", nullableList("__Type"))).
		AddField(field("possibleTypes", nullableList("__Type"))).
		AddField(field("enumValues", nullableList("__EnumValue")).AddArgument(includeDeprecated())).
		AddField(field("inputFields", nullableList("__InputValue")).AddArgument(includeDeprecated())).
		AddField(field("ofType", named("__Type"))).
		AddField(field("isOneOf", named("Boolean")))

	fieldT := schema.NewType("__Field", schema.TypeKindObject, "").
		AddField(field("name", nonNull(named("String")))).
		AddField(field("description", named("String"))).
		AddField(field("args", nonNullList("__InputValue")).AddArgument(includeDeprecated())).
		AddField(field("type", nonNull(named("__Type")))).
		AddField(field("isDeprecated", nonNull(named("Boolean")))).
		AddField(field("deprecationReason", named("String")))

	inputValueT := schema.NewType("__InputValue", schema.TypeKindObject, "").
		AddField(field("name", nonNull(named("String")))).
		AddField(field("description", named("String"))).
		AddField(field("type", nonNull(named("__Type")))).
		AddField(field("defaultValue", named("String"))).
		AddField(field("isDeprecated", nonNull(named("Boolean")))).
		AddField(field("deprecationReason", named("String")))

	enumValueT := schema.NewType("__EnumValue", schema.TypeKindObject, "").
		AddField(field("name", nonNull(named("String")))).
		AddField(field("description", named("String"))).
		AddField(field("isDeprecated", nonNull(named("Boolean")))).
		AddField(field("deprecationReason", named("String")))

	directiveT := schema.NewType("__Directive", schema.TypeKindObject, "").
		AddField(field("name", nonNull(named("String")))).
		AddField(field("description", named("String"))).
		AddField(field("isRepeatable", nonNull(named("Boolean")))).
		AddField(field("locations", nonNullList("__DirectiveLocation"))).
		AddField(field("args", nonNullList("__InputValue")).AddArgument(includeDeprecated()))

	typeKind := schema.NewType("__TypeKind", schema.TypeKindEnum, "")
	for _, k := range []string{"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"} {
		typeKind.AddEnumValue(schema.NewEnumValue(k, ""))
	}

	location := schema.NewType("__DirectiveLocation", schema.TypeKindEnum, "")
	for _, l := range []string{
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT", "INPUT_FIELD_DEFINITION",
	} {
		location.AddEnumValue(schema.NewEnumValue(l, ""))
	}

	return []*schema.Type{schemaT, typeT, fieldT, inputValueT, enumValueT, directiveT, typeKind, location}
}
