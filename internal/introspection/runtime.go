package introspection

import (
	"context"

	executor "github.com/hanpama/restgraph/internal/executor"
	schema "github.com/hanpama/restgraph/internal/schema"
)

// Wrapper holds the runtime and the extended schema to execute against.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a Runtime that serves __schema and __type from sch and
// delegates every other field to base.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	rt := &runtime{base: base, schema: sch}
	return &Wrapper{Runtime: rt, Schema: extend(sch)}
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		if v, ok := resolveSchemaField(src, field); ok {
			return v, nil
		}
	case *schema.Type:
		if v, ok := resolveTypeField(src, field); ok {
			return v, nil
		}
	case *schema.TypeRef:
		if v, ok := r.resolveTypeRefField(src, field); ok {
			return v, nil
		}
	case *schema.Field:
		if v, ok := resolveFieldField(src, field); ok {
			return v, nil
		}
	case *schema.InputValue:
		if v, ok := resolveInputValueField(src, field); ok {
			return v, nil
		}
	case *schema.EnumValue:
		if v, ok := resolveEnumValueField(src, field); ok {
			return v, nil
		}
	case *schema.Directive:
		if v, ok := resolveDirectiveField(src, field); ok {
			return v, nil
		}
	}

	if objectType == r.schema.QueryType {
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			if t := r.schema.Types[name]; t != nil {
				return t, nil
			}
			return nil, nil
		}
	}

	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) BeginExecution(ctx context.Context) context.Context {
	if scope, ok := r.base.(executor.ExecutionScope); ok {
		return scope.BeginExecution(ctx)
	}
	return ctx
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return value, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// --- helpers ---

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return sch.OrderedTypes(), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		if t := sch.GetMutationType(); t != nil {
			return t, true
		}
		return nil, true
	case "subscriptionType":
		return nil, true
	case "directives":
		return sch.OrderedDirectives(), true
	case "description":
		return optional(sch.Description), true
	}
	return nil, false
}

func resolveTypeField(t *schema.Type, field string) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optional(t.Description), true
	case "fields":
		if t.Kind != schema.TypeKindObject {
			return nil, true
		}
		return t.Fields, true
	case "interfaces":
		if t.Kind != schema.TypeKindObject {
			return nil, true
		}
		return []*schema.Type{}, true
	case "possibleTypes":
		return nil, true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		return t.EnumValues, true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.InputFields, true
	case "specifiedByURL", "ofType":
		return nil, true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return false, true
	}
	return nil, false
}

// Wrapper types (LIST/NON_NULL) are TypeRef nodes; named refs resolve to
// their definitions.
func (r *runtime) resolveTypeRefField(tr *schema.TypeRef, field string) (any, bool) {
	if !tr.IsNonNull() && !tr.IsList() {
		if def := r.schema.Types[tr.Named]; def != nil {
			return resolveTypeField(def, field)
		}
	}
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return tr.OfType, true
	case "fields", "interfaces", "possibleTypes", "enumValues", "inputFields",
		"name", "description", "specifiedByURL", "isOneOf":
		return nil, true
	}
	return nil, false
}

func resolveFieldField(f *schema.Field, field string) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optional(f.Description), true
	case "args":
		if f.Arguments == nil {
			return []*schema.InputValue{}, true
		}
		return f.Arguments, true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return false, true
	case "deprecationReason":
		return nil, true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optional(a.Description), true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return schema.FormatValue(a.DefaultValue), true
	case "isDeprecated":
		return false, true
	case "deprecationReason":
		return nil, true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optional(ev.Description), true
	case "isDeprecated":
		return false, true
	case "deprecationReason":
		return nil, true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optional(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return d.Locations, true
	case "args":
		if d.Arguments == nil {
			return []*schema.InputValue{}, true
		}
		return d.Arguments, true
	}
	return nil, false
}
