package ir

import (
	"strings"

	"github.com/hanpama/restgraph/internal/config"
)

func (b *builder) newFieldDefinition(typeName string, f *config.Field) *FieldDefinition {
	def := &FieldDefinition{
		Name:        f.Name,
		Description: f.Doc,
		Type:        projectType(f.Type, f.List, f.Required, f.ItemRequired),
	}

	argNames := make(map[string]bool, len(f.Args))
	for _, a := range f.Args {
		if strings.HasPrefix(a.Name, "__") {
			b.addViolation(violationReservedName(a.Name, typeName, f.Name, a.Name))
			continue
		}
		if argNames[a.Name] {
			b.addViolation(violationDuplicateArgument(a.Name, typeName, f.Name))
			continue
		}
		argNames[a.Name] = true
		def.Args = append(def.Args, &InputValueDefinition{
			Name:         a.Name,
			Description:  a.Doc,
			Type:         projectType(a.Type, a.List, a.Required, a.ItemRequired),
			DefaultValue: a.Default,
		})
	}

	def.Directives = b.fieldDirectives(typeName, f)
	return def
}

// fieldDirectives keeps the configuration order http, const, inline, modify
// so that the validator sees combinations deterministically.
func (b *builder) fieldDirectives(typeName string, f *config.Field) []Directive {
	var out []Directive
	if f.HTTP != nil {
		out = append(out, &Http{
			Path:    f.HTTP.Path,
			BaseURL: f.HTTP.BaseURL,
			Method:  strings.ToUpper(f.HTTP.Method),
			Query:   keyValues(f.HTTP.Query),
			Headers: keyValues(f.HTTP.Headers),
			Body:    f.HTTP.Body,
			GroupBy: append([]string(nil), f.HTTP.GroupBy...),
		})
	}
	if f.Const != nil {
		out = append(out, &Const{Data: f.Const.Data})
	}
	if f.Inline != nil {
		out = append(out, &Inline{Path: append([]string(nil), f.Inline.Path...)})
	}
	if f.Modify != nil {
		out = append(out, &Modify{Name: f.Modify.Name, Omit: f.Modify.Omit})
	}
	if f.Error != nil {
		b.addViolation(violationErrorDirectiveInInput(typeName, f.Name))
	}
	return out
}

func keyValues(in []config.KeyValue) []KeyValue {
	if len(in) == 0 {
		return nil
	}
	out := make([]KeyValue, len(in))
	for i, kv := range in {
		out[i] = KeyValue{Key: kv.Key, Value: kv.Value}
	}
	return out
}

func (b *builder) checkReferences(doc *Document) error {
	check := func(t *Type, trace ...string) {
		name := t.NamedType()
		if IsScalar(name) || doc.Definition(name) != nil {
			return
		}
		b.addViolation(violationUndeclaredType(name, trace...))
	}
	doc.Walk(Visitor{
		Field: func(owner *ObjectTypeDefinition, f *FieldDefinition) {
			check(f.Type, owner.Name, f.Name)
			if def := doc.Definition(f.Type.NamedType()); def != nil && def.Input != nil {
				b.addViolation(violationInputOutputConflict(def.Input.Name))
			}
		},
		InputValue: func(owner, field string, v *InputValueDefinition) {
			trace := []string{owner}
			if field != "" {
				trace = append(trace, field)
			}
			check(v.Type, append(trace, v.Name)...)
		},
	})
	return b.result()
}
