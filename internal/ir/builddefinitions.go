package ir

import (
	"strings"

	"github.com/hanpama/restgraph/internal/config"
)

func (b *builder) classifyInputs() error {
	var visit func(name string)
	visit = func(name string) {
		if b.inputs[name] || IsScalar(name) {
			return
		}
		t := b.cfg.FindType(name)
		if t == nil || t.IsEnum() {
			return
		}
		b.inputs[name] = true
		for _, f := range t.Fields {
			visit(f.Type)
		}
	}
	for _, t := range b.cfg.Types {
		for _, f := range t.Fields {
			for _, a := range f.Args {
				visit(a.Type)
			}
		}
	}

	outputs := make(map[string]bool)
	var visitOutput func(name string)
	visitOutput = func(name string) {
		if outputs[name] || IsScalar(name) {
			return
		}
		t := b.cfg.FindType(name)
		if t == nil || t.IsEnum() {
			return
		}
		outputs[name] = true
		for _, f := range t.Fields {
			visitOutput(f.Type)
		}
	}
	for _, root := range []string{b.cfg.Schema.Query, b.cfg.Schema.Mutation} {
		if root != "" {
			visitOutput(root)
		}
	}

	for _, t := range b.cfg.Types {
		if b.inputs[t.Name] && outputs[t.Name] {
			b.addViolation(violationInputOutputConflict(t.Name))
		}
	}
	return b.result()
}

func (b *builder) populateDefinitions() error {
	for _, t := range b.cfg.Types {
		if b.seen[t.Name] {
			b.addViolation(violationDefinitionAlreadyExists(t.Name))
			continue
		}
		b.seen[t.Name] = true
		if strings.HasPrefix(t.Name, "__") {
			b.addViolation(violationReservedName(t.Name, t.Name))
			continue
		}
		if IsScalar(t.Name) {
			b.addViolation(violationDefinitionAlreadyExists(t.Name))
			continue
		}
		if t.IsEnum() {
			if def := b.newEnumDefinition(t); def != nil {
				b.definitions = append(b.definitions, &Definition{Enum: def})
			}
			continue
		}
		if len(t.Fields) == 0 {
			b.addViolation(violationObjectMustHaveField(t.Name))
			continue
		}

		if b.inputs[t.Name] {
			b.definitions = append(b.definitions, &Definition{Input: b.newInputDefinition(t)})
		} else {
			b.definitions = append(b.definitions, &Definition{Object: b.newObjectDefinition(t)})
		}
	}
	return b.result()
}

func (b *builder) newEnumDefinition(t *config.Type) *EnumTypeDefinition {
	if len(t.Fields) > 0 {
		b.addViolation(violationEnumWithFields(t.Name))
		return nil
	}
	if len(t.Variants) == 0 {
		b.addViolation(violationEnumWithoutVariants(t.Name))
		return nil
	}
	def := &EnumTypeDefinition{Name: t.Name, Description: t.Doc}
	seen := make(map[string]bool, len(t.Variants))
	for _, v := range t.Variants {
		if seen[v] {
			b.addViolation(violationDuplicateEnumValue(v, t.Name))
			continue
		}
		seen[v] = true
		def.Values = append(def.Values, v)
	}
	return def
}

func (b *builder) newObjectDefinition(t *config.Type) *ObjectTypeDefinition {
	def := &ObjectTypeDefinition{Name: t.Name, Description: t.Doc}
	names := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if strings.HasPrefix(f.Name, "__") {
			b.addViolation(violationReservedName(f.Name, t.Name, f.Name))
			continue
		}
		if names[f.Name] {
			b.addViolation(violationDuplicateField(f.Name, t.Name))
			continue
		}
		names[f.Name] = true
		def.Fields = append(def.Fields, b.newFieldDefinition(t.Name, f))
	}
	return def
}

func (b *builder) newInputDefinition(t *config.Type) *InputObjectTypeDefinition {
	def := &InputObjectTypeDefinition{Name: t.Name, Description: t.Doc}
	names := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if names[f.Name] {
			b.addViolation(violationDuplicateField(f.Name, t.Name))
			continue
		}
		names[f.Name] = true
		for _, d := range fieldDirectiveNames(f) {
			b.addViolation(violationInputFieldDirective(d, t.Name, f.Name))
		}
		def.Fields = append(def.Fields, &InputValueDefinition{
			Name:        f.Name,
			Description: f.Doc,
			Type:        projectType(f.Type, f.List, f.Required, f.ItemRequired),
		})
	}
	return def
}

func fieldDirectiveNames(f *config.Field) []string {
	var names []string
	if f.HTTP != nil {
		names = append(names, "http")
	}
	if f.Const != nil {
		names = append(names, "const")
	}
	if f.Inline != nil {
		names = append(names, "inline")
	}
	if f.Modify != nil {
		names = append(names, "modify")
	}
	return names
}

// projectType follows the configuration convention: required applies to the
// outer type, itemRequired to list elements.
func projectType(name string, list, required, itemRequired bool) *Type {
	if list {
		return ListType(NamedType(name, itemRequired), required)
	}
	return NamedType(name, required)
}
