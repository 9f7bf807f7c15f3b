package executor

import (
	language "github.com/hanpama/restgraph/internal/language"
	schema "github.com/hanpama/restgraph/internal/schema"
)

// fieldGroup is every field node that shares one response name.
type fieldGroup struct {
	responseName string
	fields       []*language.Field
}

// collector merges a selection set into field groups in document order.
// Fragments are expanded at most once per selection set.
type collector struct {
	state    *executionState
	object   *schema.Type
	groups   []fieldGroup
	byName   map[string]int
	expanded map[string]bool
}

func collectFields(state *executionState, object *schema.Type, set language.SelectionSet) []fieldGroup {
	c := &collector{
		state:    state,
		object:   object,
		byName:   make(map[string]int),
		expanded: make(map[string]bool),
	}
	c.collect(set)
	return c.groups
}

func (c *collector) collect(set language.SelectionSet) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.collect(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if !c.included(sel.Directives) || c.expanded[sel.Name] {
				continue
			}
			c.expanded[sel.Name] = true
			def := c.state.document.Fragments.ForName(sel.Name)
			if def == nil || !c.applies(def.TypeCondition) || !c.included(def.Directives) {
				continue
			}
			c.collect(def.SelectionSet)
		}
	}
}

func (c *collector) add(f *language.Field) {
	name := f.Alias
	if name == "" {
		name = f.Name
	}
	if i, ok := c.byName[name]; ok {
		c.groups[i].fields = append(c.groups[i].fields, f)
		return
	}
	c.byName[name] = len(c.groups)
	c.groups = append(c.groups, fieldGroup{responseName: name, fields: []*language.Field{f}})
}

// applies reports whether a fragment with the given type condition selects
// on the current type. Only object types exist, so a condition matches by
// name alone.
func (c *collector) applies(condition string) bool {
	return condition == "" || condition == c.object.Name
}

// included evaluates @skip and @include. A missing or non-boolean "if"
// leaves the node in.
func (c *collector) included(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && c.condition(d) == true {
		return false
	}
	if d := directives.ForName("include"); d != nil && c.condition(d) == false {
		return false
	}
	return true
}

func (c *collector) condition(d *language.Directive) any {
	arg := d.Arguments.ForName("if")
	if arg == nil || arg.Value == nil {
		return nil
	}
	if arg.Value.Kind == language.Variable {
		return c.state.variableValues[arg.Value.Raw]
	}
	return astValueToGo(arg.Value)
}
