package ir

import (
	"fmt"
	"strconv"
)

// Validate checks the directives of every field in declaration order. A field
// with an invalid combination keeps its @modify but has its data-fetching
// directives replaced by a single @error carrying the diagnostic. The
// diagnostics are returned in the same order.
func Validate(doc *Document) []Diagnostic {
	routes := doc.Routes()
	var diags []Diagnostic

	for _, obj := range doc.Objects() {
		renamed := make(map[string]string, len(obj.Fields))
		for _, f := range obj.Fields {
			traceTo := func(directive string) []string {
				route := routes[obj.Name]
				trace := make([]string, 0, len(route)+2)
				trace = append(trace, route...)
				if len(route) == 1 {
					trace = append(trace, f.Name)
				}
				return append(trace, "@"+directive)
			}

			var diag *Diagnostic
			if c := findConflict(f); c != nil {
				diag = &Diagnostic{Message: c.message(obj.Name, f.Name), Trace: traceTo(c.loser)}
			} else if in := f.Inline(); in != nil {
				if msg := checkInlinePath(doc, obj, in.Path); msg != "" {
					diag = &Diagnostic{Message: msg, Trace: traceTo("inline")}
				}
			}
			if diag == nil {
				if m := f.Modify(); m != nil {
					if msg := checkModify(obj, f, m, renamed); msg != "" {
						diag = &Diagnostic{Message: msg, Trace: traceTo("modify")}
					}
				}
			}

			if diag != nil {
				markFailed(f, *diag)
				diags = append(diags, *diag)
			}
		}
	}
	return diags
}

func markFailed(f *FieldDefinition, d Diagnostic) {
	kept := make([]Directive, 0, len(f.Directives)+1)
	for _, dir := range f.Directives {
		if _, ok := dir.(*Modify); ok {
			kept = append(kept, dir)
		}
	}
	f.Directives = append(kept, &Error{Message: d.Message, Trace: d.Trace})
}

// checkInlinePath walks path through the declared types starting at the
// owner's fields. Only values present in the raw parent can be reached, so
// fields with their own resolver end the walk.
func checkInlinePath(doc *Document, owner *ObjectTypeDefinition, path []string) string {
	cur := owner
	var curType *Type
	for _, seg := range path {
		if _, err := strconv.Atoi(seg); err == nil {
			if !curType.IsList() {
				return messageInlinePathMissing
			}
			curType = curType.OfType
			continue
		}
		if curType != nil {
			if curType.IsList() {
				return messageInlinePathMissing
			}
			cur = doc.Object(curType.Name)
			if cur == nil {
				return messageInlinePathMissing
			}
		}
		f := cur.Field(seg)
		if f == nil {
			return messageInlinePathMissing
		}
		switch {
		case f.Http() != nil:
			return messageInlineBlocked("http", cur.Name, seg)
		case f.Const() != nil:
			return messageInlineBlocked("const", cur.Name, seg)
		}
		curType = f.Type
	}
	return ""
}

func checkModify(obj *ObjectTypeDefinition, f *FieldDefinition, m *Modify, renamed map[string]string) string {
	if m.Omit {
		return ""
	}
	if m.Name == "" {
		return "Modify has no effect"
	}
	if other := obj.Field(m.Name); other != nil && other != f && !vacatesName(other) {
		return fmt.Sprintf("Field '%s' is already defined on type '%s'", m.Name, obj.Name)
	}
	if prev, ok := renamed[m.Name]; ok && prev != f.Name {
		return fmt.Sprintf("Field '%s' is already defined on type '%s'", m.Name, obj.Name)
	}
	renamed[m.Name] = f.Name
	return ""
}

func vacatesName(f *FieldDefinition) bool {
	m := f.Modify()
	return m != nil && (m.Omit || m.Name != "")
}
