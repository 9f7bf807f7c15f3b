// Package resolver compiles a validated document into the resolver graph the
// runtime executes. Every output field maps to exactly one Resolver.
package resolver

import (
	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/mustache"
)

// Resolver is one of *Http, *Const, *Inline, *Failure or *Passthrough.
type Resolver interface {
	isResolver()
}

// Http fetches the field from an upstream endpoint. The request URL is
// BaseURL followed by the rendered Path and Query.
type Http struct {
	Method  string
	BaseURL string
	Path    *mustache.Template
	Query   []Param
	Headers []Param
	Body    *mustache.Template
	// GroupBy is set for batched fields. Tasks that differ only in the
	// BatchKey query parameter share one request; each task takes the
	// response items whose GroupBy path equals its own key value.
	GroupBy  []string
	BatchKey string
}

type Param struct {
	Key   string
	Value *mustache.Template
}

// Const resolves to a fixed value, checked against the field type once.
type Const struct {
	Value any
}

// Inline descends into the parent's resolved value.
type Inline struct {
	Path []string
}

// Failure always fails with a composition diagnostic.
type Failure struct {
	Message string
	Trace   []string
}

// Passthrough reads Key from the parent's resolved value.
type Passthrough struct {
	Key string
}

func (*Http) isResolver()        {}
func (*Const) isResolver()       {}
func (*Inline) isResolver()      {}
func (*Failure) isResolver()     {}
func (*Passthrough) isResolver() {}

// Field is a compiled output field. Name is the exposed name, SourceName the
// declared one (they differ under @modify(name:)).
type Field struct {
	TypeName   string
	Name       string
	SourceName string
	Type       *ir.Type
	Args       []*ir.InputValueDefinition
	Resolver   Resolver
	Omitted    bool
}

// IsAsync reports whether resolving the field suspends on upstream I/O.
func (f *Field) IsAsync() bool {
	_, ok := f.Resolver.(*Http)
	return ok
}

// Graph is immutable once compiled and safe for concurrent use.
type Graph struct {
	fields map[[2]string]*Field
	order  []*Field
	vars   map[string]string
	enums  map[string]*ir.EnumTypeDefinition
}

// Field returns the field exposed as name on typeName, or nil. Omitted
// fields are not exposed.
func (g *Graph) Field(typeName, name string) *Field {
	return g.fields[[2]string{typeName, name}]
}

// Fields returns all compiled fields, omitted ones included, in declaration
// order.
func (g *Graph) Fields() []*Field {
	return g.order
}

// Var returns the server variable rendered by {{vars.name}} slots.
func (g *Graph) Var(name string) (string, bool) {
	v, ok := g.vars[name]
	return v, ok
}

// IsEnum reports whether name is a declared enum type.
func (g *Graph) IsEnum(name string) bool {
	return g.enums[name] != nil
}

// Enum returns the enum declared under name, or nil.
func (g *Graph) Enum(name string) *ir.EnumTypeDefinition {
	return g.enums[name]
}
