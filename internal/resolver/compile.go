package resolver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/mustache"
)

// CompileError is a fatal, statically detectable problem in a field's
// directives.
type CompileError struct {
	Message string
	Trace   []string
}

func (e *CompileError) Error() string {
	return e.Message + " [" + strings.Join(e.Trace, ".") + "]"
}

type CompileErrors []*CompileError

func (e CompileErrors) Error() string {
	msg := "compile failed:\n"
	for _, ce := range e {
		msg += "- " + ce.Error() + "\n"
	}
	return msg
}

type compiler struct {
	doc    *ir.Document
	errs   CompileErrors
	fields map[[2]string]*Field
	order  []*Field
}

// Compile maps every field of doc to a resolver. doc is expected to have
// gone through ir.Validate; fields still carrying several data-fetching
// directives are rejected.
func Compile(doc *ir.Document) (*Graph, error) {
	c := &compiler{doc: doc, fields: make(map[[2]string]*Field)}
	for _, obj := range doc.Objects() {
		root := obj.Name == doc.Schema.Query || obj.Name == doc.Schema.Mutation
		for _, f := range obj.Fields {
			cf := c.compileField(obj, f)
			if cf == nil {
				continue
			}
			if root && !hasOwnResolver(cf.Resolver) {
				c.fail([]string{obj.Name, f.Name}, "No resolver has been found in the schema")
			}
			c.order = append(c.order, cf)
			if !cf.Omitted {
				c.fields[[2]string{obj.Name, cf.Name}] = cf
			}
		}
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	vars := make(map[string]string, len(doc.Vars))
	for k, v := range doc.Vars {
		vars[k] = v
	}
	enums := make(map[string]*ir.EnumTypeDefinition)
	for _, e := range doc.Enums() {
		enums[e.Name] = e
	}
	return &Graph{fields: c.fields, order: c.order, vars: vars, enums: enums}, nil
}

func hasOwnResolver(r Resolver) bool {
	switch r.(type) {
	case *Http, *Const, *Failure:
		return true
	}
	return false
}

func (c *compiler) fail(trace []string, format string, args ...any) {
	c.errs = append(c.errs, &CompileError{Message: fmt.Sprintf(format, args...), Trace: trace})
}

func (c *compiler) compileField(obj *ir.ObjectTypeDefinition, f *ir.FieldDefinition) *Field {
	out := &Field{
		TypeName:   obj.Name,
		Name:       f.Name,
		SourceName: f.Name,
		Type:       f.Type,
		Args:       f.Args,
	}
	if m := f.Modify(); m != nil {
		out.Omitted = m.Omit
		if m.Name != "" {
			out.Name = m.Name
		}
	}

	var fetching []ir.Directive
	for _, d := range f.Directives {
		if ir.IsDataFetching(d) {
			fetching = append(fetching, d)
		}
	}
	if e := f.ErrorDirective(); e != nil {
		out.Resolver = &Failure{Message: e.Message, Trace: e.Trace}
		return out
	}
	if len(fetching) > 1 {
		names := make([]string, len(fetching))
		for i, d := range fetching {
			names[i] = "@" + d.DirectiveName()
		}
		c.fail([]string{obj.Name, f.Name}, "Multiple resolvers detected [%s]", strings.Join(names, ", "))
		return nil
	}
	if len(fetching) == 0 {
		out.Resolver = &Passthrough{Key: f.Name}
		return out
	}

	switch d := fetching[0].(type) {
	case *ir.Http:
		r := c.compileHttp(obj, f, d)
		if r == nil {
			return nil
		}
		out.Resolver = r
	case *ir.Const:
		if err := checkValue(c.doc, f.Type, d.Data); err != nil {
			c.fail([]string{obj.Name, f.Name, "@const"}, "invalid const data: %s", err)
			return nil
		}
		out.Resolver = &Const{Value: d.Data}
	case *ir.Inline:
		out.Resolver = &Inline{Path: d.Path}
	}
	return out
}

func (c *compiler) compileHttp(obj *ir.ObjectTypeDefinition, f *ir.FieldDefinition, d *ir.Http) *Http {
	trace := []string{obj.Name, f.Name, "@http"}
	failed := len(c.errs)

	baseURL := d.BaseURL
	if baseURL == "" {
		baseURL = c.doc.Upstream.BaseURL
	}
	if baseURL == "" {
		c.fail(trace, "No base URL defined")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	r := &Http{Method: method, BaseURL: baseURL}
	r.Path = c.parseTemplate(obj, f, d.Path, true, append(trace, "path"))
	for _, kv := range d.Query {
		r.Query = append(r.Query, Param{Key: kv.Key, Value: c.parseTemplate(obj, f, kv.Value, false, append(trace, "query"))})
	}
	for _, kv := range d.Headers {
		r.Headers = append(r.Headers, Param{Key: http.CanonicalHeaderKey(kv.Key), Value: c.parseTemplate(obj, f, kv.Value, false, append(trace, "headers"))})
	}
	if d.Body != "" {
		r.Body = c.parseTemplate(obj, f, d.Body, false, append(trace, "body"))
	}
	if len(d.GroupBy) > 0 {
		c.compileGroupBy(r, f, d, append(trace, "groupBy"))
	}

	if len(c.errs) > failed {
		return nil
	}
	return r
}

// compileGroupBy batches r on the query parameter named by the last GroupBy
// segment. The first segment must be a field of the item type.
func (c *compiler) compileGroupBy(r *Http, f *ir.FieldDefinition, d *ir.Http, trace []string) {
	trace = append([]string(nil), trace...)
	if r.Method != http.MethodGet {
		c.fail(trace, "GroupBy is only supported for GET requests")
		return
	}
	key := d.GroupBy[len(d.GroupBy)-1]
	found := false
	for _, kv := range d.Query {
		if kv.Key == key {
			found = true
		}
	}
	if !found {
		c.fail(trace, "GroupBy key '%s' is not a query parameter", key)
		return
	}
	if item := c.doc.Object(f.Type.NamedType()); item != nil && item.Field(d.GroupBy[0]) == nil {
		c.fail(trace, "GroupBy field '%s' is not defined on type '%s'", d.GroupBy[0], item.Name)
		return
	}
	r.GroupBy = append([]string(nil), d.GroupBy...)
	r.BatchKey = key
}

// parseTemplate parses src and checks each slot statically. Path slots must
// be non-null so that a rendered URL never silently loses a segment.
func (c *compiler) parseTemplate(obj *ir.ObjectTypeDefinition, f *ir.FieldDefinition, src string, strict bool, trace []string) *mustache.Template {
	trace = append([]string(nil), trace...)
	tmpl, err := mustache.Parse(src)
	if err != nil {
		c.fail(trace, "%s", err)
		return nil
	}
	for _, expr := range tmpl.Expressions() {
		if msg := c.checkSlot(obj, f, expr, strict); msg != "" {
			c.fail(trace, "%s", msg)
		}
	}
	return tmpl
}

func (c *compiler) checkSlot(obj *ir.ObjectTypeDefinition, f *ir.FieldDefinition, expr []string, strict bool) string {
	if len(expr) < 2 {
		return "too few parts in template"
	}
	head, tail := expr[0], expr[1]
	switch head {
	case "value":
		vf := obj.Field(tail)
		if vf == nil {
			return fmt.Sprintf("no value '%s' found", tail)
		}
		if vf.Type.IsList() || !c.doc.IsLeaf(vf.Type.NamedType()) {
			return fmt.Sprintf("value '%s' is not of a scalar type", tail)
		}
		if strict && !vf.Type.NonNull {
			return fmt.Sprintf("value '%s' is a nullable type", tail)
		}
	case "args":
		arg := f.Arg(tail)
		if arg == nil {
			return fmt.Sprintf("no argument '%s' found", tail)
		}
		if arg.Type.IsList() {
			return fmt.Sprintf("can't use list type '%s' here", tail)
		}
		if strict && !arg.Type.NonNull && arg.DefaultValue == nil {
			return fmt.Sprintf("argument '%s' is a nullable type", tail)
		}
	case "vars":
		if _, ok := c.doc.Vars[tail]; !ok {
			return fmt.Sprintf("var '%s' is not set in the server config", tail)
		}
	case "headers":
	default:
		return fmt.Sprintf("unknown template directive '%s'", head)
	}
	return ""
}
