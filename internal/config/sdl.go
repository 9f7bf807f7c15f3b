package config

import (
	"time"

	"github.com/pkg/errors"

	language "github.com/hanpama/restgraph/internal/language"
)

// FromSDL reads a configuration written as schema-language text:
//
//	schema @upstream(baseURL: "http://jsonplaceholder.typicode.com") {
//	  query: Query
//	}
//	type Query {
//	  posts: [Post] @http(path: "/posts")
//	}
func FromSDL(name, src string) (*Config, error) {
	doc, err := language.ParseSchema(name, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	cfg := &Config{}
	for _, sd := range doc.Schema {
		if err := applySchemaDefinition(cfg, sd); err != nil {
			return nil, err
		}
	}
	for _, def := range doc.Definitions {
		switch def.Kind {
		case language.Object, language.InputObject:
			t, err := typeFromSDL(def)
			if err != nil {
				return nil, errors.Wrapf(err, "type %s", def.Name)
			}
			cfg.Types = append(cfg.Types, t)
		case language.Enum:
			t := &Type{Name: def.Name, Doc: def.Description, Variants: []string{}}
			for _, v := range def.EnumValues {
				t.Variants = append(t.Variants, v.Name)
			}
			cfg.Types = append(cfg.Types, t)
		case language.Scalar:
			if !isBuiltinScalar(def.Name) {
				return nil, errors.Errorf("custom scalar %s is not supported", def.Name)
			}
		default:
			return nil, errors.Errorf("%s definitions are not supported (%s)", def.Kind, def.Name)
		}
	}
	if cfg.Schema.Query == "" && len(doc.Schema) == 0 && cfg.FindType("Query") != nil {
		cfg.Schema.Query = "Query"
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isBuiltinScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID", "JSON":
		return true
	}
	return false
}

func applySchemaDefinition(cfg *Config, sd *language.SchemaDefinition) error {
	for _, op := range sd.OperationTypes {
		switch op.Operation {
		case language.Query:
			cfg.Schema.Query = op.Type
		case language.Mutation:
			cfg.Schema.Mutation = op.Type
		default:
			return errors.Errorf("%s operations are not supported", op.Operation)
		}
	}
	for _, d := range sd.Directives {
		args, err := directiveArgs(d)
		if err != nil {
			return err
		}
		switch d.Name {
		case "upstream":
			u := &cfg.Upstream
			u.BaseURL = stringArg(args, "baseURL")
			u.EnableHTTPCache, _ = args["enableHttpCache"].(bool)
			if u.HTTPCacheTTL, err = durationArg(args, "httpCacheTTL"); err != nil {
				return err
			}
			if u.Timeout, err = durationArg(args, "timeout"); err != nil {
				return err
			}
			u.CacheKeyHeaders = stringListArg(args, "cacheKeyHeaders")
			u.ForwardHeaders = stringListArg(args, "forwardHeaders")
		case "server":
			if vars, ok := args["vars"].(map[string]any); ok {
				cfg.Server.Vars = make(map[string]string, len(vars))
				for k, v := range vars {
					s, ok := v.(string)
					if !ok {
						return errors.Errorf("@server: var %q must be a string", k)
					}
					cfg.Server.Vars[k] = s
				}
			}
		default:
			return errors.Errorf("unknown directive @%s on schema", d.Name)
		}
	}
	return nil
}

func typeFromSDL(def *language.Definition) (*Type, error) {
	t := &Type{Name: def.Name, Doc: def.Description}
	for _, fd := range def.Fields {
		f := &Field{Name: fd.Name, Doc: fd.Description}
		if err := setTypeRef(fd.Type, &f.Type, &f.List, &f.Required, &f.ItemRequired); err != nil {
			return nil, errors.Wrapf(err, "field %s", fd.Name)
		}
		for _, ad := range fd.Arguments {
			a := &Arg{Name: ad.Name, Doc: ad.Description}
			if err := setTypeRef(ad.Type, &a.Type, &a.List, &a.Required, &a.ItemRequired); err != nil {
				return nil, errors.Wrapf(err, "argument %s.%s", fd.Name, ad.Name)
			}
			if ad.DefaultValue != nil {
				v, err := ad.DefaultValue.Value(nil)
				if err != nil {
					return nil, errors.Wrapf(err, "argument %s.%s default", fd.Name, ad.Name)
				}
				a.Default = v
			}
			f.Args = append(f.Args, a)
		}
		for _, d := range fd.Directives {
			if err := applyFieldDirective(f, d); err != nil {
				return nil, errors.Wrapf(err, "field %s", fd.Name)
			}
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

func setTypeRef(t *language.Type, name *string, list, required, itemRequired *bool) error {
	*required = t.NonNull
	if t.Elem == nil {
		*name = t.NamedType
		return nil
	}
	if t.Elem.Elem != nil {
		return errors.New("nested list types are not supported")
	}
	*list = true
	*itemRequired = t.Elem.NonNull
	*name = t.Elem.NamedType
	return nil
}

func applyFieldDirective(f *Field, d *language.Directive) error {
	args, err := directiveArgs(d)
	if err != nil {
		return err
	}
	switch d.Name {
	case "http":
		h := &HTTP{
			Path:    stringArg(args, "path"),
			BaseURL: stringArg(args, "baseURL"),
			Method:  stringArg(args, "method"),
			Body:    stringArg(args, "body"),
		}
		if h.Query, err = keyValueArg(args, "query"); err != nil {
			return err
		}
		if h.Headers, err = keyValueArg(args, "headers"); err != nil {
			return err
		}
		f.HTTP = h
	case "const":
		f.Const = &Const{Data: args["data"]}
	case "inline":
		f.Inline = &Inline{Path: stringListArg(args, "path")}
	case "modify":
		f.Modify = &Modify{Name: stringArg(args, "name")}
		f.Modify.Omit, _ = args["omit"].(bool)
	case "error":
		f.Error = &Error{Message: stringArg(args, "message"), Trace: stringListArg(args, "trace")}
	default:
		return errors.Errorf("unknown directive @%s", d.Name)
	}
	return nil
}

func directiveArgs(d *language.Directive) (map[string]any, error) {
	out := make(map[string]any, len(d.Arguments))
	for _, a := range d.Arguments {
		v, err := a.Value.Value(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "@%s(%s)", d.Name, a.Name)
		}
		out[a.Name] = v
	}
	return out, nil
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func stringListArg(args map[string]any, name string) []string {
	switch v := args[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func keyValueArg(args map[string]any, name string) ([]KeyValue, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}
	out := make([]KeyValue, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Errorf("%s entries must be {key, value} objects", name)
		}
		out = append(out, KeyValue{Key: stringArg(m, "key"), Value: stringArg(m, "value")})
	}
	return out, nil
}

func durationArg(args map[string]any, name string) (time.Duration, error) {
	switch v := args[name].(type) {
	case nil:
		return 0, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, errors.Wrapf(err, "@upstream(%s)", name)
		}
		return d, nil
	default:
		return 0, errors.Errorf("@upstream(%s) must be a duration string or seconds", name)
	}
}
