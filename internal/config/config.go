// Package config describes the gateway configuration: the upstream defaults,
// the root operation types and the declared types with their per-field
// data-fetching rules. Configurations are read from YAML (or JSON) documents
// or from schema-language text carrying the same rules as directives.
package config

import (
	"time"
)

type Config struct {
	Server   Server     `yaml:"server"`
	Upstream Upstream   `yaml:"upstream"`
	Schema   RootSchema `yaml:"schema"`
	Types    Types      `yaml:"types" validate:"dive"`
}

type Server struct {
	// Vars are exposed to templates as {{vars.<name>}}.
	Vars map[string]string `yaml:"vars"`
}

type Upstream struct {
	BaseURL         string        `yaml:"baseURL" validate:"omitempty,url"`
	EnableHTTPCache bool          `yaml:"enableHttpCache"`
	HTTPCacheTTL    time.Duration `yaml:"httpCacheTTL" validate:"gte=0"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	// MaxBatchSize bounds the key values merged into one group-by request.
	MaxBatchSize int `yaml:"maxBatchSize" validate:"gte=0"`
	// CacheKeyHeaders lists request headers whose values take part in the
	// cache and coalescing key. Empty means the key is method and URL only.
	CacheKeyHeaders []string `yaml:"cacheKeyHeaders"`
	// ForwardHeaders lists incoming request headers copied to upstream calls.
	ForwardHeaders []string `yaml:"forwardHeaders"`
}

type RootSchema struct {
	Query    string `yaml:"query"`
	Mutation string `yaml:"mutation"`
}

// Types keeps declaration order.
type Types []*Type

// Type is an object or input type, or an enum when Variants is set.
type Type struct {
	Name     string   `yaml:"-"`
	Doc      string   `yaml:"doc"`
	Fields   Fields   `yaml:"fields" validate:"dive"`
	Variants []string `yaml:"variants"`
}

// IsEnum reports whether the type was declared with variants, even none.
func (t *Type) IsEnum() bool { return t.Variants != nil }

type Fields []*Field

type Field struct {
	Name         string  `yaml:"-"`
	Type         string  `yaml:"type" validate:"required"`
	List         bool    `yaml:"list"`
	Required     bool    `yaml:"required"`
	ItemRequired bool    `yaml:"itemRequired"`
	Doc          string  `yaml:"doc"`
	Args         Args    `yaml:"args" validate:"dive"`
	HTTP         *HTTP   `yaml:"http"`
	Const        *Const  `yaml:"const"`
	Inline       *Inline `yaml:"inline"`
	Modify       *Modify `yaml:"modify"`
	// Error is never accepted from input; it is kept so that a configuration
	// carrying it can be rejected with a precise message.
	Error *Error `yaml:"error"`
}

type Args []*Arg

type Arg struct {
	Name         string `yaml:"-"`
	Type         string `yaml:"type" validate:"required"`
	List         bool   `yaml:"list"`
	Required     bool   `yaml:"required"`
	ItemRequired bool   `yaml:"itemRequired"`
	Doc          string `yaml:"doc"`
	Default      any    `yaml:"default"`
}

type HTTP struct {
	Path    string     `yaml:"path" validate:"required"`
	BaseURL string     `yaml:"baseURL" validate:"omitempty,url"`
	Method  string     `yaml:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Query   []KeyValue `yaml:"query" validate:"dive"`
	Headers []KeyValue `yaml:"headers" validate:"dive"`
	Body    string     `yaml:"body"`
	// GroupBy is the path, inside each item of a batched response, of the
	// value matched against the last segment's query parameter.
	GroupBy []string `yaml:"groupBy"`
}

type KeyValue struct {
	Key   string `yaml:"key" validate:"required"`
	Value string `yaml:"value"`
}

type Const struct {
	Data any `yaml:"data"`
}

type Inline struct {
	Path []string `yaml:"path" validate:"min=1"`
}

type Modify struct {
	Name string `yaml:"name"`
	Omit bool   `yaml:"omit"`
}

type Error struct {
	Message string   `yaml:"message"`
	Trace   []string `yaml:"trace"`
}

// FindType returns the type declared under name, or nil.
func (c *Config) FindType(name string) *Type {
	for _, t := range c.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Field returns the field declared under name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
