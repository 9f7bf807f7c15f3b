package ir

import (
	"github.com/hanpama/restgraph/internal/config"
)

type builder struct {
	cfg         *config.Config
	definitions []*Definition
	seen        map[string]bool
	inputs      map[string]bool

	violations []*Violation
}

// Build turns a configuration into a Document. Fatal problems (undeclared
// types, missing roots, duplicate names) are returned together as a
// ValidationError. Directive combinations are not judged here; see Validate.
func Build(cfg *config.Config) (*Document, error) {
	b := &builder{
		cfg:    cfg,
		seen:   make(map[string]bool),
		inputs: make(map[string]bool),
	}

	// Classify input types first: a type referenced by any argument is an
	// input object.
	if err := b.classifyInputs(); err != nil {
		return nil, err
	}

	if err := b.populateDefinitions(); err != nil {
		return nil, err
	}

	doc := &Document{
		Schema: SchemaDefinition{
			Query:    cfg.Schema.Query,
			Mutation: cfg.Schema.Mutation,
		},
		Upstream: Upstream{
			BaseURL:         cfg.Upstream.BaseURL,
			EnableHTTPCache: cfg.Upstream.EnableHTTPCache,
			CacheKeyHeaders: cfg.Upstream.CacheKeyHeaders,
			ForwardHeaders:  cfg.Upstream.ForwardHeaders,
		},
		Vars:        cfg.Server.Vars,
		Definitions: b.definitions,
	}
	doc.reindex()

	if err := b.checkReferences(doc); err != nil {
		return nil, err
	}

	if err := b.checkSchema(doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

func (b *builder) result() error {
	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}
	return nil
}
