// Package gateway assembles a served gateway from a configuration: the
// document, its diagnostics, the compiled resolvers, the runtime schema, the
// upstream client and the HTTP handlers.
package gateway

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	config "github.com/hanpama/restgraph/internal/config"
	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
	httprt "github.com/hanpama/restgraph/internal/httprt"
	introspection "github.com/hanpama/restgraph/internal/introspection"
	ir "github.com/hanpama/restgraph/internal/ir"
	resolver "github.com/hanpama/restgraph/internal/resolver"
	schema "github.com/hanpama/restgraph/internal/schema"
	server "github.com/hanpama/restgraph/internal/server"
	upstream "github.com/hanpama/restgraph/internal/upstream"
)

// Composition is a configuration turned into its served form.
type Composition struct {
	Document    *ir.Document
	Diagnostics []ir.Diagnostic
	Graph       *resolver.Graph
	Schema      *schema.Schema
}

// Gateway is one immutable build of a configuration.
type Gateway struct {
	*Composition

	graphql http.Handler
	schema  http.Handler
	client  *upstream.Client
}

type Options struct {
	HTTPClient    *http.Client
	Concurrency   int
	ServerOptions []server.Option
}

type Option func(*Options)

func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }
func WithConcurrency(n int) Option         { return func(o *Options) { o.Concurrency = n } }
func WithServerOptions(opts ...server.Option) Option {
	return func(o *Options) { o.ServerOptions = append(o.ServerOptions, opts...) }
}

// Compose builds the document, validates it and compiles its resolvers.
// Diagnostics are returned, not published. Fatal composition and compile
// errors are returned as err.
func Compose(cfg *config.Config) (*Composition, error) {
	doc, err := ir.Build(cfg)
	if err != nil {
		return nil, err
	}
	diags := ir.Validate(doc)
	g, err := resolver.Compile(doc)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Build(doc, g)
	if err != nil {
		return nil, err
	}
	return &Composition{Document: doc, Diagnostics: diags, Graph: g, Schema: sch}, nil
}

// New builds a Gateway for cfg. Each diagnostic is published as an
// events.Diagnostic.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	o := Options{}
	for _, f := range opts {
		f(&o)
	}

	c, err := Compose(cfg)
	if err != nil {
		return nil, err
	}
	doc := c.Document
	for _, d := range c.Diagnostics {
		eventbus.Publish(context.Background(), events.Diagnostic{Message: d.Message, Trace: d.Trace})
	}

	upOpts := []upstream.Option{
		upstream.WithCache(doc.Upstream.EnableHTTPCache, cfg.Upstream.HTTPCacheTTL),
		upstream.WithCacheKeyHeaders(doc.Upstream.CacheKeyHeaders...),
	}
	if cfg.Upstream.Timeout > 0 {
		upOpts = append(upOpts, upstream.WithTimeout(cfg.Upstream.Timeout))
	}
	if o.HTTPClient != nil {
		upOpts = append(upOpts, upstream.WithHTTPClient(o.HTTPClient))
	}
	client, err := upstream.New(upOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "create upstream client")
	}

	rtOpts := []httprt.Option{
		httprt.WithForwardHeaders(doc.Upstream.ForwardHeaders...),
	}
	if o.Concurrency != 0 {
		rtOpts = append(rtOpts, httprt.WithConcurrency(o.Concurrency))
	}
	if cfg.Upstream.MaxBatchSize > 0 {
		rtOpts = append(rtOpts, httprt.WithMaxBatchSize(cfg.Upstream.MaxBatchSize))
	}
	w := introspection.Wrap(httprt.New(c.Graph, client, rtOpts...), c.Schema)

	srvOpts := append([]server.Option{
		server.WithRequestContext(func(ctx context.Context, r *http.Request) context.Context {
			return httprt.WithRequestHeaders(ctx, r.Header)
		}),
	}, o.ServerOptions...)
	h, err := server.New(w.Runtime, w.Schema, srvOpts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Gateway{
		Composition: c,
		graphql:     h,
		schema:      introspection.Handler(doc),
		client:      client,
	}, nil
}

// Load reads the configuration at path and builds a Gateway for it.
func Load(path string, opts ...Option) (*Gateway, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// GraphQL returns the GraphQL endpoint handler.
func (g *Gateway) GraphQL() http.Handler { return g.graphql }

// SchemaJSON returns the handler serving the projected introspection.
func (g *Gateway) SchemaJSON() http.Handler { return g.schema }

// Close releases the upstream response cache.
func (g *Gateway) Close() error { return g.client.Close() }
