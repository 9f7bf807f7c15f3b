package httprt

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	executor "github.com/hanpama/restgraph/internal/executor"
	"github.com/hanpama/restgraph/internal/mustache"
	"github.com/hanpama/restgraph/internal/resolver"
	"github.com/hanpama/restgraph/internal/upstream"
)

// render builds the upstream request of an @http task. Query parameters and
// headers whose slots have no value are left out; any other slot failure
// fails the task. Path slot values are escaped as single path segments.
//
// For group-by fields the batch key parameter is returned separately instead
// of being added to the URL. An empty key value matches nothing.
func (r *Runtime) render(ctx context.Context, h *resolver.Http, t executor.AsyncResolveTask) (*upstream.Request, string, error) {
	incoming := RequestHeaders(ctx)
	lookup := r.lookup(incoming, t)

	path, err := h.Path.RenderEscaped(lookup, url.PathEscape)
	if err != nil {
		return nil, "", err
	}

	var batchValue string
	rawURL := h.BaseURL + path
	if len(h.Query) > 0 {
		q := url.Values{}
		for _, p := range h.Query {
			v, err := p.Value.Render(lookup)
			if missingSlot(err) {
				continue
			}
			if err != nil {
				return nil, "", err
			}
			if p.Key == h.BatchKey {
				batchValue = v
				continue
			}
			q.Add(p.Key, v)
		}
		if enc := q.Encode(); enc != "" {
			sep := "?"
			if strings.Contains(rawURL, "?") {
				sep = "&"
			}
			rawURL += sep + enc
		}
	}

	req := &upstream.Request{Method: h.Method, URL: rawURL, Header: http.Header{}}
	for _, name := range r.forward {
		for _, v := range incoming.Values(name) {
			req.Header.Add(name, v)
		}
	}
	for _, p := range h.Headers {
		v, err := p.Value.Render(lookup)
		if missingSlot(err) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		req.Header.Set(p.Key, v)
	}
	if h.Body != nil {
		body, err := h.Body.Render(lookup)
		if err != nil {
			return nil, "", err
		}
		req.Body = []byte(body)
	}
	return req, batchValue, nil
}

func missingSlot(err error) bool {
	var se *mustache.SlotError
	return errors.As(err, &se) && se.Missing
}

func (r *Runtime) lookup(incoming http.Header, t executor.AsyncResolveTask) mustache.Context {
	return mustache.ContextFunc(func(expr []string) (any, bool) {
		switch expr[0] {
		case "value":
			return dig(t.Source, expr[1:])
		case "args":
			return dig(t.Args, expr[1:])
		case "vars":
			return r.graph.Var(expr[1])
		case "headers":
			v := incoming.Get(expr[1])
			return v, v != ""
		}
		return nil, false
	})
}

// dig follows keys through nested maps.
func dig(v any, keys []string) (any, bool) {
	cur := v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
