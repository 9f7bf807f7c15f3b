package httprt

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	executor "github.com/hanpama/restgraph/internal/executor"
	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/resolver"
	"github.com/hanpama/restgraph/internal/upstream"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Doer sends upstream requests. *upstream.Client implements it.
type Doer interface {
	Do(ctx context.Context, req *upstream.Request) (*upstream.Response, error)
}

// Runtime implements executor.Runtime over a compiled resolver graph.
//   - ResolveSync never performs I/O. It serves passthrough, const, inline and
//     failure resolvers from values already materialized.
//   - BatchResolveAsync renders every @http task of a depth, sends identical
//     GET requests once per execution, merges group-by tasks into batched
//     requests, and dispatches the distinct requests concurrently.
//   - Results preserve task order; each task fails independently.
type Runtime struct {
	graph       *resolver.Graph
	client      Doer
	forward      []string
	concurrency  int
	maxBatchSize int
}

var _ executor.Runtime = (*Runtime)(nil)

func New(g *resolver.Graph, client Doer, opts ...Option) *Runtime {
	r := &Runtime{graph: g, client: client, concurrency: 16, maxBatchSize: 100}
	for _, o := range opts {
		o(r)
	}
	return r
}

// FieldError is the runtime error of a field whose directives were rejected
// at composition time.
type FieldError struct {
	Message string
	Trace   []string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Extensions() map[string]any {
	return map[string]any{"trace": e.Trace}
}

func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	f := r.graph.Field(objectType, field)
	if f == nil {
		return nil, fmt.Errorf("no resolver for %s.%s", objectType, field)
	}
	switch res := f.Resolver.(type) {
	case *resolver.Passthrough:
		if source == nil {
			return nil, nil
		}
		m, ok := source.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %s", kind(source))
		}
		return m[res.Key], nil
	case *resolver.Const:
		return res.Value, nil
	case *resolver.Inline:
		return inline(source, res.Path)
	case *resolver.Failure:
		return nil, &FieldError{Message: res.Message, Trace: res.Trace}
	}
	return nil, fmt.Errorf("%s.%s must be resolved asynchronously", objectType, field)
}

// inline walks path through the parent's value. A null along the way yields
// null; a missing key or index is an error.
func inline(source any, path []string) (any, error) {
	cur := source
	for _, seg := range path {
		if cur == nil {
			return nil, nil
		}
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, fmt.Errorf("inline path [%s] not found at '%s'", strings.Join(path, " "), seg)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("inline path [%s] not found at '%s'", strings.Join(path, " "), seg)
			}
			cur = v[i]
		default:
			return nil, fmt.Errorf("inline path [%s] not found at '%s'", strings.Join(path, " "), seg)
		}
	}
	return cur, nil
}

// call is one distinct upstream request and the tasks waiting on it.
type call struct {
	req     *upstream.Request
	key     string
	waiters []waiter
	resp    *upstream.Response
	err     error
	done    bool
}

// waiter is a task served by a call. Grouped waiters pick their items out of
// a batched response by match.
type waiter struct {
	idx     int
	field   *resolver.Field
	grouped bool
	match   string
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var calls []*call
	byKey := make(map[string]*call)
	groups := make(map[string]*group)
	var groupOrder []*group
	for i, t := range tasks {
		f := r.graph.Field(t.ObjectType, t.Field)
		var h *resolver.Http
		if f != nil {
			h, _ = f.Resolver.(*resolver.Http)
		}
		if h == nil {
			results[i] = executor.AsyncResolveResult{Error: fmt.Errorf("no http resolver for %s.%s", t.ObjectType, t.Field)}
			continue
		}
		req, batchValue, err := r.render(ctx, h, t)
		if err != nil {
			results[i] = executor.AsyncResolveResult{Error: err}
			continue
		}
		if h.BatchKey != "" {
			if batchValue == "" {
				continue
			}
			base, _ := dedupKey(req)
			gk := t.ObjectType + "." + t.Field + "\x00" + base
			grp := groups[gk]
			if grp == nil {
				grp = &group{http: h, base: req}
				groups[gk] = grp
				groupOrder = append(groupOrder, grp)
			}
			grp.add(waiter{idx: i, field: f, grouped: true, match: batchValue})
			continue
		}
		calls = r.enqueue(calls, byKey, req, waiter{idx: i, field: f})
	}
	for _, grp := range groupOrder {
		for _, chunk := range grp.chunks(r.maxBatchSize) {
			req := grp.request(chunk)
			for _, v := range chunk {
				for _, w := range grp.waiters[v] {
					calls = r.enqueue(calls, byKey, req, w)
				}
			}
		}
	}

	m := memoFrom(ctx)
	for _, c := range calls {
		if c.key == "" {
			continue
		}
		if e, ok := m.load(c.key); ok {
			c.resp, c.err, c.done = e.resp, e.err, true
		}
	}

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for _, c := range calls {
		if c.done {
			continue
		}
		g.Go(func() error {
			c.resp, c.err = r.client.Do(ctx, c.req)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range calls {
		if c.key != "" && !c.done {
			m.store(c.key, c.resp, c.err)
		}
		value, err := decode(c)
		for _, w := range c.waiters {
			if err != nil {
				results[w.idx] = executor.AsyncResolveResult{Error: err}
				continue
			}
			v, err := r.complete(c, w, value)
			results[w.idx] = executor.AsyncResolveResult{Value: v, Error: err}
		}
	}
	return results
}

// enqueue attaches w to the pending call for req, starting a new call unless
// an identical GET is already pending in this batch.
func (r *Runtime) enqueue(calls []*call, byKey map[string]*call, req *upstream.Request, w waiter) []*call {
	key, ok := dedupKey(req)
	if ok {
		if c := byKey[key]; c != nil {
			c.waiters = append(c.waiters, w)
			return calls
		}
	}
	c := &call{req: req, waiters: []waiter{w}}
	if ok {
		c.key = key
		byKey[key] = c
	}
	return append(calls, c)
}

// dedupKey identifies requests that may share one upstream call within an
// execution. Only GET requests qualify.
func dedupKey(req *upstream.Request) (string, bool) {
	if req.Method != "GET" {
		return "", false
	}
	names := make([]string, 0, len(req.Header))
	for k := range req.Header {
		names = append(names, k)
	}
	sort.Strings(names)
	return req.Key(names), true
}

func decode(c *call) (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.resp.Body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(c.resp.Body, &v); err != nil {
		return nil, fmt.Errorf("decode response of %s %s: %w", c.req.Method, c.req.URL, err)
	}
	return v, nil
}

// complete checks the decoded value against the waiter's field type. Grouped
// waiters first select the items whose group-by path equals their match.
func (r *Runtime) complete(c *call, w waiter, v any) (any, error) {
	if w.grouped {
		h := w.field.Resolver.(*resolver.Http)
		items, ok := v.([]any)
		if !ok && v != nil {
			return nil, fmt.Errorf("%s %s: expected array, got %s", c.req.Method, c.req.URL, kind(v))
		}
		v = pick(items, h.GroupBy, w.match, w.field.Type.IsList())
	}
	if err := r.checkShape(w.field.Type, v); err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.req.Method, c.req.URL, err)
	}
	return v, nil
}

// checkShape compares the outermost shape of v with the declared type.
func (r *Runtime) checkShape(t *ir.Type, v any) error {
	if v == nil {
		return nil
	}
	var want string
	switch {
	case t.IsList():
		want = "array"
	case t.NamedType() == "JSON":
		return nil
	case ir.IsScalar(t.NamedType()) || r.graph.IsEnum(t.NamedType()):
		switch v.(type) {
		case map[string]any, []any:
			return fmt.Errorf("expected scalar, got %s", kind(v))
		}
		return nil
	default:
		want = "object"
	}
	if got := kind(v); got != want {
		return fmt.Errorf("expected %s, got %s", want, got)
	}
	return nil
}

func kind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
