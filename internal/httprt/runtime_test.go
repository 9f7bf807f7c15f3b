package httprt

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/restgraph/internal/config"
	executor "github.com/hanpama/restgraph/internal/executor"
	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/resolver"
	"github.com/hanpama/restgraph/internal/upstream"
)

const blogSDL = `schema @upstream(baseURL: "http://upstream.local/") @server(vars: {apiKey: "k1"}) { query: Query }

type Query {
  posts(userId: Int): [Post] @http(path: "/posts", query: [{key: "userId", value: "{{args.userId}}"}, {key: "key", value: "{{vars.apiKey}}"}])
  post(id: Int!): Post @http(path: "/posts/{{args.id}}", headers: [{key: "x-tenant", value: "{{headers.x-tenant}}"}])
  broken: String @const(data: "x") @inline(path: ["a"])
  bySlug(slug: String!): Post @http(path: "/posts/by-slug/{{args.slug}}")
}

type Post {
  id: Int!
  userId: Int!
  user: User @http(path: "/users/{{value.userId}}")
  authorName: String @inline(path: ["author", "name"])
  author: Author
  body: String @modify(name: "content")
  status: Status
  comments: [Comment] @http(path: "/comments", query: [{key: "postId", value: "{{value.id}}"}], groupBy: ["postId"])
  latestComment: Comment @http(path: "/comments", query: [{key: "postId", value: "{{value.id}}"}], groupBy: ["postId"])
}

enum Status {
  DRAFT
  PUBLISHED
}

type Comment {
  id: Int!
  postId: Int!
}

type User {
  id: Int!
  name: String
}

type Author {
  name: String
}
`

func compileGraph(t *testing.T) *resolver.Graph {
	t.Helper()
	cfg, err := config.FromSDL("blog.graphql", blogSDL)
	require.NoError(t, err)
	doc, err := ir.Build(cfg)
	require.NoError(t, err)
	ir.Validate(doc)
	g, err := resolver.Compile(doc)
	require.NoError(t, err)
	return g
}

type fakeDoer struct {
	mu     sync.Mutex
	reqs   []*upstream.Request
	bodies map[string]string
	errs   map[string]error
}

func (d *fakeDoer) Do(ctx context.Context, req *upstream.Request) (*upstream.Response, error) {
	d.mu.Lock()
	d.reqs = append(d.reqs, req)
	d.mu.Unlock()
	if err := d.errs[req.URL]; err != nil {
		return nil, err
	}
	body, ok := d.bodies[req.URL]
	if !ok {
		return nil, &upstream.StatusError{Method: req.Method, URL: req.URL, Status: http.StatusNotFound}
	}
	return &upstream.Response{Status: http.StatusOK, Body: []byte(body)}, nil
}

func (d *fakeDoer) urls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.reqs))
	for i, r := range d.reqs {
		out[i] = r.Method + " " + r.URL
	}
	return out
}

func TestBatchResolveAsync_DedupesIdenticalRequests(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/posts/1": `{"id":1,"userId":1}`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "post", Args: map[string]any{"id": 1}},
		{ObjectType: "Query", Field: "post", Args: map[string]any{"id": 1}},
	})

	want := []executor.AsyncResolveResult{
		{Value: map[string]any{"id": float64(1), "userId": float64(1)}},
		{Value: map[string]any{"id": float64(1), "userId": float64(1)}},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"GET http://upstream.local/posts/1"}, doer.urls())
}

func TestBatchResolveAsync_RendersParentValue(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/users/1": `{"id":1,"name":"Leanne"}`,
		"http://upstream.local/users/2": `{"id":2,"name":"Ervin"}`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(1)}},
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(2)}},
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(1)}},
		{ObjectType: "Post", Field: "user", Source: map[string]any{}},
	})

	require.NoError(t, results[0].Error)
	require.Equal(t, "Leanne", results[0].Value.(map[string]any)["name"])
	require.Equal(t, "Ervin", results[1].Value.(map[string]any)["name"])
	require.Equal(t, results[0].Value, results[2].Value)
	require.EqualError(t, results[3].Error, "template slot 'value.userId' has no value")
	require.ElementsMatch(t, []string{
		"GET http://upstream.local/users/1",
		"GET http://upstream.local/users/2",
	}, doer.urls())
}

func TestBatchResolveAsync_QueryVarsAndHeaders(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/posts?key=k1&userId=3": `[]`,
		"http://upstream.local/posts?key=k1":          `[]`,
		"http://upstream.local/posts/7":               `{"id":7,"userId":1}`,
	}}
	rt := New(compileGraph(t), doer, WithForwardHeaders("Authorization"))
	ctx := WithRequestHeaders(context.Background(), http.Header{
		"Authorization": {"Bearer t"},
		"X-Tenant":      {"acme"},
		"Cookie":        {"secret"},
	})

	results := rt.BatchResolveAsync(ctx, []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "posts", Args: map[string]any{"userId": 3}},
		{ObjectType: "Query", Field: "posts", Args: map[string]any{}},
		{ObjectType: "Query", Field: "post", Args: map[string]any{"id": 7}},
	})
	for _, r := range results {
		require.NoError(t, r.Error)
	}

	var post *upstream.Request
	for _, r := range doer.reqs {
		if r.URL == "http://upstream.local/posts/7" {
			post = r
		}
	}
	require.NotNil(t, post)
	want := http.Header{
		"Authorization": {"Bearer t"},
		"X-Tenant":      {"acme"},
	}
	if diff := cmp.Diff(want, post.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchResolveAsync_ShapeMismatch(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/posts?key=k1": `{"id":1}`,
		"http://upstream.local/posts/1":      `[1,2]`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "posts", Args: map[string]any{}},
		{ObjectType: "Query", Field: "post", Args: map[string]any{"id": 1}},
	})
	require.ErrorContains(t, results[0].Error, "expected array, got object")
	require.ErrorContains(t, results[1].Error, "expected object, got array")
}

func TestBatchResolveAsync_IndependentFailures(t *testing.T) {
	boom := errors.New("connection refused")
	doer := &fakeDoer{
		bodies: map[string]string{"http://upstream.local/users/1": `{"id":1}`},
		errs:   map[string]error{"http://upstream.local/users/2": boom},
	}
	rt := New(compileGraph(t), doer, WithConcurrency(1))

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(1)}},
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(2)}},
		{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(3)}},
	})
	require.NoError(t, results[0].Error)
	require.ErrorIs(t, results[1].Error, boom)
	var se *upstream.StatusError
	require.ErrorAs(t, results[2].Error, &se)
	require.Equal(t, http.StatusNotFound, se.Status)
}

func TestBatchResolveAsync_SkipsHeadersWithoutValue(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/posts/2": `{"id":2,"userId":1}`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "post", Args: map[string]any{"id": 2}},
	})
	require.NoError(t, results[0].Error)
	require.Len(t, doer.reqs, 1)
	require.Empty(t, doer.reqs[0].Header.Values("X-Tenant"))
}

func TestBatchResolveAsync_EscapesPathSlots(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/posts/by-slug/a%2Fb%20c": `{"id":1,"userId":1}`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "bySlug", Args: map[string]any{"slug": "a/b c"}},
	})
	require.NoError(t, results[0].Error)
	require.Equal(t, []string{"GET http://upstream.local/posts/by-slug/a%2Fb%20c"}, doer.urls())
}

func TestBatchResolveAsync_ReusesResponsesWithinExecution(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/users/1": `{"id":1,"name":"Leanne"}`,
	}}
	rt := New(compileGraph(t), doer)
	task := executor.AsyncResolveTask{ObjectType: "Post", Field: "user", Source: map[string]any{"userId": float64(1)}}

	ctx := rt.BeginExecution(context.Background())
	first := rt.BatchResolveAsync(ctx, []executor.AsyncResolveTask{task})
	second := rt.BatchResolveAsync(ctx, []executor.AsyncResolveTask{task})
	require.NoError(t, second[0].Error)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, doer.urls(), 1)

	// A new execution sends the request again.
	rt.BatchResolveAsync(rt.BeginExecution(context.Background()), []executor.AsyncResolveTask{task})
	require.Len(t, doer.urls(), 2)
}

func TestBatchResolveAsync_GroupBy(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/comments?postId=1&postId=2&postId=3": `[{"id":10,"postId":1},{"id":11,"postId":2},{"id":12,"postId":1}]`,
	}}
	rt := New(compileGraph(t), doer)

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Post", Field: "comments", Source: map[string]any{"id": float64(1)}},
		{ObjectType: "Post", Field: "comments", Source: map[string]any{"id": float64(2)}},
		{ObjectType: "Post", Field: "comments", Source: map[string]any{"id": float64(3)}},
		{ObjectType: "Post", Field: "comments", Source: map[string]any{"id": float64(1)}},
		{ObjectType: "Post", Field: "comments", Source: map[string]any{}},
	})

	c10 := map[string]any{"id": float64(10), "postId": float64(1)}
	c11 := map[string]any{"id": float64(11), "postId": float64(2)}
	c12 := map[string]any{"id": float64(12), "postId": float64(1)}
	want := []executor.AsyncResolveResult{
		{Value: []any{c10, c12}},
		{Value: []any{c11}},
		{Value: []any{}},
		{Value: []any{c10, c12}},
		{},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"GET http://upstream.local/comments?postId=1&postId=2&postId=3"}, doer.urls())
}

func TestBatchResolveAsync_GroupByChunksAndSingleItems(t *testing.T) {
	doer := &fakeDoer{bodies: map[string]string{
		"http://upstream.local/comments?postId=1&postId=2": `[{"id":10,"postId":1}]`,
		"http://upstream.local/comments?postId=3":          `{"id":12,"postId":3}`,
	}}
	rt := New(compileGraph(t), doer, WithMaxBatchSize(2))

	results := rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{
		{ObjectType: "Post", Field: "latestComment", Source: map[string]any{"id": float64(1)}},
		{ObjectType: "Post", Field: "latestComment", Source: map[string]any{"id": float64(2)}},
		{ObjectType: "Post", Field: "latestComment", Source: map[string]any{"id": float64(3)}},
	})
	require.NoError(t, results[0].Error)
	require.Equal(t, map[string]any{"id": float64(10), "postId": float64(1)}, results[0].Value)
	require.NoError(t, results[1].Error)
	require.Nil(t, results[1].Value)
	require.ErrorContains(t, results[2].Error, "expected array, got object")
	require.ElementsMatch(t, []string{
		"GET http://upstream.local/comments?postId=1&postId=2",
		"GET http://upstream.local/comments?postId=3",
	}, doer.urls())
}

func TestResolveSync(t *testing.T) {
	rt := New(compileGraph(t), &fakeDoer{})
	ctx := context.Background()
	post := map[string]any{
		"id":     float64(1),
		"body":   "hello",
		"author": map[string]any{"name": "Ann"},
	}

	v, err := rt.ResolveSync(ctx, "Post", "content", post, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	v, err = rt.ResolveSync(ctx, "Post", "authorName", post, nil)
	require.NoError(t, err)
	require.Equal(t, "Ann", v)

	v, err = rt.ResolveSync(ctx, "Post", "authorName", map[string]any{"author": nil}, nil)
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = rt.ResolveSync(ctx, "Post", "authorName", map[string]any{"author": map[string]any{}}, nil)
	require.EqualError(t, err, "inline path [author name] not found at 'name'")

	_, err = rt.ResolveSync(ctx, "Query", "broken", nil, nil)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "Inline can't be done because of const resolver at [Query.broken]", fe.Message)
	require.Equal(t, map[string]any{"trace": []string{"Query", "broken", "@inline"}}, fe.Extensions())

	_, err = rt.ResolveSync(ctx, "Post", "missing", post, nil)
	require.Error(t, err)

	_, err = rt.ResolveSync(ctx, "Author", "name", "bob", nil)
	require.EqualError(t, err, "expected object, got string")

	v, err = rt.ResolveSync(ctx, "Author", "name", nil, nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestInlineIndexesLists(t *testing.T) {
	v, err := inline(map[string]any{"tags": []any{"a", "b"}}, []string{"tags", "1"})
	require.NoError(t, err)
	require.Equal(t, "b", v)

	_, err = inline(map[string]any{"tags": []any{"a"}}, []string{"tags", "4"})
	require.EqualError(t, err, "inline path [tags 4] not found at '4'")
}

func TestSerializeLeafValue(t *testing.T) {
	rt := New(compileGraph(t), &fakeDoer{})
	cases := []struct {
		typ   string
		in    any
		want  any
		error string
	}{
		{typ: "String", in: "x", want: "x"},
		{typ: "String", in: float64(12), want: "12"},
		{typ: "String", in: map[string]any{}, error: "String cannot represent value: {}"},
		{typ: "Int", in: float64(3), want: 3},
		{typ: "Int", in: 3.5, error: "Int cannot represent non 32-bit signed integer value: 3.5"},
		{typ: "Int", in: "3", error: `Int cannot represent non 32-bit signed integer value: "3"`},
		{typ: "Float", in: float64(1.5), want: 1.5},
		{typ: "Float", in: "x", error: `Float cannot represent non numeric value: "x"`},
		{typ: "Boolean", in: true, want: true},
		{typ: "Boolean", in: float64(1), error: "Boolean cannot represent a non boolean value: 1"},
		{typ: "ID", in: float64(42), want: "42"},
		{typ: "ID", in: "abc", want: "abc"},
		{typ: "JSON", in: []any{float64(1)}, want: []any{float64(1)}},
		{typ: "String", in: nil, want: nil},
		{typ: "Status", in: "DRAFT", want: "DRAFT"},
		{typ: "Status", in: "GONE", error: `Enum "Status" cannot represent value: "GONE"`},
		{typ: "Status", in: float64(1), error: `Enum "Status" cannot represent value: 1`},
	}
	for _, tc := range cases {
		got, err := rt.SerializeLeafValue(context.Background(), tc.typ, tc.in)
		if tc.error != "" {
			require.EqualError(t, err, tc.error, "%s %v", tc.typ, tc.in)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s %v", tc.typ, tc.in)
	}
}
