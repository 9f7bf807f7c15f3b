package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/restgraph/internal/config"
	executor "github.com/hanpama/restgraph/internal/executor"
	"github.com/hanpama/restgraph/internal/ir"
	language "github.com/hanpama/restgraph/internal/language"
	"github.com/hanpama/restgraph/internal/resolver"
	schema "github.com/hanpama/restgraph/internal/schema"
)

const blogSDL = `schema @upstream(baseURL: "http://upstream.local") { query: Query }

type Query {
  post(id: Int!, expand: Boolean = false): Post @http(path: "/posts/{{args.id}}")
}

"A blog post"
type Post {
  id: Int!
  tags: [String!]!
  body: String @modify(name: "content")
  secret: String @modify(omit: true)
  user: User @const(data: {name: "x"}) @inline(path: ["user", "name"])
}

type User {
  name: String
}
`

func buildDocument(t *testing.T, sdl string) *ir.Document {
	t.Helper()
	cfg, err := config.FromSDL("blog.graphql", sdl)
	require.NoError(t, err)
	doc, err := ir.Build(cfg)
	require.NoError(t, err)
	ir.Validate(doc)
	return doc
}

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	doc := buildDocument(t, blogSDL)
	g, err := resolver.Compile(doc)
	require.NoError(t, err)
	sch, err := schema.Build(doc, g)
	require.NoError(t, err)
	return sch
}

func execute(t *testing.T, rt executor.Runtime, sch *schema.Schema, query string) map[string]any {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	res := executor.NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRoots(t *testing.T) {
	w := Wrap(executor.NewMockRuntime(nil), buildSchema(t))
	data := execute(t, w.Runtime, w.Schema, `{ __schema { queryType { name } mutationType { name } types { name } } }`)

	var names []any
	for _, typ := range data["__schema"].(map[string]any)["types"].([]any) {
		names = append(names, typ.(map[string]any)["name"])
	}
	want := map[string]any{
		"queryType":    map[string]any{"name": "Query"},
		"mutationType": nil,
		"types":        nil,
	}
	got := data["__schema"].(map[string]any)
	got["types"] = nil
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("__schema mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"Query", "Post", "User", "String", "Int", "Float", "Boolean", "ID", "JSON"}, names); diff != "" {
		t.Fatalf("type names mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeFields(t *testing.T) {
	w := Wrap(executor.NewMockRuntime(nil), buildSchema(t))
	data := execute(t, w.Runtime, w.Schema, `{
  __type(name: "Post") {
    kind
    name
    description
    fields { name description type { kind name ofType { kind name } } }
  }
}`)

	str := func(s string) map[string]any { return map[string]any{"kind": "SCALAR", "name": s, "ofType": nil} }
	want := map[string]any{
		"kind":        "OBJECT",
		"name":        "Post",
		"description": "A blog post",
		"fields": []any{
			map[string]any{"name": "id", "description": nil, "type": map[string]any{
				"kind": "NON_NULL", "name": nil, "ofType": map[string]any{"kind": "SCALAR", "name": "Int"},
			}},
			map[string]any{"name": "tags", "description": nil, "type": map[string]any{
				"kind": "NON_NULL", "name": nil, "ofType": map[string]any{"kind": "LIST", "name": nil},
			}},
			map[string]any{"name": "content", "description": nil, "type": str("String")},
			map[string]any{
				"name":        "user",
				"description": "Error: Inline can't be done because of const resolver at [Post.user] (trace: Query.post.@inline)",
				"type":        map[string]any{"kind": "OBJECT", "name": "User", "ofType": nil},
			},
		},
	}
	if diff := cmp.Diff(want, data["__type"]); diff != "" {
		t.Fatalf("__type mismatch (-want +got):\n%s", diff)
	}
}

func TestArgumentDefaultsAndDirectives(t *testing.T) {
	w := Wrap(executor.NewMockRuntime(nil), buildSchema(t))
	data := execute(t, w.Runtime, w.Schema, `{
  __type(name: "Query") { fields { name args { name defaultValue } } }
  __schema { directives { name locations } }
}`)

	fields := data["__type"].(map[string]any)["fields"].([]any)
	require.Len(t, fields, 1)
	want := []any{
		map[string]any{"name": "id", "defaultValue": nil},
		map[string]any{"name": "expand", "defaultValue": "false"},
	}
	if diff := cmp.Diff(want, fields[0].(map[string]any)["args"]); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}

	var directives []any
	for _, d := range data["__schema"].(map[string]any)["directives"].([]any) {
		directives = append(directives, d.(map[string]any)["name"])
	}
	require.Equal(t, []any{"const", "error", "http", "include", "inline", "modify", "skip"}, directives)
}

func TestUnknownTypeIsNull(t *testing.T) {
	w := Wrap(executor.NewMockRuntime(nil), buildSchema(t))
	data := execute(t, w.Runtime, w.Schema, `{ __type(name: "Nope") { name } }`)
	require.Nil(t, data["__type"])
}

func TestDelegatesOtherFields(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.post": executor.NewMockValueResolver(map[string]any{"id": 7}),
		"Post.id":    executor.NewMockSourceResolver("id"),
	})
	w := Wrap(rt, buildSchema(t))
	data := execute(t, w.Runtime, w.Schema, `{ __typename post(id: 7) { __typename id } }`)
	want := map[string]any{
		"__typename": "Query",
		"post":       map[string]any{"__typename": "Post", "id": 7},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
