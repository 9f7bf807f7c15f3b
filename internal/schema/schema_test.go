package schema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/restgraph/internal/config"
	"github.com/hanpama/restgraph/internal/ir"
	"github.com/hanpama/restgraph/internal/resolver"
)

const blogSDL = `
schema @upstream(baseURL: "http://upstream.local") { query: Query }

type Query {
  "All posts"
  posts: [Post!]! @http(path: "/posts")
  post(id: Int!, expand: Boolean = false): Post @http(path: "/posts/{{args.id}}")
}

type Post {
  id: Int!
  userId: Int!
  body: String @modify(name: "content")
  secret: String @modify(omit: true)
  user: User @const(data: {name: "x"}) @inline(path: ["user", "name"])
}

type User {
  name: String
}
`

func buildFromSDL(t *testing.T, sdl string) *Schema {
	t.Helper()
	cfg, err := config.FromSDL("test.graphql", sdl)
	require.NoError(t, err)
	doc, err := ir.Build(cfg)
	require.NoError(t, err)
	ir.Validate(doc)
	g, err := resolver.Compile(doc)
	require.NoError(t, err)
	s, err := Build(doc, g)
	require.NoError(t, err)
	return s
}

func TestBuild(t *testing.T) {
	s := buildFromSDL(t, blogSDL)

	var names []string
	for _, typ := range s.OrderedTypes() {
		if !isBuiltinType(typ) {
			names = append(names, typ.Name)
		}
	}
	if diff := cmp.Diff([]string{"Query", "Post", "User"}, names); diff != "" {
		t.Fatalf("type order mismatch (-want +got):\n%s", diff)
	}

	query := s.GetQueryType()
	require.True(t, query.Field("posts").Async)
	require.Equal(t, "[Post!]!", query.Field("posts").Type.String())
	require.Equal(t, false, query.Field("post").Arguments[1].DefaultValue)
	require.Nil(t, s.GetMutationType())

	post := s.Types["Post"]
	var fields []string
	for _, f := range post.Fields {
		fields = append(fields, f.Name)
	}
	if diff := cmp.Diff([]string{"id", "userId", "content", "user"}, fields); diff != "" {
		t.Fatalf("field mismatch (-want +got):\n%s", diff)
	}
	require.False(t, post.Field("user").Async)
	require.Equal(t,
		"Error: Inline can't be done because of const resolver at [Post.user] (trace: Query.posts.@inline)",
		post.Field("user").Description,
	)
}

func TestFromIR(t *testing.T) {
	cases := map[string]*ir.Type{
		"String":     ir.NamedType("String", false),
		"Int!":       ir.NamedType("Int", true),
		"[Int]":      ir.ListType(ir.NamedType("Int", false), false),
		"[String!]!": ir.ListType(ir.NamedType("String", true), true),
		"[[ID!]]!":   ir.ListType(ir.ListType(ir.NamedType("ID", true), false), true),
	}
	for want, in := range cases {
		require.Equal(t, want, FromIR(in).String())
	}
}

func TestRender(t *testing.T) {
	s := buildFromSDL(t, blogSDL)
	got := Render(s)

	want := `type Query {
  """
  All posts
  """
  posts: [Post!]!
  post(id: Int!, expand: Boolean = false): Post
}

type Post {
  id: Int!
  userId: Int!
  content: String
  """
  Error: Inline can't be done because of const resolver at [Post.user] (trace: Query.posts.@inline)
  """
  user: User
}

type User {
  name: String
}
`
	require.True(t, strings.HasPrefix(got, want), "rendered schema:\n%s", got)
	require.Contains(t, got, `directive @http(path: String!, baseURL: String, method: String = "GET", query: JSON, headers: JSON, body: String) on FIELD_DEFINITION`)
	require.NotContains(t, got, "directive @skip")
	require.NotContains(t, got, "scalar String")
	require.Equal(t, got, Render(s))
}

func TestRenderSchemaBlock(t *testing.T) {
	s := NewSchema("").SetQueryType("Root").SetMutationType("Mutation")
	s.AddType(NewType("Root", TypeKindObject, "").AddField(NewField("a", "", NamedType("String"))))
	s.AddType(NewType("Mutation", TypeKindObject, "").
		AddField(NewField("set", "", NonNullType(NamedType("Boolean"))).
			AddArgument(NewInputValue("value", "", NamedType("JSON")).SetDefault(map[string]any{"b": 1.5, "a": []any{"x"}}))))

	want := `schema {
  query: Root
  mutation: Mutation
}

type Root {
  a: String
}

type Mutation {
  set(value: JSON = {a: ["x"], b: 1.5}): Boolean!
}
`
	if diff := cmp.Diff(want, Render(s)); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}
