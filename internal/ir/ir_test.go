package ir_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/restgraph/internal/config"
	"github.com/hanpama/restgraph/internal/ir"
)

func mustBuild(t *testing.T, sdl string) *ir.Document {
	t.Helper()
	cfg, err := config.FromSDL("test.graphql", sdl)
	require.NoError(t, err)
	doc, err := ir.Build(cfg)
	require.NoError(t, err)
	return doc
}

const blogSDL = `
schema @upstream(baseURL: "http://upstream.local") { query: Query }

type Query {
  posts: [Post] @http(path: "/posts")
  post(id: Int!): Post @http(path: "/posts/{{args.id}}")
  search(filter: PostFilter): [Post!]! @http(path: "/posts")
}

input PostFilter {
  userId: Int
  tags: [String!]
}

type Post {
  id: Int!
  userId: Int!
  title: String
  user: User @http(path: "/users/{{value.userId}}")
}

type User {
  id: Int!
  name: String
  posts: [Post] @http(path: "/users/{{value.id}}/posts")
}
`

func TestBuildDocument(t *testing.T) {
	doc := mustBuild(t, blogSDL)

	var names []string
	for _, def := range doc.Definitions {
		names = append(names, def.Name())
	}
	if diff := cmp.Diff([]string{"Query", "PostFilter", "Post", "User"}, names); diff != "" {
		t.Fatalf("definition order mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, doc.Input("PostFilter"))
	require.Nil(t, doc.Object("PostFilter"))
	require.NotNil(t, doc.Object("Post"))
	require.Nil(t, doc.Definition("Missing"))

	search := doc.Field("Query", "search")
	require.NotNil(t, search)
	require.Equal(t, "[Post!]!", search.Type.String())
	require.Equal(t, "PostFilter", search.Arg("filter").Type.String())
	require.Equal(t, "[String!]", doc.Input("PostFilter").Field("tags").Type.String())

	user := doc.Field("Post", "user")
	require.Equal(t, &ir.Http{Path: "/users/{{value.userId}}"}, user.Http())
	require.True(t, user.HasResolver())
	require.False(t, doc.Field("Post", "title").HasResolver())
	require.Nil(t, doc.Field("Post", "missing"))
}

func TestWalkOrder(t *testing.T) {
	doc := mustBuild(t, blogSDL)

	var visited []string
	doc.Walk(ir.Visitor{
		Definition: func(d *ir.Definition) { visited = append(visited, d.Name()) },
		Field: func(owner *ir.ObjectTypeDefinition, f *ir.FieldDefinition) {
			visited = append(visited, owner.Name+"."+f.Name)
		},
		InputValue: func(owner, field string, v *ir.InputValueDefinition) {
			visited = append(visited, strings.Join([]string{owner, field, v.Name}, ":"))
		},
	})
	want := []string{
		"Query", "Query.posts", "Query.post", "Query:post:id", "Query.search", "Query:search:filter",
		"PostFilter", "PostFilter::userId", "PostFilter::tags",
		"Post", "Post.id", "Post.userId", "Post.title", "Post.user",
		"User", "User.id", "User.name", "User.posts",
	}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Fatalf("walk mismatch (-want +got):\n%s", diff)
	}
}

func TestRoutes(t *testing.T) {
	doc := mustBuild(t, blogSDL+`
type Orphan { a: String }
`)
	want := map[string][]string{
		"Query":  {"Query"},
		"Post":   {"Query", "posts"},
		"User":   {"Query", "posts", "user"},
		"Orphan": {"Orphan"},
	}
	if diff := cmp.Diff(want, doc.Routes()); diff != "" {
		t.Fatalf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildViolations(t *testing.T) {
	cases := []struct {
		name string
		sdl  string
		want []string
	}{
		{
			name: "undeclared type",
			sdl:  `type Query { post: Post @http(path: "/p") }`,
			want: []string{"Undeclared type 'Post' was found"},
		},
		{
			name: "query root missing",
			sdl:  `schema { mutation: M } type M { a: String @const(data: "x") }`,
			want: []string{"Query root is missing"},
		},
		{
			name: "query type not defined",
			sdl:  `schema { query: Root } type Query { a: String }`,
			want: []string{"Query type is not defined"},
		},
		{
			name: "input and output",
			sdl:  `type Query { a(f: Post): Post @http(path: "/p") } type Post { id: Int }`,
			want: []string{"type is used in input and output"},
		},
		{
			name: "error directive in input",
			sdl:  `type Query { a: String @error(message: "x", trace: []) }`,
			want: []string{"@error is output-only and can't be configured"},
		},
		{
			name: "reserved name",
			sdl:  `type Query { __a: String }`,
			want: []string{"Name '__a' is reserved"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.FromSDL("", tc.sdl)
			require.NoError(t, err)
			_, err = ir.Build(cfg)
			require.Error(t, err)
			verr, ok := err.(ir.ValidationError)
			require.True(t, ok, "expected ValidationError, got %T", err)
			var got []string
			for _, v := range verr {
				got = append(got, v.Message)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("violations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildEnums(t *testing.T) {
	doc := mustBuild(t, `
type Query { post: Post @http(path: "/p") }
type Post { status: Status }
"Publication state"
enum Status { DRAFT PUBLISHED }
`)
	status := doc.Enum("Status")
	require.NotNil(t, status)
	require.Equal(t, &ir.EnumTypeDefinition{Name: "Status", Description: "Publication state", Values: []string{"DRAFT", "PUBLISHED"}}, status)
	require.True(t, status.Has("DRAFT"))
	require.False(t, status.Has("GONE"))
	require.True(t, doc.IsLeaf("Status"))
	require.True(t, doc.IsLeaf("String"))
	require.False(t, doc.IsLeaf("Post"))
}

func TestBuildEnumViolations(t *testing.T) {
	cfg := &config.Config{
		Schema: config.RootSchema{Query: "Query"},
		Types: config.Types{
			{Name: "Query", Fields: config.Fields{{Name: "a", Type: "String"}}},
			{Name: "Empty", Variants: []string{}},
			{Name: "Mixed", Variants: []string{"A"}, Fields: config.Fields{{Name: "b", Type: "String"}}},
			{Name: "Twice", Variants: []string{"A", "A"}},
		},
	}
	_, err := ir.Build(cfg)
	require.Error(t, err)
	verr, ok := err.(ir.ValidationError)
	require.True(t, ok, "expected ValidationError, got %T", err)
	var got []string
	for _, v := range verr {
		got = append(got, v.Message)
	}
	want := []string{
		"No variants found for enum",
		"Enum 'Mixed' can't declare fields",
		"Enum value 'A' is declared more than once",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDuplicateField(t *testing.T) {
	cfg := &config.Config{
		Schema: config.RootSchema{Query: "Query"},
		Types: config.Types{{
			Name: "Query",
			Fields: config.Fields{
				{Name: "a", Type: "String"},
				{Name: "a", Type: "Int"},
			},
		}},
	}
	_, err := ir.Build(cfg)
	require.EqualError(t, err, "violations found:\n- Field 'a' is declared more than once on type 'Query' [Query.a]\n")
}
