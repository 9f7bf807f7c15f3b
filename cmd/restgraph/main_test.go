package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `schema @upstream(baseURL: "http://upstream.local") { query: Query }

type Query {
  post(id: Int!): Post @http(path: "/posts/{{args.id}}")
}

type Post {
  id: Int!
  title: String
  author: User @const(data: {name: "c"}) @inline(path: ["title"])
}

type User {
  name: String
}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCheck(t *testing.T) {
	path := writeFile(t, "gateway.graphql", testConfig)
	out, errOut, err := execute(t, "check", path)
	require.NoError(t, err)
	require.Contains(t, out, "3 types, 1 diagnostics")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace([]byte(errOut)), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "Inline can't be done because of const resolver at [Post.author]", line["message"])
	require.Equal(t, []any{"Query", "post", "@inline"}, line["trace"])
}

func TestCheckFatal(t *testing.T) {
	path := writeFile(t, "gateway.graphql", `type Query { post: Post @http(path: "/posts/1") }
type Post { id: Int }`)
	_, _, err := execute(t, "check", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "No base URL defined")
}

func TestPrint(t *testing.T) {
	path := writeFile(t, "gateway.graphql", testConfig)
	out, _, err := execute(t, "print", path)
	require.NoError(t, err)
	require.Contains(t, out, "type Post {")
	require.Contains(t, out, "post(id: Int!): Post")
}

func TestIntrospect(t *testing.T) {
	path := writeFile(t, "gateway.graphql", testConfig)
	out, _, err := execute(t, "introspect", path)
	require.NoError(t, err)

	var got struct {
		QueryType struct {
			Name string `json:"name"`
		} `json:"queryType"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "Query", got.QueryType.Name)
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("RESTGRAPH_LOG_LEVEL", "error")
	path := writeFile(t, "gateway.graphql", testConfig)
	_, errOut, err := execute(t, "check", path)
	require.NoError(t, err)
	require.Empty(t, errOut)
}
