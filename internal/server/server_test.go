package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
	executor "github.com/hanpama/restgraph/internal/executor"
	reqid "github.com/hanpama/restgraph/internal/reqid"
	schema "github.com/hanpama/restgraph/internal/schema"
)

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sch := schema.NewSchema("").SetQueryType("Query")
	sch.AddType(schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hello", "", schema.NamedType("String"))))
	sch.AddType(schema.NewType("String", schema.TypeKindScalar, ""))
	h, err := New(rt, sch, opts...)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type headerKey struct{}

func TestRequestContext(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured string
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = ctx.Value(headerKey{}).(string)
		return "world", nil
	})
	h := newTestHandler(t, rt, WithRequestContext(func(ctx context.Context, r *http.Request) context.Context {
		return context.WithValue(ctx, headerKey{}, r.Header.Get("X-Test"))
	}))

	w := post(h, `{"query":"{ hello }"}`, map[string]string{"X-Test": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "abc", captured)
}

func TestSingleAndBatch(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	w := post(h, `{"query":"{ hello }"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	if diff := cmp.Diff(`{"data":{"hello":"world"}}`, strings.TrimSpace(w.Body.String())); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	w = post(h, `[{"query":"{ hello }"},{"query":"{ a: hello }"}]`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	if diff := cmp.Diff(`[{"data":{"hello":"world"}},{"data":{"a":"world"}}]`, strings.TrimSpace(w.Body.String())); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var ops []events.Operation
	var finish events.HTTPFinish
	defer eventbus.Subscribe(func(_ context.Context, e events.GraphQLStart) { ops = append(ops, e.Operation) })()
	defer eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) { finish = e })()

	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	w := post(newTestHandler(t, rt), `[{"query":"query A { hello }"},{"query":"{ hello }"}]`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	want := []events.Operation{
		{Name: "", Type: "query", Query: "query A { hello }", Index: 0},
		{Name: "", Type: "query", Query: "{ hello }", Index: 1},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, finish.Operations)
	require.Equal(t, http.StatusOK, finish.Status)
}

func TestGetQuery(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("GET", "/graphql?query=%7B+hello+%7D", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
}

func TestParseErrors(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))

	w := post(h, `{"query":""}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"data":null,"errors":[{"message":"missing 'query'"}]}`, w.Body.String())

	w = post(h, `[]`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "empty batch")

	req := httptest.NewRequest("PUT", "/graphql", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGraphiQL(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	req := httptest.NewRequest("GET", "/graphql", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "GraphiQL.createFetcher")

	h = newTestHandler(t, executor.NewMockRuntime(nil), WithGraphiQL(false))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndPreflight(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithCORS("*"))

	w := post(h, `{"query":"{ hello }"}`, map[string]string{"Origin": "http://example.com"})
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithMaxBodyBytes(10))

	w := post(h, `{"query":"1234567890"}`, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var capturedID string
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	w := post(h, `{"query":"{ hello }"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, capturedID)
	require.Equal(t, capturedID, w.Header().Get(reqid.Header))

	w = post(h, `{"query":"{ hello }"}`, map[string]string{reqid.Header: "from-client"})
	require.Equal(t, "from-client", capturedID)
	require.Equal(t, "from-client", w.Header().Get(reqid.Header))
}
