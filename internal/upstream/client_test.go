package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
	reqid "github.com/hanpama/restgraph/internal/reqid"
)

type countingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newCountingServer(t *testing.T, h http.HandlerFunc) *countingServer {
	t.Helper()
	s := &countingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waiters(c *Client, key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.flights[key]; f != nil {
		return f.waiters
	}
	return 0
}

func TestDo_CachesGET(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(`{"id":1}`))
	c := newClient(t, WithCache(true, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := c.Do(ctx, &Request{Method: http.MethodGet, URL: srv.URL + "/users/1"})
		require.NoError(t, err)
		require.Equal(t, `{"id":1}`, string(resp.Body))
	}
	require.EqualValues(t, 1, srv.hits.Load())
}

func TestDo_CacheExpiry(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(`[]`))
	c := newClient(t, WithCache(true, time.Minute))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	req := &Request{URL: srv.URL + "/posts"}

	_, err := c.Do(ctx, req)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = c.Do(ctx, req)
	require.NoError(t, err)
	require.EqualValues(t, 1, srv.hits.Load())

	now = now.Add(time.Minute)
	_, err = c.Do(ctx, req)
	require.NoError(t, err)
	require.EqualValues(t, 2, srv.hits.Load())
}

func TestDo_CacheDisabled(t *testing.T) {
	srv := newCountingServer(t, jsonHandler(`{}`))
	c := newClient(t)
	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), &Request{URL: srv.URL})
		require.NoError(t, err)
	}
	require.EqualValues(t, 2, srv.hits.Load())
}

func TestDo_NonGETBypassesCache(t *testing.T) {
	var bodies []string
	var mu sync.Mutex
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, r.Method+" "+r.Header.Get("Content-Type")+" "+string(buf))
		mu.Unlock()
		jsonHandler(`{}`)(w, r)
	})
	c := newClient(t, WithCache(true, 0))
	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), &Request{Method: "post", URL: srv.URL, Body: []byte(`{"a":1}`)})
		require.NoError(t, err)
	}
	want := []string{
		`POST application/json {"a":1}`,
		`POST application/json {"a":1}`,
	}
	if diff := cmp.Diff(want, bodies); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
}

func TestDo_StatusErrorIsNotCached(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	c := newClient(t, WithCache(true, time.Minute))
	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), &Request{URL: srv.URL + "/missing"})
		var se *StatusError
		require.ErrorAs(t, err, &se)
		require.Equal(t, http.StatusNotFound, se.Status)
		require.Equal(t, "upstream GET "+srv.URL+"/missing returned status 404", err.Error())
	}
	require.EqualValues(t, 2, srv.hits.Load())
}

func TestDo_Timeout(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	c := newClient(t, WithTimeout(50*time.Millisecond))
	_, err := c.Do(context.Background(), &Request{URL: srv.URL})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timed out")
}

func TestDo_CacheKeyHeaders(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"` + r.Header.Get("Authorization") + `"`))
	})
	c := newClient(t, WithCache(true, 0), WithCacheKeyHeaders("Authorization"))
	ctx := context.Background()
	do := func(token string) string {
		resp, err := c.Do(ctx, &Request{URL: srv.URL, Header: http.Header{"Authorization": {token}}})
		require.NoError(t, err)
		return string(resp.Body)
	}
	require.Equal(t, `"a"`, do("a"))
	require.Equal(t, `"b"`, do("b"))
	require.Equal(t, `"a"`, do("a"))
	require.EqualValues(t, 2, srv.hits.Load())
}

func TestRequestKey(t *testing.T) {
	r := &Request{URL: "http://x/users/1", Header: http.Header{"Authorization": {"t"}}}
	require.Equal(t, "GET http://x/users/1", r.Key(nil))
	require.Equal(t, "GET http://x/users/1\nauthorization: t", r.Key([]string{"Authorization", "X-Missing"}))
}

func TestDo_CoalescesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		jsonHandler(`{"ok":true}`)(w, r)
	})
	c := newClient(t)
	req := &Request{URL: srv.URL + "/slow"}
	key := req.Key(nil)

	const n = 5
	var wg sync.WaitGroup
	bodies := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Do(context.Background(), req)
			errs[i] = err
			if resp != nil {
				bodies[i] = string(resp.Body)
			}
		}(i)
	}
	require.Eventually(t, func() bool { return waiters(c, key) == n }, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, `{"ok":true}`, bodies[i])
	}
	require.EqualValues(t, 1, srv.hits.Load())
	require.Equal(t, 0, waiters(c, key))
}

func TestDo_CancelsOnlyWithoutWaiters(t *testing.T) {
	cancelled := make(chan struct{})
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(cancelled)
		case <-time.After(5 * time.Second):
		}
	})
	c := newClient(t, WithTimeout(0))
	req := &Request{URL: srv.URL + "/hang"}
	key := req.Key(nil)

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	errs := make(chan error, 2)
	go func() { _, err := c.Do(ctx1, req); errs <- err }()
	require.Eventually(t, func() bool { return srv.hits.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	go func() { _, err := c.Do(ctx2, req); errs <- err }()
	require.Eventually(t, func() bool { return waiters(c, key) == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel1()
	require.ErrorIs(t, <-errs, context.Canceled)
	require.Equal(t, 1, waiters(c, key))
	select {
	case <-cancelled:
		t.Fatal("upstream call cancelled while a waiter remained")
	case <-time.After(50 * time.Millisecond):
	}

	cancel2()
	require.ErrorIs(t, <-errs, context.Canceled)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream call not cancelled after the last waiter left")
	}
	require.EqualValues(t, 1, srv.hits.Load())
}

func TestDo_PublishesEvents(t *testing.T) {
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var mu sync.Mutex
	var got []string
	record := func(s string) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}
	eventbus.Subscribe(func(ctx context.Context, e events.UpstreamStart) { record("start " + e.Method) })
	eventbus.Subscribe(func(ctx context.Context, e events.UpstreamFinish) {
		record("finish " + http.StatusText(e.Status))
	})
	eventbus.Subscribe(func(ctx context.Context, e events.CacheHit) { record("hit") })

	var seenID atomic.Value
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		seenID.Store(r.Header.Get(reqid.Header))
		jsonHandler(`{}`)(w, r)
	})
	c := newClient(t, WithCache(true, 0))
	ctx, id := reqid.NewContext(context.Background())
	for i := 0; i < 2; i++ {
		_, err := c.Do(ctx, &Request{URL: srv.URL})
		require.NoError(t, err)
	}

	require.Equal(t, id, seenID.Load())
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"start GET", "finish OK", "hit"}, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}
