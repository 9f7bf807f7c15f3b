package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
	reqid "github.com/hanpama/restgraph/internal/reqid"
)

// Client sends upstream HTTP requests. GET requests are served from the
// response cache when enabled, and identical GET requests in flight share one
// upstream call.
type Client struct {
	opts  *Options
	cache *ristretto.Cache[string, *Response]
	now   func() time.Time

	mu      sync.Mutex
	flights map[string]*flight
	closed  atomic.Bool
}

// flight is one upstream call shared by every caller waiting on its key.
type flight struct {
	done    chan struct{}
	resp    *Response
	err     error
	waiters int
	cancel  context.CancelFunc
}

func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	c := &Client{
		opts:    o,
		now:     time.Now,
		flights: make(map[string]*flight),
	}
	if o.CacheEnabled {
		cache, err := ristretto.NewCache(&ristretto.Config[string, *Response]{
			NumCounters:        1e5,
			MaxCost:            o.MaxCacheCost,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "upstream: create cache")
		}
		c.cache = cache
	}
	return c, nil
}

// Do sends req, or answers it from the cache or from an identical request in
// flight. A non-2xx status is returned as *StatusError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if req.method() != http.MethodGet {
		return c.send(ctx, req)
	}
	key := req.Key(c.opts.CacheKeyHeaders)
	if resp, ok := c.lookup(key); ok {
		eventbus.Publish(ctx, events.CacheHit{Key: key})
		return resp, nil
	}
	return c.join(ctx, key, req)
}

// Close releases the cache. Calls in flight are left to finish.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.cache != nil {
		c.cache.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool { return c.closed.Load() }

func (c *Client) lookup(key string) (*Response, bool) {
	if c.cache == nil {
		return nil, false
	}
	resp, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if ttl := c.opts.CacheTTL; ttl > 0 && c.now().Sub(resp.InsertedAt) >= ttl {
		c.cache.Del(key)
		return nil, false
	}
	return resp, true
}

func (c *Client) store(key string, resp *Response) {
	if c.cache == nil || c.closed.Load() {
		return
	}
	resp.InsertedAt = c.now()
	cost := int64(len(resp.Body))
	if cost == 0 {
		cost = 1
	}
	c.cache.SetWithTTL(key, resp, cost, c.opts.CacheTTL)
	c.cache.Wait()
}

// join attaches the caller to the flight for key, starting one if needed.
// A caller whose ctx ends detaches; the last one to detach cancels the call.
func (c *Client) join(ctx context.Context, key string, req *Request) (*Response, error) {
	c.mu.Lock()
	f, shared := c.flights[key]
	if shared {
		f.waiters++
	} else {
		base, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{done: make(chan struct{}), waiters: 1, cancel: cancel}
		c.flights[key] = f
		go c.run(base, key, req, f)
	}
	c.mu.Unlock()

	if shared {
		eventbus.Publish(ctx, events.Coalesced{Key: key})
	}

	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		c.mu.Lock()
		f.waiters--
		if f.waiters == 0 && c.flights[key] == f {
			delete(c.flights, key)
			f.cancel()
		}
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (c *Client) run(ctx context.Context, key string, req *Request, f *flight) {
	defer f.cancel()
	resp, err := c.send(ctx, req)
	if err == nil {
		c.store(key, resp)
	}
	c.mu.Lock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	f.resp, f.err = resp, err
	c.mu.Unlock()
	close(f.done)
}

func (c *Client) send(ctx context.Context, req *Request) (resp *Response, err error) {
	method := req.method()
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "upstream: build request %s %s", method, req.URL)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if hr.Header.Get("Accept") == "" {
		hr.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && hr.Header.Get("Content-Type") == "" {
		hr.Header.Set("Content-Type", "application/json")
	}
	if id, ok := reqid.FromContext(ctx); ok {
		hr.Header.Set(reqid.Header, id)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.UpstreamStart{Method: method, URL: req.URL})
	status := 0
	defer func() {
		eventbus.Publish(ctx, events.UpstreamFinish{
			Method:   method,
			URL:      req.URL,
			Status:   status,
			Err:      err,
			Duration: time.Since(start),
		})
	}()

	hres, err := c.opts.HTTPClient.Do(hr)
	if err != nil {
		return nil, c.transportError(ctx, method, req.URL, err)
	}
	defer hres.Body.Close()
	status = hres.StatusCode

	data, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, c.transportError(ctx, method, req.URL, err)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Method: method, URL: req.URL, Status: status}
	}
	return &Response{Status: status, Header: hres.Header, Body: data}, nil
}

func (c *Client) transportError(ctx context.Context, method, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Errorf("upstream %s %s timed out after %s", method, url, c.opts.Timeout)
	}
	return errors.Wrapf(err, "upstream %s %s failed", method, url)
}
