package httprt

import (
	"context"
	"sync"

	"github.com/hanpama/restgraph/internal/upstream"
)

type memoKey struct{}

// memo holds the upstream responses of one execution, keyed like the
// in-batch dedup, so that a GET repeated at a later depth is sent once.
type memo struct {
	mu      sync.Mutex
	entries map[string]memoEntry
}

type memoEntry struct {
	resp *upstream.Response
	err  error
}

// BeginExecution returns a context carrying a fresh response memo. The
// executor calls it once per ExecuteRequest.
func (r *Runtime) BeginExecution(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &memo{entries: make(map[string]memoEntry)})
}

func memoFrom(ctx context.Context) *memo {
	m, _ := ctx.Value(memoKey{}).(*memo)
	return m
}

func (m *memo) load(key string) (memoEntry, bool) {
	if m == nil {
		return memoEntry{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *memo) store(key string, resp *upstream.Response, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.entries[key] = memoEntry{resp: resp, err: err}
	m.mu.Unlock()
}
