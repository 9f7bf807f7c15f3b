package gateway

import (
	"net/http"
	"sync"
)

// Mux routes requests to the current Gateway. Swap replaces it without
// interrupting requests already being served by the previous one; a replaced
// Gateway is closed when its last request finishes.
type Mux struct {
	mu      sync.Mutex
	current *lease
	mux     *http.ServeMux
}

// lease counts the requests holding a Gateway.
type lease struct {
	gw      *Gateway
	refs    int
	retired bool
}

// NewMux serves /graphql, /schema.json and /healthz from g. Extra handlers
// (such as /metrics) are mounted with Handle.
func NewMux(g *Gateway) *Mux {
	m := &Mux{mux: http.NewServeMux(), current: &lease{gw: g}}
	m.mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		l := m.acquire()
		defer m.release(l)
		l.gw.GraphQL().ServeHTTP(w, r)
	})
	m.mux.HandleFunc("/schema.json", func(w http.ResponseWriter, r *http.Request) {
		l := m.acquire()
		defer m.release(l)
		l.gw.SchemaJSON().ServeHTTP(w, r)
	})
	m.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return m
}

func (m *Mux) Handle(pattern string, h http.Handler) { m.mux.Handle(pattern, h) }

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) { m.mux.ServeHTTP(w, r) }

// Current returns the Gateway being served.
func (m *Mux) Current() *Gateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.gw
}

// Swap installs g and returns the previous Gateway, which is closed once no
// request holds it.
func (m *Mux) Swap(g *Gateway) *Gateway {
	m.mu.Lock()
	prev := m.current
	m.current = &lease{gw: g}
	prev.retired = true
	idle := prev.refs == 0
	m.mu.Unlock()
	if idle {
		_ = prev.gw.Close()
	}
	return prev.gw
}

func (m *Mux) acquire() *lease {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.refs++
	return m.current
}

func (m *Mux) release(l *lease) {
	m.mu.Lock()
	l.refs--
	idle := l.retired && l.refs == 0
	m.mu.Unlock()
	if idle {
		_ = l.gw.Close()
	}
}
