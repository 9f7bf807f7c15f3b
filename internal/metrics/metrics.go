// Package metrics exposes gateway counters on a private Prometheus registry.
// Values are fed from eventbus events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/restgraph/internal/eventbus"
	events "github.com/hanpama/restgraph/internal/events"
)

const namespace = "restgraph"

type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	coalesced        prometheus.Counter
	graphqlRequests  *prometheus.CounterVec
	graphqlErrors    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP requests sent, by method and status. Status is 0 when no response arrived.",
		}, []string{"method", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_cache_hits_total",
			Help:      "Upstream requests answered from the response cache.",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_coalesced_total",
			Help:      "Upstream requests that joined an identical request in flight.",
		}),
		graphqlRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_requests_total",
			Help:      "GraphQL operations executed, by operation type.",
		}, []string{"operation"}),
		graphqlErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_errors_total",
			Help:      "Errors returned in GraphQL responses.",
		}),
	}
	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.cacheHits,
		m.coalesced,
		m.graphqlRequests,
		m.graphqlErrors,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Subscribe starts counting events published on the global bus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.UpstreamFinish) {
			m.upstreamRequests.WithLabelValues(e.Method, strconv.Itoa(e.Status)).Inc()
			m.upstreamDuration.WithLabelValues(e.Method).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(context.Context, events.CacheHit) { m.cacheHits.Inc() }),
		eventbus.Subscribe(func(context.Context, events.Coalesced) { m.coalesced.Inc() }),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			op := e.Type
			if op == "" {
				op = "unknown"
			}
			m.graphqlRequests.WithLabelValues(op).Inc()
			m.graphqlErrors.Add(float64(len(e.Errors)))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
