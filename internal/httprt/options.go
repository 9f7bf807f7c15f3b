package httprt

import (
	"context"
	"net/http"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithForwardHeaders copies the named headers of the incoming request onto
// every upstream request.
func WithForwardHeaders(names ...string) Option {
	return func(r *Runtime) { r.forward = names }
}

// WithConcurrency bounds the number of upstream requests a single batch has
// in flight. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(r *Runtime) { r.concurrency = n }
}

// WithMaxBatchSize bounds the number of key values merged into one group-by
// request. n <= 0 means unbounded.
func WithMaxBatchSize(n int) Option {
	return func(r *Runtime) { r.maxBatchSize = n }
}

type headersKey struct{}

// WithRequestHeaders stores the incoming request headers in ctx for
// {{headers.*}} slots and header forwarding.
func WithRequestHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, headersKey{}, h)
}

// RequestHeaders returns the headers stored by WithRequestHeaders, or an
// empty header set.
func RequestHeaders(ctx context.Context) http.Header {
	if h, ok := ctx.Value(headersKey{}).(http.Header); ok {
		return h
	}
	return http.Header{}
}
