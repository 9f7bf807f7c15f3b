package upstream

import (
	"net/http"
	"strings"
	"time"
)

// Request is a rendered upstream call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Key identifies the request for caching and coalescing: "METHOD URL", plus
// the values of the given headers when they are present.
func (r *Request) Key(headers []string) string {
	var b strings.Builder
	b.WriteString(r.method())
	b.WriteByte(' ')
	b.WriteString(r.URL)
	for _, h := range headers {
		vs := r.Header.Values(h)
		if len(vs) == 0 {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(h))
		b.WriteString(": ")
		b.WriteString(strings.Join(vs, ","))
	}
	return b.String()
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Response is a fully read upstream response. Cached responses are shared
// between callers and must not be mutated.
type Response struct {
	Status     int
	Header     http.Header
	Body       []byte
	InsertedAt time.Time
}
