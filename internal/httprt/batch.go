package httprt

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hanpama/restgraph/internal/resolver"
	"github.com/hanpama/restgraph/internal/upstream"
)

// group collects the tasks of one group-by field that render the same
// request apart from the batch key parameter.
type group struct {
	http    *resolver.Http
	base    *upstream.Request
	values  []string
	waiters map[string][]waiter
}

func (g *group) add(w waiter) {
	if g.waiters == nil {
		g.waiters = make(map[string][]waiter)
	}
	if _, ok := g.waiters[w.match]; !ok {
		g.values = append(g.values, w.match)
	}
	g.waiters[w.match] = append(g.waiters[w.match], w)
}

// chunks splits the distinct key values into runs of at most size values.
func (g *group) chunks(size int) [][]string {
	if size <= 0 || len(g.values) <= size {
		return [][]string{g.values}
	}
	var out [][]string
	for start := 0; start < len(g.values); start += size {
		end := min(start+size, len(g.values))
		out = append(out, g.values[start:end])
	}
	return out
}

// request repeats the batch key parameter once per value.
func (g *group) request(values []string) *upstream.Request {
	q := url.Values{g.http.BatchKey: values}
	rawURL := g.base.URL
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return &upstream.Request{
		Method: g.base.Method,
		URL:    rawURL + sep + q.Encode(),
		Header: g.base.Header.Clone(),
		Body:   g.base.Body,
	}
}

// pick selects the items whose value at path renders as match. A list field
// receives every match, any other field the first one or null.
func pick(items []any, path []string, match string, list bool) any {
	var found []any
	for _, item := range items {
		v, ok := dig(item, path)
		if !ok {
			continue
		}
		if s, ok := groupValue(v); ok && s == match {
			if !list {
				return item
			}
			found = append(found, item)
		}
	}
	if !list {
		return nil
	}
	if found == nil {
		found = []any{}
	}
	return found
}

func groupValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
