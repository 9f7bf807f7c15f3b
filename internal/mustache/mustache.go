// Package mustache parses the {{head.path}} templates used by @http paths,
// query parameters, headers and bodies, and renders them against resolved
// values. Unlike general mustache engines, a slot without a value is an
// error rather than an empty string.
package mustache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Segment is either literal text or an expression such as
// ["value", "userId"].
type Segment struct {
	Literal string
	Expr    []string
}

func (s Segment) IsExpr() bool { return s.Expr != nil }

type Template struct {
	Source   string
	Segments []Segment
}

func Parse(src string) (*Template, error) {
	t := &Template{Source: src}
	rest := src
	for rest != "" {
		open := strings.Index(rest, "{{")
		if open < 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest})
			break
		}
		if open > 0 {
			t.Segments = append(t.Segments, Segment{Literal: rest[:open]})
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("unterminated template expression in %q", src)
		}
		body := strings.TrimSpace(rest[open+2 : open+2+end])
		if body == "" {
			return nil, fmt.Errorf("empty template expression in %q", src)
		}
		parts := strings.Split(body, ".")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		t.Segments = append(t.Segments, Segment{Expr: parts})
		rest = rest[open+2+end+2:]
	}
	return t, nil
}

// MustParse is Parse for templates known at compile time.
func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Expressions returns the expressions in order of appearance.
func (t *Template) Expressions() [][]string {
	var out [][]string
	for _, s := range t.Segments {
		if s.IsExpr() {
			out = append(out, s.Expr)
		}
	}
	return out
}

// IsConst reports whether the template renders without any lookups.
func (t *Template) IsConst() bool {
	for _, s := range t.Segments {
		if s.IsExpr() {
			return false
		}
	}
	return true
}

func (t *Template) String() string { return t.Source }

// Context resolves template expressions.
type Context interface {
	Lookup(expr []string) (any, bool)
}

// ContextFunc adapts a function to Context.
type ContextFunc func(expr []string) (any, bool)

func (f ContextFunc) Lookup(expr []string) (any, bool) { return f(expr) }

// SlotError reports an expression that could not be rendered.
type SlotError struct {
	Expr    string
	Reason  string
	Missing bool
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("template slot '%s' %s", e.Expr, e.Reason)
}

func (t *Template) Render(ctx Context) (string, error) {
	return t.RenderEscaped(ctx, nil)
}

// RenderEscaped is Render with escape applied to every slot value. Literal
// text is written as is.
func (t *Template) RenderEscaped(ctx Context, escape func(string) string) (string, error) {
	var sb strings.Builder
	for _, s := range t.Segments {
		if !s.IsExpr() {
			sb.WriteString(s.Literal)
			continue
		}
		v, ok := ctx.Lookup(s.Expr)
		if !ok || v == nil {
			return "", &SlotError{Expr: strings.Join(s.Expr, "."), Reason: "has no value", Missing: true}
		}
		str, ok := scalarString(v)
		if !ok {
			return "", &SlotError{Expr: strings.Join(s.Expr, "."), Reason: fmt.Sprintf("is not a scalar (%T)", v)}
		}
		if escape != nil {
			str = escape(str)
		}
		sb.WriteString(str)
	}
	return sb.String(), nil
}

func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}
