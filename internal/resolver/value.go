package resolver

import (
	"fmt"
	"math"

	"github.com/hanpama/restgraph/internal/ir"
)

// checkValue reports whether a JSON-shaped value fits t. Object fields that
// have their own resolver are not expected in the value.
func checkValue(doc *ir.Document, t *ir.Type, v any) error {
	if v == nil {
		if t.NonNull {
			return fmt.Errorf("expected %s, got null", t)
		}
		return nil
	}
	if t.IsList() {
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected %s, got %s", t, jsonKind(v))
		}
		for i, item := range items {
			if err := checkValue(doc, t.OfType, item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}

	switch t.Name {
	case "JSON":
		return nil
	case "String":
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected String, got %s", jsonKind(v))
		}
		return nil
	case "ID":
		switch v.(type) {
		case string, float64:
			return nil
		}
		return fmt.Errorf("expected ID, got %s", jsonKind(v))
	case "Int":
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return fmt.Errorf("expected Int, got %s", jsonKind(v))
		}
		return nil
	case "Float":
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("expected Float, got %s", jsonKind(v))
		}
		return nil
	case "Boolean":
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected Boolean, got %s", jsonKind(v))
		}
		return nil
	}

	if e := doc.Enum(t.Name); e != nil {
		if s, ok := v.(string); ok && e.Has(s) {
			return nil
		}
		return fmt.Errorf("expected %s, got %s", t.Name, describe(v))
	}

	obj := doc.Object(t.Name)
	if obj == nil {
		return fmt.Errorf("unknown type %s", t.Name)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("expected %s, got %s", t.Name, jsonKind(v))
	}
	for _, f := range obj.Fields {
		if f.HasResolver() || f.Inline() != nil {
			continue
		}
		fv, present := m[f.Name]
		if !present {
			if f.Type.NonNull {
				return fmt.Errorf("%s.%s: missing required value", t.Name, f.Name)
			}
			continue
		}
		if err := checkValue(doc, f.Type, fv); err != nil {
			return fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
		}
	}
	return nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

// describe names enum candidates by value so that a misspelled variant shows.
func describe(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return jsonKind(v)
}
