package httprt

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// SerializeLeafValue coerces a resolved JSON value to the named scalar's
// result type. Enum values must be one of the declared names.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch typeName {
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case bool:
			return strconv.FormatBool(v), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(v), nil
		}
		return nil, fmt.Errorf("String cannot represent value: %s", describe(value))
	case "Int":
		switch v := value.(type) {
		case int:
			if v >= math.MinInt32 && v <= math.MaxInt32 {
				return v, nil
			}
		case float64:
			if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
				return int(v), nil
			}
		case bool:
			if v {
				return 1, nil
			}
			return 0, nil
		}
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", describe(value))
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case bool:
			if v {
				return 1.0, nil
			}
			return 0.0, nil
		}
		return nil, fmt.Errorf("Float cannot represent non numeric value: %s", describe(value))
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", describe(value))
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		case float64:
			if v == math.Trunc(v) {
				return strconv.FormatFloat(v, 'f', -1, 64), nil
			}
		}
		return nil, fmt.Errorf("ID cannot represent value: %s", describe(value))
	case "JSON":
		return value, nil
	}
	if e := r.graph.Enum(typeName); e != nil {
		if s, ok := value.(string); ok && e.Has(s) {
			return s, nil
		}
		return nil, fmt.Errorf("Enum \"%s\" cannot represent value: %s", typeName, describe(value))
	}
	return nil, fmt.Errorf("unknown scalar type %q", typeName)
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
