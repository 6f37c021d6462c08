// Package compare provides structural equality over loosely typed values
// such as decoded test fixtures and values exported from the sandbox.
package compare

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// Opaque stands in for values that have no structural representation,
// such as functions or symbols returned by a submission.
type Opaque string

// MarshalText renders the opaque value as its descriptive tag.
func (o Opaque) MarshalText() ([]byte, error) {
	return []byte("[" + string(o) + "]"), nil
}

// Normalize converts v into the closed value set understood by DeepEqual:
// nil, bool, float64, string, []any, map[string]any and Opaque.
// Every numeric Go type becomes float64.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, float64, Opaque:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Opaque(rv.Type().String())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Func:
		return Opaque("function")
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return Opaque(fmt.Sprintf("%T", v))
}

// Displayable returns a copy of a normalized value that encoding/json can
// always marshal. Non-finite numbers become their JavaScript spelling.
func Displayable(v any) any {
	switch x := v.(type) {
	case float64:
		switch {
		case math.IsNaN(x):
			return "NaN"
		case math.IsInf(x, 1):
			return "Infinity"
		case math.IsInf(x, -1):
			return "-Infinity"
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Displayable(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Displayable(item)
		}
		return out
	}
	return v
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
