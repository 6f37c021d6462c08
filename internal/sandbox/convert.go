package sandbox

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/ashureev/code-arena/internal/compare"
)

const (
	maxResultDepth = 64
	maxResultNodes = 100_000
)

// exporter converts a returned JavaScript value into the normalized Go value
// set. Property reads can run submission getters and proxy traps, so it must
// only be used while the instance deadline is armed.
type exporter struct {
	path  map[*goja.Object]struct{}
	nodes int
}

func exportValue(v goja.Value) (any, error) {
	e := &exporter{path: make(map[*goja.Object]struct{})}
	return e.value(v, 0)
}

func (e *exporter) value(v goja.Value, depth int) (any, error) {
	e.nodes++
	if e.nodes > maxResultNodes {
		return nil, &ExecutionError{Message: "result is too large to compare"}
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if _, ok := goja.AssertFunction(v); ok {
		return compare.Opaque("function"), nil
	}
	if _, ok := v.(*goja.Symbol); ok {
		return compare.Opaque("symbol"), nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return compare.Normalize(v.Export()), nil
	}

	if _, seen := e.path[obj]; seen {
		return nil, &ExecutionError{Message: "result contains a cycle"}
	}
	if depth >= maxResultDepth {
		return nil, &ExecutionError{Message: "result is nested too deeply"}
	}
	e.path[obj] = struct{}{}
	defer delete(e.path, obj)

	switch obj.ClassName() {
	case "Date":
		return compare.Normalize(obj.Export()), nil
	case "Array":
		var n int64
		if length := obj.Get("length"); length != nil {
			n = max(length.ToInteger(), 0)
		}
		if n > maxResultNodes {
			return nil, &ExecutionError{Message: "result is too large to compare"}
		}
		out := make([]any, n)
		for i := range out {
			item, err := e.value(obj.Get(strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}

	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		item, err := e.value(obj.Get(k), depth+1)
		if err != nil {
			return nil, err
		}
		out[k] = item
	}
	return out, nil
}
