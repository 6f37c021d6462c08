package compare

import (
	"math"
)

// Epsilon is the tolerance applied when comparing two numbers.
const Epsilon = 1e-6

type kind int

const (
	kindNull kind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindRecord
	kindOpaque
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case float64:
		return kindNumber
	case string:
		return kindString
	case []any:
		return kindArray
	case map[string]any:
		return kindRecord
	}
	return kindOpaque
}

// DeepEqual reports whether actual and expected are structurally equal.
// Both arguments must already be normalized (see Normalize). The rules
// apply in order:
//
//  1. SameValue identity: NaN equals NaN, +0 and -0 differ at this step.
//  2. Different kinds are unequal.
//  3. A null on either side is unequal.
//  4. Arrays are equal when lengths match and every position is DeepEqual.
//  5. Records are equal when key counts match and every key of actual is
//     present in expected with a DeepEqual value.
//  6. Numbers are equal when they differ by less than Epsilon.
//  7. Anything else is unequal.
//
// Values must be acyclic.
func DeepEqual(actual, expected any) bool {
	if sameValue(actual, expected) {
		return true
	}

	ka, kb := kindOf(actual), kindOf(expected)
	if ka != kb {
		return false
	}
	if ka == kindNull {
		return false
	}

	switch ka {
	case kindArray:
		a, b := actual.([]any), expected.([]any)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !DeepEqual(a[i], b[i]) {
				return false
			}
		}
		return true

	case kindRecord:
		a, b := actual.(map[string]any), expected.(map[string]any)
		if len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !DeepEqual(av, bv) {
				return false
			}
		}
		return true

	case kindNumber:
		return math.Abs(actual.(float64)-expected.(float64)) < Epsilon
	}

	return false
}

// sameValue mirrors JavaScript's Object.is for primitives. Composite values
// never satisfy it since normalized values carry no reference identity.
func sameValue(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Opaque:
		y, ok := b.(Opaque)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		if x == 0 && y == 0 {
			return math.Signbit(x) == math.Signbit(y)
		}
		return x == y
	}
	return false
}
