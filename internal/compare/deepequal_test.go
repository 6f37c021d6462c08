package compare

import (
	"encoding/json"
	"math"
	"testing"
)

func TestDeepEqual_Numeric(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"float rounding", 0.1 + 0.2, 0.3, true},
		{"outside tolerance", 1.0, 1.01, false},
		{"nan equals nan", math.NaN(), math.NaN(), true},
		{"signed zero", 0.0, math.Copysign(0, -1), true},
		{"infinity", math.Inf(1), math.Inf(1), true},
		{"opposite infinities", math.Inf(1), math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeepEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("DeepEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDeepEqual_Structural(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{
			"nested array and record",
			[]any{1.0, map[string]any{"a": 2.0}},
			[]any{1.0, map[string]any{"a": 2.0}},
			true,
		},
		{"array order matters", []any{1.0, 2.0}, []any{2.0, 1.0}, false},
		{
			"record key order ignored",
			map[string]any{"a": 1.0, "b": 2.0},
			map[string]any{"b": 2.0, "a": 1.0},
			true,
		},
		{"length mismatch", []any{1.0}, []any{1.0, 2.0}, false},
		{
			"record key mismatch",
			map[string]any{"a": 1.0},
			map[string]any{"b": 1.0},
			false,
		},
		{"array is not record", []any{}, map[string]any{}, false},
		{"null vs record", nil, map[string]any{}, false},
		{"null vs null", nil, nil, true},
		{"string vs number", "1", 1.0, false},
		{"empty arrays", []any{}, []any{}, true},
		{"opaque same tag", Opaque("function"), Opaque("function"), true},
		{"opaque vs string", Opaque("function"), "[function]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeepEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("DeepEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDeepEqual_ReflexiveAndSymmetric(t *testing.T) {
	values := []any{
		nil,
		true,
		false,
		0.0,
		math.NaN(),
		"arena",
		[]any{1.0, "x", nil},
		map[string]any{"allowed": true, "remaining": 3.0},
		[]any{[]any{1.0, 6.0}, []any{8.0, 10.0}},
		Opaque("function"),
	}

	for i, a := range values {
		if !DeepEqual(a, a) {
			t.Errorf("value %d (%v) is not equal to itself", i, a)
		}
		for j, b := range values {
			if DeepEqual(a, b) != DeepEqual(b, a) {
				t.Errorf("asymmetric result for %d (%v) and %d (%v)", i, a, j, b)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(map[string]any{
		"ints":   []int{1, 2},
		"nested": []any{int64(3), uint8(4), float32(0.5)},
		"fn":     func() {},
	})

	want := map[string]any{
		"ints":   []any{1.0, 2.0},
		"nested": []any{3.0, 4.0, 0.5},
		"fn":     Opaque("function"),
	}
	if !DeepEqual(got, want) {
		t.Fatalf("Normalize() = %#v, want %#v", got, want)
	}
}

func TestDisplayable(t *testing.T) {
	v := Displayable([]any{math.NaN(), math.Inf(1), math.Inf(-1), 1.5, Opaque("function")})

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal displayable value: %v", err)
	}
	if string(b) != `["NaN","Infinity","-Infinity",1.5,"[function]"]` {
		t.Errorf("Unexpected JSON: %s", b)
	}
}
