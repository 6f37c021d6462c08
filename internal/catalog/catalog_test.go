package catalog

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/code-arena/internal/compare"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("Expected builtin challenges")
	}

	ch, ok := c.GetByID("rate-limiter")
	if !ok {
		t.Fatal("Expected rate-limiter challenge")
	}
	if ch.EntryPoint != "rateLimiter" {
		t.Errorf("Expected entry point rateLimiter, got %s", ch.EntryPoint)
	}
	if len(ch.Tests) != 3 {
		t.Fatalf("Expected 3 tests, got %d", len(ch.Tests))
	}

	want := map[string]any{"allowed": true, "remaining": 1.0}
	if !compare.DeepEqual(ch.Tests[0].Expected, want) {
		t.Errorf("Unexpected expected value: %#v", ch.Tests[0].Expected)
	}
	if !compare.DeepEqual(ch.Tests[0].Inputs, []any{3.0, 10.0, 2.0, 4.0}) {
		t.Errorf("Unexpected inputs: %#v", ch.Tests[0].Inputs)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	if _, ok := c.GetByID("does-not-exist"); ok {
		t.Error("Expected lookup miss")
	}
}

func TestSummaries_WithholdTests(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	summaries := c.Summaries()
	if len(summaries) != c.Len() {
		t.Fatalf("Expected %d summaries, got %d", c.Len(), len(summaries))
	}

	b, err := json.Marshal(summaries)
	if err != nil {
		t.Fatalf("Failed to marshal summaries: %v", err)
	}
	body := string(b)
	for _, leak := range []string{"expected", "inputs", "solution", "Math.min(capacity"} {
		if strings.Contains(body, leak) {
			t.Errorf("Summary JSON leaks %q", leak)
		}
	}
	if summaries[0].TestCount == 0 {
		t.Error("Expected test count on summary")
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"bad difficulty", `
[[challenges]]
id = "x-one"
title = "X"
difficulty = "Impossible"
entry_point = "x"
  [[challenges.tests]]
  inputs = [1]
  expected = 1
`},
		{"bad entry point", `
[[challenges]]
id = "x-one"
title = "X"
difficulty = "Basic"
entry_point = "not valid"
  [[challenges.tests]]
  inputs = [1]
  expected = 1
`},
		{"no tests", `
[[challenges]]
id = "x-one"
title = "X"
difficulty = "Basic"
entry_point = "x"
`},
		{"duplicate id", `
[[challenges]]
id = "x-one"
title = "X"
difficulty = "Basic"
entry_point = "x"
  [[challenges.tests]]
  inputs = [1]
  expected = 1
[[challenges]]
id = "x-one"
title = "Y"
difficulty = "Basic"
entry_point = "y"
  [[challenges.tests]]
  inputs = [1]
  expected = 1
`},
		{"id not a slug", `
[[challenges]]
id = "Not A Slug"
title = "X"
difficulty = "Basic"
entry_point = "x"
  [[challenges.tests]]
  inputs = [1]
  expected = 1
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Expected ErrInvalidCatalog, got %v", err)
			}
		})
	}
}

func TestParse_SlugFromTitle(t *testing.T) {
	c, err := Parse([]byte(`
[[challenges]]
title = "Sum Of Two"
difficulty = "Basic"
entry_point = "sum"
  [[challenges.tests]]
  inputs = [1, 2]
  expected = 3
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ch, ok := c.GetByID("sum-of-two")
	if !ok {
		t.Fatal("Expected id derived from title")
	}
	if ch.Tests[0].Name != "test 1" {
		t.Errorf("Expected default test name, got %q", ch.Tests[0].Name)
	}
}
