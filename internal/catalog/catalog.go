// Package catalog holds the static registry of challenges. Challenges are
// decoded once from TOML and are read-only afterwards.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"

	"github.com/ashureev/code-arena/internal/compare"
	"github.com/ashureev/code-arena/internal/domain"
)

//go:embed challenges.toml
var builtin []byte

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

type specTest struct {
	Name     string `toml:"name"`
	Inputs   []any  `toml:"inputs"`
	Expected any    `toml:"expected"`
}

type specChallenge struct {
	ID          string     `toml:"id"`
	Title       string     `toml:"title"`
	Difficulty  string     `toml:"difficulty"`
	Description string     `toml:"description"`
	Prompt      string     `toml:"prompt"`
	EntryPoint  string     `toml:"entry_point"`
	StarterCode string     `toml:"starter_code"`
	Solution    string     `toml:"solution"`
	Tests       []specTest `toml:"tests"`
}

type specRoot struct {
	Challenges []specChallenge `toml:"challenges"`
}

// Catalog is an ordered, immutable set of challenges.
type Catalog struct {
	ordered []domain.Challenge
	byID    map[string]int
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Parse decodes and validates a TOML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(root.Challenges) == 0 {
		return nil, fmt.Errorf("%w: no challenges defined", ErrInvalidCatalog)
	}

	c := &Catalog{
		ordered: make([]domain.Challenge, 0, len(root.Challenges)),
		byID:    make(map[string]int, len(root.Challenges)),
	}
	seen := mapset.NewThreadUnsafeSet[string]()

	for i, sc := range root.Challenges {
		ch, err := convert(sc)
		if err != nil {
			return nil, fmt.Errorf("challenge %d: %w", i, err)
		}
		if !seen.Add(ch.ID) {
			return nil, fmt.Errorf("%w: duplicate challenge id %q", ErrInvalidCatalog, ch.ID)
		}
		c.byID[ch.ID] = len(c.ordered)
		c.ordered = append(c.ordered, ch)
	}

	return c, nil
}

func convert(sc specChallenge) (domain.Challenge, error) {
	id := strings.TrimSpace(sc.ID)
	if id == "" {
		id = slug.Make(sc.Title)
	}
	if !slug.IsSlug(id) {
		return domain.Challenge{}, fmt.Errorf("%w: id %q is not a slug", ErrInvalidCatalog, id)
	}
	if strings.TrimSpace(sc.Title) == "" {
		return domain.Challenge{}, fmt.Errorf("%w: %s has no title", ErrInvalidCatalog, id)
	}

	difficulty := domain.Difficulty(sc.Difficulty)
	if !difficulty.Valid() {
		return domain.Challenge{}, fmt.Errorf("%w: %s has unknown difficulty %q", ErrInvalidCatalog, id, sc.Difficulty)
	}
	if !identifierPattern.MatchString(sc.EntryPoint) {
		return domain.Challenge{}, fmt.Errorf("%w: %s has invalid entry point %q", ErrInvalidCatalog, id, sc.EntryPoint)
	}
	if len(sc.Tests) == 0 {
		return domain.Challenge{}, fmt.Errorf("%w: %s has no tests", ErrInvalidCatalog, id)
	}

	tests := make([]domain.TestCase, len(sc.Tests))
	for i, st := range sc.Tests {
		name := st.Name
		if name == "" {
			name = fmt.Sprintf("test %d", i+1)
		}
		inputs := make([]any, len(st.Inputs))
		for j, in := range st.Inputs {
			inputs[j] = compare.Normalize(in)
		}
		tests[i] = domain.TestCase{
			Name:     name,
			Inputs:   inputs,
			Expected: compare.Normalize(st.Expected),
		}
	}

	return domain.Challenge{
		ID:          id,
		Title:       sc.Title,
		Difficulty:  difficulty,
		Description: strings.TrimSpace(sc.Description),
		Prompt:      strings.TrimSpace(sc.Prompt),
		StarterCode: sc.StarterCode,
		EntryPoint:  sc.EntryPoint,
		Tests:       tests,
		Solution:    sc.Solution,
	}, nil
}

// GetByID returns the challenge with the given id. A miss is a normal outcome.
func (c *Catalog) GetByID(id string) (domain.Challenge, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Challenge{}, false
	}
	return c.ordered[i], true
}

// Summaries lists every challenge in catalog order without its tests.
func (c *Catalog) Summaries() []domain.ChallengeSummary {
	out := make([]domain.ChallengeSummary, len(c.ordered))
	for i := range c.ordered {
		out[i] = c.ordered[i].Summary()
	}
	return out
}

// All returns every challenge, tests included. Callers must not mutate the
// returned test data.
func (c *Catalog) All() []domain.Challenge {
	out := make([]domain.Challenge, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of challenges.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
