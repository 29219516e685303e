package search

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob matches slash-separated paths relative to the search root.
type Glob struct {
	pattern string
}

// CompileGlob validates pattern. An empty pattern matches everything.
func CompileGlob(pattern string) (*Glob, error) {
	if pattern == "" {
		pattern = defaultGlob
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGlob, pattern)
	}
	return &Glob{pattern: pattern}, nil
}

func (g *Glob) String() string { return g.pattern }

// Match reports whether rel matches the glob. The pattern was validated by
// CompileGlob, so Match cannot fail with doublestar.ErrBadPattern.
func (g *Glob) Match(rel string) bool {
	ok, _ := doublestar.Match(g.pattern, rel)
	return ok
}
