package source

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Filter excludes workspaces whose key matches any of its glob patterns.
// The zero value excludes nothing.
type Filter struct {
	patterns []glob.Glob
}

// NewFilter compiles exclude patterns. Patterns use '/' as the separator, so
// '*' does not cross it; '{a,b}' alternation and '[...]' classes are
// supported.
func NewFilter(patterns []string) (Filter, error) {
	f := Filter{patterns: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return Filter{}, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Excluded reports whether key matches an exclude pattern.
func (f Filter) Excluded(key string) bool {
	for _, g := range f.patterns {
		if g.Match(key) {
			return true
		}
	}
	return false
}
