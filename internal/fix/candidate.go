// Package fix extracts import candidates from compiler diagnostics and picks
// one winner when several candidates name the same identifier.
package fix

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// PathSeparator separates segments of a candidate path.
const PathSeparator = "::"

// Candidate is a fully-qualified symbol path proposed as an import, e.g. "std::ops::Range".
type Candidate string

// Terminal returns the last path segment ("Range" for "std::ops::Range").
func (c Candidate) Terminal() string {
	s := string(c)
	if i := strings.LastIndex(s, PathSeparator); i >= 0 {
		return s[i+len(PathSeparator):]
	}
	return s
}

// Set is a grow-only collection of unique candidates. The zero value is ready to use.
type Set struct {
	items map[Candidate]struct{}
}

// NewSet returns a set holding the given candidates.
func NewSet(cands ...Candidate) *Set {
	s := &Set{items: make(map[Candidate]struct{}, len(cands))}
	for _, c := range cands {
		s.items[c] = struct{}{}
	}
	return s
}

// Add inserts c and reports whether the set grew.
func (s *Set) Add(c Candidate) bool {
	if s.items == nil {
		s.items = make(map[Candidate]struct{})
	}
	if _, ok := s.items[c]; ok {
		return false
	}
	s.items[c] = struct{}{}
	return true
}

// Has reports membership.
func (s *Set) Has(c Candidate) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[c]
	return ok
}

// Len returns the number of candidates.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All iterates the candidates in unspecified order.
func (s *Set) All() iter.Seq[Candidate] {
	if s == nil {
		return func(func(Candidate) bool) {}
	}
	return maps.Keys(s.items)
}

// Sorted returns the candidates in lexical order.
func (s *Set) Sorted() []Candidate {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.items))
}

// GroupByTerminal buckets candidates by terminal identifier. Members of each
// bucket are sorted so that downstream choices are reproducible.
func GroupByTerminal(cands iter.Seq[Candidate]) map[string][]Candidate {
	groups := make(map[string][]Candidate)
	for c := range cands {
		ident := c.Terminal()
		groups[ident] = append(groups[ident], c)
	}
	for ident := range groups {
		slices.Sort(groups[ident])
	}
	return groups
}
