// Package filter decides which log lines are removed.
package filter

import (
	"bytes"

	"gitlab.com/tozd/go/errors"
)

// PatternSet is an ordered list of literal, case-sensitive substrings.
// It is read-only once built and safe to share between workers.
type PatternSet struct {
	patterns [][]byte
}

// NewPatternSet validates patterns. Empty patterns are rejected since they
// would match every line.
func NewPatternSet(patterns []string) (PatternSet, error) {
	set := PatternSet{patterns: make([][]byte, 0, len(patterns))}
	for i, p := range patterns {
		if p == "" {
			return PatternSet{}, errors.Errorf("pattern %d is empty", i)
		}
		set.patterns = append(set.patterns, []byte(p))
	}
	return set, nil
}

// Len returns the number of patterns.
func (s PatternSet) Len() int {
	return len(s.patterns)
}

// Strings returns a copy of the patterns.
func (s PatternSet) Strings() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = string(p)
	}
	return out
}

// ShouldDrop reports whether line contains at least one pattern.
// An empty set never drops anything.
func (s PatternSet) ShouldDrop(line []byte) bool {
	for _, p := range s.patterns {
		if bytes.Contains(line, p) {
			return true
		}
	}
	return false
}
