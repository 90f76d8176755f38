package autoproxy

import "strings"

// PatternList is an immutable, ordered set of object-name patterns.
type PatternList struct {
	patterns []string
}

// NewPatternList copies names into a new list. Entries are kept exactly as
// given; only empty strings are dropped.
func NewPatternList(names ...string) PatternList {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return PatternList{patterns: out}
}

// ParsePatternList splits a comma-delimited list such as "myObject, tx*".
// Each entry is trimmed and blank entries are dropped.
func ParsePatternList(csv string) PatternList {
	fields := strings.Split(csv, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return NewPatternList(fields...)
}

// Len returns the number of patterns.
func (l PatternList) Len() int { return len(l.patterns) }

// Patterns returns a copy of the patterns in configured order.
func (l PatternList) Patterns() []string {
	out := make([]string, len(l.patterns))
	copy(out, l.patterns)
	return out
}

func (l PatternList) String() string { return strings.Join(l.patterns, ",") }
