package autoproxy

import (
	"fmt"
	"strings"
)

// Matcher reports whether a component name satisfies a configured pattern.
// Implementations must be total: any pattern, however malformed, either
// matches or doesn't.
type Matcher interface {
	Match(name, pattern string) bool
}

// MatcherFunc adapts a function into a Matcher.
type MatcherFunc func(name, pattern string) bool

func (f MatcherFunc) Match(name, pattern string) bool { return f(name, pattern) }

// SimpleMatcher implements the default "xxx*", "*xxx", "*xxx*" and exact
// grammar.
type SimpleMatcher struct{}

func (SimpleMatcher) Match(name, pattern string) bool { return SimpleMatch(pattern, name) }

// SimpleMatch reports whether text matches pattern.
//
// Rules, checked in order:
//  1. pattern equal to text
//  2. "*" matches everything
//  3. "*xxx*" matches text containing xxx
//  4. "*xxx" matches text ending with xxx
//  5. "xxx*" matches text starting with xxx
//  6. anything else must equal text exactly
//
// Comparison is ordinal and case-sensitive. An asterisk anywhere else is a
// literal character.
func SimpleMatch(pattern, text string) bool {
	if pattern == text || pattern == "*" {
		return true
	}
	lead := strings.HasPrefix(pattern, "*")
	trail := strings.HasSuffix(pattern, "*")
	switch {
	case lead && trail && len(pattern) >= 2:
		return strings.Contains(text, pattern[1:len(pattern)-1])
	case lead:
		return strings.HasSuffix(text, pattern[1:])
	case trail:
		return strings.HasPrefix(text, pattern[:len(pattern)-1])
	}
	return false
}

// MatcherByName returns the matcher configured as kind ("simple" or "glob").
func MatcherByName(kind string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "simple":
		return SimpleMatcher{}, nil
	case "glob":
		return NewGlobMatcher(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, kind)
	}
}
