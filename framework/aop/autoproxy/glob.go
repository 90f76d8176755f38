package autoproxy

import (
	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultGlobCacheSize bounds the compiled patterns a GlobMatcher keeps.
const DefaultGlobCacheSize = 512

// GlobMatcher matches names with full glob syntax ("svc?", "{user,order}Service",
// "[a-c]*"). Compiled patterns live in a bounded LRU cache, so ad hoc
// patterns only evict each other. A pattern that fails to compile only
// matches a name equal to it.
type GlobMatcher struct {
	cache *lru.Cache[string, glob.Glob] // nil value when invalid
}

// NewGlobMatcher returns a GlobMatcher caching DefaultGlobCacheSize patterns.
func NewGlobMatcher() *GlobMatcher { return NewGlobMatcherSize(DefaultGlobCacheSize) }

// NewGlobMatcherSize returns a GlobMatcher caching at most size patterns.
// It panics if size is not positive.
func NewGlobMatcherSize(size int) *GlobMatcher {
	cache, err := lru.New[string, glob.Glob](size)
	if err != nil {
		panic(err)
	}
	return &GlobMatcher{cache: cache}
}

func (m *GlobMatcher) Match(name, pattern string) bool {
	g := m.compile(pattern)
	if g == nil {
		return name == pattern
	}
	return g.Match(name)
}

func (m *GlobMatcher) compile(pattern string) glob.Glob {
	if g, ok := m.cache.Get(pattern); ok {
		return g
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		g = nil
	}
	m.cache.Add(pattern, g)
	return g
}
