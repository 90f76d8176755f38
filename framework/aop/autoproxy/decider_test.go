package autoproxy

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/km-arc/go-autoproxy/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type userService struct{}

type widgetFactory struct{}

func (widgetFactory) GetObject() (any, error)  { return &userService{}, nil }
func (widgetFactory) ObjectType() reflect.Type { return reflect.TypeOf(&userService{}) }
func (widgetFactory) IsSingleton() bool        { return true }

var (
	plainType   = reflect.TypeOf(&userService{})
	factoryType = reflect.TypeOf(widgetFactory{})
)

func decide(t *testing.T, d *NamePatternProxyDecider, typ reflect.Type, name string) Decision {
	t.Helper()
	got, err := d.Decide(typ, name, nil)
	require.NoError(t, err)
	return got
}

// ── contract ──────────────────────────────────────────────────────────────────

func TestDecide_InvalidArguments(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("*"))

	_, err := d.Decide(nil, "svc", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.Decide(plainType, "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecide_InvalidArgumentsWithoutPatterns(t *testing.T) {
	d := NewNamePatternProxyDecider()
	_, err := d.Decide(nil, "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecide_UnsetPatternList(t *testing.T) {
	d := NewNamePatternProxyDecider()
	assert.Equal(t, DoNotProxy, decide(t, d, plainType, "anything"))
	assert.Equal(t, 0, d.Patterns().Len())
}

func TestDecide_EmptyPatternList(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames())
	assert.Equal(t, DoNotProxy, decide(t, d, plainType, "anything"))
}

func TestDecide_PlainComponents(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     Decision
	}{
		{"myObject", []string{"myObject"}, ProxyWithoutAdditionalInterceptors},
		{"myObject", []string{"myObjectX"}, DoNotProxy},
		{"txManager", []string{"myObject", "tx*"}, ProxyWithoutAdditionalInterceptors},
		{"myService", []string{"*Service"}, ProxyWithoutAdditionalInterceptors},
		{"myServiceImpl", []string{"*Service"}, DoNotProxy},
		{"fooBarBaz", []string{"*Bar*"}, ProxyWithoutAdditionalInterceptors},
		{"anything", []string{"*"}, ProxyWithoutAdditionalInterceptors},
		// factory-prefixed patterns never apply to plain components
		{"myObject", []string{"&myObject"}, DoNotProxy},
		{"&myObject", []string{"&myObject"}, DoNotProxy},
		{"&myObject", []string{"&*"}, DoNotProxy},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+strings.Join(tt.patterns, ","), func(t *testing.T) {
			d := NewNamePatternProxyDecider(WithObjectNames(tt.patterns...))
			assert.Equal(t, tt.want, decide(t, d, plainType, tt.name))
		})
	}
}

// ── factory components ────────────────────────────────────────────────────────

func TestDecide_FactoryIsolation(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("myFactory*"))
	assert.Equal(t, DoNotProxy, decide(t, d, factoryType, "&myFactory"))
}

func TestDecide_FactoryOptIn(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("&myFactory"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, factoryType, "&myFactory"))
}

func TestDecide_FactoryWithoutPrefixedName(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("&myFactory", "*", "myFactory"))
	assert.Equal(t, DoNotProxy, decide(t, d, factoryType, "myFactory"))
}

func TestDecide_FactoryWildcards(t *testing.T) {
	tests := []struct {
		pattern string
		want    Decision
	}{
		{"&*", ProxyWithoutAdditionalInterceptors},
		{"&my*", ProxyWithoutAdditionalInterceptors},
		{"&*Factory", ProxyWithoutAdditionalInterceptors},
		{"&*Fact*", ProxyWithoutAdditionalInterceptors},
		{"&other*", DoNotProxy},
		{"*Factory", DoNotProxy},
		{"*", DoNotProxy},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			d := NewNamePatternProxyDecider(WithObjectNames(tt.pattern))
			assert.Equal(t, tt.want, decide(t, d, factoryType, "&myFactory"))
		})
	}
}

func TestDecide_FactoryProductIsPlain(t *testing.T) {
	// the container hands products over under the bare name with their own type
	d := NewNamePatternProxyDecider(WithObjectNames("myFactory"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, "myFactory"))
	assert.Equal(t, DoNotProxy, decide(t, d, factoryType, "&myFactory"))
}

func TestDecide_InterfaceTypeIsFactory(t *testing.T) {
	iface := reflect.TypeOf((*container.FactoryObject)(nil)).Elem()
	d := NewNamePatternProxyDecider(WithObjectNames("&conn"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, iface, "&conn"))
}

// ── extension points ──────────────────────────────────────────────────────────

func TestDecide_CustomMatcher(t *testing.T) {
	fold := MatcherFunc(func(name, pattern string) bool {
		return SimpleMatch(strings.ToLower(pattern), strings.ToLower(name))
	})
	d := NewNamePatternProxyDecider(WithMatcher(fold), WithObjectNames("*SERVICE"))

	assert.True(t, d.IsMatch("userService", "*SERVICE"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, "userService"))
}

func TestDecide_CustomMatcherKeepsFactoryRules(t *testing.T) {
	d := NewNamePatternProxyDecider(
		WithMatcher(MatcherFunc(func(string, string) bool { return true })),
		WithObjectNames("anything"),
	)
	assert.Equal(t, DoNotProxy, decide(t, d, factoryType, "&myFactory"))
}

func TestDecide_CustomFactoryChecker(t *testing.T) {
	never := FactoryCheckerFunc(func(reflect.Type) bool { return false })
	d := NewNamePatternProxyDecider(WithFactoryChecker(never), WithObjectNames("myFactory*"))

	// treated as a plain component, so the raw name is compared
	assert.Equal(t, DoNotProxy, decide(t, d, factoryType, "&myFactory"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, factoryType, "myFactoryBean"))
}

func TestDecide_GlobMatcher(t *testing.T) {
	d := NewNamePatternProxyDecider(WithMatcher(NewGlobMatcher()), WithObjectNames("{user,order}Service", "&conn?"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, "orderService"))
	assert.Equal(t, DoNotProxy, decide(t, d, plainType, "billingService"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, factoryType, "&conn1"))
}

// ── explain ───────────────────────────────────────────────────────────────────

func TestExplain_CreditsFirstMatchingPattern(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("tx*", "*Manager", "*"))
	e, err := d.Explain(Candidate{Type: plainType, Name: "txManager"})
	require.NoError(t, err)
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, e.Decision)
	assert.Equal(t, "tx*", e.Pattern)
	assert.False(t, e.Candidate.HasCustomTargetSource())
}

func TestExplain_NoMatch(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("tx*"))
	e, err := d.Explain(Candidate{Type: plainType, Name: "repo", TargetSource: NewSingletonTargetSource(1)})
	require.NoError(t, err)
	assert.Equal(t, DoNotProxy, e.Decision)
	assert.Empty(t, e.Pattern)
	assert.True(t, e.Candidate.HasCustomTargetSource())
}

func TestExplain_ReportsFactoryPatternVerbatim(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("&my*"))
	e, err := d.Explain(Candidate{Type: factoryType, Name: "&myFactory"})
	require.NoError(t, err)
	assert.Equal(t, "&my*", e.Pattern)
}

// ── snapshots ─────────────────────────────────────────────────────────────────

func TestSetObjectNames_ReplacesWholeList(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("a*"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, "alpha"))

	d.SetObjectNames("b*")
	assert.Equal(t, DoNotProxy, decide(t, d, plainType, "alpha"))
	assert.Equal(t, []string{"b*"}, d.Patterns().Patterns())

	d.SetPatterns(ParsePatternList("alpha, beta"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, "alpha"))
}

func TestDecide_ConcurrentWithUpdates(t *testing.T) {
	d := NewNamePatternProxyDecider(WithObjectNames("*Service"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				got, err := d.Decide(plainType, "userService", nil)
				assert.NoError(t, err)
				// both published lists match userService
				assert.Equal(t, ProxyWithoutAdditionalInterceptors, got)
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			d.SetObjectNames("user*")
		} else {
			d.SetObjectNames("*Service", "other")
		}
	}
	wg.Wait()
}

// ── properties ────────────────────────────────────────────────────────────────

var (
	nameGen    = rapid.StringMatching(`&?[a-zA-Z]{1,10}`)
	patternGen = rapid.StringMatching(`&?\*?[a-zA-Z]{0,6}\*?`)
)

func TestDecide_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := nameGen.Draw(t, "name")
		patterns := rapid.SliceOfN(patternGen, 0, 6).Draw(t, "patterns")
		typ := rapid.SampledFrom([]reflect.Type{plainType, factoryType}).Draw(t, "type")

		d := NewNamePatternProxyDecider(WithObjectNames(patterns...))
		first, err := d.Decide(typ, name, nil)
		if err != nil {
			t.Fatalf("Decide(%v, %q): %v", typ, name, err)
		}

		// idempotent
		if again, _ := d.Decide(typ, name, nil); again != first {
			t.Fatalf("Decide not idempotent: %v then %v", first, again)
		}

		// permuting the list never changes the outcome
		perm := rapid.Permutation(patterns).Draw(t, "perm")
		d.SetObjectNames(perm...)
		if got, _ := d.Decide(typ, name, nil); got != first {
			t.Fatalf("permutation %v changed decision from %v to %v", perm, first, got)
		}

		// "*" proxies every plain component
		if typ == plainType {
			d.SetObjectNames("*")
			if got, _ := d.Decide(typ, name, nil); got != ProxyWithoutAdditionalInterceptors {
				t.Fatalf(`"*" did not proxy %q`, name)
			}
		}

		// un-prefixed patterns never select a factory
		if typ == factoryType {
			var plain []string
			for _, p := range patterns {
				if !strings.HasPrefix(p, container.FactoryPrefix) {
					plain = append(plain, p)
				}
			}
			d.SetObjectNames(plain...)
			if got, _ := d.Decide(typ, name, nil); got != DoNotProxy {
				t.Fatalf("plain patterns %v proxied factory %q", plain, name)
			}
		}
	})
}

func TestStandInType(t *testing.T) {
	assert.True(t, container.IsFactoryType(StandInType(true)))
	assert.False(t, container.IsFactoryType(StandInType(false)))

	d := NewNamePatternProxyDecider(WithObjectNames("&conn*"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, StandInType(true), "&connectionFactory"))
	assert.Equal(t, DoNotProxy, decide(t, d, StandInType(false), "&connectionFactory"))
}

func TestSetObjectNames_KeepsEntriesAsGiven(t *testing.T) {
	d := NewNamePatternProxyDecider()
	d.SetObjectNames(" userService", "", "tx*")

	assert.Equal(t, []string{" userService", "tx*"}, d.Patterns().Patterns())
	assert.Equal(t, DoNotProxy, decide(t, d, plainType, "userService"))
	assert.Equal(t, ProxyWithoutAdditionalInterceptors, decide(t, d, plainType, " userService"))
}
