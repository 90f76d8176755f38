package autoproxy

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-autoproxy/framework/container"
)

// Decider decides, per component creation, whether the component is proxied.
// ts is the custom target source configured for the component, or nil.
type Decider interface {
	Decide(t reflect.Type, name string, ts TargetSource) (Decision, error)
}

// FactoryChecker reports whether a component type produces other objects.
type FactoryChecker interface {
	IsFactory(t reflect.Type) bool
}

// FactoryCheckerFunc adapts a function into a FactoryChecker.
type FactoryCheckerFunc func(t reflect.Type) bool

func (f FactoryCheckerFunc) IsFactory(t reflect.Type) bool { return f(t) }

// Candidate describes one component creation.
type Candidate struct {
	Type         reflect.Type
	Name         string
	TargetSource TargetSource
}

// HasCustomTargetSource reports whether a custom target source was supplied.
func (c Candidate) HasCustomTargetSource() bool { return c.TargetSource != nil }

type standInFactory struct{}

func (standInFactory) GetObject() (any, error)  { return nil, nil }
func (standInFactory) ObjectType() reflect.Type { return nil }
func (standInFactory) IsSingleton() bool        { return true }

var _ container.FactoryObject = standInFactory{}

type standInComponent struct{}

// StandInType returns a type to decide on when only a component's name is
// known: a container.FactoryObject when factory is set, a plain struct
// otherwise.
func StandInType(factory bool) reflect.Type {
	if factory {
		return reflect.TypeOf(standInFactory{})
	}
	return reflect.TypeOf(standInComponent{})
}

// Explanation is a Decision together with the pattern that produced it.
type Explanation struct {
	Candidate Candidate
	Decision  Decision
	Pattern   string
}

func (e Explanation) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("name", e.Candidate.Name).
		Stringer("type", e.Candidate.Type).
		Bool("custom_target_source", e.Candidate.HasCustomTargetSource()).
		Stringer("decision", e.Decision).
		Str("pattern", e.Pattern)
}

// NamePatternProxyDecider proxies components whose registered name matches
// one of its configured patterns.
type NamePatternProxyDecider struct {
	patterns atomic.Pointer[PatternList]
	matcher  Matcher
	factory  FactoryChecker
	logger   zerolog.Logger
}

// Option configures a NamePatternProxyDecider.
type Option func(*NamePatternProxyDecider)

// WithMatcher replaces the default SimpleMatcher.
func WithMatcher(m Matcher) Option {
	return func(d *NamePatternProxyDecider) { d.matcher = m }
}

// WithFactoryChecker replaces the default container.IsFactoryType check.
func WithFactoryChecker(f FactoryChecker) Option {
	return func(d *NamePatternProxyDecider) { d.factory = f }
}

// WithLogger sets the logger used for trace output.
func WithLogger(l zerolog.Logger) Option {
	return func(d *NamePatternProxyDecider) { d.logger = l }
}

// WithObjectNames sets the initial pattern list.
func WithObjectNames(names ...string) Option {
	return func(d *NamePatternProxyDecider) { d.SetObjectNames(names...) }
}

// NewNamePatternProxyDecider returns a decider with no patterns; it proxies
// nothing until SetObjectNames is called.
func NewNamePatternProxyDecider(opts ...Option) *NamePatternProxyDecider {
	d := &NamePatternProxyDecider{
		matcher: SimpleMatcher{},
		factory: FactoryCheckerFunc(container.IsFactoryType),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetObjectNames publishes a new pattern list, replacing the old one.
func (d *NamePatternProxyDecider) SetObjectNames(names ...string) {
	d.SetPatterns(NewPatternList(names...))
}

// SetPatterns publishes l. Decide calls already running keep using the
// snapshot they started with.
func (d *NamePatternProxyDecider) SetPatterns(l PatternList) {
	d.patterns.Store(&l)
	d.logger.Debug().Int("count", l.Len()).Str("patterns", l.String()).Msg("object name patterns updated")
}

// Patterns returns the current snapshot.
func (d *NamePatternProxyDecider) Patterns() PatternList {
	if p := d.patterns.Load(); p != nil {
		return *p
	}
	return PatternList{}
}

// IsMatch reports whether name matches pattern under the configured Matcher.
func (d *NamePatternProxyDecider) IsMatch(name, pattern string) bool {
	return d.matcher.Match(name, pattern)
}

// Decide implements Decider.
func (d *NamePatternProxyDecider) Decide(t reflect.Type, name string, ts TargetSource) (Decision, error) {
	e, err := d.Explain(Candidate{Type: t, Name: name, TargetSource: ts})
	return e.Decision, err
}

// Explain decides for c and reports which pattern, if any, matched.
func (d *NamePatternProxyDecider) Explain(c Candidate) (Explanation, error) {
	e := Explanation{Candidate: c, Decision: DoNotProxy}
	if c.Type == nil {
		return e, fmt.Errorf("%w: declared type is nil for %q", ErrInvalidArgument, c.Name)
	}
	if c.Name == "" {
		return e, fmt.Errorf("%w: registered name is empty for %s", ErrInvalidArgument, c.Type)
	}

	list := d.patterns.Load()
	if list == nil || list.Len() == 0 {
		return e, nil
	}

	if p, ok := d.firstMatch(c.Type, c.Name, list.patterns); ok {
		e.Decision = ProxyWithoutAdditionalInterceptors
		e.Pattern = p
	}
	d.logger.Trace().EmbedObject(e).Msg("proxy decision")
	return e, nil
}

// firstMatch walks patterns in order. Factory components are only eligible
// under a factory-prefixed name and only against factory-prefixed patterns;
// both prefixes are stripped before matching. Factory-prefixed patterns never
// apply to other components.
func (d *NamePatternProxyDecider) firstMatch(t reflect.Type, name string, patterns []string) (string, bool) {
	isFactory := d.factory.IsFactory(t)
	if isFactory && !container.IsFactoryDereference(name) {
		return "", false
	}

	for _, p := range patterns {
		candidate, mapped := name, p
		if isFactory {
			if !container.IsFactoryDereference(p) {
				continue
			}
			candidate = strings.TrimPrefix(name, container.FactoryPrefix)
			mapped = strings.TrimPrefix(p, container.FactoryPrefix)
		} else if container.IsFactoryDereference(p) {
			continue
		}
		if d.IsMatch(candidate, mapped) {
			return p, true
		}
	}
	return "", false
}
