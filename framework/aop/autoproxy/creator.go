package autoproxy

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-autoproxy/framework/container"
)

// ProxyConfig is everything a ProxyFactory needs to build one proxy.
type ProxyConfig struct {
	Name               string
	Type               reflect.Type
	Target             TargetSource
	Interceptors       []any
	CustomTargetSource bool
}

// ProxyFactory builds the proxy object for a component. Interception itself
// lives behind this interface.
type ProxyFactory interface {
	NewProxy(cfg ProxyConfig) (any, error)
}

// ProxyFactoryFunc adapts a function into a ProxyFactory.
type ProxyFactoryFunc func(cfg ProxyConfig) (any, error)

func (f ProxyFactoryFunc) NewProxy(cfg ProxyConfig) (any, error) { return f(cfg) }

// CreatorOptions configure a Creator.
type CreatorOptions struct {
	// InterceptorNames are container bindings resolved and attached, in
	// order, to every proxy.
	InterceptorNames []string

	// TargetSourceCreators are asked in order for a custom target source;
	// the first non-nil answer wins.
	TargetSourceCreators []TargetSourceCreator

	Metrics *Metrics
	Logger  *zerolog.Logger
}

// Creator is a container.PostProcessor that wraps components in proxies when
// its Decider says so.
type Creator struct {
	app          *container.Container
	decider      Decider
	proxyFactory ProxyFactory
	opts         CreatorOptions
	logger       zerolog.Logger
}

var _ container.PostProcessor = (*Creator)(nil)

// NewCreator builds a Creator. app resolves interceptor names and may be nil
// when no InterceptorNames are configured.
func NewCreator(app *container.Container, decider Decider, factory ProxyFactory, opts CreatorOptions) *Creator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Creator{
		app:          app,
		decider:      decider,
		proxyFactory: factory,
		opts:         opts,
		logger:       logger,
	}
}

// Decider returns the decider consulted for every component.
func (cr *Creator) Decider() Decider { return cr.decider }

// PostProcessAfterInitialization implements container.PostProcessor.
func (cr *Creator) PostProcessAfterInitialization(instance any, name string) (any, error) {
	out, err := cr.wrapIfNecessary(instance, name)
	if err != nil {
		cr.opts.Metrics.observeError()
		cr.logger.Error().Err(err).Str("name", name).Msg("auto-proxy failed")
	}
	return out, err
}

func (cr *Creator) wrapIfNecessary(instance any, name string) (any, error) {
	if cr.isInterceptor(name) || isInfrastructure(instance) {
		return instance, nil
	}

	t := reflect.TypeOf(instance)
	custom := cr.customTargetSource(t, name)

	decision, err := cr.decide(Candidate{Type: t, Name: name, TargetSource: custom})
	if err != nil {
		return nil, err
	}
	cr.opts.Metrics.observeDecision(decision)
	if !decision.ShouldProxy() {
		return instance, nil
	}

	if cr.proxyFactory == nil {
		return nil, fmt.Errorf("%w: component %q", ErrNoProxyFactory, name)
	}
	interceptors, err := cr.commonInterceptors()
	if err != nil {
		return nil, err
	}

	ts := custom
	if ts == nil {
		ts = NewSingletonTargetSource(instance)
	}
	proxy, err := cr.proxyFactory.NewProxy(ProxyConfig{
		Name:               name,
		Type:               t,
		Target:             ts,
		Interceptors:       interceptors,
		CustomTargetSource: custom != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("autoproxy: creating proxy for %q: %w", name, err)
	}
	cr.opts.Metrics.observeProxy()
	cr.logger.Info().Str("name", name).Int("interceptors", len(interceptors)).Msg("created proxy")
	return proxy, nil
}

// decide prefers Explain so the matching pattern ends up in the log.
func (cr *Creator) decide(c Candidate) (Decision, error) {
	if ex, ok := cr.decider.(interface {
		Explain(Candidate) (Explanation, error)
	}); ok {
		e, err := ex.Explain(c)
		if err == nil {
			cr.logger.Debug().EmbedObject(e).Msg("proxy decision")
		}
		return e.Decision, err
	}
	return cr.decider.Decide(c.Type, c.Name, c.TargetSource)
}

func (cr *Creator) customTargetSource(t reflect.Type, name string) TargetSource {
	for _, tsc := range cr.opts.TargetSourceCreators {
		if ts := tsc.TargetSourceFor(t, name); ts != nil {
			return ts
		}
	}
	return nil
}

// isInterceptor keeps interceptors themselves from being proxied, which
// would otherwise recurse while resolving them.
func (cr *Creator) isInterceptor(name string) bool {
	for _, n := range cr.opts.InterceptorNames {
		if n == name {
			return true
		}
	}
	return false
}

// isInfrastructure reports whether instance is itself a post-processor;
// those are never proxied.
func isInfrastructure(instance any) bool {
	_, ok := instance.(container.PostProcessor)
	return ok
}

func (cr *Creator) commonInterceptors() ([]any, error) {
	if len(cr.opts.InterceptorNames) == 0 {
		return nil, nil
	}
	if cr.app == nil {
		return nil, fmt.Errorf("%w: no container to resolve %v", ErrInterceptorNotFound, cr.opts.InterceptorNames)
	}
	out := make([]any, 0, len(cr.opts.InterceptorNames))
	for _, n := range cr.opts.InterceptorNames {
		if !cr.app.Bound(n) {
			return nil, fmt.Errorf("%w: %q", ErrInterceptorNotFound, n)
		}
		i, err := cr.app.TryMake(n)
		if err != nil {
			return nil, fmt.Errorf("autoproxy: resolving interceptor %q: %w", n, err)
		}
		out = append(out, i)
	}
	return out, nil
}
