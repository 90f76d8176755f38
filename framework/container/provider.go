package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register only binds. Boot runs once every provider has registered, so it
// may resolve anything; the auto-proxy provider installs its creator there.
//
//	type TxServiceProvider struct{ container.BaseProvider }
//
//	func (p *TxServiceProvider) Register(app *container.Container) {
//	    app.Singleton("txInterceptor", func(c *container.Container) any {
//	        return tx.NewInterceptor(container.Resolve[*config.Config](c, "config"))
//	    })
//	}
type ServiceProvider interface {
	// Register binds services into the container without resolving any.
	Register(app *Container)

	// Boot is called after all providers are registered.
	Boot(app *Container)

	// Provides lists the abstracts a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether Register waits for the first Make of one of
	// the Provides() abstracts.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider supplies no-op Boot, Provides and IsDeferred; embed it and
// implement Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container)  {}
func (p *BaseProvider) Provides() []string { return nil }
func (p *BaseProvider) IsDeferred() bool   { return false }

// Terminator is implemented by providers that hold resources (watchers,
// listeners) which must be released on shutdown.
type Terminator interface {
	Terminate(app *Container) error
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// It mirrors the behaviour of Laravel's Application::registerConfiguredProviders
// and Application::bootProviders.
type ProviderRegistry struct {
	app        *Container
	booted     bool
	registered map[ServiceProvider]bool
	terminated bool

	// deferred loads may run from any goroutine calling Make
	mu       sync.Mutex
	loaded   []ServiceProvider
	deferred map[string]ServiceProvider // abstract → provider
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method. A deferred
// provider is only recorded; it registers on the first Make() of one of the
// abstracts it Provides().
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		r.deferProvider(provider)
		return
	}
	r.load(provider)
}

// deferProvider hands the container one shared loader per deferred provider,
// so a provider offering several abstracts registers once.
func (r *ProviderRegistry) deferProvider(provider ServiceProvider) {
	load := sync.OnceFunc(func() {
		r.mu.Lock()
		for _, abstract := range provider.Provides() {
			delete(r.deferred, abstract)
		}
		r.mu.Unlock()
		r.load(provider)
	})
	for _, abstract := range provider.Provides() {
		r.deferred[abstract] = provider
		r.app.Defer(abstract, load)
	}
}

func (r *ProviderRegistry) load(provider ServiceProvider) {
	provider.Register(r.app)
	r.mu.Lock()
	r.loaded = append(r.loaded, provider)
	r.mu.Unlock()
	log.Debug().Str("provider", fmt.Sprintf("%T", provider)).Bool("deferred", provider.IsDeferred()).Msg("provider registered")

	// Registered after Boot(): boot now
	if r.booted {
		provider.Boot(r.app)
	}
}

// Deferred returns the abstracts whose providers have not been loaded yet.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.deferred))
	for abstract := range r.deferred {
		out = append(out, abstract)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Boot calls Boot() on every loaded provider, once. Deferred providers
// loaded later boot as they load.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() {
	if r.booted {
		return
	}
	r.booted = true
	for _, provider := range r.Providers() {
		provider.Boot(r.app)
		log.Debug().Str("provider", fmt.Sprintf("%T", provider)).Msg("provider booted")
	}
}

// Terminate calls Terminate() on every loaded provider implementing
// Terminator, in reverse registration order. Errors are joined; a second
// call is a no-op.
func (r *ProviderRegistry) Terminate() error {
	if r.terminated {
		return nil
	}
	r.terminated = true

	providers := r.Providers()
	var errs []error
	for i := len(providers) - 1; i >= 0; i-- {
		t, ok := providers[i].(Terminator)
		if !ok {
			continue
		}
		if err := t.Terminate(r.app); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", providers[i], err))
		}
	}
	return errors.Join(errs...)
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the loaded providers in registration order: every eager
// one plus the deferred ones resolved so far.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.loaded...)
}
