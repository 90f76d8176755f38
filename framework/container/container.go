package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Factory builds a component from the container.
type Factory func(c *Container) any

// extender decorates a freshly built component before post-processing.
type extender func(instance any, c *Container) any

// ── Entries ───────────────────────────────────────────────────────────────────

// entry is everything the container knows about one canonical name.
type entry struct {
	factory Factory
	shared  bool
	load    func() // deferred registration, run while nothing is bound

	instance any // cached singleton or Instance value
	cached   bool

	// derived from a FactoryObject instance
	handle     any // post-processed factory handed out for "&name"
	hasHandle  bool
	product    any // cached product of a shared factory
	hasProduct bool

	// survive rebinding
	extenders []extender
	rebound   []func(any)
}

func (e *entry) bound() bool { return e.factory != nil || e.cached || e.load != nil }

// reset drops the registration and everything derived from it. Extenders
// and rebound callbacks stay.
func (e *entry) reset() {
	e.factory, e.shared, e.load = nil, false, nil
	e.instance, e.cached = nil, false
	e.handle, e.hasHandle = nil, false
	e.product, e.hasProduct = nil, false
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container, after Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / Resolve (generic)
//   - Tags, Extend, Rebinding and AfterResolving callbacks
//   - Factory objects ("&name" dereference)
//   - Post-processors (instance replacement, e.g. auto-proxying)
//   - Deferred loaders (register on first resolve)
//
// Callbacks, factories and extenders always run without the lock held, so
// they may resolve other components.
type Container struct {
	mu sync.RWMutex

	entries map[string]*entry   // canonical name → entry
	aliases map[string]string   // alias → canonical name
	tags    map[string][]string // tag → names

	afterResolving []func(string, any)
	postProcessors []PostProcessor
}

// New creates an empty container bound to itself as "container".
func New() *Container {
	c := &Container{}
	c.clear()
	c.Instance("container", c)
	return c
}

func (c *Container) clear() {
	c.entries = make(map[string]*entry)
	c.aliases = make(map[string]string)
	c.tags = make(map[string][]string)
}

// entryFor returns the entry behind abstract, creating it (must hold mu.Lock).
func (c *Container) entryFor(abstract string) *entry {
	key := c.canonical(abstract)
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// snapshot copies the entry behind key, or reports false when there is none.
func (c *Container) snapshot(key string) (entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok {
		return *e, true
	}
	return entry{}, false
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a factory that runs on every Make.
//
//	// Laravel: $app->bind(OrderService::class, fn($app) => new OrderService($app))
//	c.Bind("orderService", func(c *container.Container) any {
//	    return &OrderService{Pool: container.Resolve[*Pool](c, "connectionPool")}
//	})
func (c *Container) Bind(abstract string, factory Factory) {
	c.register(abstract, factory, false)
}

// Singleton registers a factory whose result is cached after the first Make.
//
//	// Laravel: $app->singleton(Pool::class, fn($app) => new Pool($app))
//	c.Singleton("connectionPool", func(c *container.Container) any {
//	    return NewPool(container.Resolve[*config.Config](c, "config"))
//	})
func (c *Container) Singleton(abstract string, factory Factory) {
	c.register(abstract, factory, true)
}

func (c *Container) register(abstract string, factory Factory, shared bool) {
	c.mu.Lock()
	e := c.entryFor(abstract)
	wasResolved := e.cached
	e.reset()
	e.factory, e.shared = factory, shared
	c.mu.Unlock()

	// a resolved singleton is rebuilt for its rebound listeners
	if wasResolved {
		c.fireRebound(abstract, c.make(abstract))
	}
}

// Instance registers a pre-built value. It is never post-processed.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", cfg)
func (c *Container) Instance(abstract string, instance any) {
	c.mu.Lock()
	e := c.entryFor(abstract)
	e.reset()
	e.instance, e.cached = instance, true
	c.mu.Unlock()

	c.fireRebound(abstract, instance)
}

// Alias registers an alternative name for an abstract. Post-processors see
// the canonical name whichever one is resolved.
//
//	// Laravel: $app->alias(Pool::class, 'pool')
//	c.Alias("connectionPool", "pool")
func (c *Container) Alias(abstract, alias string) {
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(abstract)
}

// Defer registers load to run when abstract is resolved while it has no
// binding. load must bind abstract, and binding it discards the loader.
// Concurrent resolves may call load more than once, so it should be
// idempotent (sync.OnceFunc). Deferred service providers use this so their
// components are built, and post-processed, exactly once.
//
//	c.Defer("txInterceptor", func() { provider.Register(c) })
func (c *Container) Defer(abstract string, load func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryFor(abstract).load = load
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the component every time it is built. A singleton that is
// already cached is decorated in place and its rebound callbacks fire.
//
//	c.Extend("orderService", func(instance any, c *container.Container) any {
//	    return &RetryingOrderService{Inner: instance.(*OrderService)}
//	})
//
// Extenders run before post-processors, so a proxy wraps the decorated value.
func (c *Container) Extend(abstract string, fn extender) {
	c.mu.Lock()
	e := c.entryFor(abstract)
	e.extenders = append(e.extenders, fn)
	inst, cached := e.instance, e.cached
	c.mu.Unlock()

	if !cached {
		return
	}
	extended := fn(inst, c)

	c.mu.Lock()
	e.instance = extended
	c.mu.Unlock()
	c.fireRebound(abstract, extended)
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag files abstracts under a named group.
//
//	// Laravel: $app->tag([PooledTargets::class, LazyTargets::class], 'target_sources')
//	c.Tag([]string{"pooledTargets", "lazyTargets"}, "target_sources")
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves every abstract filed under tag, in tagging order.
//
//	sources := c.Tagged("target_sources")  // []any
func (c *Container) Tagged(tag string) []any {
	c.mu.RLock()
	abstracts := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	out := make([]any, 0, len(abstracts))
	for _, abstract := range abstracts {
		out = append(out, c.make(abstract))
	}
	return out
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container.
//
//	// Laravel: $app->make(OrderService::class)
//	svc := c.Make("orderService")
//
// When the bound instance is a FactoryObject, Make returns its product;
// prefix the name with FactoryPrefix to get the factory itself.
//
//	conn := c.Make("connection")        // product
//	factory := c.Make("&connection")    // FactoryObject
func (c *Container) Make(abstract string) any {
	return c.make(abstract)
}

func (c *Container) make(abstract string) any {
	if IsFactoryDereference(abstract) {
		return c.factoryHandle(TransformedName(abstract))
	}

	instance := c.resolve(abstract)
	if fo, ok := instance.(FactoryObject); ok {
		return c.objectFromFactory(c.canonicalKey(abstract), fo)
	}
	return instance
}

// resolve returns the raw bound instance for abstract.
func (c *Container) resolve(abstract string) any {
	key := c.canonicalKey(abstract)
	e, _ := c.snapshot(key)

	switch {
	case e.cached:
		return e.instance
	case e.factory != nil:
		return c.build(key, e.factory, e.shared)
	case e.load != nil:
		e.load()
		if after, _ := c.snapshot(key); after.factory == nil && !after.cached {
			panic(fmt.Sprintf("container: deferred loader did not bind [%s]", abstract))
		}
		return c.resolve(abstract)
	}
	panic(fmt.Sprintf("container: no binding registered for [%s]", abstract))
}

// build runs a factory and its extenders, post-processes the result and
// caches it for shared bindings.
func (c *Container) build(key string, f Factory, shared bool) any {
	instance := f(c)

	e, _ := c.snapshot(key)
	for _, ext := range e.extenders {
		instance = ext(instance, c)
	}

	// Factory objects are post-processed lazily: as "&key" on dereference
	// and as "key" for each product.
	if _, isFactory := instance.(FactoryObject); !isFactory {
		instance = c.postProcess(key, instance)
	}

	if shared {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			e.instance, e.cached = instance, true
		}
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, instance)
	return instance
}

// factoryHandle returns the post-processed FactoryObject bound to name.
func (c *Container) factoryHandle(name string) any {
	key := c.canonicalKey(name)
	if e, _ := c.snapshot(key); e.hasHandle {
		return e.handle
	}

	instance := c.resolve(name)
	if _, ok := instance.(FactoryObject); !ok {
		panic(fmt.Sprintf("container: [%s] is not a factory object (%T)", name, instance))
	}
	handle := c.postProcess(FactoryPrefix+key, instance)

	// only a cached factory keeps its handle
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.cached {
		e.handle, e.hasHandle = handle, true
	}
	c.mu.Unlock()
	return handle
}

// objectFromFactory returns the post-processed product of fo.
func (c *Container) objectFromFactory(key string, fo FactoryObject) any {
	if e, _ := c.snapshot(key); fo.IsSingleton() && e.hasProduct {
		return e.product
	}

	product, err := fo.GetObject()
	if err != nil {
		panic(fmt.Errorf("container: factory object [%s] failed: %w", key, err))
	}
	product = c.postProcess(key, product)

	if fo.IsSingleton() {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			e.product, e.hasProduct = product, true
		}
		c.mu.Unlock()
	}
	return product
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether abstract has a binding, an instance or a deferred
// loader.
//
//	// Laravel: $app->bound(OrderService::class)
func (c *Container) Bound(abstract string) bool {
	e, ok := c.snapshot(c.canonicalKey(abstract))
	return ok && e.bound()
}

// Resolved reports whether abstract holds a cached instance.
//
//	// Laravel: $app->resolved(Pool::class)
func (c *Container) Resolved(abstract string) bool {
	e, _ := c.snapshot(c.canonicalKey(abstract))
	return e.cached
}

// Forget drops the binding, the cached instance and anything derived from
// them. Extenders and rebound callbacks are kept for a later rebind.
//
//	// Laravel: $app->forgetInstance(Pool::class)
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[c.canonical(abstract)]; ok {
		e.reset()
	}
}

// Flush empties the container, keeping only post-processors and
// AfterResolving callbacks.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// Bindings returns the bound names in sorted order.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for name, e := range c.entries {
		if e.bound() {
			out = append(out, name)
		}
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// canonicalKey is canonical under a read lock.
func (c *Container) canonicalKey(abstract string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(abstract)
}

// canonical resolves an alias to its canonical name.
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback for every later rebind or Instance of
// abstract.
//
//	c.Rebinding("connectionPool", func(p any) { svc.Pool = p.(*Pool) })
func (c *Container) Rebinding(abstract string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryFor(abstract)
	e.rebound = append(e.rebound, cb)
}

// AfterResolving registers a callback fired whenever a factory builds a
// component, with the canonical name and the post-processed instance.
//
//	c.AfterResolving(func(abstract string, _ any) { log.Debug().Str("abstract", abstract).Msg("resolved") })
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireRebound(abstract string, instance any) {
	e, _ := c.snapshot(c.canonicalKey(abstract))
	for _, cb := range e.rebound {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(key string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(key, instance)
	}
}

// ── Typed access ──────────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, usable as the
// abstract for an interface.
//
//	key := container.TypeKey((*autoproxy.Decider)(nil))  // ".../autoproxy.Decider"
//	c.Singleton(key, factory)
//	d := container.Resolve[autoproxy.Decider](c, key)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}

// Resolve calls Make and asserts the result to T, panicking on a mismatch.
//
//	d := container.Resolve[*autoproxy.NamePatternProxyDecider](c, "autoproxy.decider")
func Resolve[T any](c *Container, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), abstract, instance))
	}
	return typed
}

// MustResolve is Resolve reporting a failed assertion instead of panicking.
// Resolution failures still panic.
func MustResolve[T any](c *Container, abstract string) (T, bool) {
	typed, ok := c.Make(abstract).(T)
	return typed, ok
}
