// Package container is the IoC container and service provider system the
// auto-proxy creator plugs into.
//
// # Overview
//
// Components are registered under string names with explicit factory
// functions and resolved with Make or the generic Resolve. The API follows
// Laravel's Illuminate\Container\Container where Go allows it. Two hooks
// exist for proxying:
//
//   - Factory objects: a component implementing FactoryObject resolves to its
//     product; "&name" addresses the factory itself.
//   - Post-processors: every freshly built instance passes through them and
//     may come back replaced.
//
// # Lifecycle
//
//  1. c := container.New()
//  2. registry.Register(&providers.AutoProxyServiceProvider{...})
//  3. registry.Boot(): the creator is installed as a post-processor here
//  4. c.Make(...) from then on may return proxies
//  5. registry.Terminate() on shutdown
//
// Singletons cached before step 3 are never post-processed.
//
// # Bindings
//
//	c.Bind("orderService", func(c *container.Container) any {
//	    return &OrderService{Pool: container.Resolve[*Pool](c, "connectionPool")}
//	})
//	c.Singleton("connectionPool", func(c *container.Container) any { return NewPool() })
//	c.Instance("config", cfg)
//	c.Alias("connectionPool", "pool")
//
// Aliases resolve to the canonical name, and post-processors see that name.
//
// # Factory Objects
//
//	c.Singleton("connection", func(c *container.Container) any {
//	    return container.FactoryFunc[*Conn]{New: dial, Shared: true}
//	})
//	conn := container.Resolve[*Conn](c, "connection")      // product, post-processed as "connection"
//	f := c.Make("&connection").(container.FactoryObject)   // factory, post-processed as "&connection"
//
// # Post-Processors
//
//	c.AddPostProcessor(container.PostProcessorFunc(func(instance any, name string) (any, error) {
//	    return instance, nil
//	}))
//
// A post-processor error panics out of Make; TryMake returns it instead.
//
// # Tags and Extenders
//
//	c.Tag([]string{"pooledTargets"}, "autoproxy.target_source_creators")
//	creators := c.Tagged("autoproxy.target_source_creators")
//
//	c.Extend("orderService", func(instance any, c *container.Container) any {
//	    return &RetryingOrderService{Inner: instance.(*OrderService)}
//	})
//
// # Deferred Providers
//
// A provider returning true from IsDeferred registers on the first Make of
// any abstract in Provides, once, through Container.Defer.
//
//	func (p *PoolProvider) IsDeferred() bool   { return true }
//	func (p *PoolProvider) Provides() []string { return []string{"connectionPool"} }
package container
