// Package autoproxy decides which container components get wrapped by a
// proxy, based on a list of component-name patterns.
//
// # Patterns
//
// Each configured object name is either a literal name or one of the simple
// wildcard forms:
//
//	"myObject"   exact
//	"tx*"        prefix
//	"*Service"   suffix
//	"*Repo*"     contains
//	"*"          everything
//
// # Factory objects
//
// For a component implementing container.FactoryObject, plain patterns only
// ever select the factory's products. To proxy the factory itself, put the
// factory prefix on the pattern:
//
//	decider.SetObjectNames("connectionFactory")  // proxies the connections
//	decider.SetObjectNames("&connectionFactory") // proxies the factory
//
// # Wiring
//
//	decider := autoproxy.NewNamePatternProxyDecider()
//	decider.SetObjectNames("*Service", "tx*")
//
//	creator := autoproxy.NewCreator(c, decider, myProxyFactory, autoproxy.CreatorOptions{
//	    InterceptorNames: []string{"txInterceptor"},
//	})
//	c.AddPostProcessor(creator)
//
// The pattern list is published as an immutable snapshot, so SetObjectNames
// may be called while other goroutines are resolving components.
package autoproxy
