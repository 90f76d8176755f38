package providers

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-autoproxy/framework/aop/autoproxy"
	"github.com/km-arc/go-autoproxy/framework/config"
	"github.com/km-arc/go-autoproxy/framework/container"
	"github.com/km-arc/go-autoproxy/framework/http/admin"
	"github.com/km-arc/go-autoproxy/framework/logging"
	"github.com/km-arc/go-autoproxy/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration into the
// container as "config".
//
// Bound abstracts:
//   - "config"        → *config.Config
//   - "configuration" → alias of "config"
//
// When Config is nil the configuration is loaded from EnvFiles on first
// resolution; a load failure panics (use TryMake to get it as an error).
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
	Config   *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	if p.Config != nil {
		app.Instance("config", p.Config)
	} else {
		envFiles := p.EnvFiles
		app.Singleton("config", func(c *container.Container) any {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				panic(err)
			}
			return cfg
		})
	}
	app.Alias("config", "configuration")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider configures the global zerolog logger from
// config.Log when booted.
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(_ *container.Container) {}

func (p *LoggingServiceProvider) Boot(app *container.Container) {
	cfg := container.Resolve[*config.Config](app, "config")
	logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
}

// ── AutoProxyServiceProvider ──────────────────────────────────────────────────

// TargetSourceCreatorTag groups container bindings that supply custom target
// sources to the auto-proxy creator. Tag them before the application boots.
//
//	app.Tag([]string{"pooledTargets"}, providers.TargetSourceCreatorTag)
const TargetSourceCreatorTag = "autoproxy.target_source_creators"

// AutoProxyServiceProvider wires the name-pattern auto-proxy creator into
// the container.
//
// Bound abstracts:
//   - "autoproxy.decider" → *autoproxy.NamePatternProxyDecider
//   - "autoproxy.creator" → *autoproxy.Creator
//   - "metrics.registry"  → *prometheus.Registry
//   - "autoproxy.watcher" → *config.Watcher (only when AUTOPROXY_WATCH is on)
//
// Boot installs the creator as a container post-processor, so every
// component resolved afterwards is run through the decider. Terminate stops
// the watcher.
type AutoProxyServiceProvider struct {
	container.BaseProvider

	// ProxyFactory builds proxies. Without one, any component selected for
	// proxying fails to resolve with autoproxy.ErrNoProxyFactory.
	ProxyFactory         autoproxy.ProxyFactory
	TargetSourceCreators []autoproxy.TargetSourceCreator
}

var _ container.Terminator = (*AutoProxyServiceProvider)(nil)

func (p *AutoProxyServiceProvider) Register(app *container.Container) {
	app.Singleton("metrics.registry", func(c *container.Container) any {
		return prometheus.NewRegistry()
	})

	app.Singleton("autoproxy.decider", func(c *container.Container) any {
		cfg := container.Resolve[*config.Config](c, "config")
		matcher, err := autoproxy.MatcherByName(cfg.AutoProxy.Matcher)
		if err != nil {
			panic(err)
		}
		return autoproxy.NewNamePatternProxyDecider(
			autoproxy.WithMatcher(matcher),
			autoproxy.WithLogger(logging.Get("autoproxy")),
			autoproxy.WithObjectNames(cfg.AutoProxy.ObjectNames...),
		)
	})

	factory, creators := p.ProxyFactory, p.TargetSourceCreators
	app.Singleton("autoproxy.creator", func(c *container.Container) any {
		cfg := container.Resolve[*config.Config](c, "config")
		sources := append([]autoproxy.TargetSourceCreator(nil), creators...)
		for _, tagged := range c.Tagged(TargetSourceCreatorTag) {
			if tsc, ok := tagged.(autoproxy.TargetSourceCreator); ok {
				sources = append(sources, tsc)
			}
		}
		decider := container.Resolve[*autoproxy.NamePatternProxyDecider](c, "autoproxy.decider")
		reg := container.Resolve[*prometheus.Registry](c, "metrics.registry")
		logger := logging.Get("autoproxy")
		return autoproxy.NewCreator(c, decider, factory, autoproxy.CreatorOptions{
			InterceptorNames:     cfg.AutoProxy.InterceptorNames,
			TargetSourceCreators: sources,
			Metrics:              autoproxy.NewMetrics(reg),
			Logger:               &logger,
		})
	})
}

func (p *AutoProxyServiceProvider) Boot(app *container.Container) {
	creator := container.Resolve[*autoproxy.Creator](app, "autoproxy.creator")
	app.AddPostProcessor(creator)

	cfg := container.Resolve[*config.Config](app, "config")
	if !cfg.AutoProxy.Watch || cfg.AutoProxy.File == "" {
		return
	}
	decider := container.Resolve[*autoproxy.NamePatternProxyDecider](app, "autoproxy.decider")
	w, err := config.WatchAutoProxyFile(cfg.AutoProxy.File, func(fs config.FileSettings) {
		if fs.ObjectNames != nil {
			decider.SetObjectNames(fs.ObjectNames...)
		}
	})
	if err != nil {
		log.Error().Err(err).Str("path", cfg.AutoProxy.File).Msg("autoproxy file watch disabled")
		return
	}
	app.Instance("autoproxy.watcher", w)
}

// Terminate stops the file watcher, if one was started.
func (p *AutoProxyServiceProvider) Terminate(app *container.Container) error {
	if !app.Bound("autoproxy.watcher") {
		return nil
	}
	w := container.Resolve[*config.Watcher](app, "autoproxy.watcher")
	if err := w.Close(); err != nil {
		return fmt.Errorf("providers: closing watcher: %w", err)
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router with the autoproxy admin
// API and the prometheus endpoint mounted.
//
// Bound abstracts:
//   - "router" → *routing.Router
//
// Requires AutoProxyServiceProvider to be registered as well. Register it
// first so the router is built during Boot, before the auto-proxy creator
// starts post-processing.
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Singleton("router", func(c *container.Container) any {
		r := routing.New()
		decider := container.Resolve[*autoproxy.NamePatternProxyDecider](c, "autoproxy.decider")
		admin.NewController(decider, logging.Get("admin")).Routes(r)

		reg := container.Resolve[*prometheus.Registry](c, "metrics.registry")
		r.Mount("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		return r
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Container) {
	_ = container.Resolve[*routing.Router](app, "router")
}
