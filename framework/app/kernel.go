package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-autoproxy/framework/aop/autoproxy"
	"github.com/km-arc/go-autoproxy/framework/config"
	"github.com/km-arc/go-autoproxy/framework/container"
	"github.com/km-arc/go-autoproxy/framework/providers"
	"github.com/km-arc/go-autoproxy/framework/routing"
)

const shutdownTimeout = 5 * time.Second

// Application is the top-level application container.
// Components are bound on the embedded Container, as on $app in
// Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// Options configure New.
type Options struct {
	EnvFiles []string

	// ProxyFactory builds proxies for components selected by the decider.
	ProxyFactory         autoproxy.ProxyFactory
	TargetSourceCreators []autoproxy.TargetSourceCreator
}

// New loads configuration and registers the framework providers.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return nil, fmt.Errorf("app: loading config: %w", err)
	}

	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
	}

	// Routing before AutoProxy: the router is built before post-processing starts.
	registry.Register(&providers.ConfigServiceProvider{Config: cfg})
	registry.Register(&providers.LoggingServiceProvider{})
	registry.Register(&providers.RoutingServiceProvider{})
	registry.Register(&providers.AutoProxyServiceProvider{
		ProxyFactory:         opts.ProxyFactory,
		TargetSourceCreators: opts.TargetSourceCreators,
	})

	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Decider resolves the name-pattern proxy decider.
func (a *Application) Decider() *autoproxy.NamePatternProxyDecider {
	return container.Resolve[*autoproxy.NamePatternProxyDecider](a.Container, "autoproxy.decider")
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()

	ln, err := net.Listen("tcp", ":"+cfg.App.Port)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("addr", ln.Addr().String()).
		Strs("objectNames", a.Decider().Patterns().Patterns()).
		Msg("server started")

	select {
	case err := <-errCh:
		_ = a.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) && err == nil {
		err = serveErr
	}
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	log.Info().Msg("server stopped")
	return err
}

// Close terminates the providers, stopping the autoproxy file watcher.
func (a *Application) Close() error {
	return a.Providers.Terminate()
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
