package tabi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aretw0/tabi/internal/advisor"
	"github.com/aretw0/tabi/internal/collector"
	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/internal/planner"
	"github.com/aretw0/tabi/internal/runtime"
	"github.com/aretw0/tabi/pkg/adapters/llm"
	loamAdapter "github.com/aretw0/tabi/pkg/adapters/loam"
	"github.com/aretw0/tabi/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/tabi/pkg/adapters/redis"
	"github.com/aretw0/tabi/pkg/config"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/observability"
	"github.com/aretw0/tabi/pkg/ports"
	"github.com/aretw0/tabi/pkg/registry"
	"github.com/aretw0/tabi/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// App is the high-level entry point of the library.
// It wires the knowledge base, search providers, language model and session cache
// described by a config.Config into one workflow controller.
type App struct {
	cfg config.Config

	kb        ports.KnowledgeBase
	providers []ports.SearchProvider
	completer ports.Completer
	cache     ports.BundleCache
	sessions  *session.Manager
	engine    *runtime.Engine

	hooks     domain.LifecycleHooks
	factories *registry.Registry
	metrics   prometheus.Registerer
	tracer    trace.TracerProvider
	logger    *slog.Logger

	closers []func() error
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLifecycleHooks registers observability hooks in addition to the built-in log hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *App) {
		a.hooks = a.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithKnowledgeBase injects a knowledge base, bypassing the default Loam directory.
func WithKnowledgeBase(kb ports.KnowledgeBase) Option {
	return func(a *App) {
		a.kb = kb
	}
}

// WithSearchProviders replaces the providers built from search.providers.
func WithSearchProviders(providers ...ports.SearchProvider) Option {
	return func(a *App) {
		a.providers = providers
	}
}

// WithCompleter injects the language model, bypassing the OpenAI client.
func WithCompleter(c ports.Completer) Option {
	return func(a *App) {
		a.completer = c
	}
}

// WithProviderFactory registers a search provider under name, replacing a built-in of the same name.
// The provider is used when search.providers lists name.
func WithProviderFactory(name string, f registry.Factory) Option {
	return func(a *App) {
		a.factories.Register(name, f)
	}
}

// WithBundleCache injects the session cache, bypassing cache.backend.
func WithBundleCache(c ports.BundleCache) Option {
	return func(a *App) {
		a.cache = c
	}
}

// WithMetrics registers the Prometheus collectors with reg and feeds them from the workflow.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(a *App) {
		a.metrics = reg
	}
}

// WithTracerProvider sends stage spans to tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *App) {
		a.tracer = tp
	}
}

// New builds an App from cfg.
// Without an injected completer it requires an OpenAI API key.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, factories: registry.NewDefault()}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = logging.NewNop()
	}
	app.hooks = observability.LogHooks(app.logger).Merge(app.hooks)
	if app.metrics != nil {
		app.hooks = app.hooks.Merge(observability.NewMetrics(app.metrics).Hooks())
	}

	if err := app.initKnowledgeBase(); err != nil {
		return nil, err
	}
	if app.providers == nil {
		providers, err := BuildProviders(app.factories, cfg.Search, app.logger)
		if err != nil {
			return nil, err
		}
		app.providers = providers
	}
	if err := app.initCompleter(); err != nil {
		return nil, err
	}
	if err := app.initCache(); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.engine = app.newEngine()
	return app, nil
}

func (a *App) initKnowledgeBase() error {
	if a.kb != nil {
		return nil
	}
	dir, err := filepath.Abs(a.cfg.Knowledge.Dir)
	if err != nil {
		return fmt.Errorf("invalid knowledge dir: %w", err)
	}
	kb, err := loamAdapter.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	a.kb = kb
	return nil
}

func (a *App) initCompleter() error {
	if a.completer != nil {
		return nil
	}
	c, err := llm.NewOpenAI(llm.Config{
		APIKey:  a.cfg.LLM.APIKey,
		Model:   a.cfg.LLM.Model,
		BaseURL: a.cfg.LLM.BaseURL,
	}, llm.WithTemperature(a.cfg.LLM.Temperature), llm.WithMaxTokens(a.cfg.LLM.MaxTokens))
	if err != nil {
		return fmt.Errorf("failed to create language model client: %w", err)
	}
	a.completer = c
	return nil
}

func (a *App) initCache() error {
	if a.cache == nil {
		switch a.cfg.Cache.Backend {
		case config.CacheNone:
			return nil
		case config.CacheRedis:
			rc := a.cfg.Cache.Redis
			cache := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
				redisAdapter.WithTTL(a.cfg.Cache.TTL),
				redisAdapter.WithPrefix(rc.Prefix),
			)
			a.closers = append(a.closers, cache.Close)
			a.cache = cache
			// Replicas sharing one Redis also share the session locks.
			a.sessions = session.NewManager(cache,
				session.WithLocker(redisAdapter.NewLocker(cache.Client(), rc.Prefix)),
				session.WithLockTTL(rc.LockTTL),
				session.WithLogger(a.logger),
			)
			return nil
		default:
			a.cache = memory.NewCache(a.cfg.Cache.TTL)
		}
	}
	a.sessions = session.NewManager(a.cache, session.WithLogger(a.logger))
	return nil
}

func (a *App) newEngine() *runtime.Engine {
	c := collector.New(a.kb, a.providers,
		collector.WithKnowledgeChars(a.cfg.Knowledge.MaxChars),
		collector.WithSearchChars(a.cfg.Search.MaxChars),
		collector.WithRequireFresh(a.cfg.Knowledge.RequireFresh),
		collector.WithLifecycleHooks(a.hooks),
		collector.WithLogger(a.logger),
	)
	g := planner.New(a.completer,
		planner.WithCandidates(a.cfg.Planner.Candidates),
		planner.WithLanguage(a.cfg.Planner.Language),
		planner.WithTimeout(a.cfg.LLM.Timeout),
		planner.WithLogger(a.logger),
	)
	adv := advisor.New(a.completer,
		advisor.WithTimeout(a.cfg.LLM.Timeout),
		advisor.WithMaxPlanChars(a.cfg.Planner.MaxPlanChars),
		advisor.WithLanguage(a.cfg.Planner.Language),
		advisor.WithLogger(a.logger),
	)

	opts := []runtime.Option{
		runtime.WithPolicy(runtime.Policy{
			AdviceOptional: a.cfg.Planner.AdviceOptional,
			StrictContext:  a.cfg.Planner.StrictContext,
		}),
		runtime.WithLifecycleHooks(a.hooks),
		runtime.WithLogger(a.logger),
	}
	if a.sessions != nil {
		opts = append(opts, runtime.WithBundleCache(a.sessions))
	}
	if a.tracer != nil {
		opts = append(opts, runtime.WithTracerProvider(a.tracer))
	}
	return runtime.NewEngine(c, g, adv, opts...)
}

// BuildProviders creates the search providers named in cfg.Providers, in that order.
// Providers whose factory returns registry.ErrSkip are left out with a debug log.
func BuildProviders(reg *registry.Registry, cfg config.SearchConfig, logger *slog.Logger) ([]ports.SearchProvider, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var unknown []string
	for _, name := range cfg.Providers {
		if !reg.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown search providers %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(reg.Names(), ", "))
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	var out []ports.SearchProvider
	for _, name := range cfg.Providers {
		p, err := reg.Build(name, cfg, httpClient)
		if errors.Is(err, registry.ErrSkip) {
			logger.Debug("search provider skipped", "provider", name, "reason", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Plan runs the workflow for req. The returned state is terminal.
// The error is non-nil only when req is invalid.
func (a *App) Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error) {
	return a.engine.Run(ctx, sessionID, req)
}

// Destinations lists the knowledge base entries, sorted by ID.
func (a *App) Destinations(ctx context.Context) ([]domain.Destination, error) {
	return a.kb.List(ctx)
}

// Reset drops the cached context of a session ("new plan").
func (a *App) Reset(ctx context.Context, sessionID string) error {
	if a.sessions == nil || sessionID == "" {
		return nil
	}
	return a.sessions.Forget(ctx, sessionID)
}

// FlushCache drops the cached context of every session, so the next run of each
// rereads the knowledge base. Caches that cannot flush are left to expire.
func (a *App) FlushCache(ctx context.Context) error {
	if a.sessions == nil {
		return nil
	}
	flushed, err := a.sessions.Flush(ctx)
	if err != nil {
		return fmt.Errorf("failed to flush session cache: %w", err)
	}
	if !flushed {
		a.logger.Warn("session cache cannot be flushed, stale bundles expire with cache.ttl")
	}
	return nil
}

// Ping checks the session cache backend. Caches without a remote store always succeed.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.cache.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Watch reports knowledge base changes when the backing store supports it.
func (a *App) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, ok := a.kb.(ports.Watchable)
	if !ok {
		return nil, errors.New("knowledge base does not support watching")
	}
	return w.Watch(ctx)
}

// Providers returns the names of the active search providers, in call order.
func (a *App) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Name())
	}
	return names
}

// Config returns the settings the App was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Close releases external connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
