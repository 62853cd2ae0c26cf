package runtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies the spans produced by the controller.
const TracerName = "github.com/aretw0/tabi/internal/runtime"

// Collector gathers the context bundle. It only fails on cancellation.
type Collector interface {
	Collect(ctx context.Context, stateID string, req domain.TripRequest) (*domain.ContextBundle, error)
}

// Generator produces candidate itineraries.
type Generator interface {
	Generate(ctx context.Context, req domain.TripRequest, bundle *domain.ContextBundle) ([]string, error)
}

// Advisor produces supplementary advice for the candidates.
type Advisor interface {
	Advise(ctx context.Context, req domain.TripRequest, candidates []string) (string, error)
}

// Policy holds the controller switches that change failure handling.
type Policy struct {
	// AdviceOptional turns an Advisor failure into Done without advice instead of Failed.
	AdviceOptional bool
	// StrictContext fails Researching when the bundle is degraded.
	StrictContext bool
}

// DefaultPolicy degrades gracefully.
func DefaultPolicy() Policy {
	return Policy{AdviceOptional: true}
}

// Engine is the workflow controller.
// It holds no per-run state and is safe for concurrent use if its collaborators are.
type Engine struct {
	collector Collector
	generator Generator
	advisor   Advisor

	cache  ports.BundleCache
	policy Policy
	hooks  domain.LifecycleHooks
	tracer trace.Tracer
	logger *slog.Logger
	newID  func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithBundleCache enables skipping Researching for destinations already collected in the session.
func WithBundleCache(c ports.BundleCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithPolicy sets the failure handling policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracerProvider sets where stage spans are sent (default: the global provider).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(TracerName)
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator overrides how workflow IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates a controller over the three pipeline stages.
func NewEngine(c Collector, g Generator, a Advisor, opts ...Option) *Engine {
	e := &Engine{
		collector: c,
		generator: g,
		advisor:   a,
		policy:    DefaultPolicy(),
		tracer:    otel.Tracer(TracerName),
		logger:    logging.NewNop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Run executes one request to a terminal stage and returns the final state.
// The error is non-nil only when req is invalid (it wraps domain.ErrInvalidRequest); every
// pipeline failure is reported through State.Failure instead.
func (e *Engine) Run(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error) {
	valid, err := req.Validate()
	if err != nil {
		return nil, err
	}

	state := domain.NewState(e.newID(), sessionID, valid)
	logger := e.logger.With("state_id", state.ID, "destination", valid.Destination)

	ctx, span := e.startRun(ctx, state)
	defer func() { e.endRun(span, state) }()

	logger.Info("workflow started", "session_id", sessionID)

	if err := e.research(ctx, logger, state); err != nil {
		return e.finish(logger, state), nil
	}
	if err := e.plan(ctx, state); err != nil {
		return e.finish(logger, state), nil
	}
	if err := e.advise(ctx, logger, state); err != nil {
		return e.finish(logger, state), nil
	}

	if err := e.transition(ctx, state, domain.StageDone); err != nil {
		// Unreachable with a consistent transition table.
		logger.Error("cannot complete workflow", "err", err)
	}
	return e.finish(logger, state), nil
}

func (e *Engine) finish(logger *slog.Logger, state *domain.State) *domain.State {
	if state.Stage == domain.StageFailed {
		logger.Warn("workflow failed", "stage", state.Failure.Stage, "reason", state.Failure.Reason)
	} else {
		logger.Info("workflow done",
			"candidates", len(state.Plan.Candidates),
			"advice", state.Plan.HasAdvice(),
			"degraded", state.Degraded(),
			"elapsed", state.FinishedAt.Sub(state.StartedAt),
		)
	}
	return state
}

// research fills state.Bundle from the session cache or the collector.
func (e *Engine) research(ctx context.Context, logger *slog.Logger, state *domain.State) error {
	key := cacheKey(state.Request)

	if cached := e.cachedBundle(ctx, logger, state.SessionID, key); cached != nil {
		logger.Debug("reusing session bundle", "source", cached.Source)
		state.Bundle = cached
		return nil
	}

	return e.runStage(ctx, state, domain.StageResearching, func(ctx context.Context) error {
		bundle, err := e.collector.Collect(ctx, state.ID, state.Request)
		if err != nil {
			return err
		}
		state.Bundle = bundle

		if bundle.Degraded {
			if e.policy.StrictContext {
				return domain.ErrContextDegraded
			}
			state.Warn("No reference information could be gathered for this destination; the plans rely on the model's general knowledge.")
			return nil
		}

		e.storeBundle(ctx, logger, state.SessionID, key, bundle)
		return nil
	})
}

func (e *Engine) plan(ctx context.Context, state *domain.State) error {
	return e.runStage(ctx, state, domain.StagePlanning, func(ctx context.Context) error {
		candidates, err := e.generator.Generate(ctx, state.Request, state.Bundle)
		if err != nil {
			return err
		}
		state.Plan = &domain.TripPlan{
			Candidates: candidates,
			Degraded:   state.Degraded(),
		}
		return nil
	})
}

func (e *Engine) advise(ctx context.Context, logger *slog.Logger, state *domain.State) error {
	return e.runStage(ctx, state, domain.StageAdvising, func(ctx context.Context) error {
		advice, err := e.advisor.Advise(ctx, state.Request, state.Plan.Candidates)
		if err == nil {
			state.Plan.Advice = &advice
			return nil
		}
		// A canceled run is never reported as Done.
		if !e.policy.AdviceOptional || errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("advice unavailable", "err", err)
		state.Warn("Supplementary advice is unavailable for this plan.")
		return nil
	})
}
