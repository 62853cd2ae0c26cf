package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/knowledge"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// runStage advances into stage, runs fn inside a span, and moves to Failed if fn errors.
func (e *Engine) runStage(ctx context.Context, state *domain.State, stage domain.Stage, fn func(context.Context) error) error {
	if err := e.transition(ctx, state, stage); err != nil {
		return err
	}

	ctx, span := e.tracer.Start(ctx, "tabi."+string(stage),
		trace.WithAttributes(attribute.String("tabi.state_id", state.ID)),
	)
	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	e.emitStageLeave(ctx, state.ID, stage, elapsed, err)

	if err != nil {
		stageErr := &domain.StageError{Stage: stage, Err: err}
		if failErr := state.Fail(err.Error()); failErr != nil {
			return fmt.Errorf("%w (and %v)", stageErr, failErr)
		}
		e.emitStageEnter(ctx, state.ID, domain.StageFailed)
		return stageErr
	}
	return nil
}

// transition advances the state and fires OnStageEnter.
func (e *Engine) transition(ctx context.Context, state *domain.State, to domain.Stage) error {
	if err := state.Advance(to); err != nil {
		return err
	}
	e.emitStageEnter(ctx, state.ID, to)
	return nil
}

func (e *Engine) emitStageEnter(ctx context.Context, stateID string, stage domain.Stage) {
	if e.hooks.OnStageEnter == nil {
		return
	}
	e.hooks.OnStageEnter(ctx, &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageEnter, StateID: stateID},
		Stage:     stage,
	})
}

func (e *Engine) emitStageLeave(ctx context.Context, stateID string, stage domain.Stage, elapsed time.Duration, err error) {
	if e.hooks.OnStageLeave == nil {
		return
	}
	e.hooks.OnStageLeave(ctx, &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageLeave, StateID: stateID},
		Stage:     stage,
		Elapsed:   elapsed,
		Err:       err,
	})
}

func (e *Engine) startRun(ctx context.Context, state *domain.State) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "tabi.run", trace.WithAttributes(
		attribute.String("tabi.state_id", state.ID),
		attribute.String("tabi.destination", state.Request.Destination),
		attribute.Int("tabi.duration_days", state.Request.Duration),
	))
}

func (e *Engine) endRun(span trace.Span, state *domain.State) {
	span.SetAttributes(
		attribute.String("tabi.stage", string(state.Stage)),
		attribute.Bool("tabi.degraded", state.Degraded()),
	)
	if state.Failure != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("%s: %s", state.Failure.Stage, state.Failure.Reason))
	}
	span.End()
}

// cacheKey identifies a bundle within a session. The knowledge base excerpt is chosen by
// purpose, so the purposes are part of the key ("kyoto#food+onsen").
func cacheKey(req domain.TripRequest) string {
	dest := knowledge.Normalize(req.Destination)
	if dest == "" {
		return ""
	}
	var purposes []string
	for _, p := range strings.Split(req.Purpose, ",") {
		if p = strings.ToLower(strings.Join(strings.Fields(p), " ")); p != "" {
			purposes = append(purposes, p)
		}
	}
	if len(purposes) == 0 {
		return dest
	}
	slices.Sort(purposes)
	return dest + "#" + strings.Join(slices.Compact(purposes), "+")
}

// cachedBundle returns nil on a miss or on any cache error.
func (e *Engine) cachedBundle(ctx context.Context, logger *slog.Logger, sessionID, key string) *domain.ContextBundle {
	if e.cache == nil || sessionID == "" || key == "" {
		return nil
	}
	b, err := e.cache.Get(ctx, sessionID, key)
	if err != nil {
		if !errors.Is(err, domain.ErrBundleNotFound) {
			logger.Warn("session cache read failed", "err", err)
		}
		return nil
	}
	if !b.Cacheable() {
		return nil
	}
	return b
}

func (e *Engine) storeBundle(ctx context.Context, logger *slog.Logger, sessionID, key string, b *domain.ContextBundle) {
	if e.cache == nil || sessionID == "" || key == "" || !b.Cacheable() {
		return
	}
	if err := e.cache.Put(ctx, sessionID, key, b); err != nil {
		logger.Warn("session cache write failed", "err", err)
	}
}
