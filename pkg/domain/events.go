package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStageEnter     EventType = "stage_enter"
	EventStageLeave     EventType = "stage_leave"
	EventProviderCall   EventType = "provider_call"
	EventProviderReturn EventType = "provider_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	StateID   string    `json:"state_id"`
}

// StageEvent represents entry or exit from a workflow stage.
type StageEvent struct {
	EventBase
	Stage Stage `json:"stage"`
	// Elapsed and Err are only set on leave.
	Elapsed time.Duration `json:"elapsed,omitempty"`
	Err     error         `json:"-"`
}

// ProviderEvent represents one external lookup made while researching.
type ProviderEvent struct {
	EventBase
	Provider string        `json:"provider"`
	Query    string        `json:"query"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for workflow observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnStageEnter     func(context.Context, *StageEvent)
	OnStageLeave     func(context.Context, *StageEvent)
	OnProviderCall   func(context.Context, *ProviderEvent)
	OnProviderReturn func(context.Context, *ProviderEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStageEnter:     chainStage(h.OnStageEnter, other.OnStageEnter),
		OnStageLeave:     chainStage(h.OnStageLeave, other.OnStageLeave),
		OnProviderCall:   chainProvider(h.OnProviderCall, other.OnProviderCall),
		OnProviderReturn: chainProvider(h.OnProviderReturn, other.OnProviderReturn),
	}
}

func chainStage(a, b func(context.Context, *StageEvent)) func(context.Context, *StageEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainProvider(a, b func(context.Context, *ProviderEvent)) func(context.Context, *ProviderEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *ProviderEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
