package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tabi/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured record per event.
// Stage transitions log at Info, provider traffic at Debug, failures at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_enter", "state_id", e.StateID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "stage_leave", "state_id", e.StateID, "stage", e.Stage, "elapsed", e.Elapsed, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "stage_leave", "state_id", e.StateID, "stage", e.Stage, "elapsed", e.Elapsed)
		},
		OnProviderCall: func(ctx context.Context, e *domain.ProviderEvent) {
			logger.DebugContext(ctx, "provider_call", "state_id", e.StateID, "provider", e.Provider, "query", e.Query)
		},
		OnProviderReturn: func(ctx context.Context, e *domain.ProviderEvent) {
			if e.IsError {
				logger.WarnContext(ctx, "provider_return", "state_id", e.StateID, "provider", e.Provider, "elapsed", e.Elapsed, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "provider_return", "state_id", e.StateID, "provider", e.Provider, "elapsed", e.Elapsed)
		},
	}
}
