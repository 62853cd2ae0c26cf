package cli

import (
	"context"
	"log/slog"
	"time"
)

// Watcher is the part of tabi.App that reports knowledge base changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// DefaultDebounce groups bursts of file events (editors often write twice).
const DefaultDebounce = 300 * time.Millisecond

// WatchKnowledge logs knowledge base edits until ctx is done.
// onChange, when not nil, runs once per debounced burst.
func WatchKnowledge(ctx context.Context, w Watcher, logger *slog.Logger, onChange func()) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("watching knowledge base")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if timer == nil {
				timer = time.NewTimer(DefaultDebounce)
			} else {
				timer.Reset(DefaultDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			logger.Info("knowledge base changed")
			if onChange != nil {
				onChange()
			}
		}
	}
}
