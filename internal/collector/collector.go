// Package collector gathers the background text a plan is written from.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/knowledge"
	"github.com/aretw0/tabi/pkg/ports"
)

// Defaults for the size of the text handed to the model.
const (
	DefaultKnowledgeChars = 4000
	DefaultSearchChars    = 3000
)

// Collector consults the knowledge base first and falls back to search providers.
// Provider failures never abort a collection; when every source fails the bundle is degraded.
type Collector struct {
	kb        ports.KnowledgeBase
	providers []ports.SearchProvider

	kbChars      int
	searchChars  int
	requireFresh bool

	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Collector.
type Option func(*Collector)

// WithKnowledgeChars bounds the knowledge base excerpt.
func WithKnowledgeChars(n int) Option {
	return func(c *Collector) {
		c.kbChars = n
	}
}

// WithSearchChars bounds the concatenated search results.
func WithSearchChars(n int) Option {
	return func(c *Collector) {
		c.searchChars = n
	}
}

// WithRequireFresh makes the collector query providers even on a knowledge base hit.
// The knowledge base text is still used if every provider fails.
func WithRequireFresh(v bool) Option {
	return func(c *Collector) {
		c.requireFresh = v
	}
}

// WithLifecycleHooks registers provider call hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(c *Collector) {
		c.hooks = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Collector. kb may be nil and providers may be empty.
func New(kb ports.KnowledgeBase, providers []ports.SearchProvider, opts ...Option) *Collector {
	c := &Collector{
		kb:          kb,
		providers:   providers,
		kbChars:     DefaultKnowledgeChars,
		searchChars: DefaultSearchChars,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the names of the configured search providers, in call order.
func (c *Collector) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect builds the ContextBundle for req.
// The only error it returns is the context's own, when ctx is canceled mid-collection.
func (c *Collector) Collect(ctx context.Context, stateID string, req domain.TripRequest) (*domain.ContextBundle, error) {
	logger := c.logger.With("state_id", stateID, "destination", req.Destination)

	hit, err := c.lookup(ctx, req.Destination)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Unexpected knowledge base failures count as one more failed source.
		logger.Warn("knowledge base lookup failed", "err", err)
	}

	if hit != nil && !c.requireFresh {
		logger.Debug("knowledge base hit", "id", hit.ID)
		return c.knowledgeBundle(req, hit), nil
	}

	text, used := c.search(ctx, logger, stateID, req.Destination)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(used) > 0:
		return &domain.ContextBundle{
			Destination: req.Destination,
			Source:      domain.SourceSearch,
			Text:        text,
			Providers:   used,
			CollectedAt: time.Now(),
		}, nil
	case hit != nil:
		logger.Info("no provider answered; using knowledge base", "id", hit.ID)
		return c.knowledgeBundle(req, hit), nil
	default:
		logger.Warn("context degraded: no information source succeeded", "providers", len(c.providers))
		return domain.NewDegradedBundle(req.Destination), nil
	}
}

// lookup returns nil, nil when the destination is simply not in the knowledge base.
func (c *Collector) lookup(ctx context.Context, destination string) (*domain.Destination, error) {
	if c.kb == nil {
		return nil, nil
	}
	d, err := knowledge.Find(ctx, c.kb, destination)
	if errors.Is(err, domain.ErrDestinationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Collector) knowledgeBundle(req domain.TripRequest, d *domain.Destination) *domain.ContextBundle {
	text := fmt.Sprintf("# %s\n\n%s", d.Title(), knowledge.Excerpt(d.Body, req.Purpose, c.kbChars))
	return &domain.ContextBundle{
		Destination: req.Destination,
		Source:      domain.SourceKnowledgeBase,
		Text:        strings.TrimSpace(text),
		Providers:   []string{d.ID},
		CollectedAt: time.Now(),
	}
}

// search calls each provider in order until the text budget is spent.
// It returns the merged text and the names of the providers that answered.
func (c *Collector) search(ctx context.Context, logger *slog.Logger, stateID, destination string) (string, []string) {
	var (
		parts []string
		used  []string
		size  int
	)
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		if c.searchChars > 0 && size >= c.searchChars {
			break
		}

		c.emitProviderCall(ctx, stateID, p.Name(), destination)
		start := time.Now()
		text, err := p.Search(ctx, destination)
		elapsed := time.Since(start)
		c.emitProviderReturn(ctx, stateID, p.Name(), destination, elapsed, err)

		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("search provider failed", "provider", p.Name(), "elapsed", elapsed, "err", err)
			}
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Warn("search provider returned no text", "provider", p.Name())
			continue
		}

		section := fmt.Sprintf("### %s\n%s", p.Name(), text)
		parts = append(parts, section)
		used = append(used, p.Name())
		size += len([]rune(section)) + 2
	}

	return knowledge.Truncate(strings.Join(parts, "\n\n"), c.searchChars), used
}

func (c *Collector) emitProviderCall(ctx context.Context, stateID, provider, query string) {
	if c.hooks.OnProviderCall == nil {
		return
	}
	c.hooks.OnProviderCall(ctx, &domain.ProviderEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventProviderCall, StateID: stateID},
		Provider:  provider,
		Query:     query,
	})
}

func (c *Collector) emitProviderReturn(ctx context.Context, stateID, provider, query string, elapsed time.Duration, err error) {
	if c.hooks.OnProviderReturn == nil {
		return
	}
	c.hooks.OnProviderReturn(ctx, &domain.ProviderEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventProviderReturn, StateID: stateID},
		Provider:  provider,
		Query:     query,
		Elapsed:   elapsed,
		IsError:   err != nil,
		Err:       err,
	})
}
