package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/aretw0/tabi/pkg/ports"
)

// FakeProvider is a scripted ports.SearchProvider that counts its calls.
type FakeProvider struct {
	ProviderName string
	Text         string
	Err          error

	mu      sync.Mutex
	queries []string
}

func (f *FakeProvider) Name() string { return f.ProviderName }

func (f *FakeProvider) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.Text, f.Err
}

// Calls returns how many times Search ran.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// Queries returns the queries received, in order.
func (f *FakeProvider) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// CompleteFunc adapts a function to ports.Completer.
type CompleteFunc func(ctx context.Context, p ports.Prompt) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, p ports.Prompt) (string, error) {
	return f(ctx, p)
}

// FakeCompleter answers plan prompts and advice prompts differently, recording every prompt.
// Prompts whose system message mentions "advisor" get Advice (or AdviceErr); all others get Plans (or PlanErr).
type FakeCompleter struct {
	Plans     string
	PlanErr   error
	Advice    string
	AdviceErr error

	mu      sync.Mutex
	prompts []ports.Prompt
}

func (f *FakeCompleter) Complete(ctx context.Context, p ports.Prompt) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(p.System), "advisor") {
		return f.Advice, f.AdviceErr
	}
	return f.Plans, f.PlanErr
}

// Prompts returns every prompt received, in order.
func (f *FakeCompleter) Prompts() []ports.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.Prompt(nil), f.prompts...)
}

// ThreePlans is a well-formed reply for a three-candidate request.
const ThreePlans = `[[PLAN]]
## Plan 1: Classic temples
Day 1: Fushimi Inari.
[[PLAN]]
## Plan 2: Food crawl
Day 1: Nishiki Market.
[[PLAN]]
## Plan 3: Arashiyama
Day 1: Bamboo grove.`
