package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tabi/internal/advisor"
	"github.com/aretw0/tabi/internal/collector"
	"github.com/aretw0/tabi/internal/planner"
	"github.com/aretw0/tabi/internal/runtime"
	"github.com/aretw0/tabi/internal/testutils"
	"github.com/aretw0/tabi/pkg/adapters/memory"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const kyotoGuide = "Kyoto was the imperial capital for over a thousand years.\n\n## Temples\nKiyomizu-dera and Fushimi Inari."

func kyotoKB() *memory.KnowledgeBase {
	return memory.NewKnowledgeBase(domain.Destination{
		ID:      "kyoto",
		Name:    "Kyoto",
		Aliases: []string{"京都"},
		Body:    kyotoGuide,
	})
}

func kyotoRequest() domain.TripRequest {
	return domain.TripRequest{
		Origin:      "Tokyo",
		Destination: "Kyoto",
		Budget:      50000,
		Duration:    3,
		Purpose:     "sightseeing",
	}
}

type fixture struct {
	kb        ports.KnowledgeBase
	providers []ports.SearchProvider
	llm       *testutils.FakeCompleter
}

func newFixture() *fixture {
	return &fixture{
		kb:  kyotoKB(),
		llm: &testutils.FakeCompleter{Plans: testutils.ThreePlans, Advice: "Buy an ICOCA card."},
	}
}

func (f *fixture) engine(opts ...runtime.Option) *runtime.Engine {
	return runtime.NewEngine(
		collector.New(f.kb, f.providers),
		planner.New(f.llm),
		advisor.New(f.llm),
		opts...,
	)
}

// recorder captures hook events in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			r.add("enter:" + string(e.Stage))
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				r.add("leave:" + string(e.Stage) + ":err")
				return
			}
			r.add("leave:" + string(e.Stage))
		},
	}
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestRun_KyotoFromKnowledgeBase(t *testing.T) {
	f := newFixture()
	rec := &recorder{}
	e := f.engine(runtime.WithLifecycleHooks(rec.hooks()), runtime.WithIDGenerator(func() string { return "wf-1" }))

	state, err := e.Run(context.Background(), "", kyotoRequest())
	require.NoError(t, err)

	assert.Equal(t, "wf-1", state.ID)
	assert.Equal(t, domain.StageDone, state.Stage)
	assert.Equal(t, []domain.Stage{
		domain.StageStart, domain.StageResearching, domain.StagePlanning, domain.StageAdvising, domain.StageDone,
	}, state.History)

	require.NotNil(t, state.Bundle)
	assert.Equal(t, domain.SourceKnowledgeBase, state.Bundle.Source)
	assert.Contains(t, state.Bundle.Text, "imperial capital")

	require.NotNil(t, state.Plan)
	require.Len(t, state.Plan.Candidates, 3)
	for _, c := range state.Plan.Candidates {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
	assert.True(t, state.Plan.HasAdvice())
	assert.Equal(t, "Buy an ICOCA card.", *state.Plan.Advice)
	assert.Nil(t, state.Failure)
	assert.Empty(t, state.Warnings)
	assert.False(t, state.FinishedAt.IsZero())

	assert.Equal(t, []string{
		"enter:researching", "leave:researching",
		"enter:planning", "leave:planning",
		"enter:advising", "leave:advising",
		"enter:done",
	}, rec.all())
}

func TestRun_InvalidRequest(t *testing.T) {
	f := newFixture()
	req := kyotoRequest()
	req.Destination = "  "

	state, err := f.engine().Run(context.Background(), "", req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Nil(t, state)
	assert.Empty(t, f.llm.Prompts(), "an invalid request must not reach the model")
}

func TestRun_PlanningFailure(t *testing.T) {
	f := newFixture()
	f.llm.PlanErr = errors.New("rate limited")
	rec := &recorder{}

	state, err := f.engine(runtime.WithLifecycleHooks(rec.hooks())).Run(context.Background(), "", kyotoRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.StageFailed, state.Stage)
	require.NotNil(t, state.Failure)
	assert.Equal(t, domain.StagePlanning, state.Failure.Stage)
	assert.Contains(t, state.Failure.Reason, "rate limited")
	assert.Nil(t, state.Plan)
	assert.Len(t, f.llm.Prompts(), 1, "the advisor must not run after a planning failure")

	assert.Equal(t, []string{
		"enter:researching", "leave:researching",
		"enter:planning", "leave:planning:err",
		"enter:failed",
	}, rec.all())
}

func TestRun_AdvisorFailure(t *testing.T) {
	t.Run("Optional advice completes without it", func(t *testing.T) {
		f := newFixture()
		f.llm.AdviceErr = errors.New("timeout")

		state, err := f.engine().Run(context.Background(), "", kyotoRequest())
		require.NoError(t, err)

		assert.Equal(t, domain.StageDone, state.Stage)
		require.NotNil(t, state.Plan)
		assert.Len(t, state.Plan.Candidates, 3)
		assert.Nil(t, state.Plan.Advice)
		assert.Len(t, state.Warnings, 1)
	})

	t.Run("Required advice fails the run", func(t *testing.T) {
		f := newFixture()
		f.llm.AdviceErr = errors.New("timeout")

		e := f.engine(runtime.WithPolicy(runtime.Policy{AdviceOptional: false}))
		state, err := e.Run(context.Background(), "", kyotoRequest())
		require.NoError(t, err)

		assert.Equal(t, domain.StageFailed, state.Stage)
		assert.Equal(t, domain.StageAdvising, state.Failure.Stage)
		assert.Nil(t, state.Plan, "a failed run shows the failure instead of plans")
		assert.Empty(t, domain.NewResult(state).Candidates)
	})
}

func TestRun_DegradedContext(t *testing.T) {
	t.Run("Lenient policy plans anyway", func(t *testing.T) {
		f := newFixture()
		f.providers = []ports.SearchProvider{&testutils.FakeProvider{ProviderName: "wikipedia", Err: domain.ErrProviderUnavailable}}
		req := kyotoRequest()
		req.Destination = "Atlantis"

		state, err := f.engine().Run(context.Background(), "", req)
		require.NoError(t, err)

		assert.Equal(t, domain.StageDone, state.Stage)
		assert.True(t, state.Degraded())
		assert.True(t, state.Plan.Degraded)
		assert.NotEmpty(t, state.Warnings)
		assert.Contains(t, f.llm.Prompts()[0].Human, "No reference information")
	})

	t.Run("Strict policy fails research", func(t *testing.T) {
		f := newFixture()
		req := kyotoRequest()
		req.Destination = "Atlantis"

		e := f.engine(runtime.WithPolicy(runtime.Policy{AdviceOptional: true, StrictContext: true}))
		state, err := e.Run(context.Background(), "", req)
		require.NoError(t, err)

		assert.Equal(t, domain.StageFailed, state.Stage)
		assert.Equal(t, domain.StageResearching, state.Failure.Stage)
		assert.Equal(t, domain.ErrContextDegraded.Error(), state.Failure.Reason)
		assert.Empty(t, f.llm.Prompts())
	})
}

func TestRun_SessionCacheSkipsResearch(t *testing.T) {
	f := newFixture()
	wiki := &testutils.FakeProvider{ProviderName: "wikipedia", Text: "Nara has deer."}
	f.providers = []ports.SearchProvider{wiki}
	cache := memory.NewCache(time.Hour)
	e := f.engine(runtime.WithBundleCache(cache))

	req := kyotoRequest()
	req.Destination = "Nara"

	first, err := e.Run(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StageResearching, first.History[1])

	// Same destination, different spelling.
	req.Destination = " NARA "
	second, err := e.Run(context.Background(), "s1", req)
	require.NoError(t, err)

	assert.Equal(t, domain.StageDone, second.Stage)
	assert.Equal(t, []domain.Stage{
		domain.StageStart, domain.StagePlanning, domain.StageAdvising, domain.StageDone,
	}, second.History)
	assert.Equal(t, first.Bundle.Text, second.Bundle.Text)
	assert.Equal(t, 1, wiki.Calls())

	// Other sessions never share bundles.
	other, err := e.Run(context.Background(), "s2", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StageResearching, other.History[1])
	assert.Equal(t, 2, wiki.Calls())
}

func TestRun_SessionCacheKeyedByPurpose(t *testing.T) {
	f := newFixture()
	cache := memory.NewCache(time.Hour)
	e := f.engine(runtime.WithBundleCache(cache))
	ctx := context.Background()

	req := kyotoRequest()
	req.Purpose = "food, sightseeing"
	first, err := e.Run(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StageResearching, first.History[1])

	// Same purposes in another order and case.
	req.Purpose = "Sightseeing,  food"
	second, err := e.Run(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StagePlanning, second.History[1])

	// A new purpose selects another excerpt of the guide.
	req.Purpose = "shopping"
	third, err := e.Run(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StageResearching, third.History[1])
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Get(ctx, "s1", "kyoto#food+sightseeing")
	assert.NoError(t, err)
}

func TestRun_DegradedBundleIsNotCached(t *testing.T) {
	f := newFixture()
	cache := memory.NewCache(time.Hour)
	e := f.engine(runtime.WithBundleCache(cache))
	req := kyotoRequest()
	req.Destination = "Atlantis"

	_, err := e.Run(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Zero(t, cache.Len())

	state, err := e.Run(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.StageResearching, state.History[1])
}

func TestRun_Canceled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := f.engine().Run(ctx, "", kyotoRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, state.Stage)
	assert.Equal(t, domain.StageResearching, state.Failure.Stage)
}

func TestRun_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture()
	f.llm.PlanErr = errors.New("boom")

	_, err := f.engine(runtime.WithTracerProvider(tp)).Run(context.Background(), "", kyotoRequest())
	require.NoError(t, err)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"tabi.researching", "tabi.planning", "tabi.run"}, names)

	planning := sr.Ended()[1]
	assert.Len(t, planning.Events(), 1, "the error is recorded on the stage span")
	assert.Equal(t, sr.Ended()[2].SpanContext().SpanID(), planning.Parent().SpanID())
}
