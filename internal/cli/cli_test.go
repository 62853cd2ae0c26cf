package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/config"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlanner struct {
	state *domain.State
	err   error
	got   domain.TripRequest
	sess  string
}

func (s *stubPlanner) Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error) {
	s.got, s.sess = req, sessionID
	return s.state, s.err
}

func doneState() *domain.State {
	st := domain.NewState("run-1", "s1", domain.TripRequest{
		Origin: "Tokyo", Destination: "Kyoto", Budget: 50000, Duration: 3, Purpose: "sightseeing",
	})
	st.Bundle = &domain.ContextBundle{Destination: "Kyoto", Source: domain.SourceKnowledgeBase, Text: "x"}
	st.Plan = &domain.TripPlan{Candidates: []string{"## Plan 1\nDay 1: Gion."}}
	for _, s := range []domain.Stage{domain.StageResearching, domain.StagePlanning, domain.StageAdvising, domain.StageDone} {
		if err := st.Advance(s); err != nil {
			panic(err)
		}
	}
	return st
}

func TestPlanOptions_Request(t *testing.T) {
	opts := PlanOptions{
		Origin: "Tokyo", Destination: "Kyoto", Budget: 30000, Duration: 2,
		Purposes: []string{"gourmet", " ", "onsen "},
		Notes:    "vegetarian",
	}
	req := opts.Request()
	assert.Equal(t, "gourmet, onsen", req.Purpose)
	assert.Equal(t, 2, req.Duration)
	assert.Equal(t, "vegetarian", req.Notes)
}

func TestRunPlan_Markdown(t *testing.T) {
	p := &stubPlanner{state: doneState()}
	var out bytes.Buffer

	err := RunPlan(context.Background(), p, PlanOptions{
		Origin: "Tokyo", Destination: "Kyoto", Duration: 3, SessionID: "s1", Diagram: true,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "s1", p.sess)
	assert.Equal(t, "Kyoto", p.got.Destination)
	assert.Contains(t, out.String(), "Day 1: Gion.")
	assert.Contains(t, out.String(), "```mermaid")
	assert.Contains(t, out.String(), "class done current;")
}

func TestRunPlan_Render(t *testing.T) {
	p := &stubPlanner{state: doneState()}
	var out bytes.Buffer

	err := RunPlan(context.Background(), p, PlanOptions{
		Render: func(s string) (string, error) { return strings.ToUpper(s), nil },
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "DAY 1: GION.")

	err = RunPlan(context.Background(), p, PlanOptions{
		Render: func(string) (string, error) { return "", errors.New("boom") },
	}, &out)
	assert.ErrorContains(t, err, "boom")
}

func TestRunPlan_JSON(t *testing.T) {
	p := &stubPlanner{state: doneState()}
	var out bytes.Buffer

	require.NoError(t, RunPlan(context.Background(), p, PlanOptions{JSON: true}, &out))

	var res domain.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, domain.StageDone, res.Stage)
	assert.Len(t, res.Candidates, 1)
}

func TestRunPlan_Failed(t *testing.T) {
	st := domain.NewState("run-2", "", domain.TripRequest{Origin: "A", Destination: "B", Duration: 1})
	require.NoError(t, st.Advance(domain.StageResearching))
	require.NoError(t, st.Advance(domain.StagePlanning))
	require.NoError(t, st.Fail("model unavailable"))

	var out bytes.Buffer
	err := RunPlan(context.Background(), &stubPlanner{state: st}, PlanOptions{}, &out)
	assert.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, out.String(), "model unavailable")
}

func TestRunPlan_InvalidRequest(t *testing.T) {
	p := &stubPlanner{err: domain.ErrInvalidRequest}
	var out bytes.Buffer
	err := RunPlan(context.Background(), p, PlanOptions{}, &out)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, out.String())
}

func TestPrompt(t *testing.T) {
	t.Run("Fills missing fields", func(t *testing.T) {
		opts := PlanOptions{Origin: "Tokyo"}
		var out bytes.Buffer
		err := Prompt(strings.NewReader("Kyoto\nthree\n3\n"), &out, &opts)
		require.NoError(t, err)

		assert.Equal(t, "Tokyo", opts.Origin)
		assert.Equal(t, "Kyoto", opts.Destination)
		assert.Equal(t, 3, opts.Duration)
		assert.NotContains(t, out.String(), "Departing from")
		assert.Contains(t, out.String(), "whole number")
	})

	t.Run("Nothing to ask", func(t *testing.T) {
		opts := PlanOptions{Origin: "Tokyo", Destination: "Nara", Duration: 1}
		var out bytes.Buffer
		require.NoError(t, Prompt(strings.NewReader(""), &out, &opts))
		assert.Empty(t, out.String())
	})

	t.Run("Input ends early", func(t *testing.T) {
		opts := PlanOptions{}
		err := Prompt(strings.NewReader("Tokyo\n"), &bytes.Buffer{}, &opts)
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().Planner.Candidates, cfg.Planner.Candidates)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("planner:\n  candidates: 5\n"), 0o644))
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Planner.Candidates)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer

	logger, err := NewLogger(&buf, cfg, "")
	require.NoError(t, err)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger, err = NewLogger(&buf, cfg, "debug")
	require.NoError(t, err)
	WarnMissing(logger, cfg)
	assert.Contains(t, buf.String(), "OPENAI_API_KEY")

	_, err = NewLogger(&buf, cfg, "loud")
	assert.Error(t, err)
}

type chanWatcher chan struct{}

func (c chanWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	return c, nil
}

func TestWatchKnowledge_Debounces(t *testing.T) {
	events := make(chanWatcher, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchKnowledge(ctx, events, logging.NewNop(), func() { changes <- struct{}{} })
	}()

	events <- struct{}{}
	events <- struct{}{}
	events <- struct{}{}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("change was not reported")
	}
	select {
	case <-changes:
		t.Fatal("burst reported more than once")
	case <-time.After(2 * DefaultDebounce):
	}

	cancel()
	assert.NoError(t, <-done)
}
