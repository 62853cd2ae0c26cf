package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	lastSession string
	lastRequest domain.TripRequest
	resets      []string
}

func (s *stubService) Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error) {
	valid, err := req.Validate()
	if err != nil {
		return nil, err
	}
	s.lastSession, s.lastRequest = sessionID, valid
	state := domain.NewState("wf-1", sessionID, valid)
	_ = state.Advance(domain.StageResearching)
	state.Bundle = &domain.ContextBundle{Source: domain.SourceSearch, Providers: []string{"wikipedia"}, Text: "x"}
	_ = state.Advance(domain.StagePlanning)
	state.Plan = &domain.TripPlan{Candidates: []string{"plan a", "plan b", "plan c"}}
	_ = state.Advance(domain.StageAdvising)
	_ = state.Advance(domain.StageDone)
	return state, nil
}

func (s *stubService) Destinations(ctx context.Context) ([]domain.Destination, error) {
	return []domain.Destination{{ID: "naha", Name: "Naha", Region: "Okinawa"}}, nil
}

func (s *stubService) Reset(ctx context.Context, sessionID string) error {
	s.resets = append(s.resets, sessionID)
	return nil
}

func TestHandlePlanTrip(t *testing.T) {
	svc := &stubService{}
	s := NewServer(svc, "test")

	res, err := s.handlePlanTrip(context.Background(), mcp.CallToolRequest{}, PlanTripArgs{
		Origin:      "Osaka",
		Destination: "Hakone",
		Duration:    2,
		SessionID:   "agent-1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageDone, res.Stage)
	assert.Equal(t, domain.SourceSearch, res.Source)
	assert.Len(t, res.Candidates, 3)
	assert.Nil(t, res.Advice)
	assert.Equal(t, "agent-1", svc.lastSession)
	assert.Equal(t, domain.DefaultPurpose, svc.lastRequest.Purpose)
}

func TestHandlePlanTrip_Invalid(t *testing.T) {
	s := NewServer(&stubService{}, "test")

	_, err := s.handlePlanTrip(context.Background(), mcp.CallToolRequest{}, PlanTripArgs{Origin: "Osaka", Destination: "Hakone"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestToolsList(t *testing.T) {
	s := NewServer(&stubService{}, "test")

	msg := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.Contains(t, string(out), `"plan_trip"`)
	assert.Contains(t, string(out), `"reset_session"`)
}

func TestDestinationsResource(t *testing.T) {
	s := NewServer(&stubService{}, "test")

	msg := s.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"tabi://destinations"}}`))
	out, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.Contains(t, string(out), `naha`)
	assert.Contains(t, string(out), `Okinawa`)
}
