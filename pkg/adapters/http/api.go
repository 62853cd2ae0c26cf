package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds JSON request bodies; each text field is further limited by the schema.
const maxBodySize = 64 << 10

// apiValidator checks JSON bodies against the schemas of the embedded OpenAPI document.
type apiValidator struct {
	doc         *openapi3.T
	planRequest *openapi3.Schema
}

func newAPIValidator(spec []byte) (*apiValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	ref, ok := doc.Components.Schemas["PlanRequest"]
	if !ok || ref.Value == nil {
		return nil, errors.New("OpenAPI spec has no PlanRequest schema")
	}
	return &apiValidator{doc: doc, planRequest: ref.Value}, nil
}

// Version returns info.version of the document.
func (v *apiValidator) Version() string {
	if v.doc.Info == nil {
		return "unknown"
	}
	return v.doc.Info.Version
}

// decodePlanRequest validates the raw JSON against PlanRequest and then decodes it.
func (v *apiValidator) decodePlanRequest(body []byte) (PlanRequest, error) {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return PlanRequest{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := v.planRequest.VisitJSON(generic); err != nil {
		return PlanRequest{}, schemaError(err)
	}

	var req PlanRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return PlanRequest{}, fmt.Errorf("malformed JSON: %w", err)
	}
	return req, nil
}

// schemaError keeps the reason and drops the schema dump kin-openapi appends.
func schemaError(err error) error {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		field := "body"
		if path := se.JSONPointer(); len(path) > 0 {
			field = path[len(path)-1]
		}
		return fmt.Errorf("%s: %s", field, se.Reason)
	}
	return err
}

// PlanRequest is the body of POST /api/v1/plan.
type PlanRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Budget      float64 `json:"budget"`
	Duration    int     `json:"duration"`
	Purpose     string  `json:"purpose"`
	Notes       string  `json:"notes"`
	SessionID   string  `json:"session_id"`
}

func (p PlanRequest) trip() domain.TripRequest {
	return domain.TripRequest{
		Origin:      p.Origin,
		Destination: p.Destination,
		Budget:      p.Budget,
		Duration:    p.Duration,
		Purpose:     p.Purpose,
		Notes:       p.Notes,
	}
}

// PlanResponse is the body returned for a run that reached a terminal stage.
type PlanResponse = domain.Result

// DestinationResponse is one entry of GET /api/v1/destinations.
type DestinationResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Region  string   `json:"region,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// CreatePlan handles POST /api/v1/plan.
// A run that fails inside the pipeline is still a 200: the failure is part of the result.
func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, s.logger, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	req, err := s.api.decodePlanRequest(body)
	if err != nil {
		s.logger.Warn("CreatePlan: invalid request body", "err", err)
		writeError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.svc.Plan(r.Context(), req.SessionID, req.trip())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		} else {
			s.logger.Error("CreatePlan failed", "err", err)
		}
		writeError(w, s.logger, status, err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, domain.NewResult(state))
}

// ListDestinations handles GET /api/v1/destinations.
func (s *Server) ListDestinations(w http.ResponseWriter, r *http.Request) {
	dests, err := s.svc.Destinations(r.Context())
	if err != nil {
		s.logger.Error("ListDestinations failed", "err", err)
		writeError(w, s.logger, http.StatusInternalServerError, "failed to list destinations")
		return
	}
	out := make([]DestinationResponse, 0, len(dests))
	for _, d := range dests {
		out = append(out, DestinationResponse{ID: d.ID, Name: d.Title(), Region: d.Region, Aliases: d.Aliases})
	}
	writeJSON(w, s.logger, http.StatusOK, out)
}

// ResetSession handles DELETE /api/v1/sessions/{session_id}.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reset(r.Context(), chi.URLParam(r, "session_id")); err != nil {
		s.logger.Error("ResetSession failed", "err", err)
		writeError(w, s.logger, http.StatusInternalServerError, "failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
