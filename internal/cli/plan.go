package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/tabi/internal/presentation/graph"
	"github.com/aretw0/tabi/internal/presentation/tui"
	"github.com/aretw0/tabi/pkg/domain"
)

// ErrRunFailed is returned after a failed run has been reported, so the process exits non-zero.
var ErrRunFailed = errors.New("planning failed")

// Planner is the part of tabi.App the plan command needs.
type Planner interface {
	Plan(ctx context.Context, sessionID string, req domain.TripRequest) (*domain.State, error)
}

// PlanOptions carries the plan command flags.
type PlanOptions struct {
	Origin      string
	Destination string
	Budget      float64
	Duration    int
	Purposes    []string
	Notes       string
	SessionID   string

	JSON    bool
	Diagram bool
	// Render turns the markdown report into terminal output. Nil prints it as is.
	Render func(string) (string, error)
}

// Request assembles the trip request. Several purposes are joined into one.
func (o PlanOptions) Request() domain.TripRequest {
	var purposes []string
	for _, p := range o.Purposes {
		if p = strings.TrimSpace(p); p != "" {
			purposes = append(purposes, p)
		}
	}
	return domain.TripRequest{
		Origin:      o.Origin,
		Destination: o.Destination,
		Budget:      o.Budget,
		Duration:    o.Duration,
		Purpose:     strings.Join(purposes, ", "),
		Notes:       o.Notes,
	}
}

// RunPlan runs one planning request and writes the result to w.
func RunPlan(ctx context.Context, p Planner, opts PlanOptions, w io.Writer) error {
	state, err := p.Plan(ctx, opts.SessionID, opts.Request())
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(domain.NewResult(state)); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		doc := tui.Report(state)
		if opts.Diagram {
			doc += "\n## Workflow\n\n```mermaid\n" + graph.GenerateMermaid(graph.OverlayFor(state)) + "```\n"
		}
		out := doc
		if opts.Render != nil {
			if out, err = opts.Render(doc); err != nil {
				return fmt.Errorf("failed to render report: %w", err)
			}
		}
		fmt.Fprint(w, out)
	}

	if state.Stage == domain.StageFailed {
		return fmt.Errorf("%w during %s", ErrRunFailed, state.Failure.Stage)
	}
	return nil
}
