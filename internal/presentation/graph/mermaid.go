// Package graph draws the workflow as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tabi/pkg/domain"
)

// Overlay contains the path of one run to highlight on the graph.
type Overlay struct {
	Visited []domain.Stage
	Current domain.Stage
}

// OverlayFor builds the overlay of a state.
func OverlayFor(s *domain.State) *Overlay {
	if s == nil {
		return nil
	}
	return &Overlay{Visited: s.History, Current: s.Stage}
}

var labels = map[domain.Stage]string{
	domain.StageStart:       "Start",
	domain.StageResearching: "Gather information",
	domain.StagePlanning:    "Generate plans",
	domain.StageAdvising:    "Add advice",
	domain.StageDone:        "Done",
	domain.StageFailed:      "Failed",
}

// edgeLabels annotate the transitions that are not the happy path.
var edgeLabels = map[[2]domain.Stage]string{
	{domain.StageStart, domain.StagePlanning}:     "context cached",
	{domain.StageResearching, domain.StageFailed}: "canceled or strict context",
	{domain.StagePlanning, domain.StageFailed}:    "generation error",
	{domain.StageAdvising, domain.StageFailed}:    "advice required",
}

// GenerateMermaid produces a Mermaid flowchart of the workflow stages.
// It applies semantic styling:
// - Start: ((Circle))
// - Terminal (Done, Failed): ([Stadium])
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, stage := range domain.Stages {
		opener, closer := "[", "]"
		switch {
		case stage == domain.StageStart:
			opener, closer = "((", "))"
		case stage.Terminal():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", stage, opener, labels[stage], closer)
	}

	for _, e := range domain.Edges() {
		arrow := "-->"
		if l, ok := edgeLabels[e]; ok {
			arrow = fmt.Sprintf("-- \"%s\" -->", l)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", e[0], arrow, e[1])
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Stage]bool)
		for _, s := range overlay.Visited {
			if !seen[s] && s != "" && s != overlay.Current {
				seen[s] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", s)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}

	return sb.String()
}
