package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/tabi/pkg/domain"
)

// Report renders a terminal state as a markdown document.
func Report(s *domain.State) string {
	var b strings.Builder
	req := s.Request

	fmt.Fprintf(&b, "# %s → %s\n\n", req.Origin, req.Destination)
	fmt.Fprintf(&b, "*%s · budget %s · %s*\n\n", req.DurationLabel(), req.BudgetLabel(), req.Purpose)
	if req.Notes != "" {
		fmt.Fprintf(&b, "> %s\n\n", req.Notes)
	}

	if s.Failure != nil {
		fmt.Fprintf(&b, "**Planning failed during %s:** %s\n\n", s.Failure.Stage, s.Failure.Reason)
	}
	if s.Degraded() {
		b.WriteString("**Note:** no reference information could be found for this destination. ")
		b.WriteString("These plans rely on the model's general knowledge; double-check every detail.\n\n")
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n")
	}

	if s.Failure != nil || s.Plan == nil || len(s.Plan.Candidates) == 0 {
		return b.String()
	}

	for i, c := range s.Plan.Candidates {
		if len(s.Plan.Candidates) > 1 {
			fmt.Fprintf(&b, "---\n\n## Candidate %d\n\n", i+1)
		}
		b.WriteString(strings.TrimSpace(c))
		b.WriteString("\n\n")
	}
	if s.Plan.HasAdvice() {
		b.WriteString("---\n\n## Additional information\n\n")
		b.WriteString(strings.TrimSpace(*s.Plan.Advice))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "---\n\n*%s*\n", domain.Disclaimer)
	return b.String()
}
