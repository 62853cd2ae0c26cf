package domain

// Disclaimer closes every rendering that shows plans.
const Disclaimer = "This plan was generated by AI. Check the latest information before you travel: " +
	"prices, opening hours and transport can change."

// TripPlan is the terminal artifact shown to the traveller.
type TripPlan struct {
	// Candidates are the itineraries in the order the model produced them.
	Candidates []string `json:"candidates"`

	// Advice is nil when the advisor was skipped or failed gracefully.
	Advice *string `json:"advice"`

	// Degraded mirrors the bundle: the plan was written without gathered context.
	Degraded bool `json:"degraded,omitempty"`
}

// HasAdvice reports whether supplementary advice is present.
func (p *TripPlan) HasAdvice() bool {
	return p != nil && p.Advice != nil && *p.Advice != ""
}
