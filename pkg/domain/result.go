package domain

// Result is the flat view of a terminal State shared by the JSON API, the MCP tools and the CLI.
type Result struct {
	ID         string   `json:"id" jsonschema_description:"Workflow run ID"`
	SessionID  string   `json:"session_id,omitempty"`
	Stage      Stage    `json:"stage" jsonschema_description:"Terminal stage: done or failed"`
	History    []Stage  `json:"history" jsonschema_description:"Stages visited, starting with start"`
	Source     Source   `json:"source,omitempty" jsonschema_description:"Where the background text came from"`
	Providers  []string `json:"providers,omitempty"`
	Degraded   bool     `json:"degraded" jsonschema_description:"True when the plans were written without gathered context"`
	Candidates []string `json:"candidates" jsonschema_description:"Candidate itineraries in markdown"`
	Advice     *string  `json:"advice" jsonschema_description:"Supplementary advice, null when unavailable"`
	Warnings   []string `json:"warnings,omitempty"`
	Failure    *Failure `json:"failure,omitempty"`
}

// NewResult flattens a state.
func NewResult(s *State) Result {
	r := Result{
		ID:         s.ID,
		SessionID:  s.SessionID,
		Stage:      s.Stage,
		History:    s.History,
		Degraded:   s.Degraded(),
		Candidates: []string{},
		Warnings:   s.Warnings,
		Failure:    s.Failure,
	}
	if s.Bundle != nil {
		r.Source = s.Bundle.Source
		r.Providers = s.Bundle.Providers
	}
	if s.Failure == nil && s.Plan != nil && s.Plan.Candidates != nil {
		r.Candidates = s.Plan.Candidates
		r.Advice = s.Plan.Advice
	}
	return r
}
