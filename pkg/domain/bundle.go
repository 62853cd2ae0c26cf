package domain

import "time"

// Source identifies where the text of a ContextBundle came from.
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceSearch        Source = "search"
	SourceNone          Source = "none"
)

// ContextBundle is the background text handed to plan generation.
type ContextBundle struct {
	Destination string `json:"destination"`
	Source      Source `json:"source"`
	Text        string `json:"text"`

	// Degraded is set when no information source succeeded.
	// A degraded bundle always has Source == SourceNone and empty Text.
	Degraded bool `json:"degraded,omitempty"`

	// Providers lists what contributed to Text (a document ID or provider names).
	Providers []string `json:"providers,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// NewDegradedBundle returns the bundle produced when every source failed.
func NewDegradedBundle(destination string) *ContextBundle {
	return &ContextBundle{
		Destination: destination,
		Source:      SourceNone,
		Degraded:    true,
		CollectedAt: time.Now(),
	}
}

// Cacheable reports whether the bundle may be reused by later requests in a session.
func (b *ContextBundle) Cacheable() bool {
	return b != nil && !b.Degraded && b.Source != SourceNone && b.Text != ""
}
