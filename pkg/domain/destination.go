package domain

// Destination is one entry of the knowledge base.
type Destination struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Region  string   `json:"region,omitempty"`

	// Body is the free-text guide. It is treated as opaque by everything but the excerpter.
	Body string `json:"-"`
}

// Names returns every label the destination can be looked up by, ID first.
func (d Destination) Names() []string {
	names := make([]string, 0, len(d.Aliases)+2)
	names = append(names, d.ID)
	if d.Name != "" {
		names = append(names, d.Name)
	}
	return append(names, d.Aliases...)
}

// Title returns the display name, falling back to the ID.
func (d Destination) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
