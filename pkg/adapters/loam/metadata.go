package loam

// DestinationMetadata represents the front matter of a destination guide.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type DestinationMetadata struct {
	ID      string   `json:"id" mapstructure:"id"`
	Name    string   `json:"name" mapstructure:"name"`
	Aliases []string `json:"aliases" mapstructure:"aliases"`
	Region  string   `json:"region" mapstructure:"region"`
}
