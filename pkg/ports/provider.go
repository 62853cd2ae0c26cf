package ports

import "context"

// SearchProvider is one external information source.
type SearchProvider interface {
	// Name identifies the provider in logs, metrics and bundle headers.
	Name() string

	// Search returns plain text about the query.
	// Returns an error wrapping domain.ErrProviderUnavailable when nothing usable came back.
	Search(ctx context.Context, query string) (string, error)
}

// Prompt is a single chat completion request.
type Prompt struct {
	System string
	Human  string

	// Zero values mean "use the completer default".
	Temperature float64
	MaxTokens   int
}

// Completer sends a prompt to a language model and returns the text of the reply.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}
