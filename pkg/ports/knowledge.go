package ports

import (
	"context"

	"github.com/aretw0/tabi/pkg/domain"
)

// KnowledgeBase defines how the collector reads static destination documents.
// This allows the storage layer (Loam, Memory) to be decoupled.
type KnowledgeBase interface {
	// Get retrieves a destination by its exact ID.
	// Returns domain.ErrDestinationNotFound if it does not exist.
	Get(ctx context.Context, id string) (domain.Destination, error)

	// List returns every destination, sorted by ID.
	List(ctx context.Context) ([]domain.Destination, error)
}

// Watchable defines an interface for knowledge bases that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying documents change.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
