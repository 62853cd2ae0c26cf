package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/tabi/pkg/domain"
)

// KnowledgeBase implements ports.KnowledgeBase over a fixed set of destinations.
// It is read-only after construction and therefore safe for concurrent use.
type KnowledgeBase struct {
	dests map[string]domain.Destination
}

// NewKnowledgeBase creates a knowledge base from domain objects.
// Later entries with the same ID replace earlier ones.
func NewKnowledgeBase(dests ...domain.Destination) *KnowledgeBase {
	m := make(map[string]domain.Destination, len(dests))
	for _, d := range dests {
		m[d.ID] = d
	}
	return &KnowledgeBase{dests: m}
}

// Get retrieves a destination by ID.
func (k *KnowledgeBase) Get(_ context.Context, id string) (domain.Destination, error) {
	d, ok := k.dests[id]
	if !ok {
		return domain.Destination{}, fmt.Errorf("%s: %w", id, domain.ErrDestinationNotFound)
	}
	return d, nil
}

// List returns all destinations sorted by ID.
func (k *KnowledgeBase) List(_ context.Context) ([]domain.Destination, error) {
	out := make([]domain.Destination, 0, len(k.dests))
	for _, d := range k.dests {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID }) // Deterministic order
	return out, nil
}
