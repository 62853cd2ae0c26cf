package loam

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tabi/pkg/domain"
)

// KnowledgeBase adapts the Loam library to the ports.KnowledgeBase interface.
// Every markdown (or JSON/YAML) document of the repository is one destination.
type KnowledgeBase struct {
	Repo *loam.TypedRepository[DestinationMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DestinationMetadata]) *KnowledgeBase {
	return &KnowledgeBase{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*KnowledgeBase, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// The knowledge base is never written to; ReadOnly avoids Loam's sandbox behavior.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[DestinationMetadata](repo)), nil
}

// Get retrieves a destination by ID (the front matter id or the file name without extension).
func (k *KnowledgeBase) Get(ctx context.Context, id string) (domain.Destination, error) {
	doc, err := k.Repo.Get(ctx, id)
	if err == nil {
		return toDestination(doc.ID, doc.Data, doc.Content), nil
	}

	// Loam only knows file IDs; a front matter id needs a scan.
	dests, listErr := k.List(ctx)
	if listErr != nil {
		return domain.Destination{}, errors.Join(fmt.Errorf("loam get failed for %s: %w", id, err), listErr)
	}
	for _, d := range dests {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Destination{}, fmt.Errorf("%s: %w", id, domain.ErrDestinationNotFound)
}

// List returns every destination sorted by ID.
func (k *KnowledgeBase) List(ctx context.Context) ([]domain.Destination, error) {
	docs, err := k.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	dests := make([]domain.Destination, 0, len(docs))
	for _, doc := range docs {
		d := toDestination(doc.ID, doc.Data, doc.Content)

		// Collision Detection
		if existingPath, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", d.ID, existingPath, doc.ID)
		}
		seen[d.ID] = doc.ID
		dests = append(dests, d)
	}

	sort.Slice(dests, func(i, j int) bool { return dests[i].ID < dests[j].ID })
	return dests, nil
}

// Watch implements ports.Watchable.
// The channel is signaled (coalesced) whenever a guide changes.
func (k *KnowledgeBase) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := k.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default: // a reload is already pending
				}
			}
		}
	}()

	return ch, nil
}

func toDestination(docID string, meta DestinationMetadata, content string) domain.Destination {
	id := meta.ID
	if id == "" {
		id = docID
	}
	return domain.Destination{
		ID:      trimExtension(id),
		Name:    strings.TrimSpace(meta.Name),
		Aliases: meta.Aliases,
		Region:  meta.Region,
		Body:    strings.TrimSpace(content),
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
