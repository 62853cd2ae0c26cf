package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

// KnowledgeBaseContractTest is a reusable test suite that verifies if an adapter complies with ports.KnowledgeBase.
// setupData maps each seeded ID to the display name the adapter must report.
func KnowledgeBaseContractTest(t *testing.T, kb ports.KnowledgeBase, setupData map[string]string) {
	t.Helper()
	ctx := context.Background()

	// 1. Test Get (Success)
	t.Run("Get_Success", func(t *testing.T) {
		for id, name := range setupData {
			dest, err := kb.Get(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting destination %s: %v", id, err)
			}
			if dest.ID != id {
				t.Errorf("id mismatch: got %q, want %q", dest.ID, id)
			}
			if dest.Name != name {
				t.Errorf("name mismatch for %s: got %q, want %q", id, dest.Name, name)
			}
			if dest.Body == "" {
				t.Errorf("destination %s has an empty body", id)
			}
		}
	})

	// 2. Test Get (NotFound)
	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := kb.Get(ctx, "non-existent-destination")
		if !errors.Is(err, domain.ErrDestinationNotFound) {
			t.Errorf("expected ErrDestinationNotFound, got %v", err)
		}
	})

	// 3. Test List
	t.Run("List", func(t *testing.T) {
		dests, err := kb.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing destinations: %v", err)
		}

		if len(dests) != len(setupData) {
			t.Errorf("expected %d destinations, got %d", len(setupData), len(dests))
		}

		for i := 1; i < len(dests); i++ {
			if dests[i-1].ID > dests[i].ID {
				t.Errorf("list is not sorted: %s before %s", dests[i-1].ID, dests[i].ID)
			}
		}

		lookup := make(map[string]bool)
		for _, d := range dests {
			lookup[d.ID] = true
		}
		for id := range setupData {
			if !lookup[id] {
				t.Errorf("destination %s missing from list", id)
			}
		}
	})
}
