package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/tabi/pkg/adapters/memory"
	"github.com/aretw0/tabi/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewCache(time.Minute))
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Put(ctx, sid, "kyoto", &domain.ContextBundle{Source: domain.SourceSearch, Text: "x"})
		_ = mgr.Forget(ctx, sid)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Forget", lockCount)
	}
}
