package ports

import (
	"context"

	"github.com/aretw0/tabi/pkg/domain"
)

// BundleCache holds context bundles for reuse within a session.
// Keys are the normalized destination; expiry is left to the backing store.
type BundleCache interface {
	// Get returns the bundle cached for the destination in the session.
	// Returns domain.ErrBundleNotFound if there is none (or it expired).
	Get(ctx context.Context, sessionID, destination string) (*domain.ContextBundle, error)

	// Put stores the bundle for the destination in the session.
	Put(ctx context.Context, sessionID, destination string, bundle *domain.ContextBundle) error

	// Forget drops every bundle of the session.
	Forget(ctx context.Context, sessionID string) error
}

// Flushable is implemented by caches that can drop the bundles of every session at once,
// for example after the knowledge base changed.
type Flushable interface {
	Flush(ctx context.Context) error
}

// Pinger is implemented by caches backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}
