package memory

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/patrickmn/go-cache"
)

// keySep cannot appear in a session ID produced by the HTTP layer (uuid) or the CLI.
const keySep = "\x00"

// Cache implements ports.BundleCache on top of go-cache.
// Entries expire after the configured TTL. Safe for concurrent use.
type Cache struct {
	c *cache.Cache
}

// NewCache creates an in-memory bundle cache.
// A ttl <= 0 keeps entries until Forget is called.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &Cache{c: cache.New(ttl, cleanup)}
}

func key(sessionID, destination string) string {
	return sessionID + keySep + destination
}

// Get returns a copy of the cached bundle.
func (m *Cache) Get(_ context.Context, sessionID, destination string) (*domain.ContextBundle, error) {
	v, found := m.c.Get(key(sessionID, destination))
	if !found {
		return nil, domain.ErrBundleNotFound
	}
	b := v.(domain.ContextBundle)
	b.Providers = append([]string(nil), b.Providers...)
	return &b, nil
}

// Put stores a copy of the bundle so later mutations by the caller are not visible.
func (m *Cache) Put(_ context.Context, sessionID, destination string, bundle *domain.ContextBundle) error {
	b := *bundle
	b.Providers = append([]string(nil), bundle.Providers...)
	m.c.Set(key(sessionID, destination), b, cache.DefaultExpiration)
	return nil
}

// Forget removes every bundle of the session.
func (m *Cache) Forget(_ context.Context, sessionID string) error {
	prefix := sessionID + keySep
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
	return nil
}

// Flush removes every bundle of every session.
func (m *Cache) Flush(_ context.Context) error {
	m.c.Flush()
	return nil
}

// Len reports the number of live entries.
func (m *Cache) Len() int {
	return m.c.ItemCount()
}
