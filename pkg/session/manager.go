package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can keep a distributed lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session cache access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
// Manager itself implements ports.BundleCache.
type Manager struct {
	cache ports.BundleCache

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Session Manager over the given cache.
func NewManager(cache ports.BundleCache, opts ...Option) *Manager {
	m := &Manager{
		cache:   cache,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Get returns the bundle cached for the destination.
func (m *Manager) Get(ctx context.Context, sessionID, destination string) (*domain.ContextBundle, error) {
	var bundle *domain.ContextBundle
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		bundle, err = m.cache.Get(ctx, sessionID, destination)
		return err
	})
	return bundle, err
}

// Put stores the bundle for the destination.
func (m *Manager) Put(ctx context.Context, sessionID, destination string, bundle *domain.ContextBundle) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.cache.Put(ctx, sessionID, destination, bundle)
	})
}

// Forget drops every bundle of the session.
func (m *Manager) Forget(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.cache.Forget(ctx, sessionID)
	})
}

// Flush drops the bundles of every session when the cache supports it.
// It reports whether anything was flushed.
func (m *Manager) Flush(ctx context.Context) (bool, error) {
	f, ok := m.cache.(ports.Flushable)
	if !ok {
		return false, nil
	}
	if err := f.Flush(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Cache returns the underlying bundle cache.
func (m *Manager) Cache() ports.BundleCache {
	return m.cache
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's context may already be canceled; the lock must still go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
