package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/tabi/pkg/domain"
	"github.com/aretw0/tabi/pkg/ports"
)

// MockCache is a map-backed BundleCache used to check the contract suite itself.
type MockCache struct {
	data map[string]map[string]domain.ContextBundle
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string]map[string]domain.ContextBundle)}
}

func (m *MockCache) Get(_ context.Context, sessionID, destination string) (*domain.ContextBundle, error) {
	b, ok := m.data[sessionID][destination]
	if !ok {
		return nil, domain.ErrBundleNotFound
	}
	return &b, nil
}

func (m *MockCache) Put(_ context.Context, sessionID, destination string, bundle *domain.ContextBundle) error {
	if m.data[sessionID] == nil {
		m.data[sessionID] = make(map[string]domain.ContextBundle)
	}
	// Copy to simulate serialization
	m.data[sessionID][destination] = *bundle
	return nil
}

func (m *MockCache) Forget(_ context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func TestBundleCache_Contract(t *testing.T) {
	ports.RunBundleCacheContract(t, NewMockCache())
}
