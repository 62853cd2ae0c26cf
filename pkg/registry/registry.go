// Package registry maps search provider names to constructors.
// The names are what search.providers lists in the config.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/aretw0/tabi/pkg/config"
	"github.com/aretw0/tabi/pkg/ports"
)

// ErrSkip is returned by a Factory when its provider is disabled or lacks credentials.
var ErrSkip = errors.New("provider skipped")

// Factory builds a provider from the search settings.
// client carries the shared request timeout.
type Factory func(cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error)

// Registry manages the available provider factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory to the registry.
// If a factory with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names lists the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build looks up a factory by name and runs it.
// Returns an error if the name is not registered.
func (r *Registry) Build(name string, cfg config.SearchConfig, client *http.Client) (ports.SearchProvider, error) {
	r.mu.RLock()
	fn, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("search provider not found: %s", name)
	}

	return fn(cfg, client)
}
