package providers

import (
	"sort"
	"sync"
)

// Registry is a thread-safe collection of registered adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any existing adapter with the same name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns a registered adapter by name.
func (r *Registry) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// List returns the names of all registered adapters, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllModels returns ModelInfo from all registered adapters.
func (r *Registry) AllModels() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var models []ModelInfo
	for _, a := range r.adapters {
		models = append(models, a.Models()...)
	}
	return models
}

// FindByModel returns the first registered adapter that supports the given model.
func (r *Registry) FindByModel(model string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if a.SupportsModel(model) {
			return a, true
		}
	}
	return nil, false
}

// FindVision returns the first registered adapter that can read images.
func (r *Registry) FindVision() (VisionAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.adapters {
		if va, ok := a.(VisionAdapter); ok && va.SupportsVision() {
			return va, true
		}
	}
	return nil, false
}
