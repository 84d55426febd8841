package source

import (
	"sort"
	"sync"
)

// Factory constructs a source instance for one map layer. Factories must
// not start I/O; loading is triggered separately by the engine.
type Factory func(id string, opts Options, d Dispatcher) (Source, error)

// Registry maps source type names to factories. There is one registry per
// process, created at startup, pre-seeded with the built-in types and
// optionally extended by third parties before any source of that type is
// created. The handle is passed explicitly; there is no ambient global.
//
// Mutation is expected at startup only; lookups dominate afterwards.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]Factory),
	}
}

// GetType returns the factory registered under name.
func (r *Registry) GetType(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.types[name]
	return f, ok
}

// SetType registers a factory under name, silently replacing any prior
// registration. There is no removal operation.
func (r *Registry) SetType(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = f
}

// TypeNames returns all registered type names, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
