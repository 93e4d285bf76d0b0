package platform

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the adapters available to the gateway, keyed by
// platform type.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Type]Adapter)}
}

// Register adds an adapter. Registering the same platform twice is a
// wiring bug and returns an error.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("register adapter: nil adapter")
	}
	t := a.Type()
	if _, err := ParseType(string(t)); err != nil {
		return fmt.Errorf("register adapter: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[t]; exists {
		return fmt.Errorf("register adapter: %s already registered", t)
	}
	r.adapters[t] = a
	return nil
}

// MustRegister is Register for startup wiring, panicking on error.
func (r *Registry) MustRegister(a Adapter) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get returns the adapter for a platform, or false when none is
// registered.
func (r *Registry) Get(t Type) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[t]
	return a, ok
}

// Supported lists the platforms with a registered adapter, sorted for
// stable output.
func (r *Registry) Supported() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
