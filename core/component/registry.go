package component

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnresolved is returned when a named definition is not registered.
var ErrUnresolved = errors.New("unresolved component reference")

// Definition is implemented by every component definition held in a Registry.
type Definition interface {
	DefinitionName() string
	Validate() error
}

// Registry stores definitions of one kind keyed by name.
type Registry[T Definition] struct {
	kind string
	mu   sync.RWMutex
	defs map[string]T
}

// NewRegistry returns an empty registry. kind names the definitions in errors.
func NewRegistry[T Definition](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, defs: make(map[string]T)}
}

// Register validates and adds a definition. Names must be unique per registry.
func (r *Registry[T]) Register(def T) error {
	name := def.DefinitionName()
	if name == "" {
		return fmt.Errorf("%s: definition without a name", r.kind)
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%s %q: %w", r.kind, name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("%s %q defined more than once", r.kind, name)
	}
	r.defs[name] = def
	return nil
}

// Resolve returns the definition registered under name.
func (r *Registry[T]) Resolve(name string) (T, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", r.kind, name, ErrUnresolved)
	}
	return def, nil
}

// Names lists the registered names in lexical order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
