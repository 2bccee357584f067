package sigil

import (
	"errors"
	"sync"
)

var (
	// ErrNameBound is returned by Store when the name is already bound
	// and override was not requested.
	ErrNameBound = errors.New("sigil: name already bound")

	// ErrEmptyName is returned by Store for an empty name.
	ErrEmptyName = errors.New("sigil: name cannot be empty")

	// ErrNilSignal is returned by Store for a nil signal.
	ErrNilSignal = errors.New("sigil: signal cannot be nil")
)

// Registry is a name-to-signal mapping. Entries are non-owning: a
// removed name does not destroy the signal it pointed to.
type Registry struct {
	mu      sync.RWMutex
	signals map[string]*Signal
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		signals: make(map[string]*Signal),
	}
}

// Store binds name to sig. When the name is already bound, Store fails
// with ErrNameBound unless override is true, in which case the prior
// binding is replaced. A failed Store leaves the registry unchanged.
func (r *Registry) Store(name string, sig *Signal, override bool) error {
	if name == "" {
		return ErrEmptyName
	}
	if sig == nil {
		return ErrNilSignal
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.signals[name]; exists && !override {
		return ErrNameBound
	}
	r.signals[name] = sig
	return nil
}

// Get returns the signal bound to name, with ok reporting whether the
// name is bound.
func (r *Registry) Get(name string) (*Signal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sig, ok := r.signals[name]
	return sig, ok
}

// Remove unbinds name. Removing an unbound name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.signals, name)
	r.mu.Unlock()
}

// List returns a copy of the current name-to-signal mapping. Mutating
// the returned map does not affect the registry.
func (r *Registry) List() map[string]*Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Signal, len(r.signals))
	for name, sig := range r.signals {
		out[name] = sig
	}
	return out
}

// Len returns the number of bound names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.signals)
}

// defaultRegistry is the process-wide registry backing the package
// level functions. It is initialized empty at process start and only
// mutated through Store and Remove.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Store binds name to sig in the process-wide registry.
func Store(name string, sig *Signal, override bool) error {
	return defaultRegistry.Store(name, sig, override)
}

// Get looks up name in the process-wide registry.
func Get(name string) (*Signal, bool) {
	return defaultRegistry.Get(name)
}

// Remove unbinds name from the process-wide registry.
func Remove(name string) {
	defaultRegistry.Remove(name)
}

// List returns a copy of the process-wide registry's mapping.
func List() map[string]*Signal {
	return defaultRegistry.List()
}
