package backend

import "sync"

// Factory creates a new adapter instance, or returns nil when the
// adapter cannot run in this environment.
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Factory)

	// Priority order for adapter selection (first available wins).
	// GPU surfaces over the terminal fallback.
	adapterPriority = []string{BackendWGPU, BackendWeb, BackendTerm}
)

// Register registers an adapter factory under the given name. Adapter
// packages call this from init(), so importing a backend package is
// what makes it selectable. A duplicate name replaces the earlier
// factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[name] = factory
}

// Unregister removes an adapter from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(adapters, name)
}

// Available returns the registered adapter names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if an adapter with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := adapters[name]
	return ok
}

// Get returns a new adapter instance by name, or nil if the name is
// not registered or the factory declines.
func Get(name string) Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := adapters[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available adapter by priority, or nil if
// none is registered.
func Default() Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range adapterPriority {
		if factory, ok := adapters[name]; ok {
			if a := factory(); a != nil {
				return a
			}
		}
	}

	// Fallback: first registered adapter that instantiates.
	for _, factory := range adapters {
		if a := factory(); a != nil {
			return a
		}
	}

	return nil
}

// MustDefault returns the default adapter or panics.
func MustDefault() Adapter {
	a := Default()
	if a == nil {
		panic("backend: no adapter available")
	}
	return a
}

// InitDefault selects the default adapter and initializes it.
func InitDefault() (Adapter, error) {
	a := Default()
	if a == nil {
		return nil, ErrBackendNotAvailable
	}

	if err := a.Init(); err != nil {
		return nil, err
	}

	return a, nil
}
