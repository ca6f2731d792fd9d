package repositories

import (
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

// AdapterRegistry manages all registered manifest-dialect adapters.
type AdapterRegistry struct {
	adapters []domainRepos.AdapterRepository
	byName   map[string]domainRepos.AdapterRepository
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		byName: make(map[string]domainRepos.AdapterRepository),
	}
}

// Register adds an adapter under its dialect name. Registration order is
// preserved so detection is deterministic.
func (r *AdapterRegistry) Register(a domainRepos.AdapterRepository) {
	if _, exists := r.byName[a.Name()]; exists {
		return
	}
	r.adapters = append(r.adapters, a)
	r.byName[a.Name()] = a
}

// Get returns the adapter with the given dialect name, or nil.
func (r *AdapterRegistry) Get(name string) domainRepos.AdapterRepository {
	return r.byName[name]
}

// Detect returns the first adapter claiming the given file name, or nil.
func (r *AdapterRegistry) Detect(filename string) domainRepos.AdapterRepository {
	for _, a := range r.adapters {
		if a.Detect(filename) {
			return a
		}
	}
	return nil
}

// All returns every registered adapter in registration order.
func (r *AdapterRegistry) All() []domainRepos.AdapterRepository {
	return r.adapters
}

// Names returns the list of registered dialect names.
func (r *AdapterRegistry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}
