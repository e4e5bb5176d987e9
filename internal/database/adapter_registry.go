package database

import (
	"fmt"
	"sync"

	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/database/adapters/document"
	"dataviz-sync/internal/database/adapters/relational"
	"dataviz-sync/internal/model"
)

// AdapterFactory opens a live adapter against the given target
type AdapterFactory func(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error)

// AdapterRegistry maps engine kinds to adapter factories
type AdapterRegistry struct {
	factories map[model.EngineKind]AdapterFactory
	mutex     sync.RWMutex
}

// NewAdapterRegistry creates a registry with all built-in engines registered
func NewAdapterRegistry() *AdapterRegistry {
	registry := &AdapterRegistry{
		factories: make(map[model.EngineKind]AdapterFactory),
	}
	registry.registerBuiltins()
	return registry
}

func (r *AdapterRegistry) registerBuiltins() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.factories[model.EngineMongoDB] = func(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error) {
		return document.NewMongoAdapter(target, timeouts)
	}
	r.factories[model.EnginePostgreSQL] = func(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error) {
		return relational.NewPostgresAdapter(target, timeouts)
	}
	r.factories[model.EngineMySQL] = func(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error) {
		return relational.NewMySQLAdapter(target, timeouts)
	}
}

// Open creates a live adapter for the target's engine
func (r *AdapterRegistry) Open(target adapters.Target, timeouts adapters.Timeouts) (adapters.Adapter, error) {
	r.mutex.RLock()
	factory, exists := r.factories[target.Engine]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", adapters.ErrUnsupportedEngine, target.Engine)
	}
	return factory(target, timeouts)
}

// IsSupported checks if an engine kind has a registered adapter
func (r *AdapterRegistry) IsSupported(engine model.EngineKind) bool {
	r.mutex.RLock()
	_, exists := r.factories[engine]
	r.mutex.RUnlock()
	return exists
}

// SupportedEngines returns all registered engine kinds
func (r *AdapterRegistry) SupportedEngines() []model.EngineKind {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	kinds := make([]model.EngineKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	return kinds
}
