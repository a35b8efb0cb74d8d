package state

import (
	"fmt"
	"sync"
)

// StoreType represents the type of state store
type StoreType string

const (
	// MemoryStoreType represents the in-memory store implementation
	MemoryStoreType StoreType = "memory"
	// DBStoreType represents the database-backed store implementation
	DBStoreType StoreType = "db"
)

// Constructor is a function type that creates a new Store instance
type Constructor func(params map[string]any) Store

// Registry defines the interface for managing Store implementations
type Registry interface {
	// Register adds a new Store implementation to the registry
	Register(st StoreType, constructor Constructor) error
	// SetDefault sets the default store type
	SetDefault(st StoreType) error
	// Get returns a new instance of the specified store type
	Get(st StoreType, params map[string]any) (Store, error)
	// GetDefault returns a new instance of the default store type
	GetDefault(params map[string]any) (Store, error)
	// DefaultStoreType returns the current default store type
	DefaultStoreType() StoreType
	// ListRegistered returns a list of all registered store types
	ListRegistered() []StoreType
}

// registry implements the Registry interface
type registry struct {
	mu        sync.RWMutex
	stores    map[StoreType]Constructor
	defaultSt StoreType
}

var (
	// defaultRegistry is the global singleton registry instance
	defaultRegistry Registry
)

func init() {
	defaultRegistry = &registry{
		stores: make(map[StoreType]Constructor),
	}
}

// GetRegistry returns the global Registry instance
func GetRegistry() Registry {
	return defaultRegistry
}

// Register adds a new Store implementation to the registry
func (r *registry) Register(st StoreType, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[st]; exists {
		return fmt.Errorf("store type %s already registered", st)
	}

	r.stores[st] = constructor
	return nil
}

// SetDefault sets the default store type
func (r *registry) SetDefault(st StoreType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.stores[st]; !exists {
		return fmt.Errorf("store type %s not registered", st)
	}

	r.defaultSt = st
	return nil
}

// Get returns a new instance of the specified store type
func (r *registry) Get(st StoreType, params map[string]any) (Store, error) {
	r.mu.RLock()
	constructor, exists := r.stores[st]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("store type %s not found", st)
	}

	return constructor(params), nil
}

// GetDefault returns a new instance of the default store type
func (r *registry) GetDefault(params map[string]any) (Store, error) {
	r.mu.RLock()
	if r.defaultSt == "" {
		r.mu.RUnlock()
		return nil, fmt.Errorf("no default store type set")
	}
	r.mu.RUnlock()

	return r.Get(r.defaultSt, params)
}

// DefaultStoreType returns the current default store type
func (r *registry) DefaultStoreType() StoreType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultSt == "" {
		return MemoryStoreType
	}
	return r.defaultSt
}

// ListRegistered returns a list of all registered store types
func (r *registry) ListRegistered() []StoreType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]StoreType, 0, len(r.stores))
	for st := range r.stores {
		types = append(types, st)
	}
	return types
}

// Package level functions that delegate to defaultRegistry

// Register adds a new Store implementation to the registry
func Register(st StoreType, constructor Constructor) error {
	return GetRegistry().Register(st, constructor)
}

// SetDefault sets the default store type
func SetDefault(st StoreType) error {
	return GetRegistry().SetDefault(st)
}

// Get returns a new instance of the specified store type
func Get(st StoreType, params map[string]any) (Store, error) {
	if st == "" {
		st = GetRegistry().DefaultStoreType()
	}
	return GetRegistry().Get(st, params)
}

// GetDefault returns a new instance of the default store type
func GetDefault(params map[string]any) (Store, error) {
	return GetRegistry().GetDefault(params)
}

// DefaultStoreType returns the current default store type
func DefaultStoreType() StoreType {
	return GetRegistry().DefaultStoreType()
}

// ListRegistered returns a list of all registered store types
func ListRegistered() []StoreType {
	return GetRegistry().ListRegistered()
}
