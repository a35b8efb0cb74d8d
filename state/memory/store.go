// Package memory provides the in-memory state store, used by tests and
// single-process runs.
package memory

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/state"
)

// store implements state.Store with plain maps
type store struct {
	mu       sync.Mutex
	owners   map[core.Identity]core.Identity
	fields   map[core.Identity]map[string][]byte
	balances map[core.Identity]uint64
}

func init() {
	state.Register(state.MemoryStoreType, NewStore)
}

// NewStore creates a new empty in-memory store. params is unused.
func NewStore(params map[string]any) state.Store {
	return &store{
		owners:   make(map[core.Identity]core.Identity),
		fields:   make(map[core.Identity]map[string][]byte),
		balances: make(map[core.Identity]uint64),
	}
}

// GetOwner implements state.Store
func (s *store) GetOwner(contract core.Identity) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[contract]
	if !ok {
		return nil, nil
	}
	return &owner, nil
}

// SetOwner implements state.Store
func (s *store) SetOwner(contract core.Identity, owner *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner == nil {
		delete(s.owners, contract)
		return nil
	}
	s.owners[contract] = *owner
	return nil
}

// GetField implements state.Store
func (s *store) GetField(contract core.Identity, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[contract][key], nil
}

// SetField implements state.Store
func (s *store) SetField(contract core.Identity, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.fields[contract]
	if !ok {
		fields = make(map[string][]byte)
		s.fields[contract] = fields
	}
	fields[key] = value
	return nil
}

// Balance implements state.Store
func (s *store) Balance(addr core.Identity) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[addr]
}

// Transfer implements state.Store
func (s *store) Transfer(from, to core.Identity, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[from] < amount {
		return errors.New("insufficient balance")
	}
	s.balances[from] -= amount
	s.balances[to] += amount
	return nil
}

// Credit implements state.Store
func (s *store) Credit(addr core.Identity, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[addr] += amount
	return nil
}

// Log implements state.Store
func (s *store) Log(contract core.Identity, event string, keyValues ...any) {
	params := []any{
		"contract", contract,
		"event", event,
	}
	params = append(params, keyValues...)
	slog.Info("contract event", params...)
}
