// Package state defines the persisted contract state behind execution:
// contract owners, per-contract fields, and account balances.
package state

import "github.com/scopevm/vm/core"

// Store is the storage layer the runtime reads and writes. Owner values
// feed the ownership gate; fields and balances back contract code's own
// reads and writes. Absent owners are nil, absent fields are nil, absent
// balances are zero.
type Store interface {
	// GetOwner returns the persisted owner of contract, nil when the
	// contract is unrestricted.
	GetOwner(contract core.Identity) (*core.Identity, error)
	// SetOwner rewrites the persisted owner of contract; nil clears it.
	SetOwner(contract core.Identity, owner *core.Identity) error

	// GetField and SetField access one contract's keyed state.
	GetField(contract core.Identity, key string) ([]byte, error)
	SetField(contract core.Identity, key string, value []byte) error

	// Balance and Transfer operate on account balances. Credit mints new
	// balance and is intended for the surrounding pipeline, not contract
	// code.
	Balance(addr core.Identity) uint64
	Transfer(from, to core.Identity, amount uint64) error
	Credit(addr core.Identity, amount uint64) error

	// Log records a contract event.
	Log(contract core.Identity, event string, keyValues ...any)
}
