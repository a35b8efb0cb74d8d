package callctx

import "github.com/scopevm/vm/core"

// CheckOwner is the ownership gate: the runtime applies it before any
// exported function of a contract runs, with the contract's persisted owner
// and the stack's current caller. A nil owner means the contract is
// unrestricted and any caller passes. A contract with no owner set may have
// any caller set the owner for the first time; after that only the owner
// reaches the code that could change it again.
func CheckOwner(owner *core.Identity, caller core.Identity) error {
	if owner == nil {
		return nil
	}
	if *owner != caller {
		return ErrNotOwner
	}
	return nil
}
