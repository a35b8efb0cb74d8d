package runtime

import (
	"fmt"

	"github.com/scopevm/vm/callctx"
	"github.com/scopevm/vm/core"
)

// execContext is the core.Context the runtime threads into every contract
// invocation. Identity reads resolve against the transaction's live stack,
// so the same value serves every depth of the call tree. Basic state reads
// panic on storage failure rather than return an error.
type execContext struct {
	rt *Runtime
	tx *callctx.Transaction
}

// Caller implements core.Context
func (c *execContext) Caller() core.Identity {
	return c.tx.Stack().Caller()
}

// Signer implements core.Context
func (c *execContext) Signer() core.Identity {
	return c.tx.Signer()
}

// This implements core.Context
func (c *execContext) This() core.Identity {
	return c.tx.Stack().This()
}

// Owner implements core.Context
func (c *execContext) Owner() *core.Identity {
	owner, err := c.rt.store.GetOwner(c.This())
	if err != nil {
		panic(fmt.Errorf("failed to read owner: %w", err))
	}
	return owner
}

// Entry implements core.Context
func (c *execContext) Entry() (core.Identity, core.FunctionName) {
	contract, function, err := c.tx.Stack().Entry()
	if err != nil {
		// Unreachable: Begin always records the entry point
		panic(err)
	}
	return contract, function
}

// SubmissionName implements core.Context
func (c *execContext) SubmissionName() core.Identity {
	return c.tx.SubmissionName()
}

// ChangeOwner implements core.Context. The write targets the executing
// contract's own owner field; reaching the code that calls this is already
// gated by that same field, so once an owner is set only the owner can
// change it again.
func (c *execContext) ChangeOwner(owner *core.Identity) error {
	return c.rt.store.SetOwner(c.This(), owner)
}

// Get implements core.Context
func (c *execContext) Get(key string) ([]byte, error) {
	return c.rt.store.GetField(c.This(), key)
}

// Set implements core.Context
func (c *execContext) Set(key string, value []byte) error {
	return c.rt.store.SetField(c.This(), key, value)
}

// Balance implements core.Context
func (c *execContext) Balance(addr core.Identity) uint64 {
	return c.rt.store.Balance(addr)
}

// Transfer implements core.Context
func (c *execContext) Transfer(to core.Identity, amount uint64) error {
	return c.rt.store.Transfer(c.This(), to, amount)
}

// Call implements core.Context. The push makes the current contract the
// callee's caller; the deferred pop runs on every exit path, including
// callee failure, so the caller resumes with a balanced stack.
func (c *execContext) Call(contract core.Identity, function core.FunctionName, args map[string]any) (any, error) {
	stack := c.tx.Stack()
	if err := stack.Push(stack.This(), contract); err != nil {
		return nil, err
	}
	defer func() {
		if err := stack.Pop(); err != nil {
			// Unreachable: the matching push above succeeded
			panic(err)
		}
	}()
	return c.rt.invoke(c.tx, contract, function, args)
}

// Log implements core.Context
func (c *execContext) Log(event string, keyValues ...any) {
	c.rt.store.Log(c.This(), event, keyValues...)
}
