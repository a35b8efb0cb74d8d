// Package callctx implements the contextual-identity call stack of the
// contract runtime: who signed the transaction, who invoked the current
// code, which contract is executing, and which entry point started the
// chain, tracked across arbitrary inter-contract call nesting.
package callctx

import "github.com/scopevm/vm/core"

// EntryPoint records the contract and function originally invoked by the
// transaction signer.
type EntryPoint struct {
	Contract core.Identity
	Function core.FunctionName
}

// Frame is one level of the execution context stack, corresponding to one
// active contract invocation. Frames are immutable once pushed and are
// constructed only by the stack.
type Frame struct {
	executing core.Identity
	invoker   core.Identity
	entry     *EntryPoint // set only on the bottom frame
}

// Executing returns the contract whose code runs in this frame.
func (f Frame) Executing() core.Identity {
	return f.executing
}

// Invoker returns the identity that invoked Executing: the signer on the
// bottom frame, the executing contract of the frame below otherwise.
func (f Frame) Invoker() core.Identity {
	return f.invoker
}
