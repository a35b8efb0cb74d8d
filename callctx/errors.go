package callctx

import "errors"

// Error taxonomy for context-stack operations. ErrStackOverflow and
// ErrNotOwner abort only the current transaction and are reported to its
// caller. ErrStackUnderflow and ErrMissingEntry indicate a call/return
// mismatch in the integration between the stack and the interpreter, not
// conditions contract authors can trigger.
var (
	ErrStackOverflow  = errors.New("callctx: max call depth exceeded")
	ErrStackUnderflow = errors.New("callctx: cannot pop the entry frame")
	ErrNotOwner       = errors.New("callctx: caller is not the contract owner")
	ErrMissingEntry   = errors.New("callctx: context stack has no entry point")
)
