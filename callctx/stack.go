package callctx

import "github.com/scopevm/vm/core"

// DefaultMaxCallDepth bounds inter-contract call nesting. Exceeding it is a
// normal, recoverable failure for the transaction. Eight matches the
// cross-contract call limit contract engines in this family enforce.
const DefaultMaxCallDepth = 8

// Stack is the ordered sequence of call frames for one transaction: bottom
// frame is the signer's entry call, top frame is the currently executing
// contract. A Stack is owned by exactly one transaction, is never shared
// across transactions, and is not safe for concurrent use.
type Stack struct {
	frames   []Frame
	maxDepth int
}

// New creates a stack whose single bottom frame models the signer directly
// invoking the transaction's entry point.
func New(signer, entryContract core.Identity, entryFunction core.FunctionName) *Stack {
	return NewWithDepth(signer, entryContract, entryFunction, DefaultMaxCallDepth)
}

// NewWithDepth is New with a custom maximum call depth. Depths below one
// fall back to DefaultMaxCallDepth.
func NewWithDepth(signer, entryContract core.Identity, entryFunction core.FunctionName, maxDepth int) *Stack {
	if maxDepth < 1 {
		maxDepth = DefaultMaxCallDepth
	}
	return &Stack{
		frames: []Frame{{
			executing: entryContract,
			invoker:   signer,
			entry:     &EntryPoint{Contract: entryContract, Function: entryFunction},
		}},
		maxDepth: maxDepth,
	}
}

// Push records control transferring from the current top frame's contract
// into callee, immediately before the callee's code runs. invoker must be
// the executing contract of the current top frame; the runtime, not
// contract code, is trusted to uphold that. Fails with ErrStackOverflow at
// the depth bound, leaving the stack unchanged.
func (s *Stack) Push(invoker, callee core.Identity) error {
	if len(s.frames) >= s.maxDepth {
		return ErrStackOverflow
	}
	s.frames = append(s.frames, Frame{executing: callee, invoker: invoker})
	return nil
}

// Pop removes the top frame, immediately after the callee's code returns or
// fails. The bottom frame lives for the whole transaction; popping it is a
// call/return mismatch and fails with ErrStackUnderflow.
func (s *Stack) Pop() error {
	if len(s.frames) <= 1 {
		return ErrStackUnderflow
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Caller returns the identity that invoked the currently executing
// contract: the signer at depth one, otherwise the contract one frame
// below the top. It changes with every push and pop.
func (s *Stack) Caller() core.Identity {
	return s.top().invoker
}

// This returns the currently executing contract.
func (s *Stack) This() core.Identity {
	return s.top().executing
}

// Entry returns the contract and function originally invoked by the
// signer. ErrMissingEntry is unreachable for stacks built through New.
func (s *Stack) Entry() (core.Identity, core.FunctionName, error) {
	entry := s.frames[0].entry
	if entry == nil {
		return core.ZeroIdentity, "", ErrMissingEntry
	}
	return entry.Contract, entry.Function, nil
}

// Depth returns the current call nesting depth.
func (s *Stack) Depth() int {
	return len(s.frames)
}

func (s *Stack) top() Frame {
	return s.frames[len(s.frames)-1]
}
