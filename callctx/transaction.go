package callctx

import "github.com/scopevm/vm/core"

// Transaction owns the context stack for one transaction. The transaction
// pipeline creates it before any contract code runs and discards it when
// the transaction finishes, success or failure; no context state survives.
type Transaction struct {
	signer         core.Identity
	submissionName core.Identity
	stack          *Stack
}

// Begin creates the transaction context and its stack at depth one.
func Begin(signer, submissionName, entryContract core.Identity, entryFunction core.FunctionName) *Transaction {
	return BeginWithDepth(signer, submissionName, entryContract, entryFunction, DefaultMaxCallDepth)
}

// BeginWithDepth is Begin with a custom maximum call depth.
func BeginWithDepth(signer, submissionName, entryContract core.Identity, entryFunction core.FunctionName, maxDepth int) *Transaction {
	return &Transaction{
		signer:         signer,
		submissionName: submissionName,
		stack:          NewWithDepth(signer, entryContract, entryFunction, maxDepth),
	}
}

// Signer returns the identity that signed the transaction.
func (t *Transaction) Signer() core.Identity {
	return t.signer
}

// SubmissionName returns the name of the contract-deployment contract.
func (t *Transaction) SubmissionName() core.Identity {
	return t.submissionName
}

// Stack returns the transaction's context stack. The runtime drives push
// and pop through it; contract code only reads through accessors.
func (t *Transaction) Stack() *Stack {
	return t.stack
}

// End discards the stack. The transaction must not be used afterwards.
func (t *Transaction) End() {
	t.stack = nil
}
