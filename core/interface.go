package core

// Context is the interface contract code uses to interact with the runtime.
// All identity reads resolve against the live call stack at read time: the
// runtime threads one Context per transaction into every contract
// invocation, and the same Context yields different Caller and This values
// at different call depths.
type Context interface {
	// Identity related
	Caller() Identity // identity that directly invoked the executing contract
	Signer() Identity // identity that signed the transaction, constant throughout
	This() Identity   // contract whose code is currently executing

	// Owner returns the executing contract's own persisted owner, nil when
	// the contract is unrestricted.
	Owner() *Identity

	// Entry returns the contract and function originally invoked by the
	// signer, constant for the whole transaction.
	Entry() (Identity, FunctionName)

	// SubmissionName returns the name of the contract-deployment contract.
	SubmissionName() Identity

	// ChangeOwner rewrites the executing contract's own owner field.
	// Passing nil clears it. Subject to the same ownership gate as any
	// other exported function: once an owner is set, only that owner can
	// reach code that calls this.
	ChangeOwner(owner *Identity) error

	// State access - reads and writes the executing contract's own fields
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error

	// Account operations - transfers debit the executing contract
	Balance(addr Identity) uint64
	Transfer(to Identity, amount uint64) error

	// Call invokes a function exported by another contract. The callee
	// observes this contract as its caller, regardless of how deep the
	// current call chain already is.
	Call(contract Identity, function FunctionName, args map[string]any) (any, error)

	// Log records a contract event
	Log(event string, keyValues ...any)
}
