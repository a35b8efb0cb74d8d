// Package core defines the value types and the context interface that
// contract code uses to interact with the runtime.
// Contract developers only need the types in this package to write contracts.
package core

// Identity names an account or a contract. Accounts and contracts share a
// single namespace and are indistinguishable as identities. Equality is
// exact string equality with no normalization.
type Identity string

// FunctionName names an exported contract function as it appears on the
// wire, in lower_snake form.
type FunctionName string

// ZeroIdentity is the empty identity.
var ZeroIdentity = Identity("")

// SubmissionName is the conventional name of the contract that deploys and
// instantiates other contracts.
const SubmissionName = Identity("submission")

func (id Identity) String() string {
	return string(id)
}

func (fn FunctionName) String() string {
	return string(fn)
}
