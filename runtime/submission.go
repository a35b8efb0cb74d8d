package runtime

import (
	"fmt"

	"github.com/scopevm/vm/core"
)

// submissionContract is the built-in contract that deploys other contracts.
// It is registered under the runtime's submission name and is itself
// invoked like any other contract, so deployments show up on the context
// stack with the deployer as caller.
type submissionContract struct {
	rt *Runtime
}

// SubmitContract deploys a new contract. args carries "name" (string),
// "code" (the contract implementation) and optionally "owner" (string) to
// set the initial owner. Setting the owner at deploy time is ungated: the
// fresh contract has no owner yet, so the first set is open to anyone.
func (s *submissionContract) SubmitContract(ctx core.Context, args map[string]any) (any, error) {
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("submit_contract: missing contract name")
	}
	impl, ok := args["code"]
	if !ok {
		return nil, fmt.Errorf("submit_contract: missing contract code")
	}

	if err := s.rt.Deploy(core.Identity(name), impl); err != nil {
		return nil, err
	}

	if ownerArg, ok := args["owner"].(string); ok && ownerArg != "" {
		owner := core.Identity(ownerArg)
		if err := s.rt.store.SetOwner(core.Identity(name), &owner); err != nil {
			return nil, fmt.Errorf("submit_contract: %w", err)
		}
	}

	ctx.Log("contract_submitted", "name", name, "caller", ctx.Caller())
	return name, nil
}
