package runtime

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/scopevm/vm/callctx"
	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directContract reports its identity view to the caller
type directContract struct{}

func (directContract) WhoAmI(ctx core.Context, args map[string]any) (any, error) {
	entryContract, entryFunction := ctx.Entry()
	return map[string]string{
		"caller":         ctx.Caller().String(),
		"this":           ctx.This().String(),
		"signer":         ctx.Signer().String(),
		"entry_contract": entryContract.String(),
		"entry_function": entryFunction.String(),
	}, nil
}

// indirectContract relays into directContract
type indirectContract struct{}

func (indirectContract) CallDirect(ctx core.Context, args map[string]any) (any, error) {
	return ctx.Call("direct", "who_am_i", nil)
}

// tokenContract keeps per-identity balances in its own contract state
type tokenContract struct{}

func tokenBalance(ctx core.Context, who core.Identity) uint64 {
	raw, err := ctx.Get("balance:" + who.String())
	if err != nil || raw == nil {
		return 0
	}
	n, _ := strconv.ParseUint(string(raw), 10, 64)
	return n
}

func setTokenBalance(ctx core.Context, who core.Identity, amount uint64) error {
	return ctx.Set("balance:"+who.String(), []byte(strconv.FormatUint(amount, 10)))
}

func (tokenContract) Mint(ctx core.Context, args map[string]any) (any, error) {
	to := core.Identity(args["to"].(string))
	amount := args["amount"].(uint64)
	return nil, setTokenBalance(ctx, to, tokenBalance(ctx, to)+amount)
}

func (tokenContract) Send(ctx core.Context, args map[string]any) (any, error) {
	to := core.Identity(args["to"].(string))
	amount := args["amount"].(uint64)

	// Debit whoever called send, which for a relayed call is the relaying
	// contract, never the signer
	from := ctx.Caller()
	fromBalance := tokenBalance(ctx, from)
	if fromBalance < amount {
		return nil, fmt.Errorf("insufficient funds for %s", from)
	}
	if err := setTokenBalance(ctx, from, fromBalance-amount); err != nil {
		return nil, err
	}
	if err := setTokenBalance(ctx, to, tokenBalance(ctx, to)+amount); err != nil {
		return nil, err
	}
	ctx.Log("transfer", "from", from, "to", to, "amount", amount)
	return nil, nil
}

func (tokenContract) BalanceOf(ctx core.Context, args map[string]any) (any, error) {
	return tokenBalance(ctx, core.Identity(args["who"].(string))), nil
}

// walletContract holds tokens and pays them out on withdraw
type walletContract struct{}

func (walletContract) Withdraw(ctx core.Context, args map[string]any) (any, error) {
	return ctx.Call("token", "send", map[string]any{
		"to":     ctx.Signer().String(),
		"amount": args["amount"].(uint64),
	})
}

// ownableContract exposes owner management to its callers
type ownableContract struct{}

func (ownableContract) ChangeOwnership(ctx core.Context, args map[string]any) (any, error) {
	newOwner, ok := args["owner"].(string)
	if !ok || newOwner == "" {
		return nil, ctx.ChangeOwner(nil)
	}
	owner := core.Identity(newOwner)
	return nil, ctx.ChangeOwner(&owner)
}

func (ownableContract) Touch(ctx core.Context, args map[string]any) (any, error) {
	return "touched", nil
}

// loopContract calls itself forever
type loopContract struct{}

func (loopContract) Ping(ctx core.Context, args map[string]any) (any, error) {
	return ctx.Call("loop", "ping", nil)
}

func setupRuntime(t *testing.T) *Runtime {
	rt := NewWithStore(memory.NewStore(nil))
	require.NoError(t, rt.Deploy("direct", directContract{}))
	require.NoError(t, rt.Deploy("indirect", indirectContract{}))
	require.NoError(t, rt.Deploy("token", tokenContract{}))
	require.NoError(t, rt.Deploy("wallet", walletContract{}))
	require.NoError(t, rt.Deploy("ownable", ownableContract{}))
	require.NoError(t, rt.Deploy("loop", loopContract{}))
	return rt
}

func TestRelayedCallIdentity(t *testing.T) {
	rt := setupRuntime(t)

	// stu -> indirect.call_direct -> direct.who_am_i
	result, err := rt.Execute("stu", "indirect", "call_direct", nil)
	require.NoError(t, err)

	view := result.(map[string]string)
	assert.Equal(t, "indirect", view["caller"])
	assert.Equal(t, "direct", view["this"])
	assert.Equal(t, "stu", view["signer"])
	assert.Equal(t, "indirect", view["entry_contract"])
	assert.Equal(t, "call_direct", view["entry_function"])
}

func TestDirectCallIdentity(t *testing.T) {
	rt := setupRuntime(t)

	result, err := rt.Execute("stu", "direct", "who_am_i", nil)
	require.NoError(t, err)

	// At depth one the caller is the signer
	view := result.(map[string]string)
	assert.Equal(t, "stu", view["caller"])
	assert.Equal(t, "direct", view["this"])
	assert.Equal(t, "stu", view["signer"])
}

func TestWithdrawDebitsWallet(t *testing.T) {
	rt := setupRuntime(t)

	_, err := rt.Execute("stu", "token", "mint", map[string]any{"to": "wallet", "amount": uint64(100)})
	require.NoError(t, err)
	_, err = rt.Execute("stu", "token", "mint", map[string]any{"to": "stu", "amount": uint64(100)})
	require.NoError(t, err)

	// stu calls withdraw on wallet, which calls send on token. Inside
	// token.send the caller is the wallet contract, so the wallet balance
	// is debited, not stu's.
	_, err = rt.Execute("stu", "wallet", "withdraw", map[string]any{"amount": uint64(40)})
	require.NoError(t, err)

	result, err := rt.Execute("stu", "token", "balance_of", map[string]any{"who": "wallet"})
	require.NoError(t, err)
	assert.Equal(t, uint64(60), result)

	result, err = rt.Execute("stu", "token", "balance_of", map[string]any{"who": "stu"})
	require.NoError(t, err)
	assert.Equal(t, uint64(140), result)
}

func TestSendWithoutFundsFails(t *testing.T) {
	rt := setupRuntime(t)

	// wallet holds nothing yet; the nested send fails and the failure
	// propagates out through the relaying call
	_, err := rt.Execute("stu", "wallet", "withdraw", map[string]any{"amount": uint64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds for wallet")
}

func TestOwnedContractRejectsOthers(t *testing.T) {
	rt := setupRuntime(t)

	owner := core.Identity("stu")
	require.NoError(t, rt.Store().SetOwner("ownable", &owner))

	// Any exported function is rejected before its body runs
	_, err := rt.Execute("raghu", "ownable", "touch", nil)
	assert.ErrorIs(t, err, callctx.ErrNotOwner)

	// The owner passes
	result, err := rt.Execute("stu", "ownable", "touch", nil)
	require.NoError(t, err)
	assert.Equal(t, "touched", result)
}

func TestOwnershipBootstrapThenLock(t *testing.T) {
	rt := setupRuntime(t)

	// No owner set: any caller may set it for the first time
	_, err := rt.Execute("anyone", "ownable", "change_ownership", map[string]any{"owner": "stu"})
	require.NoError(t, err)

	// After the first set only the owner reaches the mutating function
	_, err = rt.Execute("anyone", "ownable", "change_ownership", map[string]any{"owner": "anyone"})
	assert.ErrorIs(t, err, callctx.ErrNotOwner)

	// The owner can hand ownership over
	_, err = rt.Execute("stu", "ownable", "change_ownership", map[string]any{"owner": "raghu"})
	require.NoError(t, err)

	_, err = rt.Execute("stu", "ownable", "touch", nil)
	assert.ErrorIs(t, err, callctx.ErrNotOwner)

	// And the new owner can clear it, reopening the contract
	_, err = rt.Execute("raghu", "ownable", "change_ownership", nil)
	require.NoError(t, err)

	_, err = rt.Execute("anyone", "ownable", "touch", nil)
	assert.NoError(t, err)
}

func TestOwnerGateAppliesToNestedCalls(t *testing.T) {
	rt := setupRuntime(t)

	// direct is owned by stu; indirect relays into it, so inside the relay
	// the caller is "indirect", not the signer
	owner := core.Identity("stu")
	require.NoError(t, rt.Store().SetOwner("direct", &owner))

	_, err := rt.Execute("stu", "indirect", "call_direct", nil)
	assert.ErrorIs(t, err, callctx.ErrNotOwner)

	// Making indirect the owner lets the relayed call through even for
	// other signers
	owner = "indirect"
	require.NoError(t, rt.Store().SetOwner("direct", &owner))
	_, err = rt.Execute("raghu", "indirect", "call_direct", nil)
	assert.NoError(t, err)
}

func TestUnboundedRecursionOverflows(t *testing.T) {
	rt := setupRuntime(t)

	_, err := rt.Execute("stu", "loop", "ping", nil)
	assert.ErrorIs(t, err, callctx.ErrStackOverflow)

	// The stack unwound cleanly; the runtime still serves new transactions
	_, err = rt.Execute("stu", "direct", "who_am_i", nil)
	assert.NoError(t, err)
}

func TestUnknownContractAndFunction(t *testing.T) {
	rt := setupRuntime(t)

	_, err := rt.Execute("stu", "missing", "anything", nil)
	assert.Error(t, err)

	_, err = rt.Execute("stu", "direct", "no_such_function", nil)
	assert.Error(t, err)
}

func TestDeployValidation(t *testing.T) {
	rt := setupRuntime(t)

	assert.Error(t, rt.Deploy("", directContract{}))
	assert.Error(t, rt.Deploy("direct", directContract{}))
	assert.Error(t, rt.Deploy("empty", struct{}{}))
	assert.Error(t, rt.Deploy("nil", nil))
}

func TestSubmitContract(t *testing.T) {
	rt := setupRuntime(t)

	result, err := rt.Execute("stu", core.SubmissionName, "submit_contract", map[string]any{
		"name":  "echo",
		"owner": "stu",
		"code": map[core.FunctionName]Function{
			"say": func(ctx core.Context, args map[string]any) (any, error) {
				return args["what"], nil
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", result)

	owner, err := rt.Store().GetOwner("echo")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, core.Identity("stu"), *owner)

	result, err = rt.Execute("stu", "echo", "say", map[string]any{"what": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)

	// Redeploying under the same name fails
	_, err = rt.Execute("stu", core.SubmissionName, "submit_contract", map[string]any{
		"name": "echo",
		"code": map[core.FunctionName]Function{
			"say": func(ctx core.Context, args map[string]any) (any, error) { return nil, nil },
		},
	})
	assert.Error(t, err)
}

func TestSubmissionNameVisibleToContracts(t *testing.T) {
	rt := setupRuntime(t)

	require.NoError(t, rt.Deploy("inspect", map[core.FunctionName]Function{
		"submission_name": func(ctx core.Context, args map[string]any) (any, error) {
			return ctx.SubmissionName().String(), nil
		},
	}))

	result, err := rt.Execute("stu", "inspect", "submission_name", nil)
	require.NoError(t, err)
	assert.Equal(t, core.SubmissionName.String(), result)
}
