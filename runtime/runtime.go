// Package runtime hosts deployed contracts and executes transactions
// against them, driving the context stack and the ownership gate around
// every invocation.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/scopevm/vm/callctx"
	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/repository"
	"github.com/scopevm/vm/state"
)

// Config represents runtime configuration
type Config struct {
	MaxCallDepth   int            // maximum inter-contract call nesting, DefaultMaxCallDepth when zero
	StoreType      string         // state store type
	StoreParams    map[string]any // state store parameters
	RepositoryDir  string         // contract metadata directory, disabled when empty
	SubmissionName core.Identity  // name of the deployment contract, core.SubmissionName when empty
}

// Runtime executes contract transactions. Contracts are Go values deployed
// under an identity; each transaction gets its own context stack, so one
// Runtime may process many transactions in parallel.
type Runtime struct {
	mu             sync.RWMutex
	store          state.Store
	contracts      map[core.Identity]*contract
	maxDepth       int
	submissionName core.Identity
	repo           *repository.Manager
}

// New creates a runtime from config.
func New(config *Config) (*Runtime, error) {
	if config == nil {
		return nil, fmt.Errorf("config is nil")
	}
	store, err := state.Get(state.StoreType(config.StoreType), config.StoreParams)
	if err != nil {
		return nil, fmt.Errorf("failed to get state store: %w", err)
	}
	rt := newRuntime(store, config.MaxCallDepth, config.SubmissionName)
	if config.RepositoryDir != "" {
		repo, err := repository.NewManager(config.RepositoryDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create repository: %w", err)
		}
		rt.repo = repo
	}
	return rt, nil
}

// NewWithStore creates a runtime on an existing store with default
// settings.
func NewWithStore(store state.Store) *Runtime {
	return newRuntime(store, 0, "")
}

func newRuntime(store state.Store, maxDepth int, submissionName core.Identity) *Runtime {
	if maxDepth < 1 {
		maxDepth = callctx.DefaultMaxCallDepth
	}
	if submissionName == core.ZeroIdentity {
		submissionName = core.SubmissionName
	}
	rt := &Runtime{
		store:          store,
		contracts:      make(map[core.Identity]*contract),
		maxDepth:       maxDepth,
		submissionName: submissionName,
	}
	// The submission contract is always present
	if err := rt.Deploy(rt.submissionName, &submissionContract{rt: rt}); err != nil {
		panic(err)
	}
	return rt
}

// Store returns the runtime's state store.
func (r *Runtime) Store() state.Store {
	return r.store
}

// SubmissionName returns the name of the deployment contract.
func (r *Runtime) SubmissionName() core.Identity {
	return r.submissionName
}

// Deploy registers a contract implementation under name. impl is either a
// map[core.FunctionName]Function or a Go value whose exported methods have
// the Function signature. A newly deployed contract has no owner; any
// caller may set one until the first set.
func (r *Runtime) Deploy(name core.Identity, impl any) error {
	if name == core.ZeroIdentity {
		return fmt.Errorf("contract name is empty")
	}
	c, err := newContract(name, impl)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.contracts[name]; exists {
		return fmt.Errorf("contract %s already exists", name)
	}
	r.contracts[name] = c

	if r.repo != nil {
		if err := r.repo.RegisterContract(name, c.functions()); err != nil {
			delete(r.contracts, name)
			return fmt.Errorf("failed to record deployment: %w", err)
		}
	}
	slog.Info("contract deployed", "name", name, "functions", len(c.functions()))
	return nil
}

// Execute runs one transaction: signer invokes function on the named
// contract. A fresh context stack lives for exactly this call tree and is
// discarded on return, success or failure; every failure path unwinds to
// depth one before the error is reported.
func (r *Runtime) Execute(signer, contractName core.Identity, function core.FunctionName, args map[string]any) (any, error) {
	tx := callctx.BeginWithDepth(signer, r.submissionName, contractName, function, r.maxDepth)
	defer tx.End()

	slog.Debug("transaction begin", "signer", signer, "contract", contractName, "function", function)
	result, err := r.invoke(tx, contractName, function, args)
	if err != nil {
		slog.Debug("transaction failed", "signer", signer, "contract", contractName, "function", function, "error", err)
		return nil, err
	}
	return result, nil
}

// invoke runs a function on the contract occupying the top stack frame.
// Callers guarantee the top frame's executing contract is contractName:
// Execute begins the stack with it, Call pushes it first.
func (r *Runtime) invoke(tx *callctx.Transaction, contractName core.Identity, function core.FunctionName, args map[string]any) (any, error) {
	r.mu.RLock()
	c, ok := r.contracts[contractName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("contract %s not found", contractName)
	}

	owner, err := r.store.GetOwner(contractName)
	if err != nil {
		return nil, fmt.Errorf("failed to read owner of %s: %w", contractName, err)
	}
	// The ownership gate runs before the function body
	if err := callctx.CheckOwner(owner, tx.Stack().Caller()); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", contractName, function, err)
	}

	fn, err := c.function(function)
	if err != nil {
		return nil, err
	}
	return fn(&execContext{rt: r, tx: tx}, args)
}
