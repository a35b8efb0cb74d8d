// Package sandbox hosts contracts compiled to WebAssembly. The host module
// exposes the context accessor surface to the guest, and cross-contract
// calls route back through the runtime so the context stack and ownership
// gate apply to wasm contracts exactly as to native ones.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/runtime"
)

// VM loads WebAssembly contract modules and turns them into runtime
// function tables.
type VM struct {
	contractDir string
}

// callParams is the JSON document passed to the module's
// handle_contract_call export.
type callParams struct {
	Function core.FunctionName `json:"function"`
	Args     map[string]any    `json:"args"`
}

// NewVM creates a wasm contract host. contractDir may be empty when
// contracts are loaded from memory only.
func NewVM(contractDir string) (*VM, error) {
	if contractDir != "" {
		if err := os.MkdirAll(contractDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create contract directory: %w", err)
		}
	}
	return &VM{contractDir: contractDir}, nil
}

// LoadContract compiles wasmCode and returns a function table suitable for
// runtime.Deploy. exports lists the wire-level function names the module
// answers through its handle_contract_call export; each invocation runs in
// a fresh module instance.
func (vm *VM) LoadContract(name core.Identity, wasmCode []byte, exports []core.FunctionName) (map[core.FunctionName]runtime.Function, error) {
	if len(exports) == 0 {
		return nil, fmt.Errorf("contract %s exports no functions", name)
	}

	// Compile once up front so a broken module fails at deploy time, not
	// on first call
	bg := context.Background()
	r := wazero.NewRuntime(bg)
	_, err := r.CompileModule(bg, wasmCode)
	r.Close(bg)
	if err != nil {
		return nil, fmt.Errorf("failed to compile WebAssembly module: %w", err)
	}

	fns := make(map[core.FunctionName]runtime.Function, len(exports))
	for _, fn := range exports {
		fn := fn
		fns[fn] = func(ctx core.Context, args map[string]any) (any, error) {
			return vm.invoke(ctx, wasmCode, fn, args)
		}
	}
	return fns, nil
}

// LoadContractFile is LoadContract reading the module from
// contractDir/<name>.wasm.
func (vm *VM) LoadContractFile(name core.Identity, exports []core.FunctionName) (map[core.FunctionName]runtime.Function, error) {
	if vm.contractDir == "" {
		return nil, fmt.Errorf("no contract directory configured")
	}
	wasmCode, err := os.ReadFile(filepath.Join(vm.contractDir, name.String()+".wasm"))
	if err != nil {
		return nil, fmt.Errorf("failed to read contract code: %w", err)
	}
	return vm.LoadContract(name, wasmCode, exports)
}

// invoke instantiates the module with host functions bound to ctx and runs
// one exported function through the shared buffer protocol.
func (vm *VM) invoke(ctx core.Context, wasmCode []byte, function core.FunctionName, args map[string]any) (any, error) {
	bg := context.Background()
	r := wazero.NewRuntime(bg)
	defer r.Close(bg)

	compiled, err := r.CompileModule(bg, wasmCode)
	if err != nil {
		return nil, fmt.Errorf("failed to compile WebAssembly module: %w", err)
	}

	if err := instantiateEnv(bg, r, ctx); err != nil {
		return nil, err
	}
	wasi_snapshot_preview1.MustInstantiate(bg, r)

	config := wazero.NewModuleConfig().
		WithName("contract").WithStdout(os.Stdout).WithStderr(os.Stderr)
	module, err := r.InstantiateModule(bg, compiled, config.WithStartFunctions("_initialize"))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	return callGuest(bg, module, function, args)
}

// instantiateEnv builds the env host module. Every identity accessor writes
// its value into guest memory at the pointer the guest passes and returns
// the written length.
func instantiateEnv(bg context.Context, r wazero.Runtime, ctx core.Context) error {
	builder := r.NewHostModuleBuilder("env")

	writeIdentity := func(get func() string) func(context.Context, api.Module, uint32) uint32 {
		return func(_ context.Context, m api.Module, bufPtr uint32) uint32 {
			value := get()
			if !m.Memory().Write(bufPtr, []byte(value)) {
				return 0
			}
			return uint32(len(value))
		}
	}

	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string { return ctx.Caller().String() })).
		Export("get_caller")
	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string { return ctx.Signer().String() })).
		Export("get_signer")
	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string { return ctx.This().String() })).
		Export("get_this")
	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string { return ctx.SubmissionName().String() })).
		Export("get_submission_name")
	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string {
			contract, _ := ctx.Entry()
			return contract.String()
		})).
		Export("get_entry_contract")
	builder.NewFunctionBuilder().
		WithFunc(writeIdentity(func() string {
			_, function := ctx.Entry()
			return function.String()
		})).
		Export("get_entry_function")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, bufPtr uint32) int32 {
			owner := ctx.Owner()
			if owner == nil {
				return -1
			}
			if !m.Memory().Write(bufPtr, []byte(owner.String())) {
				return -1
			}
			return int32(len(owner.String()))
		}).
		Export("get_owner")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) int32 {
			if length == 0 {
				if err := ctx.ChangeOwner(nil); err != nil {
					return -1
				}
				return 0
			}
			data, ok := m.Memory().Read(ptr, length)
			if !ok {
				return -1
			}
			owner := core.Identity(data)
			if err := ctx.ChangeOwner(&owner); err != nil {
				return -1
			}
			return 0
		}).
		Export("change_owner")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, keyPtr, keyLen, bufPtr uint32) int32 {
			key, ok := m.Memory().Read(keyPtr, keyLen)
			if !ok {
				return -1
			}
			value, err := ctx.Get(string(key))
			if err != nil || value == nil {
				return -1
			}
			if !m.Memory().Write(bufPtr, value) {
				return -1
			}
			return int32(len(value))
		}).
		Export("state_get")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, keyPtr, keyLen, valPtr, valLen uint32) int32 {
			key, ok := m.Memory().Read(keyPtr, keyLen)
			if !ok {
				return -1
			}
			value, ok := m.Memory().Read(valPtr, valLen)
			if !ok {
				return -1
			}
			if err := ctx.Set(string(key), value); err != nil {
				return -1
			}
			return 0
		}).
		Export("state_set")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, addrPtr, addrLen uint32) uint64 {
			addr, ok := m.Memory().Read(addrPtr, addrLen)
			if !ok {
				return 0
			}
			return ctx.Balance(core.Identity(addr))
		}).
		Export("get_balance")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, toPtr, toLen uint32, amount uint64) int32 {
			to, ok := m.Memory().Read(toPtr, toLen)
			if !ok {
				return -1
			}
			if err := ctx.Transfer(core.Identity(to), amount); err != nil {
				return -1
			}
			return 0
		}).
		Export("transfer")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, contractPtr, contractLen, fnPtr, fnLen, argsPtr, argsLen, bufPtr uint32) int32 {
			contract, ok := m.Memory().Read(contractPtr, contractLen)
			if !ok {
				return -1
			}
			function, ok := m.Memory().Read(fnPtr, fnLen)
			if !ok {
				return -1
			}
			var args map[string]any
			if argsLen > 0 {
				raw, ok := m.Memory().Read(argsPtr, argsLen)
				if !ok {
					return -1
				}
				if err := json.Unmarshal(raw, &args); err != nil {
					return -1
				}
			}

			result, err := ctx.Call(core.Identity(contract), core.FunctionName(function), args)
			if err != nil {
				return -1
			}
			if result == nil {
				return 0
			}
			data, err := json.Marshal(result)
			if err != nil {
				return -1
			}
			if !m.Memory().Write(bufPtr, data) {
				return -1
			}
			return int32(len(data))
		}).
		Export("call_contract")

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, msgPtr, msgLen uint32) {
			msg, ok := m.Memory().Read(msgPtr, msgLen)
			if !ok {
				return
			}
			ctx.Log("wasm_log", "message", string(msg))
		}).
		Export("log_message")

	if _, err := builder.Instantiate(bg); err != nil {
		return fmt.Errorf("failed to instantiate env module: %w", err)
	}
	return nil
}

// callGuest drives the guest's shared buffer protocol: allocate input,
// call handle_contract_call, read the result through get_buffer_address,
// deallocate.
func callGuest(bg context.Context, module api.Module, function core.FunctionName, args map[string]any) (any, error) {
	allocate := module.ExportedFunction("allocate")
	if allocate == nil {
		return nil, fmt.Errorf("allocate function not found")
	}
	handleCall := module.ExportedFunction("handle_contract_call")
	if handleCall == nil {
		return nil, fmt.Errorf("handle_contract_call not found")
	}

	input, err := json.Marshal(callParams{Function: function, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize call params: %w", err)
	}

	result, err := allocate.Call(bg, uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memory: %w", err)
	}
	inputAddr := uint32(result[0])

	if !module.Memory().Write(inputAddr, input) {
		return nil, fmt.Errorf("failed to write to memory")
	}

	result, err = handleCall.Call(bg, uint64(inputAddr), uint64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", function, err)
	}

	var out any
	resultLen := int32(result[0])
	if resultLen > 0 {
		getBufferAddress := module.ExportedFunction("get_buffer_address")
		if getBufferAddress == nil {
			return nil, fmt.Errorf("get_buffer_address function not found")
		}
		result, err = getBufferAddress.Call(bg)
		if err != nil {
			return nil, fmt.Errorf("get_buffer_address failed: %w", err)
		}
		bufferPtr := uint32(result[0])

		data, ok := module.Memory().Read(bufferPtr, uint32(resultLen))
		if !ok {
			return nil, fmt.Errorf("failed to read memory:%d, len:%d", bufferPtr, resultLen)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("failed to deserialize result: %w", err)
		}
	}

	if deallocate := module.ExportedFunction("deallocate"); deallocate != nil {
		if _, err := deallocate.Call(bg, uint64(inputAddr), uint64(len(input))); err != nil {
			return nil, fmt.Errorf("failed to free memory: %w", err)
		}
	}

	return out, nil
}
