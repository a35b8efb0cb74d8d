package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/runtime"
	"github.com/scopevm/vm/sandbox"
)

var (
	invokeSigner   string
	invokeContract string
	invokeFunction string
	invokeArgs     string
	invokeWasm     string
	invokeExports  []string
	invokeStore    string
	invokeDBPath   string
	invokeRepoDir  string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Execute a contract function as a transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvoke()
	},
}

func init() {
	invokeCmd.Flags().StringVar(&invokeSigner, "signer", "", "transaction signer identity")
	invokeCmd.Flags().StringVar(&invokeContract, "contract", "", "contract to invoke")
	invokeCmd.Flags().StringVar(&invokeFunction, "function", "", "function to invoke")
	invokeCmd.Flags().StringVar(&invokeArgs, "args", "", "function arguments as JSON")
	invokeCmd.Flags().StringVar(&invokeWasm, "wasm", "", "wasm module to deploy as the contract before invoking")
	invokeCmd.Flags().StringSliceVar(&invokeExports, "exports", nil, "wire-level function names the wasm module exports")
	invokeCmd.Flags().StringVar(&invokeStore, "store", "db", "state store type (memory or db)")
	invokeCmd.Flags().StringVar(&invokeDBPath, "db-path", "./state.db", "sqlite database path for the db store")
	invokeCmd.Flags().StringVar(&invokeRepoDir, "repo-dir", "", "contract metadata directory")
}

func runInvoke() error {
	if invokeSigner == "" {
		return fmt.Errorf("signer is required")
	}
	if invokeContract == "" {
		return fmt.Errorf("contract is required")
	}
	if invokeFunction == "" {
		return fmt.Errorf("function is required")
	}

	rt, err := runtime.New(&runtime.Config{
		StoreType:     invokeStore,
		StoreParams:   map[string]any{"db_path": invokeDBPath},
		RepositoryDir: invokeRepoDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}

	if invokeWasm != "" {
		wasmCode, err := os.ReadFile(invokeWasm)
		if err != nil {
			return fmt.Errorf("failed to read wasm module: %w", err)
		}
		vm, err := sandbox.NewVM("")
		if err != nil {
			return err
		}
		exports := make([]core.FunctionName, len(invokeExports))
		for i, name := range invokeExports {
			exports[i] = core.FunctionName(name)
		}
		fns, err := vm.LoadContract(core.Identity(invokeContract), wasmCode, exports)
		if err != nil {
			return fmt.Errorf("failed to load wasm contract: %w", err)
		}
		if err := rt.Deploy(core.Identity(invokeContract), fns); err != nil {
			return fmt.Errorf("failed to deploy contract: %w", err)
		}
	}

	var callArgs map[string]any
	if invokeArgs != "" {
		if err := json.Unmarshal([]byte(invokeArgs), &callArgs); err != nil {
			return fmt.Errorf("failed to parse args: %w", err)
		}
	}

	result, err := rt.Execute(core.Identity(invokeSigner), core.Identity(invokeContract),
		core.FunctionName(invokeFunction), callArgs)
	if err != nil {
		return fmt.Errorf("failed to execute contract: %w", err)
	}

	if result != nil {
		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Printf("Execution result:\n%s\n", string(resultJSON))
	} else {
		fmt.Println("Function executed successfully with no return value")
	}
	return nil
}
