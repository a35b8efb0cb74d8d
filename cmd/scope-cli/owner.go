package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scopevm/vm/callctx"
	"github.com/scopevm/vm/core"
	"github.com/scopevm/vm/state"
)

var (
	ownerContract string
	ownerCaller   string
	ownerNew      string
	ownerStore    string
	ownerDBPath   string
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Inspect and change contract ownership",
}

var ownerGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show a contract's owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOwnerGet()
	},
}

var ownerSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set or clear a contract's owner, subject to the ownership gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOwnerSet()
	},
}

func init() {
	for _, cmd := range []*cobra.Command{ownerGetCmd, ownerSetCmd} {
		cmd.Flags().StringVar(&ownerContract, "contract", "", "contract name")
		cmd.Flags().StringVar(&ownerStore, "store", "db", "state store type (memory or db)")
		cmd.Flags().StringVar(&ownerDBPath, "db-path", "./state.db", "sqlite database path for the db store")
	}
	ownerSetCmd.Flags().StringVar(&ownerCaller, "caller", "", "identity performing the change")
	ownerSetCmd.Flags().StringVar(&ownerNew, "new-owner", "", "new owner identity, empty to clear")

	ownerCmd.AddCommand(ownerGetCmd)
	ownerCmd.AddCommand(ownerSetCmd)
}

func openStore() (state.Store, error) {
	return state.Get(state.StoreType(ownerStore), map[string]any{"db_path": ownerDBPath})
}

func runOwnerGet() error {
	if ownerContract == "" {
		return fmt.Errorf("contract is required")
	}
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}

	owner, err := store.GetOwner(core.Identity(ownerContract))
	if err != nil {
		return err
	}
	if owner == nil {
		fmt.Printf("%s has no owner (unrestricted)\n", ownerContract)
	} else {
		fmt.Printf("%s is owned by %s\n", ownerContract, owner)
	}
	return nil
}

func runOwnerSet() error {
	if ownerContract == "" {
		return fmt.Errorf("contract is required")
	}
	if ownerCaller == "" {
		return fmt.Errorf("caller is required")
	}
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	contract := core.Identity(ownerContract)

	// Same rule the runtime applies before any owned function runs
	current, err := store.GetOwner(contract)
	if err != nil {
		return err
	}
	if err := callctx.CheckOwner(current, core.Identity(ownerCaller)); err != nil {
		return err
	}

	if ownerNew == "" {
		if err := store.SetOwner(contract, nil); err != nil {
			return err
		}
		fmt.Printf("%s is now unrestricted\n", ownerContract)
		return nil
	}
	owner := core.Identity(ownerNew)
	if err := store.SetOwner(contract, &owner); err != nil {
		return err
	}
	fmt.Printf("%s is now owned by %s\n", ownerContract, ownerNew)
	return nil
}
