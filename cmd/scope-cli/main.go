package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register the state store backends
	_ "github.com/scopevm/vm/state/db"
	_ "github.com/scopevm/vm/state/memory"
)

var rootCmd = &cobra.Command{
	Use:   "scope-cli",
	Short: "Contract runtime command line tool",
	Long: `Contract runtime command line tool for invoking contract functions and
managing contract ownership against a persistent state store.`,
}

func init() {
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(ownerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
