package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "strongbox",
		Short:        "Offline tooling for derived wallet addresses",
		SilenceUsage: true,
	}
	root.AddCommand(
		walletCmd(),
		proposalCmd(),
		subWalletCmd(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
